package core

import (
	"sort"

	"github.com/gatefoundry/fpga-timing/model"
)

// PathHop is one connection on the critical path, from the driving cell's
// output through the routed net into the sink port.
type PathHop struct {
	Net        *model.Net
	DriverCell *model.Cell
	DriverPort string
	SinkCell   *model.Cell
	SinkPort   string

	// CombDelay is the delay through the driving cell to its output: the
	// clock-to-output delay for the first hop, the input-to-output arc
	// delay for later hops.
	CombDelay model.Delay
	// RouteDelay is the realized delay of the connection itself.
	RouteDelay model.Delay
	// CumulativeAtDriver and CumulativeAtSink accumulate the path delay
	// after the cell arc and after the route, respectively.
	CumulativeAtDriver model.Delay
	CumulativeAtSink   model.Delay
	// Budget is the deadline assigned to this connection.
	Budget model.Delay

	DriverLoc model.Loc
	SinkLoc   model.Loc
}

// Report is the output of an analysis pass.
type Report struct {
	Period   model.Delay
	MinSlack model.Delay
	// FmaxMHz is the achieved worst-case frequency estimate.
	FmaxMHz float64
	// Path is the critical path from origin to terminus; empty when the
	// design has no timing paths or capture was not requested.
	Path []PathHop
	// Histogram is the per-endpoint slack distribution, nil unless
	// requested.
	Histogram *Histogram
}

// reconstructPath rebuilds the critical path by starting at the terminus
// connection that realized the minimum slack and following the back-pointers
// the forward pass recorded, until it reaches an origin net.
func (e *Engine) reconstructPath(states map[*model.Net]*netState, res backwardResult) []PathHop {
	if res.terminus == nil {
		return nil
	}

	refs := []*model.PortRef{res.terminus}
	for cur := res.terminusNet; ; {
		nd := states[cur]
		if nd == nil || nd.critSink == nil {
			break
		}
		refs = append(refs, nd.critSink)
		cur = nd.critNet
	}
	// Back-pointers were collected terminus-first; the report reads from
	// the origin.
	for i, j := 0, len(refs)-1; i < j; i, j = i+1, j-1 {
		refs[i], refs[j] = refs[j], refs[i]
	}

	// The first hop's cell arc is the origin register's clock-to-output
	// delay, keyed by its clock domain.
	firstNet := refs[0].Cell.Ports[refs[0].Port].Net
	lastPort := ""
	if domain, ok := e.dm.PortClock(firstNet.Driver.Cell, firstNet.Driver.Port); ok {
		lastPort = string(domain)
	}

	hops := make([]PathHop, 0, len(refs))
	var total model.Delay
	for _, ref := range refs {
		net := ref.Cell.Ports[ref.Port].Net
		driver := net.Driver

		combDelay, _ := e.dm.CellDelay(driver.Cell, lastPort, driver.Port)
		total += combDelay
		cumAtDriver := total

		routeDelay, _ := e.realizedDelay(net, ref, true)
		total += routeDelay

		hops = append(hops, PathHop{
			Net:                net,
			DriverCell:         driver.Cell,
			DriverPort:         driver.Port,
			SinkCell:           ref.Cell,
			SinkPort:           ref.Port,
			CombDelay:          combDelay,
			RouteDelay:         routeDelay,
			CumulativeAtDriver: cumAtDriver,
			CumulativeAtSink:   total,
			Budget:             ref.Budget,
			DriverLoc:          driver.Cell.Loc,
			SinkLoc:            ref.Cell.Loc,
		})
		lastPort = ref.Port
	}
	return hops
}

// Histogram is a fixed-bin distribution of per-endpoint slack, in
// picoseconds. Bins are equal-width and span [MinPs, MinPs+BinSizePs*len].
type Histogram struct {
	MinPs     int
	BinSizePs int
	Counts    []uint
}

// NewHistogram buckets slack samples (slack ps → occurrence count) into
// numBins equal-width bins spanning the observed sample range. Counts are
// conserved: samples past the top edge land in the last bin. Returns nil for
// an empty sample set.
func NewHistogram(samples map[int]uint, numBins int) *Histogram {
	if len(samples) == 0 || numBins <= 0 {
		return nil
	}

	keys := make([]int, 0, len(samples))
	for k := range samples {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	minPs, maxPs := keys[0], keys[len(keys)-1]

	binSize := (maxPs - minPs) / numBins
	if binSize == 0 {
		binSize = 1
	}

	h := &Histogram{
		MinPs:     minPs,
		BinSizePs: binSize,
		Counts:    make([]uint, numBins+1),
	}
	for _, k := range keys {
		idx := (k - minPs) / binSize
		if idx >= len(h.Counts) {
			idx = len(h.Counts) - 1
		}
		h.Counts[idx] += samples[k]
	}
	return h
}

// MaxCount is the highest bin occupancy, used to scale rendered bars.
func (h *Histogram) MaxCount() uint {
	var max uint
	for _, c := range h.Counts {
		if c > max {
			max = c
		}
	}
	return max
}

// BinRange returns the [lo, hi) slack edges of bin i in picoseconds.
func (h *Histogram) BinRange(i int) (int, int) {
	lo := h.MinPs + h.BinSizePs*i
	return lo, lo + h.BinSizePs
}

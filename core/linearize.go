package core

import (
	"fmt"
	"sort"

	"github.com/gatefoundry/fpga-timing/model"
)

// CycleError reports a combinational dependency cycle: the ready-queue
// drained while at least one output port still waited on an input. Cell and
// Port name one blocked output; Blocked is the total count.
type CycleError struct {
	Cell    string
	Port    string
	Blocked int
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("combinational cycle: output %s.%s never became ready (%d blocked output(s))",
		e.Cell, e.Port, e.Blocked)
}

// InconsistentModelError reports a contradiction between the delay model and
// the netlist, e.g. a combinational path into an output port that is not
// bound to any net.
type InconsistentModelError struct {
	Cell   string
	Port   string
	Reason string
}

func (e *InconsistentModelError) Error() string {
	return fmt.Sprintf("inconsistent delay model at %s.%s: %s", e.Cell, e.Port, e.Reason)
}

// netState is the per-net working record for one pass. It is keyed by net
// identity in a short-lived map and discarded when the pass ends, so no
// stale timing data survives on the netlist itself.
type netState struct {
	maxArrival         model.Delay
	maxPathLength      uint32
	minRemainingBudget model.Delay

	// Back-pointer to the connection that produced maxArrival, recorded
	// only when critical-path capture is requested.
	critSink *model.PortRef
	critNet  *model.Net
}

// linearize orders nets so that every net appears after all nets that
// combinationally drive it. Clocked ports are barriers, not edges: paths
// originate at clocked or boundary outputs and stop at clocked inputs.
//
// Outputs with no combinational fan-in at all (constant generators,
// unclocked sources) are seeded as zero-arrival origins alongside boundary
// cells, so they cannot masquerade as cycle members.
func (e *Engine) linearize() ([]*model.Net, map[*model.Net]*netState, error) {
	order := make([]*model.Net, 0, e.nl.NetCount())
	states := make(map[*model.Net]*netState, e.nl.NetCount())
	portFanin := make(map[*model.Port]int)

	// Seed origins and count per-output combinational fan-in.
	for _, cell := range e.nl.Cells() {
		isBoundary := e.dm.IsBoundary(cell)

		var inputs []string
		var outputs []*model.Port
		for _, name := range sortedPortNames(cell) {
			port := cell.Ports[name]
			if port.Net == nil {
				continue
			}
			if port.Dir == model.DirOut {
				outputs = append(outputs, port)
			} else {
				inputs = append(inputs, name)
			}
		}

		for _, o := range outputs {
			if domain, clocked := e.dm.PortClock(cell, o.Name); clocked {
				clkToQ, _ := e.dm.CellDelay(cell, string(domain), o.Name)
				order = append(order, o.Net)
				states[o.Net] = &netState{maxArrival: clkToQ}
				continue
			}
			fanin := 0
			for _, i := range inputs {
				if _, isPath := e.dm.CellDelay(cell, i, o.Name); isPath {
					fanin++
				}
			}
			if fanin == 0 || isBoundary {
				// No combinational dependencies: path origin.
				order = append(order, o.Net)
				states[o.Net] = &netState{}
				continue
			}
			portFanin[o] = fanin
		}
	}

	// Kahn's algorithm over the Net → Cell → Net dependency graph.
	queue := make([]*model.Net, len(order))
	copy(queue, order)

	for len(queue) > 0 {
		net := queue[0]
		queue = queue[1:]

		for _, usr := range net.Users {
			if _, clocked := e.dm.PortClock(usr.Cell, usr.Port); clocked {
				// Path terminus; no combinational fanout is followed.
				continue
			}
			for _, name := range sortedPortNames(usr.Cell) {
				port := usr.Cell.Ports[name]
				if port.Dir != model.DirOut {
					continue
				}
				if _, isPath := e.dm.CellDelay(usr.Cell, usr.Port, name); !isPath {
					continue
				}
				if port.Net == nil {
					return nil, nil, &InconsistentModelError{
						Cell:   usr.Cell.Name,
						Port:   name,
						Reason: "combinational path into an output with no bound net",
					}
				}
				remaining, tracked := portFanin[port]
				if !tracked {
					if _, seeded := states[port.Net]; seeded {
						// Already an origin (boundary or clocked output);
						// nothing left to unblock.
						continue
					}
					return nil, nil, &InconsistentModelError{
						Cell:   usr.Cell.Name,
						Port:   name,
						Reason: "combinational path into an output missing from the fan-in table",
					}
				}
				remaining--
				if remaining == 0 {
					delete(portFanin, port)
					order = append(order, port.Net)
					queue = append(queue, port.Net)
					states[port.Net] = &netState{}
				} else {
					portFanin[port] = remaining
				}
			}
		}
	}

	if len(portFanin) > 0 {
		return nil, nil, e.cycleErrorFrom(portFanin)
	}
	return order, states, nil
}

// cycleErrorFrom names an output port on the cycle itself. Every blocked
// output is either on a cycle or strictly downstream of one, so walking
// blocked predecessors must eventually revisit a port, and that port lies on
// a cycle. The walk starts from a deterministic representative so the
// diagnostic is stable across runs.
func (e *Engine) cycleErrorFrom(portFanin map[*model.Port]int) *CycleError {
	var start *model.Port
	for port := range portFanin {
		if start == nil || lessOwner(port, start) {
			start = port
		}
	}

	visited := make(map[*model.Port]bool)
	cur := start
	for !visited[cur] {
		visited[cur] = true
		next := e.blockedPredecessor(cur, portFanin)
		if next == nil {
			break
		}
		cur = next
	}

	driver := cur.Net.Driver
	return &CycleError{Cell: driver.Cell.Name, Port: driver.Port, Blocked: len(portFanin)}
}

// blockedPredecessor finds an upstream output port that is keeping out from
// becoming ready, or nil if none of its combinational inputs is blocked.
func (e *Engine) blockedPredecessor(out *model.Port, portFanin map[*model.Port]int) *model.Port {
	cell := out.Net.Driver.Cell
	outName := out.Net.Driver.Port
	for _, name := range sortedPortNames(cell) {
		in := cell.Ports[name]
		if in.Dir != model.DirIn || in.Net == nil {
			continue
		}
		if _, isPath := e.dm.CellDelay(cell, name, outName); !isPath {
			continue
		}
		drv := in.Net.Driver
		if drv.Cell == nil {
			continue
		}
		drvPort := drv.Cell.Ports[drv.Port]
		if _, blocked := portFanin[drvPort]; blocked {
			return drvPort
		}
	}
	return nil
}

func lessOwner(a, b *model.Port) bool {
	ac, bc := a.Net.Driver.Cell.Name, b.Net.Driver.Cell.Name
	if ac != bc {
		return ac < bc
	}
	return a.Net.Driver.Port < b.Net.Driver.Port
}

func sortedPortNames(cell *model.Cell) []string {
	names := make([]string, 0, len(cell.Ports))
	for name := range cell.Ports {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// core/tablemodel.go
package core

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/gatefoundry/fpga-timing/model"
)

// TableModel is a DelayModel backed by per-cell-type lookup tables, loadable
// from JSON. Cell-internal arcs and clock bindings are keyed by cell type;
// route delays and budget overrides are keyed by individual connection.
// Connections without a recorded route delay fall back to a Manhattan
// estimate between the driver and sink placement locations.
type TableModel struct {
	arcs      map[string]map[string]map[string]model.Delay // cell type → from → to
	clocks    map[string]map[string]model.ClockID          // cell type → port → domain
	boundary  map[string]bool                              // boundary cell types
	routes    map[string]model.Delay                       // connection key → routed delay
	overrides map[string]model.Delay                       // connection key → pinned delay

	// UnitRouteDelay is the estimated delay per placement-grid unit, used
	// when a connection has no recorded route delay.
	UnitRouteDelay model.Delay
}

// NewTableModel creates an empty table model.
func NewTableModel() *TableModel {
	return &TableModel{
		arcs:      make(map[string]map[string]map[string]model.Delay),
		clocks:    make(map[string]map[string]model.ClockID),
		boundary:  make(map[string]bool),
		routes:    make(map[string]model.Delay),
		overrides: make(map[string]model.Delay),
	}
}

// SetArc records a cell-internal delay arc for a cell type. Clock-to-output
// arcs use the clock domain name as the "from" side.
func (tm *TableModel) SetArc(cellType, from, to string, d model.Delay) {
	byFrom, ok := tm.arcs[cellType]
	if !ok {
		byFrom = make(map[string]map[string]model.Delay)
		tm.arcs[cellType] = byFrom
	}
	byTo, ok := byFrom[from]
	if !ok {
		byTo = make(map[string]model.Delay)
		byFrom[from] = byTo
	}
	byTo[to] = d
}

// SetClock marks a port of a cell type as synchronized to a clock domain.
func (tm *TableModel) SetClock(cellType, port string, domain model.ClockID) {
	byPort, ok := tm.clocks[cellType]
	if !ok {
		byPort = make(map[string]model.ClockID)
		tm.clocks[cellType] = byPort
	}
	byPort[port] = domain
}

// SetBoundary marks a cell type as an I/O boundary pseudo-cell.
func (tm *TableModel) SetBoundary(cellType string) {
	tm.boundary[cellType] = true
}

// SetRouteDelay records the routed delay of one connection.
func (tm *TableModel) SetRouteDelay(netName, cellName, portName string, d model.Delay) {
	tm.routes[connKey(netName, cellName, portName)] = d
}

// SetOverride pins the delay of one connection.
func (tm *TableModel) SetOverride(netName, cellName, portName string, d model.Delay) {
	tm.overrides[connKey(netName, cellName, portName)] = d
}

func connKey(netName, cellName, portName string) string {
	return netName + "\x00" + cellName + "." + portName
}

//
// ---------- DelayModel ----------
//

func (tm *TableModel) CellDelay(cell *model.Cell, fromPort, toPort string) (model.Delay, bool) {
	if cell == nil {
		return 0, false
	}
	d, ok := tm.arcs[cell.Type][fromPort][toPort]
	return d, ok
}

func (tm *TableModel) PortClock(cell *model.Cell, port string) (model.ClockID, bool) {
	if cell == nil {
		return "", false
	}
	domain, ok := tm.clocks[cell.Type][port]
	return domain, ok
}

func (tm *TableModel) RouteDelay(net *model.Net, sink *model.PortRef) model.Delay {
	if net == nil || sink == nil {
		return 0
	}
	if d, ok := tm.routes[connKey(net.Name, sink.Cell.Name, sink.Port)]; ok {
		return d
	}
	if net.Driver.Cell == nil {
		return 0
	}
	return tm.UnitRouteDelay * model.Delay(manhattan(net.Driver.Cell.Loc, sink.Cell.Loc))
}

func (tm *TableModel) BudgetOverride(net *model.Net, sink *model.PortRef) (model.Delay, bool) {
	if net == nil || sink == nil {
		return 0, false
	}
	d, ok := tm.overrides[connKey(net.Name, sink.Cell.Name, sink.Port)]
	return d, ok
}

func (tm *TableModel) IsBoundary(cell *model.Cell) bool {
	return cell != nil && tm.boundary[cell.Type]
}

func manhattan(a, b model.Loc) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

//
// ---------- JSON loading ----------
//

type delayTableJSON struct {
	UnitRouteDelayPs int64                   `json:"unit_route_delay_ps"`
	CellTypes        map[string]cellTypeJSON `json:"cell_types"`
	Routes           []connectionDelayJSON   `json:"routes"`
	Overrides        []connectionDelayJSON   `json:"overrides"`
}

type cellTypeJSON struct {
	Boundary bool                        `json:"boundary"`
	Clocks   map[string]string           `json:"clocks"` // port → clock domain
	Arcs     map[string]map[string]int64 `json:"arcs"`   // from → to → ps
}

type connectionDelayJSON struct {
	Net     string `json:"net"`
	Cell    string `json:"cell"`
	Port    string `json:"port"`
	DelayPs int64  `json:"delay_ps"`
}

// LoadDelayTable reads a delay table from r.
func LoadDelayTable(r io.Reader) (*TableModel, error) {
	var payload delayTableJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("LoadDelayTable: decode failed: %w", err)
	}

	tm := NewTableModel()
	tm.UnitRouteDelay = model.Delay(payload.UnitRouteDelayPs)

	for cellType, jsType := range payload.CellTypes {
		if jsType.Boundary {
			tm.SetBoundary(cellType)
		}
		for port, domain := range jsType.Clocks {
			tm.SetClock(cellType, port, model.ClockID(domain))
		}
		for from, byTo := range jsType.Arcs {
			for to, ps := range byTo {
				tm.SetArc(cellType, from, to, model.Delay(ps))
			}
		}
	}
	for _, js := range payload.Routes {
		tm.SetRouteDelay(js.Net, js.Cell, js.Port, model.Delay(js.DelayPs))
	}
	for _, js := range payload.Overrides {
		tm.SetOverride(js.Net, js.Cell, js.Port, model.Delay(js.DelayPs))
	}
	return tm, nil
}

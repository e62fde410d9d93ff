package netlist

import (
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"sync"

	"github.com/gatefoundry/fpga-timing/model"
)

var (
	ErrCellExists   = errors.New("cell already exists")
	ErrCellNotFound = errors.New("cell not found")
	ErrCellBadInput = errors.New("invalid cell")
	ErrNetExists    = errors.New("net already exists")
	ErrNetNotFound  = errors.New("net not found")
	ErrNetBadInput  = errors.New("invalid net")
	ErrPortNotFound = errors.New("port not found")
	ErrPortBound    = errors.New("port already bound")
	ErrNetDriven    = errors.New("net already has a driver")
)

// Netlist is the arena for cells and nets, addressed by name. Ports live
// inside their owning cell; nets reference (cell, port) pairs rather than
// owning them, so the object graph stays navigable in both directions
// without ownership cycles.
//
// NOTE: guarded by an internal RWMutex so a driver can safely inspect the
// netlist from another goroutine (e.g. a metrics endpoint) between passes.
// One timing pass holds a consistent snapshot because nothing mutates the
// structure mid-pass; only sink budgets are written, by the pass itself.
type Netlist struct {
	mu    sync.RWMutex
	cells map[string]*model.Cell
	nets  map[string]*model.Net
}

// New creates an empty netlist.
func New() *Netlist {
	return &Netlist{
		cells: make(map[string]*model.Cell),
		nets:  make(map[string]*model.Net),
	}
}

//
// ---------- Cells ----------
//

func (nl *Netlist) AddCell(cell *model.Cell) error {
	if cell == nil || cell.Name == "" {
		return fmt.Errorf("%w", ErrCellBadInput)
	}
	if cell.Ports == nil {
		cell.Ports = make(map[string]*model.Port)
	}

	nl.mu.Lock()
	defer nl.mu.Unlock()

	if _, exists := nl.cells[cell.Name]; exists {
		return fmt.Errorf("%w: %q", ErrCellExists, cell.Name)
	}
	nl.cells[cell.Name] = cell
	return nil
}

// Cell returns a cell by name, or nil if not found.
func (nl *Netlist) Cell(name string) *model.Cell {
	nl.mu.RLock()
	defer nl.mu.RUnlock()
	return nl.cells[name]
}

// Cells returns all cells sorted by name. Sorted enumeration keeps pass
// ordering, and therefore critical-path tie-breaking, reproducible.
func (nl *Netlist) Cells() []*model.Cell {
	nl.mu.RLock()
	defer nl.mu.RUnlock()

	out := make([]*model.Cell, 0, len(nl.cells))
	for _, c := range nl.cells {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// CellCount returns the number of cells.
func (nl *Netlist) CellCount() int {
	nl.mu.RLock()
	defer nl.mu.RUnlock()
	return len(nl.cells)
}

//
// ---------- Nets ----------
//

func (nl *Netlist) AddNet(net *model.Net) error {
	if net == nil || net.Name == "" {
		return fmt.Errorf("%w", ErrNetBadInput)
	}

	nl.mu.Lock()
	defer nl.mu.Unlock()

	if _, exists := nl.nets[net.Name]; exists {
		return fmt.Errorf("%w: %q", ErrNetExists, net.Name)
	}
	nl.nets[net.Name] = net
	return nil
}

// Net returns a net by name, or nil if not found.
func (nl *Netlist) Net(name string) *model.Net {
	nl.mu.RLock()
	defer nl.mu.RUnlock()
	return nl.nets[name]
}

// Nets returns all nets sorted by name.
func (nl *Netlist) Nets() []*model.Net {
	nl.mu.RLock()
	defer nl.mu.RUnlock()

	out := make([]*model.Net, 0, len(nl.nets))
	for _, n := range nl.nets {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// NetCount returns the number of nets.
func (nl *Netlist) NetCount() int {
	nl.mu.RLock()
	defer nl.mu.RUnlock()
	return len(nl.nets)
}

//
// ---------- Connectivity ----------
//

// AddPort declares a port on an existing cell. Ports start unbound.
func (nl *Netlist) AddPort(cellName, portName string, dir model.PortDir) error {
	if portName == "" {
		return fmt.Errorf("%w: empty port name on cell %q", ErrCellBadInput, cellName)
	}

	nl.mu.Lock()
	defer nl.mu.Unlock()

	cell, ok := nl.cells[cellName]
	if !ok {
		return fmt.Errorf("%w: %q", ErrCellNotFound, cellName)
	}
	if _, exists := cell.Ports[portName]; exists {
		return fmt.Errorf("%w: %s.%s", ErrPortBound, cellName, portName)
	}
	cell.Ports[portName] = &model.Port{Name: portName, Dir: dir}
	return nil
}

// Connect binds a declared port to a net. Output ports become the net's
// driver (at most one); input ports are appended as sink usages, with the
// budget initialised to the loosest possible value.
func (nl *Netlist) Connect(cellName, portName, netName string) error {
	nl.mu.Lock()
	defer nl.mu.Unlock()

	cell, ok := nl.cells[cellName]
	if !ok {
		return fmt.Errorf("%w: %q", ErrCellNotFound, cellName)
	}
	port, ok := cell.Ports[portName]
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrPortNotFound, cellName, portName)
	}
	if port.Net != nil {
		return fmt.Errorf("%w: %s.%s", ErrPortBound, cellName, portName)
	}
	net, ok := nl.nets[netName]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNetNotFound, netName)
	}

	if port.Dir == model.DirOut {
		if net.Driver.Cell != nil {
			return fmt.Errorf("%w: %q driven by %s.%s", ErrNetDriven, netName,
				net.Driver.Cell.Name, net.Driver.Port)
		}
		net.Driver = model.PortRef{Cell: cell, Port: portName}
	} else {
		net.Users = append(net.Users, &model.PortRef{
			Cell:   cell,
			Port:   portName,
			Budget: model.MaxDelay,
		})
	}
	port.Net = net
	return nil
}

// ResetBudgets loosens every sink budget back to the maximum representable
// delay, so the next budgeting pass starts from a clean slate.
func (nl *Netlist) ResetBudgets() {
	nl.mu.Lock()
	defer nl.mu.Unlock()

	for _, net := range nl.nets {
		for _, usr := range net.Users {
			usr.Budget = model.MaxDelay
		}
	}
}

// Checksum digests net connectivity and assigned budgets. It is logged after
// budgeting so repeated runs over the same design can be compared cheaply.
func (nl *Netlist) Checksum() uint32 {
	nl.mu.RLock()
	defer nl.mu.RUnlock()

	names := make([]string, 0, len(nl.nets))
	for name := range nl.nets {
		names = append(names, name)
	}
	sort.Strings(names)

	h := fnv.New32a()
	for _, name := range names {
		net := nl.nets[name]
		fmt.Fprintf(h, "%s|", name)
		if net.Driver.Cell != nil {
			fmt.Fprintf(h, "%s.%s|", net.Driver.Cell.Name, net.Driver.Port)
		}
		for _, usr := range net.Users {
			fmt.Fprintf(h, "%s.%s=%d|", usr.Cell.Name, usr.Port, usr.Budget)
		}
	}
	return h.Sum32()
}

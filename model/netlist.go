package model

// PortDir is the direction of a cell port.
type PortDir int

const (
	DirIn  PortDir = iota // consumes a net value
	DirOut                // drives a net
)

// Loc is a placement-grid coordinate for a cell. Route-delay estimation and
// the critical-path report use it; the engine itself never interprets it.
type Loc struct {
	X int
	Y int
}

// Cell is a placed logic primitive. It owns its ports, keyed by port name.
// Whether a port is clocked, and which input/output pairs have combinational
// paths, are delay-model facts, not stored here.
type Cell struct {
	Name string
	Type string // primitive kind, e.g. "DFF", "LUT4", "IOB"
	Loc  Loc

	Ports map[string]*Port
}

// Port belongs to exactly one Cell. Net is a weak back-reference: the net
// owns the connection lists, the port only records what it is bound to.
type Port struct {
	Name string
	Dir  PortDir
	Net  *Net // nil when unbound
}

// PortRef identifies a (cell, port) usage of a net. For sink usages it
// carries the connection's timing budget: the maximum delay this connection
// may consume without the design missing its target period.
//
// Budget only ever tightens: every pass applies min(old, computed).
type PortRef struct {
	Cell *Cell
	Port string

	Budget Delay
}

// Net connects one driver to zero or more sinks. A net with no driver or no
// sinks is valid but contributes nothing to timing propagation.
type Net struct {
	Name   string
	Driver PortRef
	Users  []*PortRef
}

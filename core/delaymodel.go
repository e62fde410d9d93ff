package core

import "github.com/gatefoundry/fpga-timing/model"

// DelayModel answers the physical timing questions the engine needs. The
// engine treats it as an oracle: port roles (clocked or not, overridden or
// not) are derived from these answers alone, never inferred from netlist
// state.
type DelayModel interface {
	// CellDelay reports the worst-case delay of a path internal to a cell,
	// from one port to another. For combinational cells the pair is
	// (input, output); for clocked outputs the "from" side is the clock
	// domain name and the result is the clock-to-output delay. ok is false
	// when the cell has no such path.
	CellDelay(cell *model.Cell, fromPort, toPort string) (d model.Delay, ok bool)

	// PortClock reports the clock domain a port is synchronized to, if any.
	// A clocked input terminates a timing path; a clocked output originates
	// one.
	PortClock(cell *model.Cell, port string) (domain model.ClockID, ok bool)

	// RouteDelay is the realized (routed) or estimated delay of one
	// connection from the net's driver to the given sink.
	RouteDelay(net *model.Net, sink *model.PortRef) model.Delay

	// BudgetOverride returns an externally pinned delay for one connection.
	// A pinned connection uses this value verbatim as its realized delay,
	// receives no proportional slack share, and does not count as a hop in
	// the path-length denominator.
	BudgetOverride(net *model.Net, sink *model.PortRef) (d model.Delay, ok bool)

	// IsBoundary reports whether a cell is an I/O boundary pseudo-cell,
	// whose outputs originate timing paths with zero arrival.
	IsBoundary(cell *model.Cell) bool
}

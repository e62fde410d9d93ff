package core

import "github.com/gatefoundry/fpga-timing/model"

// forward walks the linear order computing, per net, the worst-case arrival
// time and the longest combinational hop count from any path origin. When
// capturePath is set it also records which connection produced each net's
// arrival maximum, for later critical-path reconstruction.
func (e *Engine) forward(order []*model.Net, states map[*model.Net]*netState, netDelays, capturePath bool) {
	for _, net := range order {
		nd := states[net]
		netArrival := nd.maxArrival
		lengthPlusOne := nd.maxPathLength + 1

		for _, usr := range net.Users {
			if _, clocked := e.dm.PortClock(usr.Cell, usr.Port); clocked {
				// Registered sink: the path ends here for this phase.
				continue
			}
			delay, overridden := e.realizedDelay(net, usr, netDelays)
			usrArrival := netArrival + delay

			for _, name := range sortedPortNames(usr.Cell) {
				port := usr.Cell.Ports[name]
				if port.Dir != model.DirOut || port.Net == nil {
					continue
				}
				combDelay, isPath := e.dm.CellDelay(usr.Cell, usr.Port, name)
				if !isPath {
					continue
				}
				dst := states[port.Net]
				if dst == nil {
					continue
				}
				if arrival := usrArrival + combDelay; arrival > dst.maxArrival {
					dst.maxArrival = arrival
					if capturePath {
						dst.critSink = usr
						dst.critNet = net
					}
				} else if capturePath && dst.critSink == nil && arrival == dst.maxArrival {
					// All-zero-delay chains still need a back-pointer.
					dst.critSink = usr
					dst.critNet = net
				}
				// Pinned connections carry arrival but are not hops in the
				// even-share denominator.
				if !overridden && lengthPlusOne > dst.maxPathLength {
					dst.maxPathLength = lengthPlusOne
				}
			}
		}
	}
}

// realizedDelay is the delay one connection actually consumes: the pinned
// override when present, otherwise the routed/estimated delay, or zero when
// route delays are not yet meaningful (no routing iteration has run).
func (e *Engine) realizedDelay(net *model.Net, usr *model.PortRef, netDelays bool) (model.Delay, bool) {
	if d, ok := e.dm.BudgetOverride(net, usr); ok {
		return d, true
	}
	if !netDelays {
		return 0, false
	}
	return e.dm.RouteDelay(net, usr), false
}

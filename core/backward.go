package core

import "github.com/gatefoundry/fpga-timing/model"

// backwardResult carries what the reverse pass learned about the design as a
// whole. Terminus is the clocked connection that realized MinSlack; it is nil
// when the design has no timing paths.
type backwardResult struct {
	minSlack    model.Delay
	terminus    *model.PortRef
	terminusNet *model.Net
	endpoints   int
}

// backward walks the order in reverse, distributing the slack of each path
// evenly across its non-pinned hops. Each connection's budget is tightened to
// its realized delay plus its share; pinned connections get a zero share.
// Reverse order guarantees a net's downstream remaining budget is final
// before any upstream predecessor reads it.
func (e *Engine) backward(
	order []*model.Net,
	states map[*model.Net]*netState,
	period model.Delay,
	netDelays, update bool,
	histogram map[int]uint,
) backwardResult {
	res := backwardResult{minSlack: period}

	for i := len(order) - 1; i >= 0; i-- {
		net := order[i]
		nd := states[net]
		nd.minRemainingBudget = period
		lengthPlusOne := model.Delay(nd.maxPathLength + 1)

		for _, usr := range net.Users {
			delay, overridden := e.realizedDelay(net, usr, netDelays)

			if _, clocked := e.dm.PortClock(usr.Cell, usr.Port); clocked {
				// Path terminus: whatever is left of the period after the
				// arrival at this register is the path's slack.
				pathBudget := period - (nd.maxArrival + delay)
				share := pathBudget / lengthPlusOne
				if overridden {
					share = 0
				}
				if update && delay+share < usr.Budget {
					usr.Budget = delay + share
				}
				if pathBudget-share < nd.minRemainingBudget {
					nd.minRemainingBudget = pathBudget - share
				}
				if pathBudget < res.minSlack {
					res.minSlack = pathBudget
					res.terminus = usr
					res.terminusNet = net
				}
				res.endpoints++
				if histogram != nil {
					histogram[int(pathBudget)]++
				}
				continue
			}

			// Intermediate sink: pull the tightest remaining budget from
			// every downstream net this connection feeds.
			for _, name := range sortedPortNames(usr.Cell) {
				port := usr.Cell.Ports[name]
				if port.Dir != model.DirOut || port.Net == nil {
					continue
				}
				if _, isPath := e.dm.CellDelay(usr.Cell, usr.Port, name); !isPath {
					continue
				}
				ds := states[port.Net]
				if ds == nil {
					continue
				}
				pathBudget := ds.minRemainingBudget
				share := pathBudget / lengthPlusOne
				if overridden {
					share = 0
				}
				if update && delay+share < usr.Budget {
					usr.Budget = delay + share
				}
				if pathBudget-share < nd.minRemainingBudget {
					nd.minRemainingBudget = pathBudget - share
				}
			}
		}
	}
	return res
}

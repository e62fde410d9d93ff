package core

import (
	"strings"
	"testing"

	"github.com/gatefoundry/fpga-timing/model"
)

func TestTableModel_Lookups(t *testing.T) {
	tm := NewTableModel()
	tm.SetArc("LUT2", "A", "Z", 1280)
	tm.SetClock("DFF", "D", "clk")
	tm.SetBoundary("IOB")

	lut := &model.Cell{Name: "u1", Type: "LUT2"}
	ff := &model.Cell{Name: "u2", Type: "DFF"}
	pad := &model.Cell{Name: "u3", Type: "IOB"}

	if d, ok := tm.CellDelay(lut, "A", "Z"); !ok || d != 1280 {
		t.Errorf("CellDelay(A, Z) = %d, %v, want 1280, true", d, ok)
	}
	if _, ok := tm.CellDelay(lut, "B", "Z"); ok {
		t.Error("CellDelay(B, Z) should miss")
	}
	if _, ok := tm.CellDelay(nil, "A", "Z"); ok {
		t.Error("CellDelay(nil) should miss")
	}

	if domain, ok := tm.PortClock(ff, "D"); !ok || domain != "clk" {
		t.Errorf("PortClock(D) = %q, %v, want clk, true", domain, ok)
	}
	if _, ok := tm.PortClock(lut, "A"); ok {
		t.Error("PortClock on a combinational port should miss")
	}

	if !tm.IsBoundary(pad) || tm.IsBoundary(ff) || tm.IsBoundary(nil) {
		t.Error("IsBoundary misclassified a cell")
	}
}

func TestTableModel_RouteDelayFallback(t *testing.T) {
	tm := NewTableModel()
	tm.UnitRouteDelay = 100

	drv := &model.Cell{Name: "a", Type: "DFF", Loc: model.Loc{X: 0, Y: 0}}
	snk := &model.Cell{Name: "b", Type: "DFF", Loc: model.Loc{X: 3, Y: 4}}
	net := &model.Net{Name: "w", Driver: model.PortRef{Cell: drv, Port: "Q"}}
	sink := &model.PortRef{Cell: snk, Port: "D"}
	net.Users = append(net.Users, sink)

	// No recorded route: Manhattan distance 7 at 100 ps per unit.
	if d := tm.RouteDelay(net, sink); d != 700 {
		t.Errorf("estimated RouteDelay = %d, want 700", d)
	}

	// A recorded route wins over the estimate.
	tm.SetRouteDelay("w", "b", "D", 450)
	if d := tm.RouteDelay(net, sink); d != 450 {
		t.Errorf("recorded RouteDelay = %d, want 450", d)
	}

	// Undriven nets cannot be estimated.
	floating := &model.Net{Name: "f", Users: []*model.PortRef{sink}}
	if d := tm.RouteDelay(floating, sink); d != 0 {
		t.Errorf("undriven RouteDelay = %d, want 0", d)
	}
}

func TestTableModel_Overrides(t *testing.T) {
	tm := NewTableModel()
	snk := &model.Cell{Name: "b", Type: "DFF"}
	net := &model.Net{Name: "w"}
	sink := &model.PortRef{Cell: snk, Port: "D"}

	if _, ok := tm.BudgetOverride(net, sink); ok {
		t.Error("BudgetOverride should miss before SetOverride")
	}
	tm.SetOverride("w", "b", "D", 500)
	if d, ok := tm.BudgetOverride(net, sink); !ok || d != 500 {
		t.Errorf("BudgetOverride = %d, %v, want 500, true", d, ok)
	}
	// Same cell and port on a different net is a different connection.
	other := &model.Net{Name: "v"}
	if _, ok := tm.BudgetOverride(other, sink); ok {
		t.Error("override leaked across nets")
	}
}

func TestLoadDelayTable(t *testing.T) {
	in := `{
	  "unit_route_delay_ps": 150,
	  "cell_types": {
	    "DFF": {
	      "clocks": {"D": "clk", "Q": "clk"},
	      "arcs": {"clk": {"Q": 540}}
	    },
	    "LUT2": {
	      "arcs": {"A": {"Z": 1280}, "B": {"Z": 1150}}
	    },
	    "IOB": {"boundary": true}
	  },
	  "routes": [{"net": "w", "cell": "b", "port": "D", "delay_ps": 380}],
	  "overrides": [{"net": "w", "cell": "c", "port": "I", "delay_ps": 90}]
	}`

	tm, err := LoadDelayTable(strings.NewReader(in))
	if err != nil {
		t.Fatalf("LoadDelayTable: %v", err)
	}
	if tm.UnitRouteDelay != 150 {
		t.Errorf("UnitRouteDelay = %d, want 150", tm.UnitRouteDelay)
	}

	ff := &model.Cell{Name: "a", Type: "DFF"}
	if d, ok := tm.CellDelay(ff, "clk", "Q"); !ok || d != 540 {
		t.Errorf("clock-to-Q = %d, %v, want 540, true", d, ok)
	}
	if domain, ok := tm.PortClock(ff, "Q"); !ok || domain != "clk" {
		t.Errorf("PortClock(Q) = %q, %v, want clk, true", domain, ok)
	}
	if !tm.IsBoundary(&model.Cell{Name: "p", Type: "IOB"}) {
		t.Error("IOB not marked as boundary")
	}

	b := &model.Cell{Name: "b", Type: "DFF"}
	net := &model.Net{Name: "w", Driver: model.PortRef{Cell: ff, Port: "Q"}}
	sink := &model.PortRef{Cell: b, Port: "D"}
	if d := tm.RouteDelay(net, sink); d != 380 {
		t.Errorf("loaded route = %d, want 380", d)
	}
	c := &model.Cell{Name: "c", Type: "LUT2"}
	if d, ok := tm.BudgetOverride(net, &model.PortRef{Cell: c, Port: "I"}); !ok || d != 90 {
		t.Errorf("loaded override = %d, %v, want 90, true", d, ok)
	}
}

func TestLoadDelayTable_BadJSON(t *testing.T) {
	if _, err := LoadDelayTable(strings.NewReader("not json")); err == nil {
		t.Error("expected a decode error")
	}
}

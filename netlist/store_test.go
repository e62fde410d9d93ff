package netlist

import (
	"errors"
	"testing"

	"github.com/gatefoundry/fpga-timing/model"
)

func mustCell(t *testing.T, nl *Netlist, name string, ins, outs []string) {
	t.Helper()
	if err := nl.AddCell(&model.Cell{Name: name, Type: "LUT2"}); err != nil {
		t.Fatalf("AddCell(%s): %v", name, err)
	}
	for _, p := range ins {
		if err := nl.AddPort(name, p, model.DirIn); err != nil {
			t.Fatalf("AddPort(%s.%s): %v", name, p, err)
		}
	}
	for _, p := range outs {
		if err := nl.AddPort(name, p, model.DirOut); err != nil {
			t.Fatalf("AddPort(%s.%s): %v", name, p, err)
		}
	}
}

func TestNetlist_AddCell(t *testing.T) {
	nl := New()

	if err := nl.AddCell(&model.Cell{Name: "u1", Type: "LUT2"}); err != nil {
		t.Fatalf("AddCell: %v", err)
	}
	if nl.CellCount() != 1 {
		t.Errorf("CellCount = %d, want 1", nl.CellCount())
	}
	if got := nl.Cell("u1"); got == nil || got.Type != "LUT2" {
		t.Errorf("Cell(u1) = %v", got)
	}

	if err := nl.AddCell(&model.Cell{Name: "u1"}); !errors.Is(err, ErrCellExists) {
		t.Errorf("duplicate AddCell error = %v, want ErrCellExists", err)
	}
	if err := nl.AddCell(&model.Cell{}); !errors.Is(err, ErrCellBadInput) {
		t.Errorf("unnamed AddCell error = %v, want ErrCellBadInput", err)
	}
	if err := nl.AddCell(nil); !errors.Is(err, ErrCellBadInput) {
		t.Errorf("nil AddCell error = %v, want ErrCellBadInput", err)
	}
}

func TestNetlist_AddNet(t *testing.T) {
	nl := New()

	if err := nl.AddNet(&model.Net{Name: "n1"}); err != nil {
		t.Fatalf("AddNet: %v", err)
	}
	if err := nl.AddNet(&model.Net{Name: "n1"}); !errors.Is(err, ErrNetExists) {
		t.Errorf("duplicate AddNet error = %v, want ErrNetExists", err)
	}
	if err := nl.AddNet(&model.Net{}); !errors.Is(err, ErrNetBadInput) {
		t.Errorf("unnamed AddNet error = %v, want ErrNetBadInput", err)
	}
	if nl.Net("missing") != nil {
		t.Errorf("Net(missing) should be nil")
	}
}

func TestNetlist_SortedEnumeration(t *testing.T) {
	nl := New()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := nl.AddCell(&model.Cell{Name: name}); err != nil {
			t.Fatalf("AddCell(%s): %v", name, err)
		}
		if err := nl.AddNet(&model.Net{Name: name}); err != nil {
			t.Fatalf("AddNet(%s): %v", name, err)
		}
	}

	want := []string{"alpha", "mid", "zeta"}
	for i, c := range nl.Cells() {
		if c.Name != want[i] {
			t.Errorf("Cells()[%d] = %q, want %q", i, c.Name, want[i])
		}
	}
	for i, n := range nl.Nets() {
		if n.Name != want[i] {
			t.Errorf("Nets()[%d] = %q, want %q", i, n.Name, want[i])
		}
	}
}

func TestNetlist_AddPort(t *testing.T) {
	nl := New()
	mustCell(t, nl, "u1", []string{"A"}, nil)

	if err := nl.AddPort("u1", "A", model.DirIn); !errors.Is(err, ErrPortBound) {
		t.Errorf("duplicate AddPort error = %v, want ErrPortBound", err)
	}
	if err := nl.AddPort("nope", "A", model.DirIn); !errors.Is(err, ErrCellNotFound) {
		t.Errorf("AddPort on missing cell error = %v, want ErrCellNotFound", err)
	}
	if err := nl.AddPort("u1", "", model.DirIn); !errors.Is(err, ErrCellBadInput) {
		t.Errorf("empty port name error = %v, want ErrCellBadInput", err)
	}
}

func TestNetlist_Connect(t *testing.T) {
	nl := New()
	mustCell(t, nl, "drv", nil, []string{"O"})
	mustCell(t, nl, "snk", []string{"I"}, nil)
	if err := nl.AddNet(&model.Net{Name: "w"}); err != nil {
		t.Fatalf("AddNet: %v", err)
	}

	if err := nl.Connect("drv", "O", "w"); err != nil {
		t.Fatalf("Connect(driver): %v", err)
	}
	if err := nl.Connect("snk", "I", "w"); err != nil {
		t.Fatalf("Connect(sink): %v", err)
	}

	net := nl.Net("w")
	if net.Driver.Cell == nil || net.Driver.Cell.Name != "drv" || net.Driver.Port != "O" {
		t.Errorf("driver = %+v, want drv.O", net.Driver)
	}
	if len(net.Users) != 1 {
		t.Fatalf("got %d users, want 1", len(net.Users))
	}
	usr := net.Users[0]
	if usr.Cell.Name != "snk" || usr.Port != "I" {
		t.Errorf("user = %s.%s, want snk.I", usr.Cell.Name, usr.Port)
	}
	if usr.Budget != model.MaxDelay {
		t.Errorf("fresh sink budget = %d, want MaxDelay", usr.Budget)
	}
	if got := nl.Cell("snk").Ports["I"].Net; got != net {
		t.Errorf("sink port not bound back to net")
	}
}

func TestNetlist_ConnectErrors(t *testing.T) {
	nl := New()
	mustCell(t, nl, "d1", nil, []string{"O"})
	mustCell(t, nl, "d2", nil, []string{"O"})
	mustCell(t, nl, "snk", []string{"I"}, nil)
	if err := nl.AddNet(&model.Net{Name: "w"}); err != nil {
		t.Fatalf("AddNet: %v", err)
	}
	if err := nl.Connect("d1", "O", "w"); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if err := nl.Connect("d2", "O", "w"); !errors.Is(err, ErrNetDriven) {
		t.Errorf("second driver error = %v, want ErrNetDriven", err)
	}
	if err := nl.Connect("d1", "O", "w"); !errors.Is(err, ErrPortBound) {
		t.Errorf("rebind error = %v, want ErrPortBound", err)
	}
	if err := nl.Connect("snk", "I", "nope"); !errors.Is(err, ErrNetNotFound) {
		t.Errorf("missing net error = %v, want ErrNetNotFound", err)
	}
	if err := nl.Connect("snk", "X", "w"); !errors.Is(err, ErrPortNotFound) {
		t.Errorf("missing port error = %v, want ErrPortNotFound", err)
	}
	if err := nl.Connect("nope", "I", "w"); !errors.Is(err, ErrCellNotFound) {
		t.Errorf("missing cell error = %v, want ErrCellNotFound", err)
	}
}

func TestNetlist_ResetBudgets(t *testing.T) {
	nl := New()
	mustCell(t, nl, "drv", nil, []string{"O"})
	mustCell(t, nl, "snk", []string{"I"}, nil)
	if err := nl.AddNet(&model.Net{Name: "w"}); err != nil {
		t.Fatalf("AddNet: %v", err)
	}
	if err := nl.Connect("drv", "O", "w"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := nl.Connect("snk", "I", "w"); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	nl.Net("w").Users[0].Budget = 1234
	nl.ResetBudgets()
	if got := nl.Net("w").Users[0].Budget; got != model.MaxDelay {
		t.Errorf("budget after reset = %d, want MaxDelay", got)
	}
}

func TestNetlist_Checksum(t *testing.T) {
	build := func() *Netlist {
		nl := New()
		mustCell(t, nl, "drv", nil, []string{"O"})
		mustCell(t, nl, "snk", []string{"I"}, nil)
		if err := nl.AddNet(&model.Net{Name: "w"}); err != nil {
			t.Fatalf("AddNet: %v", err)
		}
		if err := nl.Connect("drv", "O", "w"); err != nil {
			t.Fatalf("Connect: %v", err)
		}
		if err := nl.Connect("snk", "I", "w"); err != nil {
			t.Fatalf("Connect: %v", err)
		}
		return nl
	}

	a, b := build(), build()
	if a.Checksum() != b.Checksum() {
		t.Errorf("identical netlists disagree: %#x vs %#x", a.Checksum(), b.Checksum())
	}

	before := a.Checksum()
	a.Net("w").Users[0].Budget = 777
	if after := a.Checksum(); after == before {
		t.Errorf("checksum did not change with a budget: %#x", after)
	}
}

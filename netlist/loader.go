// netlist/loader.go
package netlist

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/gatefoundry/fpga-timing/model"
)

// DesignSummary is a small summary of what was loaded from JSON. It's mainly
// useful for logging from the driver.
type DesignSummary struct {
	CellNames []string
	NetNames  []string
}

// internal JSON shapes – kept unexported so the on-disk format can evolve.
type designJSON struct {
	Cells []cellJSON `json:"cells"`
	Nets  []netJSON  `json:"nets"`
}

type cellJSON struct {
	Name  string     `json:"name"`
	Type  string     `json:"type"`
	Loc   *locJSON   `json:"loc"` // optional; unplaced cells default to (0,0)
	Ports []portJSON `json:"ports"`
}

type portJSON struct {
	Name string `json:"name"`
	Dir  string `json:"dir"` // "in" | "out"
}

type locJSON struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type netJSON struct {
	Name   string        `json:"name"`
	Driver *portRefJSON  `json:"driver"` // optional; undriven nets are legal
	Sinks  []portRefJSON `json:"sinks"`
}

type portRefJSON struct {
	Cell string `json:"cell"`
	Port string `json:"port"`
}

// LoadDesign reads a placed design from r and populates the netlist with
// cells, ports, nets, and connections. It fails on JSON errors and on any
// connectivity the store itself rejects (duplicate IDs, double-driven nets,
// references to undeclared cells or ports).
func LoadDesign(nl *Netlist, r io.Reader) (*DesignSummary, error) {
	if nl == nil {
		return nil, fmt.Errorf("LoadDesign: netlist is nil")
	}

	var payload designJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("LoadDesign: decode failed: %w", err)
	}

	summary := &DesignSummary{
		CellNames: make([]string, 0, len(payload.Cells)),
		NetNames:  make([]string, 0, len(payload.Nets)),
	}

	// 1) Cells and their ports.
	for _, jsCell := range payload.Cells {
		if jsCell.Name == "" {
			return nil, fmt.Errorf("LoadDesign: cell with empty name")
		}
		cell := &model.Cell{
			Name:  jsCell.Name,
			Type:  jsCell.Type,
			Ports: make(map[string]*model.Port),
		}
		if jsCell.Loc != nil {
			cell.Loc = model.Loc{X: jsCell.Loc.X, Y: jsCell.Loc.Y}
		}
		if err := nl.AddCell(cell); err != nil {
			return nil, fmt.Errorf("LoadDesign: %w", err)
		}
		for _, jsPort := range jsCell.Ports {
			dir, err := dirFromString(jsPort.Dir)
			if err != nil {
				return nil, fmt.Errorf("LoadDesign: cell %q port %q: %w", jsCell.Name, jsPort.Name, err)
			}
			if err := nl.AddPort(jsCell.Name, jsPort.Name, dir); err != nil {
				return nil, fmt.Errorf("LoadDesign: %w", err)
			}
		}
		summary.CellNames = append(summary.CellNames, jsCell.Name)
	}

	// 2) Nets.
	for _, jsNet := range payload.Nets {
		if jsNet.Name == "" {
			return nil, fmt.Errorf("LoadDesign: net with empty name")
		}
		if err := nl.AddNet(&model.Net{Name: jsNet.Name}); err != nil {
			return nil, fmt.Errorf("LoadDesign: %w", err)
		}
		summary.NetNames = append(summary.NetNames, jsNet.Name)
	}

	// 3) Connections, drivers first so double-driver errors name the net.
	for _, jsNet := range payload.Nets {
		if jsNet.Driver != nil {
			if err := nl.Connect(jsNet.Driver.Cell, jsNet.Driver.Port, jsNet.Name); err != nil {
				return nil, fmt.Errorf("LoadDesign: net %q driver: %w", jsNet.Name, err)
			}
		}
		for _, jsSink := range jsNet.Sinks {
			if err := nl.Connect(jsSink.Cell, jsSink.Port, jsNet.Name); err != nil {
				return nil, fmt.Errorf("LoadDesign: net %q sink: %w", jsNet.Name, err)
			}
		}
	}

	return summary, nil
}

func dirFromString(s string) (model.PortDir, error) {
	switch strings.ToLower(s) {
	case "in", "input":
		return model.DirIn, nil
	case "out", "output":
		return model.DirOut, nil
	default:
		return model.DirIn, fmt.Errorf("unknown port direction %q", s)
	}
}

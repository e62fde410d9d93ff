package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/gatefoundry/fpga-timing/core"
	"github.com/gatefoundry/fpga-timing/model"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	violStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Faint(true)
	barStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
)

func renderBudgetSummary(outcome *core.BudgetOutcome, period model.Delay) string {
	var b strings.Builder
	b.WriteString(headingStyle.Render("Budget summary") + "\n")
	fmt.Fprintf(&b, "%s %.2f MHz\n", labelStyle.Render("target:"), model.MHzFromPeriod(period))
	fmt.Fprintf(&b, "%s %.3f ns\n", labelStyle.Render("min slack:"), outcome.MinSlack.Nanoseconds())
	if outcome.NegativeBudgets > 0 {
		fmt.Fprintf(&b, "%s %d connection(s) with negative budget\n",
			violStyle.Render("violations:"), outcome.NegativeBudgets)
	} else {
		b.WriteString(okStyle.Render("all budgets non-negative") + "\n")
	}
	fmt.Fprintf(&b, "%s 0x%08x\n", dimStyle.Render("checksum:"), outcome.Checksum)
	return b.String()
}

func renderReport(report *core.Report, barWidth int, pathRequested bool) string {
	var b strings.Builder

	if len(report.Path) > 0 {
		b.WriteString(headingStyle.Render("Critical path report") + "\n")
		b.WriteString(dimStyle.Render("curr total") + "\n")
		for _, hop := range report.Path {
			fmt.Fprintf(&b, "%4d %4d  Source %s.%s\n",
				hop.CombDelay, hop.CumulativeAtDriver, hop.DriverCell.Name, hop.DriverPort)
			fmt.Fprintf(&b, "%4d %4d    Net %s budget %s (%d,%d) -> (%d,%d)\n",
				hop.RouteDelay, hop.CumulativeAtSink, hop.Net.Name, budgetString(hop.Budget),
				hop.DriverLoc.X, hop.DriverLoc.Y, hop.SinkLoc.X, hop.SinkLoc.Y)
			fmt.Fprintf(&b, "                Sink %s.%s\n", hop.SinkCell.Name, hop.SinkPort)
		}
		b.WriteString("\n")
	} else if pathRequested {
		b.WriteString(dimStyle.Render("Design contains no timing paths") + "\n")
	}

	fmt.Fprintf(&b, "%s %.2f MHz\n", labelStyle.Render("estimated Fmax:"), report.FmaxMHz)

	if h := report.Histogram; h != nil {
		b.WriteString("\n" + headingStyle.Render("Slack histogram") + "\n")
		b.WriteString(renderHistogram(h, barWidth))
	}
	return b.String()
}

// renderHistogram scales each bin to a proportional star bar, capped at
// barWidth characters for the fullest bin.
func renderHistogram(h *core.Histogram, barWidth int) string {
	maxCount := h.MaxCount()
	if maxCount == 0 {
		return ""
	}
	if uint(barWidth) > maxCount {
		barWidth = int(maxCount)
	}

	var b strings.Builder
	fmt.Fprintf(&b, " legend: * represents %d endpoint(s)\n", maxCount/uint(barWidth))
	for i, count := range h.Counts {
		lo, hi := h.BinRange(i)
		stars := int(count * uint(barWidth) / maxCount)
		fmt.Fprintf(&b, "%6d < ps < %6d |%s\n", lo, hi, barStyle.Render(strings.Repeat("*", stars)))
	}
	return b.String()
}

// budgetString renders a budget, showing unconstrained connections (never
// tightened from the reset value) distinctly.
func budgetString(d model.Delay) string {
	if d == model.MaxDelay {
		return "unset"
	}
	return fmt.Sprintf("%d", d)
}

// Package terminal binds the controller to a terminal.
package terminal

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"diabetes-console/internal/render"
	"diabetes-console/internal/view"
)

var (
	colorRed   = color.New(color.FgRed)
	colorCyan  = color.New(color.FgCyan)
	colorBold  = color.New(color.Bold)
	colorFaint = color.New(color.Faint)
)

// Prog is the CLI name used in next-step hints.
const Prog = "diabetesctl"

// View renders controller output as text. Results go to out; alerts go to
// errOut.
type View struct {
	page   view.Page
	out    io.Writer
	errOut io.Writer

	next   view.Page
	moved  bool
	alerts []string
	slots  map[string]bool
}

// New creates a terminal view acting as page.
func New(page view.Page, out, errOut io.Writer) *View {
	return &View{page: page, out: out, errOut: errOut}
}

// Page returns the page the current command acts as.
func (v *View) Page() view.Page { return v.page }

// Navigate prints the next step for page p.
func (v *View) Navigate(p view.Page) {
	v.next, v.moved = p, true

	var hint string
	switch p {
	case view.PageIndex:
		hint = "Not logged in. Run: " + Prog + " login --username <name> --password <password>"
	case view.PageDashboard:
		hint = "Logged in. Next: " + Prog + " upload <file.pdf>"
	case view.PageHistory:
		hint = "Run: " + Prog + " history"
	default:
		hint = "Next view: " + string(p)
	}
	fmt.Fprintln(v.out, colorFaint.Sprint(hint))
}

// Navigated returns the page the controller asked for, if any.
func (v *View) Navigated() (view.Page, bool) {
	return v.next, v.moved
}

// Alert prints msg in red on errOut.
func (v *View) Alert(msg string) {
	v.alerts = append(v.alerts, msg)
	fmt.Fprintln(v.errOut, colorRed.Sprint(msg))
}

// Alerts returns every alert shown so far.
func (v *View) Alerts() []string {
	return v.alerts
}

// ShowExtracted prints the extracted fields as a two-column table.
func (v *View) ShowExtracted(t render.KeyValueTable) {
	fmt.Fprintln(v.out, colorBold.Sprint("Extracted data"))
	tbl := NewTable(
		Column{Header: "field", Color: func(s string) string { return colorBold.Sprint(s) }},
		Column{Header: "value"},
	)
	for _, r := range t.Rows {
		tbl.AddRow(r.Key, r.Value)
	}
	_ = tbl.Render(v.out)
}

// RevealPanels prints the model choices.
func (v *View) RevealPanels() {
	fmt.Fprintf(v.out, "\nPredict with: %s predict --model %s\n", Prog, strings.Join(render.Models, "|"))
}

// ShowBanner prints b in its style's color.
func (v *View) ShowBanner(b render.Banner) {
	c := styleColor(b.Style)
	for i, line := range b.Lines() {
		if i == 0 && b.IsPrediction() {
			fmt.Fprintln(v.out, c.Add(color.Bold).Sprint(line))
			c = styleColor(b.Style)
			continue
		}
		fmt.Fprintln(v.out, c.Sprint(line))
	}
}

// RevealHistoryLink prints how to view history.
func (v *View) RevealHistoryLink() {
	fmt.Fprintf(v.out, "\nView history: %s history\n", Prog)
}

// MountHistory prints the history table, or its notice, and remembers the
// chart slots.
func (v *View) MountHistory(t *render.HistoryTable, slots []render.ChartSlot) error {
	if t == nil {
		return fmt.Errorf("no history table")
	}
	v.slots = make(map[string]bool, len(slots))
	for _, s := range slots {
		v.slots[s.ID] = true
	}

	if t.Notice != nil {
		v.ShowBanner(*t.Notice)
		return nil
	}

	cols := make([]Column, len(t.Headers))
	for i, h := range t.Headers {
		cols[i] = Column{Header: h}
	}
	tbl := NewTable(cols...)
	for _, row := range t.Rows {
		tbl.AddRow(row...)
	}
	if err := tbl.Render(v.out); err != nil {
		return err
	}
	if len(slots) > 0 {
		fmt.Fprintln(v.out)
		fmt.Fprintln(v.out, colorBold.Sprint("Trends"))
	}
	return nil
}

// DrawChart prints c as a sparkline with its summary.
func (v *View) DrawChart(c render.Chart) error {
	if !v.slots[c.Slot.ID] {
		return fmt.Errorf("chart slot %q not mounted", c.Slot.ID)
	}

	summary := "no data"
	if s := c.Summary; s.Count > 0 {
		summary = fmt.Sprintf("min %s  mean %s  max %s  (n=%d)",
			formatFloat(s.Min), formatFloat(s.Mean), formatFloat(s.Max), s.Count)
	}
	fmt.Fprintf(v.out, "  %-28s %s  %s\n", c.Slot.Title, colorCyan.Sprint(Sparkline(c)), colorFaint.Sprint(summary))
	return nil
}

func styleColor(s render.Style) *color.Color {
	switch s {
	case render.StyleDanger:
		return color.New(color.FgRed)
	case render.StyleSuccess:
		return color.New(color.FgGreen)
	default:
		return color.New(color.FgCyan)
	}
}

// formatFloat rounds to two decimals and drops trailing zeros.
func formatFloat(f float64) string {
	return strconv.FormatFloat(math.Round(f*100)/100, 'f', -1, 64)
}

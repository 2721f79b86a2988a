package frontend

import (
	"fmt"

	"diabetes-console/internal/render"
	"diabetes-console/internal/view"
)

// pageView collects what the controller did during one request. The
// server turns it into a redirect, a fragment or a full page afterwards.
type pageView struct {
	page   view.Page
	next   view.Page
	moved  bool
	alerts []string

	extracted   *render.KeyValueTable
	panels      bool
	banner      *render.Banner
	historyLink bool

	history   *render.HistoryTable
	slots     []render.ChartSlot
	mounted   map[string]bool
	charts    []chartConfig
	summaries map[string]string
}

func newPageView(page view.Page) *pageView {
	return &pageView{page: page}
}

func (v *pageView) Page() view.Page { return v.page }

func (v *pageView) Navigate(p view.Page) {
	v.next, v.moved = p, true
}

func (v *pageView) Alert(msg string) {
	v.alerts = append(v.alerts, msg)
}

func (v *pageView) ShowExtracted(t render.KeyValueTable) {
	v.extracted = &t
}

func (v *pageView) RevealPanels() {
	v.panels = true
}

func (v *pageView) ShowBanner(b render.Banner) {
	v.banner = &b
}

func (v *pageView) RevealHistoryLink() {
	v.historyLink = true
}

func (v *pageView) MountHistory(t *render.HistoryTable, slots []render.ChartSlot) error {
	if t == nil {
		return fmt.Errorf("no history table")
	}
	v.history = t
	v.slots = slots
	v.mounted = make(map[string]bool, len(slots))
	for _, s := range slots {
		v.mounted[s.ID] = true
	}
	return nil
}

// DrawChart queues a Chart.js config for a mounted canvas. The page emits
// the configs after the canvases.
func (v *pageView) DrawChart(c render.Chart) error {
	if !v.mounted[c.Slot.ID] {
		return fmt.Errorf("chart slot %q not mounted", c.Slot.ID)
	}
	v.charts = append(v.charts, chartJSFor(c))
	if s := c.Summary; s.Count > 0 {
		if v.summaries == nil {
			v.summaries = make(map[string]string)
		}
		v.summaries[c.Slot.ID] = fmt.Sprintf("min %s · mean %s · max %s",
			formatStat(s.Min), formatStat(s.Mean), formatStat(s.Max))
	}
	return nil
}

func (v *pageView) redirect() (view.Page, bool) {
	return v.next, v.moved
}

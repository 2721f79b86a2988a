// Package view defines the binding between the controller and a host.
package view

import "diabetes-console/internal/render"

// Page identifies one of the console's views.
type Page string

const (
	PageIndex     Page = "index.html"
	PageDashboard Page = "dashboard.html"
	PageHistory   Page = "history.html"
)

// Entry is the unauthenticated entry view.
const Entry = PageIndex

// Landing is the view a logged-in user is sent to.
const Landing = PageDashboard

// View is what the controller can see and do on the current page.
type View interface {
	// Page returns the view currently shown.
	Page() Page
	// Navigate leaves the current view for p.
	Navigate(p Page)
	// Alert shows a blocking message.
	Alert(message string)

	// ShowExtracted fills the extracted-data table.
	ShowExtracted(t render.KeyValueTable)
	// RevealPanels shows the extracted-data and prediction panels.
	RevealPanels()
	// ShowBanner replaces the prediction result area.
	ShowBanner(b render.Banner)
	// RevealHistoryLink shows the "view history" affordance.
	RevealHistoryLink()

	// MountHistory places the history table and the empty chart slots.
	MountHistory(t *render.HistoryTable, slots []render.ChartSlot) error
	// DrawChart draws c into its mounted slot.
	DrawChart(c render.Chart) error
}

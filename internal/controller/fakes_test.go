package controller

import (
	"context"
	"errors"
	"io"

	"diabetes-console/internal/backend"
	"diabetes-console/internal/render"
	"diabetes-console/internal/view"
)

type fakeView struct {
	page      view.Page
	navigated []view.Page
	alerts    []string
	extracted *render.KeyValueTable
	panels    bool
	banners   []render.Banner
	histLink  bool
	table     *render.HistoryTable
	slots     []render.ChartSlot
	drawn     []render.Chart
	mountErr  error
	events    []string
}

func (v *fakeView) Page() view.Page { return v.page }

func (v *fakeView) Navigate(p view.Page) {
	v.navigated = append(v.navigated, p)
	v.events = append(v.events, "navigate:"+string(p))
}

func (v *fakeView) Alert(msg string) {
	v.alerts = append(v.alerts, msg)
	v.events = append(v.events, "alert")
}

func (v *fakeView) ShowExtracted(t render.KeyValueTable) { v.extracted = &t }
func (v *fakeView) RevealPanels() { v.panels = true }
func (v *fakeView) ShowBanner(b render.Banner) { v.banners = append(v.banners, b) }
func (v *fakeView) RevealHistoryLink() { v.histLink = true }

func (v *fakeView) MountHistory(t *render.HistoryTable, slots []render.ChartSlot) error {
	v.events = append(v.events, "mount")
	if v.mountErr != nil {
		return v.mountErr
	}
	v.table, v.slots = t, slots
	return nil
}

func (v *fakeView) DrawChart(c render.Chart) error {
	v.events = append(v.events, "draw:"+c.Slot.Feature)
	v.drawn = append(v.drawn, c)
	return nil
}

type fakeBackend struct {
	calls int

	token    string
	loginErr error

	extracted  backend.Record
	extractErr error
	gotFile    string

	prediction backend.Prediction
	predictErr error
	gotModel   string

	history    []backend.Record
	historyErr error

	gotToken string
}

func (b *fakeBackend) Login(ctx context.Context, username, password string) (string, error) {
	b.calls++
	return b.token, b.loginErr
}

func (b *fakeBackend) ExtractPatientData(ctx context.Context, token, filename string, content io.Reader) (backend.Record, error) {
	b.calls++
	b.gotToken, b.gotFile = token, filename
	return b.extracted, b.extractErr
}

func (b *fakeBackend) Predict(ctx context.Context, token, model string) (backend.Prediction, error) {
	b.calls++
	b.gotToken, b.gotModel = token, model
	return b.prediction, b.predictErr
}

func (b *fakeBackend) PatientHistory(ctx context.Context, token string) ([]backend.Record, error) {
	b.calls++
	b.gotToken = token
	return b.history, b.historyErr
}

var (
	errUnauthorized = &backend.StatusError{Endpoint: "/classical/predict", Code: 401, Body: `{"detail":"Not authenticated"}`}
	errNetwork      = errors.New("dial tcp 127.0.0.1:8000: connect: connection refused")
)

// Package controller wires view events to prediction API calls.
//
// One Controller serves one page load (web) or one command (CLI). It reads
// the token only through its session.Session and talks to the page only
// through view.View.
package controller

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"diabetes-console/internal/backend"
	"diabetes-console/internal/config"
	"diabetes-console/internal/export"
	"diabetes-console/internal/render"
	"diabetes-console/internal/session"
	"diabetes-console/internal/supervisor"
	"diabetes-console/internal/view"
)

// Alert texts.
const (
	MsgLoginFailed     = "Login failed. Please check your credentials."
	MsgNoFile          = "Please select a PDF file"
	MsgExtractFailed   = "Error extracting data from PDF"
	MsgSessionExpired  = "Session expired. Please log in again."
	MsgHistoryFailed   = "Could not fetch history"
	MsgExportFailed    = "Could not export history"
	msgPredictionFault = "Prediction failed: "
)

// Backend is the part of the prediction API the controller uses.
type Backend interface {
	Login(ctx context.Context, username, password string) (string, error)
	ExtractPatientData(ctx context.Context, token, filename string, content io.Reader) (backend.Record, error)
	Predict(ctx context.Context, token, model string) (backend.Prediction, error)
	PatientHistory(ctx context.Context, token string) ([]backend.Record, error)
}

// Upload is a selected document.
type Upload struct {
	Name    string
	Content io.Reader
}

// Options tunes a Controller.
type Options struct {
	Policy  config.UnauthorizedPolicy
	Metrics *supervisor.Metrics
	Logger  *slog.Logger
}

// Controller is the console's session and view controller.
type Controller struct {
	api     Backend
	session *session.Session
	view    view.View
	policy  config.UnauthorizedPolicy
	metrics *supervisor.Metrics
	logger  *slog.Logger
}

// New creates a Controller.
func New(api Backend, sess *session.Session, v view.View, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	policy := opts.Policy
	if policy == "" {
		policy = config.UnauthorizedPredict
	}
	return &Controller{
		api:     api,
		session: sess,
		view:    v,
		policy:  policy,
		metrics: opts.Metrics,
		logger:  logger,
	}
}

// Bootstrap runs the page-load guard and reports whether it navigated away.
//
// A logged-in user on the entry view goes to the landing view; a logged-out
// user anywhere else goes to the entry view. At most one redirect happens.
func (c *Controller) Bootstrap() bool {
	page := c.view.Page()
	loggedIn := c.session.LoggedIn()

	switch {
	case loggedIn && page == view.Entry:
		c.logger.Debug("redirect", "from", page, "to", view.Landing)
		c.view.Navigate(view.Landing)
		return true
	case !loggedIn && page != view.Entry:
		c.logger.Debug("redirect", "from", page, "to", view.Entry)
		c.view.Navigate(view.Entry)
		return true
	}
	return false
}

// PageLoad runs Bootstrap and, when the history view stays, renders history.
func (c *Controller) PageLoad(ctx context.Context) {
	if c.Bootstrap() {
		return
	}
	if c.view.Page() == view.PageHistory {
		c.ShowHistory(ctx)
	}
}

// Login exchanges credentials for a token and opens the landing view.
func (c *Controller) Login(ctx context.Context, username, password string) {
	tok, err := c.api.Login(ctx, username, password)
	if err == nil {
		err = c.session.SetToken(tok)
	}
	if err != nil {
		c.logger.Error("login failed", append([]any{"op", "login", "username", username}, errAttrs(err)...)...)
		c.metrics.RecordLogin(false)
		c.view.Alert(MsgLoginFailed)
		return
	}

	c.logger.Info("logged in", "username", username)
	c.metrics.RecordLogin(true)
	c.view.Navigate(view.Landing)
}

// Upload sends a document for extraction and shows the result. A nil
// upload alerts without calling the API.
func (c *Controller) Upload(ctx context.Context, file *Upload) {
	if file == nil {
		c.view.Alert(MsgNoFile)
		return
	}
	tok, ok := c.requireToken()
	if !ok {
		return
	}

	rec, err := c.api.ExtractPatientData(ctx, tok, file.Name, file.Content)
	if err != nil {
		c.logger.Error("extraction failed", append([]any{"op", "upload", "file", file.Name}, errAttrs(err)...)...)
		if c.expireIfPolicy(err) {
			return
		}
		c.view.Alert(MsgExtractFailed)
		return
	}

	c.view.ShowExtracted(render.ExtractedTable(rec))
	c.view.RevealPanels()
}

// SelectModel handles a model button.
func (c *Controller) SelectModel(ctx context.Context, model string) {
	if b, ok := render.StubBanner(model); ok {
		c.metrics.RecordPrediction(model, supervisor.OutcomeStub)
		c.view.ShowBanner(b)
		return
	}
	if model != render.ModelClassical {
		c.logger.Warn("unknown model", "op", "predict", "model", model)
		c.metrics.RecordPrediction("unknown", supervisor.OutcomeError)
		c.view.ShowBanner(render.UnknownModelBanner(model))
		return
	}

	tok, ok := c.requireToken()
	if !ok {
		return
	}

	p, err := c.api.Predict(ctx, tok, model)
	if err != nil {
		c.logger.Error("prediction failed", append([]any{"op", "predict", "model", model}, errAttrs(err)...)...)
		if backend.IsUnauthorized(err) {
			c.metrics.RecordPrediction(model, supervisor.OutcomeExpired)
			c.expire()
			return
		}
		c.metrics.RecordPrediction(model, supervisor.OutcomeError)
		c.view.ShowBanner(render.PredictionErrorBanner(predictionError(err)))
		return
	}

	outcome := supervisor.OutcomeNegative
	if p.Positive {
		outcome = supervisor.OutcomePositive
	}
	c.metrics.RecordPrediction(model, outcome)
	c.view.ShowBanner(render.PredictionBanner(p))
	c.view.RevealHistoryLink()
}

// OpenHistory leaves for the history view.
func (c *Controller) OpenHistory() {
	c.view.Navigate(view.PageHistory)
}

// ShowHistory fetches history, mounts the table and chart slots, then draws
// each chart once the mount succeeded.
func (c *Controller) ShowHistory(ctx context.Context) {
	records, ok := c.fetchHistory(ctx)
	if !ok {
		return
	}

	charts := render.Charts(records)
	if err := c.view.MountHistory(render.NewHistoryTable(records), render.Slots(charts)); err != nil {
		c.logger.Error("mount history failed", "op", "history", "err", err)
		c.view.Alert(MsgHistoryFailed)
		return
	}
	for _, ch := range charts {
		if err := c.view.DrawChart(ch); err != nil {
			c.logger.Warn("draw chart failed", "op", "history", "feature", ch.Slot.Feature, "err", err)
		}
	}
}

// ExportHistory writes the history workbook to w and reports whether it
// did. Nothing is written on failure.
func (c *Controller) ExportHistory(ctx context.Context, w io.Writer) bool {
	records, ok := c.fetchHistory(ctx)
	if !ok {
		return false
	}
	if err := export.Write(w, records); err != nil {
		c.logger.Error("export failed", "op", "export", "err", err)
		c.view.Alert(MsgExportFailed)
		return false
	}
	c.metrics.RecordExport()
	return true
}

// Logout forgets the token and returns to the entry view. The API is not
// told.
func (c *Controller) Logout() {
	if err := c.session.Clear(); err != nil {
		c.logger.Error("clear session failed", "op", "logout", "err", err)
	}
	c.metrics.RecordSessionCleared("logout")
	c.view.Navigate(view.Entry)
}

func (c *Controller) fetchHistory(ctx context.Context) ([]backend.Record, bool) {
	tok, ok := c.requireToken()
	if !ok {
		return nil, false
	}
	records, err := c.api.PatientHistory(ctx, tok)
	if err != nil {
		c.logger.Error("history fetch failed", append([]any{"op", "history"}, errAttrs(err)...)...)
		if c.expireIfPolicy(err) {
			return nil, false
		}
		c.view.Alert(MsgHistoryFailed)
		return nil, false
	}
	return records, true
}

// requireToken returns the token, or sends the user to the entry view.
func (c *Controller) requireToken() (string, bool) {
	tok := c.session.Token()
	if tok == "" {
		c.view.Navigate(view.Entry)
		return "", false
	}
	return tok, true
}

// expireIfPolicy forces re-authentication for a 401 outside prediction when
// the policy asks for it.
func (c *Controller) expireIfPolicy(err error) bool {
	if c.policy != config.UnauthorizedAll || !backend.IsUnauthorized(err) {
		return false
	}
	c.expire()
	return true
}

func (c *Controller) expire() {
	if err := c.session.Clear(); err != nil {
		c.logger.Error("clear session failed", "op", "expire", "err", err)
	}
	c.metrics.RecordSessionCleared("expired")
	c.view.Alert(MsgSessionExpired)
	c.view.Navigate(view.Entry)
}

// predictionError turns an API error into the text shown after
// "Error making prediction: ".
func predictionError(err error) error {
	var se *backend.StatusError
	if errors.As(err, &se) {
		return errors.New(msgPredictionFault + se.Body)
	}
	return err
}

func errAttrs(err error) []any {
	attrs := []any{"err", err}
	var se *backend.StatusError
	if errors.As(err, &se) {
		attrs = append(attrs, "endpoint", se.Endpoint, "status", se.Code)
	}
	return attrs
}

// Package frontend serves the console to browsers.
//
// Every request builds a fresh controller around the browser's session and
// a pageView; the controller's navigations become redirects and its
// alerts become rendered (or htmx-triggered) alerts.
package frontend

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"diabetes-console/internal/config"
	"diabetes-console/internal/controller"
	"diabetes-console/internal/render"
	"diabetes-console/internal/session"
	"diabetes-console/internal/storage"
	"diabetes-console/internal/supervisor"
	"diabetes-console/internal/view"
	"diabetes-console/web"
)

// Deps are the collaborators of a Server.
type Deps struct {
	Config  config.Config
	API     controller.Backend
	Store   storage.Store
	Health  *supervisor.HealthChecker
	Metrics *supervisor.Metrics
	Logger  *slog.Logger
}

// Server renders the console's pages.
type Server struct {
	cfg      config.Config
	api      controller.Backend
	sessions *session.Manager
	health   *supervisor.HealthChecker
	metrics  *supervisor.Metrics
	logger   *slog.Logger

	pages  map[view.Page]*template.Template
	static fs.FS
}

var pageTitles = map[view.Page]string{
	view.PageIndex:     "Login",
	view.PageDashboard: "Dashboard",
	view.PageHistory:   "History",
}

// New parses the embedded templates and builds a Server.
func New(d Deps) (*Server, error) {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tmplFS, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	static, err := web.Static()
	if err != nil {
		return nil, fmt.Errorf("load static assets: %w", err)
	}

	funcs := template.FuncMap{"modelName": modelName}
	pages := make(map[view.Page]*template.Template, len(pageTitles))
	for p := range pageTitles {
		t, err := template.New("").Funcs(funcs).ParseFS(tmplFS, "layout.html", "partials.html", string(p))
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", p, err)
		}
		pages[p] = t
	}

	return &Server{
		cfg:      d.Config,
		api:      d.API,
		sessions: session.NewManager(d.Store, d.Config.SessionCookie, d.Config.CookieSecure, logger),
		health:   d.Health,
		metrics:  d.Metrics,
		logger:   logger,
		pages:    pages,
		static:   static,
	}, nil
}

// Handler returns the routed, traced HTTP handler.
func (s *Server) Handler() http.Handler {
	features := s.cfg.Features()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/"+string(view.Entry), http.StatusFound)
	})
	r.Get("/"+string(view.PageIndex), s.handlePage(view.PageIndex))
	r.Get("/"+string(view.PageDashboard), s.handlePage(view.PageDashboard))
	r.Get("/"+string(view.PageHistory), s.handlePage(view.PageHistory))

	r.Post("/login", s.handleLogin)
	r.Post("/upload", s.handleUpload)
	r.Post("/predict", s.handlePredict)
	r.Post("/history", s.handleOpenHistory)
	r.Post("/logout", s.handleLogout)

	if features.Export {
		r.Get("/history.xlsx", s.handleExport)
	}

	r.Get("/healthz", s.handleHealthz)
	if features.Health && s.health != nil {
		r.Get("/healthz/backend", s.handleBackendHealth)
	}
	if features.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(s.static))))

	return otelhttp.NewHandler(r, "diabetes-console")
}

// begin loads the browser's session and builds a controller for page.
func (s *Server) begin(w http.ResponseWriter, r *http.Request, page view.Page) (*controller.Controller, *session.Session, *pageView, bool) {
	sess, err := s.sessions.Load(w, r)
	if err != nil {
		s.logger.Error("load session failed", "err", err, "path", r.URL.Path)
		http.Error(w, "session store unavailable", http.StatusInternalServerError)
		return nil, nil, nil, false
	}
	v := newPageView(page)
	ctrl := controller.New(s.api, sess, v, controller.Options{
		Policy:  s.cfg.UnauthorizedPolicy,
		Metrics: s.metrics,
		Logger:  s.logger,
	})
	return ctrl, sess, v, true
}

// respond turns the pageView into a redirect, an htmx fragment or a full
// page.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, sess *session.Session, v *pageView, fragment string) {
	if p, ok := v.redirect(); ok {
		target := "/" + string(p)
		if isHTMX(r) {
			triggerAlerts(w, v.alerts)
			w.Header().Set("HX-Redirect", target)
			w.WriteHeader(http.StatusOK)
			return
		}
		setFlash(w, v.alerts)
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}

	if isHTMX(r) && fragment != "" {
		// A failed action leaves the page as it was and only alerts.
		if len(v.alerts) > 0 {
			triggerAlerts(w, v.alerts)
			w.Header().Set("HX-Reswap", "none")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		data, err := s.pageData(sess, v, nil)
		if err != nil {
			s.renderError(w, err)
			return
		}
		triggerAlerts(w, v.alerts)
		s.render(w, v.page, fragment, data)
		return
	}

	data, err := s.pageData(sess, v, takeFlash(w, r))
	if err != nil {
		s.renderError(w, err)
		return
	}
	s.render(w, v.page, "layout", data)
}

func (s *Server) render(w http.ResponseWriter, page view.Page, name string, data pageData) {
	t, ok := s.pages[page]
	if !ok {
		s.renderError(w, fmt.Errorf("no template for page %s", page))
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		s.renderError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) renderError(w http.ResponseWriter, err error) {
	s.logger.Error("template error", "err", err)
	http.Error(w, "template error", http.StatusInternalServerError)
}

// pageData is what the templates see.
type pageData struct {
	Page          view.Page
	Title         string
	LoggedIn      bool
	Alerts        []string
	Extracted     *render.KeyValueTable
	PanelsVisible bool
	Banner        *render.Banner
	HistoryLink   bool
	History       *render.HistoryTable
	Slots         []render.ChartSlot
	Summaries     map[string]string
	ChartsJSON    string
	NeedsCharts   bool
	Models        []string
	ExportEnabled bool
	ChartJSURL    string
	HTMXURL       string
}

func (s *Server) pageData(sess *session.Session, v *pageView, flash []string) (pageData, error) {
	charts, err := chartsJSON(v.charts)
	if err != nil {
		return pageData{}, fmt.Errorf("encode charts: %w", err)
	}
	return pageData{
		Page:          v.page,
		Title:         pageTitles[v.page],
		LoggedIn:      sess.LoggedIn(),
		Alerts:        append(flash, v.alerts...),
		Extracted:     v.extracted,
		PanelsVisible: v.panels,
		Banner:        v.banner,
		HistoryLink:   v.historyLink,
		History:       v.history,
		Slots:         v.slots,
		Summaries:     v.summaries,
		ChartsJSON:    charts,
		NeedsCharts:   v.page == view.PageHistory,
		Models:        render.Models,
		ExportEnabled: s.cfg.Features().Export,
		ChartJSURL:    s.cfg.ChartJSURL,
		HTMXURL:       s.cfg.HTMXURL,
	}, nil
}

func modelName(model string) string {
	switch model {
	case render.ModelClassical:
		return "Classical"
	case render.ModelTransformer:
		return "Transformer"
	case render.ModelNeural:
		return "Neural Network"
	default:
		return model
	}
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

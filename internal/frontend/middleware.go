package frontend

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

const flashCookie = "console_flash"

// logRequests logs one line per request and tracks in-flight requests.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		s.metrics.AddInFlight(1)
		defer s.metrics.AddInFlight(-1)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		level := s.logger.Info
		if strings.HasPrefix(r.URL.Path, "/static/") || strings.HasPrefix(r.URL.Path, "/healthz") || r.URL.Path == "/metrics" {
			level = s.logger.Debug
		}
		level("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
			"htmx", isHTMX(r),
		)
	})
}

// triggerAlerts raises the alerts client-side through htmx.
func triggerAlerts(w http.ResponseWriter, alerts []string) {
	if len(alerts) == 0 {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"console:alert": map[string]string{"message": strings.Join(alerts, "\n")},
	})
	if err != nil {
		return
	}
	w.Header().Set("HX-Trigger", string(payload))
}

// setFlash carries alerts across a redirect.
func setFlash(w http.ResponseWriter, alerts []string) {
	if len(alerts) == 0 {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(strings.Join(alerts, "\n")),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// takeFlash returns and clears the alerts carried by a redirect.
func takeFlash(w http.ResponseWriter, r *http.Request) []string {
	c, err := r.Cookie(flashCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1})

	msg, err := url.QueryUnescape(c.Value)
	if err != nil || msg == "" {
		return nil
	}
	return strings.Split(msg, "\n")
}

package frontend

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"diabetes-console/internal/controller"
	"diabetes-console/internal/export"
	"diabetes-console/internal/view"
)

// handlePage serves a view: the bootstrap guard runs first, then the
// history view loads its data.
func (s *Server) handlePage(page view.Page) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, sess, v, ok := s.begin(w, r, page)
		if !ok {
			return
		}
		ctrl.PageLoad(r.Context())
		s.respond(w, r, sess, v, "")
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctrl, sess, v, ok := s.begin(w, r, view.PageIndex)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		s.logger.Warn("parse login form failed", "err", err)
		v.Alert(controller.MsgLoginFailed)
	} else {
		ctrl.Login(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	}
	s.respond(w, r, sess, v, "")
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctrl, sess, v, ok := s.begin(w, r, view.PageDashboard)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.UploadMaxBytes)
	upload, file, err := formUpload(r)
	if err != nil {
		s.logger.Warn("read upload failed", "op", "upload", "err", err)
		v.Alert(controller.MsgExtractFailed)
	} else {
		if file != nil {
			defer file.Close()
		}
		ctrl.Upload(r.Context(), upload)
	}
	s.respond(w, r, sess, v, "panels")
}

// formUpload returns the "file" part, or a nil Upload when none was chosen.
func formUpload(r *http.Request) (*controller.Upload, multipart.File, error) {
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	f, hdr, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	if hdr.Filename == "" {
		f.Close()
		return nil, nil, nil
	}
	return &controller.Upload{Name: hdr.Filename, Content: f}, f, nil
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	ctrl, sess, v, ok := s.begin(w, r, view.PageDashboard)
	if !ok {
		return
	}
	ctrl.SelectModel(r.Context(), r.FormValue("model"))
	// A full-page answer keeps the panels open around the result.
	v.panels = true
	s.respond(w, r, sess, v, "prediction")
}

func (s *Server) handleOpenHistory(w http.ResponseWriter, r *http.Request) {
	ctrl, sess, v, ok := s.begin(w, r, view.PageDashboard)
	if !ok {
		return
	}
	ctrl.OpenHistory()
	s.respond(w, r, sess, v, "")
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctrl, sess, v, ok := s.begin(w, r, view.PageDashboard)
	if !ok {
		return
	}
	ctrl.Logout()
	s.respond(w, r, sess, v, "")
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctrl, sess, v, ok := s.begin(w, r, view.PageHistory)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if !ctrl.ExportHistory(r.Context(), &buf) {
		s.respond(w, r, sess, v, "")
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="history.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if s.health != nil && !s.health.Healthy() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, "backend unhealthy\n")
		return
	}
	_, _ = io.WriteString(w, "ok\n")
}

func (s *Server) handleBackendHealth(w http.ResponseWriter, r *http.Request) {
	st := s.health.Status()
	w.Header().Set("Content-Type", "application/json")
	if !st.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(st)
}

package session

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"diabetes-console/internal/storage"
)

// Manager maps browsers to Sessions through an opaque session-id cookie.
// The token itself never leaves the server.
type Manager struct {
	store      storage.Store
	cookieName string
	secure     bool
	logger     *slog.Logger
}

// NewManager creates a Manager.
func NewManager(store storage.Store, cookieName string, secure bool, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:      store,
		cookieName: cookieName,
		secure:     secure,
		logger:     logger,
	}
}

// Load returns the Session of the browser behind r, issuing a fresh
// session-id cookie on w when r carries none (or a malformed one).
func (m *Manager) Load(w http.ResponseWriter, r *http.Request) (*Session, error) {
	sid := ""
	if c, err := r.Cookie(m.cookieName); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			sid = id.String()
		}
	}

	if sid == "" {
		sid = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     m.cookieName,
			Value:    sid,
			Path:     "/",
			HttpOnly: true,
			Secure:   m.secure,
			SameSite: http.SameSiteLaxMode,
		})
		m.logger.Debug("issued session cookie", "sid", sid)
	}

	return Load(m.store, Key(sid))
}

// Key returns the storage key of the token for session id sid.
func Key(sid string) string {
	return sid + "/" + TokenKey
}

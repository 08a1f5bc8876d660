// Package webapp serves the session-login demo that the DAST stage of the
// pipeline scans. It is intentionally small: an in-memory credential table,
// cookie sessions and a dashboard behind them.
package webapp

import (
	"crypto/rand"
	"embed"
	"encoding/gob"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"github.com/devopsuser8413/reportpipe/internal/password"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	sessionName     = "reportpipe_session"
	sessionLifetime = 30 * time.Minute

	userKey = "user"
)

// Demo credential table. A real deployment would plug in an actual user
// store; this login flow only exists so the security scanners have
// something to probe.
var demoUsers = map[string]string{
	"alice": "password123",
	"admin": "Admin@12345",
}

var unsafeChars = regexp.MustCompile(`[<>"']`)

// flashMessage is a one-shot notice carried in the session until the next
// page render. Category selects the style: success, error, warning or info.
type flashMessage struct {
	Category string
	Message  string
}

func init() {
	// Session values go through gob when the cookie is encoded.
	gob.Register(flashMessage{})
}

// Config carries the knobs for NewServer.
type Config struct {
	// SecretKey signs the session cookies. Leaving it empty generates a
	// random key, which invalidates all sessions on restart.
	SecretKey []byte
	// SecureCookies marks session cookies https-only. Turn it off for
	// plain-http development runs.
	SecureCookies bool
	Logger        *slog.Logger
}

// Server holds the handler state behind the router.
type Server struct {
	store  *sessions.CookieStore
	users  map[string]string
	tmpl   *template.Template
	logger *slog.Logger
}

// NewServer seeds the demo users and prepares templates and the session
// store.
func NewServer(cfg Config) (*Server, error) {
	secret := cfg.SecretKey
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("webapp: couldn't generate session secret: %w", err)
		}
	}

	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(sessionLifetime.Seconds()),
		HttpOnly: true,
		Secure:   cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}

	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("webapp: couldn't parse templates: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	users := make(map[string]string, len(demoUsers))
	for name, plain := range demoUsers {
		hash, err := password.Hash(plain)
		if err != nil {
			return nil, fmt.Errorf("webapp: couldn't seed user %s: %w", name, err)
		}
		users[name] = hash
	}

	return &Server{store: store, users: users, tmpl: tmpl, logger: logger}, nil
}

// Router wires the routes with the security-header middleware.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(secureHeaders)

	r.Get("/", s.handleIndex)
	r.Get("/login", s.handleLoginForm)
	r.Post("/login", s.handleLogin)
	r.Get("/dashboard", s.handleDashboard)
	r.Get("/logout", s.handleLogout)
	r.Get("/health", s.handleHealth)
	r.NotFound(s.handleNotFound)

	return r
}

// secureHeaders applies the OWASP-recommended response headers to every
// route, error pages included.
func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("X-XSS-Protection", "1; mode=block")
		h.Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline';")
		next.ServeHTTP(w, r)
	})
}

// sanitize trims the value and strips the characters most commonly used in
// injection payloads.
func sanitize(value string) string {
	return unsafeChars.ReplaceAllString(strings.TrimSpace(value), "")
}

// session returns the request's session. A missing or undecodable cookie
// yields a fresh session, which is the right treatment for stale cookies
// after a key rotation.
func (s *Server) session(r *http.Request) *sessions.Session {
	sess, _ := s.store.Get(r, sessionName)
	return sess
}

func (s *Server) currentUser(r *http.Request) string {
	name, _ := s.session(r).Values[userKey].(string)
	return name
}

func (s *Server) checkCredentials(username, plain string) bool {
	hash, found := s.users[username]
	if !found {
		return false
	}
	ok, err := password.Verify(plain, hash)
	if err != nil {
		s.logger.Error("stored credential is unusable", "username", username, "error", err)
		return false
	}
	return ok
}

func (s *Server) flash(w http.ResponseWriter, r *http.Request, category, message string) {
	sess := s.session(r)
	sess.AddFlash(flashMessage{Category: category, Message: message})
	if err := sess.Save(r, w); err != nil {
		s.logger.Error("session save failed", "error", err)
	}
}

// takeFlashes drains pending flash messages. Reading flashes mutates the
// session, so it has to be saved again for the removal to stick.
func (s *Server) takeFlashes(w http.ResponseWriter, r *http.Request) []flashMessage {
	sess := s.session(r)
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := sess.Save(r, w); err != nil {
		s.logger.Error("session save failed", "error", err)
	}

	out := make([]flashMessage, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(flashMessage); ok {
			out = append(out, f)
		}
	}
	return out
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("template render failed", "template", name, "error", err)
	}
}

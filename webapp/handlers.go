package webapp

import (
	"encoding/json"
	"net/http"
)

type loginView struct {
	Flashes []flashMessage
}

type dashboardView struct {
	Username string
	Flashes  []flashMessage
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.currentUser(r) != "" {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.renderLogin(w, r)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}

	username := sanitize(r.PostFormValue("username"))
	plain := sanitize(r.PostFormValue("password"))

	if !s.checkCredentials(username, plain) {
		s.logger.Warn("rejected login", "username", username)
		s.renderLogin(w, r, flashMessage{Category: "error", Message: "Invalid username or password"})
		return
	}

	sess := s.session(r)
	sess.Values[userKey] = username
	sess.AddFlash(flashMessage{Category: "success", Message: "Login successful!"})
	if err := sess.Save(r, w); err != nil {
		s.logger.Error("session save failed", "error", err)
	}

	s.logger.Info("user logged in", "username", username)
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)
	if user == "" {
		s.flash(w, r, "warning", "Please log in to continue.")
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	s.render(w, http.StatusOK, "dashboard.html", dashboardView{
		Username: user,
		Flashes:  s.takeFlashes(w, r),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	for key := range sess.Values {
		delete(sess.Values, key)
	}
	sess.AddFlash(flashMessage{Category: "info", Message: "You have been logged out successfully."})
	if err := sess.Save(r, w); err != nil {
		s.logger.Error("session save failed", "error", err)
	}

	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
		"app":    "reportpipe-login-demo",
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusNotFound, "404.html", nil)
}

// renderLogin shows the login page with any pending session flashes plus
// the extra ones for this response. Login failures pass theirs directly so
// the notice shows exactly once, on this render.
func (s *Server) renderLogin(w http.ResponseWriter, r *http.Request, extra ...flashMessage) {
	flashes := append(s.takeFlashes(w, r), extra...)
	s.render(w, http.StatusOK, "login.html", loginView{Flashes: flashes})
}

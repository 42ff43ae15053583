// Package stubsite is an in-memory stand-in for the event-registration
// site. It serves the detail and registration endpoints with the same
// contract as the real backend so the client can be run and tested
// without it. Nothing is written to disk.
package stubsite

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nexusofthings/nexus/internal/log"
	"github.com/nexusofthings/nexus/internal/site"
	"github.com/nexusofthings/nexus/internal/teams"
)

// Participant is one accepted registration.
type Participant struct {
	Event           string
	TeamCode        string
	TeamName        string
	LeadName        string
	College         string
	Phone           string
	Email           string
	Teammates       []site.Teammate
	IdeaDescription string
	IdeaFileName    string
	IdeaFileSize    int64
	RegisteredAt    time.Time
}

// Server holds the catalogue and the registrations received so far.
type Server struct {
	catalogue map[string]site.EventDetails
	teams     teams.Table
	now       func() time.Time

	mu           sync.Mutex
	participants []Participant
}

// Option configures a Server.
type Option func(*Server)

// WithCatalogue replaces the served events.
func WithCatalogue(c map[string]site.EventDetails) Option {
	return func(s *Server) { s.catalogue = c }
}

// WithTeams sets the table that decides which events need an idea.
func WithTeams(t teams.Table) Option {
	return func(s *Server) { s.teams = t }
}

// WithClock overrides the time source used for team codes.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New returns a stub with the default catalogue and built-in team table.
func New(opts ...Option) *Server {
	s := &Server{
		catalogue: DefaultCatalogue(),
		teams:     teams.Builtin(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routes of the stub.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /get-event-details/{name}/", withLogging(s.handleDetails))
	mux.HandleFunc("POST /register-participant/", withLogging(s.handleRegister))
	mux.HandleFunc("GET /registration/{code}/", withLogging(s.handleRegistration))
	mux.HandleFunc("GET /{$}", withLogging(s.handleHome))

	return mux
}

// Participants returns a copy of the accepted registrations.
func (s *Server) Participants() []Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Participant(nil), s.participants...)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if _, err := r.Cookie(site.DefaultCSRFCookie); err != nil {
		http.SetCookie(w, &http.Cookie{
			Name:     site.DefaultCSRFCookie,
			Value:    strings.ReplaceAll(uuid.NewString(), "-", ""),
			Path:     "/",
			SameSite: http.SameSiteLaxMode,
		})
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprintln(w, "Nexus of Things (stub)")
}

func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	details, ok := s.catalogue[name]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Event not found"})
		return
	}
	if details.Title == "" {
		details.Title = name
	}
	writeJSON(w, http.StatusOK, details)
}

func (s *Server) handleRegistration(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	p, ok := s.lookup(code)
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprintf(w, "%s | %s | %s\n", p.Event, p.TeamCode, p.TeamName)
}

func (s *Server) lookup(code string) (Participant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.participants {
		if p.TeamCode == code {
			return p, true
		}
	}
	return Participant{}, false
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !csrfValid(r) {
		writeJSON(w, http.StatusForbidden, site.RegistrationResult{Message: "CSRF verification failed."})
		return
	}
	if err := r.ParseMultipartForm(site.MaxIdeaFileSize + (1 << 20)); err != nil {
		writeJSON(w, http.StatusBadRequest, site.RegistrationResult{Message: "Invalid form data"})
		return
	}

	p := Participant{
		Event:           r.FormValue("event"),
		TeamName:        r.FormValue("team_name"),
		LeadName:        r.FormValue("team_lead_name"),
		College:         r.FormValue("college_name"),
		Phone:           r.FormValue("phone_number"),
		Email:           r.FormValue("email"),
		IdeaDescription: r.FormValue("idea_description"),
	}
	if p.Event == "" {
		p.Event = r.FormValue("event_name")
	}
	for i := 1; i <= teams.MaxTeammates; i++ {
		name := r.FormValue(fmt.Sprintf("teammate%d_name", i))
		regNo := r.FormValue(fmt.Sprintf("teammate%d_reg_no", i))
		if name != "" || regNo != "" {
			p.Teammates = append(p.Teammates, site.Teammate{Name: name, RegNo: regNo})
		}
	}

	log.Info(log.CatStub, "registration attempt", "event", p.Event, "team", p.TeamName, "lead", p.LeadName, "email", p.Email)

	for _, v := range []string{p.Event, p.TeamName, p.LeadName, p.College, p.Phone, p.Email} {
		if v == "" {
			reject(w, "Missing required fields")
			return
		}
	}

	if s.teams.Lookup(p.Event).NeedsIdea {
		if p.IdeaDescription == "" {
			reject(w, fmt.Sprintf("Idea description is required for %s", p.Event))
			return
		}
		file, header, err := r.FormFile("idea_file")
		if err != nil {
			reject(w, fmt.Sprintf("Pitch deck (PDF/PPT) is required for %s", p.Event))
			return
		}
		_ = file.Close()
		if !site.AcceptedIdeaFile(header.Filename) {
			reject(w, "Only PDF, PPT, or PPTX files are allowed.")
			return
		}
		if header.Size > site.MaxIdeaFileSize {
			reject(w, "File too large. Please upload a file under 50 MB.")
			return
		}
		p.IdeaFileName = header.Filename
		p.IdeaFileSize = header.Size
	}

	code, msg := s.store(p)
	if msg != "" {
		reject(w, msg)
		return
	}

	log.Info(log.CatStub, "registration successful", "event", p.Event, "team", p.TeamName, "code", code)
	writeJSON(w, http.StatusOK, site.RegistrationResult{
		Success:     true,
		TeamCode:    code,
		Message:     fmt.Sprintf("Registration successful! Your team code is: %s. Please save this code for future reference.", code),
		RedirectURL: "/registration/" + code + "/",
	})
}

// store checks for duplicates and records p. It returns the team code, or
// a rejection message.
func (s *Server) store(p Participant) (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.participants {
		if existing.Event != p.Event {
			continue
		}
		if strings.EqualFold(existing.TeamName, p.TeamName) {
			return "", "Team name already exists for this event. Please choose a different name."
		}
		if strings.EqualFold(existing.Email, p.Email) {
			return "", "This email is already registered for this event."
		}
	}

	now := s.now()
	p.RegisteredAt = now
	p.TeamCode = s.nextCode(now)
	s.participants = append(s.participants, p)
	return p.TeamCode, ""
}

// nextCode returns NoT<yymmdd><seq>, seq counting the day's registrations
// from 001. Callers hold s.mu.
func (s *Server) nextCode(now time.Time) string {
	y, m, d := now.Date()
	today := 0
	for _, p := range s.participants {
		py, pm, pd := p.RegisteredAt.Date()
		if py == y && pm == m && pd == d {
			today++
		}
	}
	return fmt.Sprintf("NoT%s%03d", now.Format("060102"), today+1)
}

func csrfValid(r *http.Request) bool {
	cookie, err := r.Cookie(site.DefaultCSRFCookie)
	if err != nil || cookie.Value == "" {
		return false
	}
	header := r.Header.Get(site.DefaultCSRFHeader)
	return subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(header)) == 1
}

func reject(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, site.RegistrationResult{Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.ErrorErr(log.CatStub, "failed to encode JSON response", err)
	}
}

// withLogging logs each request with its duration.
func withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next(w, r)
		log.Info(log.CatStub, "request", "method", r.Method, "path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds())
	}
}

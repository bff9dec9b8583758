package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bellcal/internal/clock"
	"bellcal/internal/config"
	"bellcal/internal/engine"
	"bellcal/internal/events"
	appLog "bellcal/internal/log"
	"bellcal/internal/snapshot"
	"bellcal/internal/store"
)

// Server provides the JSON API over one engine.
type Server struct {
	cfg *config.Config
	eng *engine.Engine
	mux *http.ServeMux
	now func() time.Time
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, eng *engine.Engine) *Server {
	s := &Server{
		cfg: cfg,
		eng: eng,
		mux: http.NewServeMux(),
		now: time.Now,
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Blank credentials disable auth.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="bellcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// ListenAndServe serves on cfg.Listen until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/day", s.handleDay)
	s.mux.HandleFunc("GET /api/conflicts", s.handleConflicts)
	s.mux.HandleFunc("POST /api/conflicts/check", s.handleCheck)
	s.mux.HandleFunc("GET /api/events", s.handleListEvents)
	s.mux.HandleFunc("POST /api/events", s.handleCreateEvent)
	s.mux.HandleFunc("GET /api/events/{id}", s.handleGetEvent)
	s.mux.HandleFunc("PUT /api/events/{id}", s.handleUpdateEvent)
	s.mux.HandleFunc("DELETE /api/events/{id}", s.handleDeleteEvent)
	s.mux.HandleFunc("POST /api/events/{id}/toggle", s.handleToggleEvent)
	s.mux.HandleFunc("GET /api/events/{id}/occurrences", s.handleOccurrences)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleDay returns the snapshot for ?date=YYYY-MM-DD, today by default.
func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	date, now, ok := s.dateParam(w, r)
	if !ok {
		return
	}
	snap, err := s.eng.Day(r.Context(), date, now)
	if err != nil {
		appLog.Error("api day failed", err, "date", r.URL.Query().Get("date"))
		writeError(w, http.StatusInternalServerError, "failed to render day")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type conflictsResponse struct {
	Date      string `json:"date"`
	Code      string `json:"code"`
	Conflicts any    `json:"conflicts"`
}

func (s *Server) handleConflicts(w http.ResponseWriter, r *http.Request) {
	date, now, ok := s.dateParam(w, r)
	if !ok {
		return
	}
	snap, err := s.eng.Day(r.Context(), date, now)
	if err != nil {
		appLog.Error("api conflicts failed", err)
		writeError(w, http.StatusInternalServerError, "failed to detect conflicts")
		return
	}
	writeJSON(w, http.StatusOK, conflictsResponse{Date: snap.Date, Code: snap.Code, Conflicts: snap.Conflicts})
}

// handleCheck reports the conflicts an unsaved event would have on ?date.
// When the body carries an id, the stored event with that id is skipped.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	date, now, ok := s.dateParam(w, r)
	if !ok {
		return
	}
	req, ok := decodeEvent(w, r)
	if !ok {
		return
	}
	draft := req.toEvent(date)
	draft.ID = req.ID
	if draft.ID == "" {
		draft.ID = "draft"
	}

	reports, err := s.eng.Check(r.Context(), draft, date, now)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, conflictsResponse{Date: date.Format(snapshot.DateLayout), Conflicts: reports})
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	list, err := s.eng.Events.List(r.Context())
	if err != nil {
		appLog.Error("api events list failed", err)
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	e, err := s.eng.Events.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeEvent(w, r)
	if !ok {
		return
	}
	date, _, ok := s.dateParam(w, r)
	if !ok {
		return
	}

	e := req.toEvent(date)
	created := events.New(e.Title, e.Start, e.End, e.Repeat, e.ApplicableDays)
	created.Location, created.Note, created.Color = e.Location, e.Note, e.Color
	if err := created.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.eng.Events.Put(r.Context(), created); err != nil {
		s.storeError(w, err)
		return
	}
	appLog.Info("event created", "id", created.ID, "title", created.Title, "repeat", string(created.Repeat))
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeEvent(w, r)
	if !ok {
		return
	}
	date, _, ok := s.dateParam(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	updated, err := store.Edit(r.Context(), s.eng.Events, id, func(e *events.Event) {
		enabled := e.Enabled
		*e = req.toEvent(date)
		e.Enabled = enabled
	})
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := s.eng.Events.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleEvent(w http.ResponseWriter, r *http.Request) {
	e, err := store.Toggle(r.Context(), s.eng.Events, r.PathValue("id"))
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// handleOccurrences lists upcoming dates for an event.
//
// GET /api/events/{id}/occurrences?days=14
func (s *Server) handleOccurrences(w http.ResponseWriter, r *http.Request) {
	days := parseIntDefault(r.URL.Query().Get("days"), 14)
	if days <= 0 {
		days = 14
	}
	occ, err := s.eng.Upcoming(r.Context(), r.PathValue("id"), s.now(), days)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, occ)
}

// eventRequest is the editable part of an event. When Days is empty the
// applicable days are derived from the rule and ?date. ID is only read by
// the conflict check, to leave out the stored copy of an event being edited.
type eventRequest struct {
	ID       string            `json:"id,omitempty"`
	Title    string            `json:"title"`
	Start    clock.Time        `json:"start"`
	End      clock.Time        `json:"end"`
	Location string            `json:"location"`
	Note     string            `json:"note"`
	Color    string            `json:"color"`
	Repeat   events.RepeatRule `json:"repeat"`
	Days     []string          `json:"applicable_days"`
}

func (req eventRequest) toEvent(date time.Time) events.Event {
	days := req.Days
	if len(days) == 0 || req.Repeat == events.RepeatNone || req.Repeat == events.RepeatMonthly {
		days = events.ApplicableDaysFor(req.Repeat, date, req.Days)
	}
	return events.Event{
		Title:          req.Title,
		Start:          req.Start,
		End:            req.End,
		Location:       req.Location,
		Note:           req.Note,
		Color:          req.Color,
		Repeat:         req.Repeat,
		Enabled:        true,
		ApplicableDays: days,
	}
}

func decodeEvent(w http.ResponseWriter, r *http.Request) (eventRequest, bool) {
	var req eventRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid event body: "+err.Error())
		return req, false
	}
	if req.Repeat == "" {
		req.Repeat = events.RepeatNone
	}
	return req, true
}

// dateParam reads ?date in the engine's zone, defaulting to today.
func (s *Server) dateParam(w http.ResponseWriter, r *http.Request) (date, now time.Time, ok bool) {
	now = s.now().In(s.eng.Location)
	raw := strings.TrimSpace(r.URL.Query().Get("date"))
	if raw == "" {
		return now, now, true
	}
	date, err := time.ParseInLocation(snapshot.DateLayout, raw, s.eng.Location)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}
	return date, now, true
}

func (s *Server) storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	if errors.Is(err, events.ErrInvalid) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	appLog.Error("api store operation failed", err)
	writeError(w, http.StatusInternalServerError, "store error")
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

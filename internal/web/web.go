package web

import (
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"agendacal/internal/agenda"
	"agendacal/internal/config"
	"agendacal/internal/model"
	"agendacal/internal/source"
)

// Server exposes the event data and agenda queries to the browser page:
// /api/events for the raw list, /api/agenda for the empty-window /
// navigation query, /preview.png for the last rendered snapshot, and the
// embedded static page for everything else.
type Server struct {
	cfg     *config.Config
	store   *source.Store
	log     *logrus.Logger
	debug   bool
	tracked map[model.ViewKind]bool
	mux     *http.ServeMux
}

// embeddedStatic holds the static agenda page served at /.
//
//go:embed all:static
var embeddedStatic embed.FS

// NewServer constructs a Server over the given store.
func NewServer(cfg *config.Config, store *source.Store, debug bool, log *logrus.Logger) *Server {
	tracked := make(map[model.ViewKind]bool)
	for _, k := range cfg.TrackedViewKinds() {
		tracked[k] = true
	}
	s := &Server{
		cfg:     cfg,
		store:   store,
		log:     log,
		debug:   debug,
		tracked: tracked,
		mux:     http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the server's http.Handler, wrapped with basic auth when
// configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty username or password counts as disabled.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware guards every endpoint except /health.
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
			w.Header().Set("WWW-Authenticate", `Basic realm="agendacal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/events", s.handleEvents)
	s.mux.HandleFunc("/api/agenda", s.handleAgenda)
	s.mux.HandleFunc("/preview.png", s.handlePreview)
	s.mux.Handle("/", s.staticFileServer())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// eventsResponse is the JSON shape of /api/events.
type eventsResponse struct {
	Events          []model.RawEvent `json:"events"`
	Bounds          *boundsDTO       `json:"bounds"`
	DisplayTimeZone string           `json:"display_timezone"`
	WeekStart       string           `json:"week_start"`
}

type boundsDTO struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// handleEvents returns the merged raw event list for the browser widget,
// plus the overall bounds (null when there are no events, which the page
// treats as "no restriction").
func (s *Server) handleEvents(w http.ResponseWriter, _ *http.Request) {
	events := s.store.Events()
	if events == nil {
		events = []model.RawEvent{}
	}

	resp := eventsResponse{
		Events:          events,
		DisplayTimeZone: s.cfg.Location().String(),
		WeekStart:       s.cfg.WeekStart,
	}
	if b, ok := agenda.EventBounds(s.store.Ranges()); ok {
		resp.Bounds = &boundsDTO{Start: b.Start, End: b.End}
	}
	writeJSON(w, http.StatusOK, resp)
}

// agendaResponse is the JSON shape of /api/agenda.
type agendaResponse struct {
	HasEvents bool       `json:"has_events"`
	Target    *time.Time `json:"target"`
}

// handleAgenda answers the page's empty-window query.
//
// GET /api/agenda?start=...&end=...&view=listWeek&last_start=...
//
// start/end describe the visible window; view is the widget's current view
// kind; last_start, when present, is the previously recorded window start
// and determines the paging direction for an empty window. The response
// reports whether the window holds events and, for an empty tracked view,
// the nearest event date in the inferred direction (null when there is
// nothing in that direction — the page stays put).
func (s *Server) handleAgenda(w http.ResponseWriter, r *http.Request) {
	loc := s.cfg.Location()
	q := r.URL.Query()

	windowStart, okStart := agenda.ParseISO(q.Get("start"), loc)
	windowEnd, okEnd := agenda.ParseISO(q.Get("end"), loc)
	if !okStart || !okEnd || !windowEnd.After(windowStart) {
		writeError(w, http.StatusBadRequest, "start and end must be ISO-8601 with end after start")
		return
	}
	view := model.ViewKind(q.Get("view"))

	ranges := s.store.Ranges()
	resp := agendaResponse{
		HasEvents: agenda.HasEventsInRange(ranges, windowStart, windowEnd),
	}

	if !resp.HasEvents && s.tracked[view] {
		backward := false
		if lastStart, ok := agenda.ParseISO(q.Get("last_start"), loc); ok {
			backward = windowStart.Before(lastStart)
		}

		var (
			target time.Time
			found  bool
		)
		if backward {
			target, found = agenda.FindPrevEventDate(ranges, windowStart)
		} else {
			target, found = agenda.FindNextEventDate(ranges, windowEnd)
		}
		if found {
			resp.Target = &target
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// handlePreview serves the last rendered PNG snapshot from disk. The path
// matches the snapshot command's default output.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	previewPath := "/var/lib/agendacal/preview.png"
	if s.debug {
		previewPath = "./cache/preview.png"
	}
	http.ServeFile(w, r, previewPath)
}

// staticFileServer serves the embedded agenda page. API paths never fall
// through to it; a missing API route must 404, not return HTML.
func (s *Server) staticFileServer() http.Handler {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		if s.log != nil {
			s.log.WithError(err).Error("web: embedded static filesystem unavailable")
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "static UI not available", http.StatusServiceUnavailable)
		})
	}

	fileServer := http.FileServer(http.FS(sub))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}

// Serve runs an HTTP server for the handler until ctx is canceled, then
// shuts it down gracefully.
func Serve(ctx context.Context, listen string, handler http.Handler, log *logrus.Logger) error {
	srv := &http.Server{
		Addr:    listen,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	if log != nil {
		log.WithField("listen", "http://"+listen).Info("web: HTTP server started")
	}

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		<-errCh
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

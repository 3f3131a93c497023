// Package inspect serves a small HTTP API for looking at and driving a
// router: its route table, resolution results, the current location and a
// WebSocket stream of committed navigations.
package inspect

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/waypoint/internal/errors"
	"github.com/vango-dev/waypoint/pkg/navigation"
	"github.com/vango-dev/waypoint/pkg/route"
	"github.com/vango-dev/waypoint/pkg/router"
)

// Server is the inspector HTTP handler.
type Server struct {
	router *router.Router
	hub    *Hub
	mux    chi.Router
	logger *slog.Logger
}

// New creates an inspector for r. Metrics are served from gatherer when it
// is not nil.
func New(r *router.Router, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		router: r,
		hub:    NewHub(),
		logger: logger.With("component", "inspect"),
	}

	r.AfterEach(func(to, from *route.Location) {
		s.hub.Broadcast(Event{To: to.FullPath, From: from.FullPath, Matched: to.Paths()})
	})

	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.Recoverer)

	mux.Get("/routes", s.handleRoutes)
	mux.Get("/resolve", s.handleResolve)
	mux.Get("/current", s.handleCurrent)
	mux.Post("/navigate", s.handleNavigate)
	mux.Post("/back", s.handleBack)
	mux.Post("/forward", s.handleForward)
	mux.Get("/ws", s.hub.HandleWebSocket)
	if gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	s.mux = mux
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Hub returns the event stream hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Close disconnects every event stream client.
func (s *Server) Close() {
	s.hub.Close()
}

// RouteInfo describes a registered route.
type RouteInfo struct {
	Path     string         `json:"path"`
	Name     string         `json:"name,omitempty"`
	Redirect string         `json:"redirect,omitempty"`
	Views    []string       `json:"views,omitempty"`
	Meta     map[string]any `json:"meta,omitempty"`
}

// LocationInfo describes a resolved location.
type LocationInfo struct {
	FullPath string              `json:"fullPath"`
	Path     string              `json:"path"`
	Query    map[string][]string `json:"query,omitempty"`
	Hash     string              `json:"hash,omitempty"`
	Name     string              `json:"name,omitempty"`
	Matched  []string            `json:"matched"`
	Meta     map[string]any      `json:"meta,omitempty"`
}

// NavigateRequest is the body of POST /navigate.
type NavigateRequest struct {
	Path    string `json:"path"`
	Replace bool   `json:"replace"`
}

// ErrorResponse is returned for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func locationInfo(l *route.Location) LocationInfo {
	info := LocationInfo{
		FullPath: l.FullPath,
		Path:     l.Path,
		Hash:     l.Hash,
		Name:     l.Name(),
		Matched:  l.Paths(),
	}
	if len(l.Query) > 0 {
		info.Query = l.Query
	}
	if meta := l.MergedMeta(); len(meta) > 0 {
		info.Meta = meta
	}
	if info.Matched == nil {
		info.Matched = []string{}
	}
	return info
}

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	records := s.router.Routes()
	out := make([]RouteInfo, 0, len(records))
	for _, rec := range records {
		views := make([]string, 0, len(rec.Components))
		for v := range rec.Components {
			views = append(views, v)
		}
		sort.Strings(views)
		info := RouteInfo{
			Path:     rec.Path,
			Name:     rec.Name,
			Redirect: rec.Redirect,
			Views:    views,
		}
		if len(rec.Meta) > 0 {
			info.Meta = rec.Meta
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "missing path parameter"})
		return
	}
	loc, err := s.router.Matcher().ResolveStrict(path)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	s.writeJSON(w, http.StatusOK, locationInfo(loc))
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, locationInfo(s.router.CurrentRoute().Get()))
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req NavigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "body must be {\"path\": \"/...\"}"})
		return
	}

	err := s.router.Navigate(r.Context(), router.Target{Path: req.Path, Replace: req.Replace})
	if err != nil {
		s.logger.Info("navigation refused", "path", req.Path, "error", err)
		s.writeError(w, http.StatusConflict, err)
		return
	}
	s.handleCurrent(w, r)
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	s.router.Back()
	s.handleCurrent(w, r)
}

func (s *Server) handleForward(w http.ResponseWriter, r *http.Request) {
	s.router.Forward()
	s.handleCurrent(w, r)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	code := errors.CodeOf(err)
	var f *navigation.Failure
	if errors.As(err, &f) {
		if coded := f.Coded(); coded != nil {
			code = coded.Code
		}
	}
	s.writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: code})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("writing response", "error", err)
	}
}

// Package devserver is an in-memory implementation of the task API used for
// local development and as the test double of the client packages.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dohr-michael/taskdeck/internal/config"
)

// Options configures a Server.
type Options struct {
	Addr     string
	Routes   config.Routes
	Secret   string
	TokenTTL time.Duration
	// Clock overrides time.Now (tests).
	Clock  func() time.Time
	Logger *slog.Logger
}

// Server is the dev API server.
type Server struct {
	httpServer *http.Server
	store      *Store
	tokens     *tokenIssuer
	log        *slog.Logger
}

// New creates a server with an empty store.
func New(opts Options) *Server {
	routes := opts.Routes
	if routes == (config.Routes{}) {
		routes = config.DefaultRoutes()
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = time.Hour
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		store:  NewStore(opts.Clock),
		tokens: &tokenIssuer{secret: []byte(opts.Secret), ttl: opts.TokenTTL, now: opts.Clock},
		log:    log,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)
	r.Post(routes.Login, s.handleLogin)
	r.Post(routes.Register, s.handleRegister)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Get(routes.User, s.handleGetUser)
		r.Put(routes.User, s.handleUpdateUser)
		r.Delete(routes.User, s.handleDeleteUser)

		r.Get(routes.PriorityTasks, s.handlePriorityTasks)
		r.Get(routes.UpcomingTasks, s.handleUpcomingTasks)
		r.Get(routes.ListTasks, s.handleListTasks)
		r.Post(routes.CreateTask, s.handleCreateTask)
		r.Get(routes.GetTask, s.handleGetTask)
		r.Put(routes.UpdateTask, s.handleUpdateTask)
		r.Delete(routes.DeleteTask, s.handleDeleteTask)

		r.Get(routes.Categories, s.handleListCategories)
		r.Post(routes.Categories, s.handleCreateCategory)
		r.Get(routes.Category, s.handleGetCategory)
		r.Put(routes.Category, s.handleUpdateCategory)
		r.Delete(routes.Category, s.handleDeleteCategory)
		r.Get(routes.CategoryTasks, s.handleCategoryTasks)

		r.Get(routes.Notifications, s.handleListNotifications)
		r.Put(routes.NotificationsRead, s.handleMarkAllRead)
		r.Put(routes.NotificationRead, s.handleMarkRead)
		r.Delete(routes.Notification, s.handleDeleteNotification)
	})

	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the router, e.g. for httptest.NewServer.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Store exposes the backing store for seeding.
func (s *Server) Store() *Store { return s.store }

// Start begins listening. It blocks until the server is stopped.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	s.log.Info("dev server listening", "addr", ln.Addr().String())
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("dev server request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", r.Header.Get("X-Request-ID"),
			"duration", time.Since(start),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- helpers ---

type fieldError struct {
	Loc []string `json:"loc"`
	Msg string   `json:"msg"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeInvalid reports a request validation failure as a list of field errors.
func writeInvalid(w http.ResponseWriter, field, msg string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string][]fieldError{
		"detail": {{Loc: []string{"body", field}, Msg: msg}},
	})
}

// writeStoreError maps store sentinels onto HTTP statuses.
func writeStoreError(w http.ResponseWriter, err error, what string) {
	switch {
	case errors.Is(err, errNotFound):
		writeDetail(w, http.StatusNotFound, what+" not found")
	case errors.Is(err, errForbidden):
		writeDetail(w, http.StatusForbidden, "you do not have access to this "+what)
	case errors.Is(err, errExists):
		writeDetail(w, http.StatusConflict, what+" already exists")
	case errors.Is(err, errCompletedLocked):
		writeDetail(w, http.StatusBadRequest, err.Error())
	default:
		writeDetail(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v)
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// intParam parses a bounded integer query parameter.
func intParam(r *http.Request, name string, def, lo, hi int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || (hi > 0 && n > hi) {
		return 0, false
	}
	return n, true
}

func boolParam(r *http.Request, name string) (*bool, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, false
	}
	return &b, true
}

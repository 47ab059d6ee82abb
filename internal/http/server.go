package httpserver

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Clark-Hu/cinema-booking/internal/backend"
	"github.com/Clark-Hu/cinema-booking/internal/config"
	"github.com/Clark-Hu/cinema-booking/internal/sessions"
	"github.com/Clark-Hu/cinema-booking/internal/store"
)

// Server wires HTTP routing, middleware, and handlers.
type Server struct {
	cfg      config.Config
	store    *store.Store
	sessions sessions.Store
	locks    *sessions.Locks
	backend  backend.Client
	validate *validator.Validate
	logger   *log.Logger
	router   chi.Router
	httpSrv  *http.Server
	now      func() time.Time
	newID    func() string
}

// New constructs the HTTP server with base middleware and routes. st may be
// nil when sessions are kept in memory.
func New(cfg config.Config, st *store.Store, sessionStore sessions.Store, client backend.Client, logger *log.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	if logger == nil {
		logger = log.Default()
	}

	s := &Server{
		cfg:      cfg,
		store:    st,
		sessions: sessionStore,
		locks:    sessions.NewLocks(cfg.SessionLockStripes),
		backend:  client,
		validate: newValidator(),
		logger:   logger,
		router:   r,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/foods", s.handleListFoods)
	s.router.Post("/combos/quote", s.handleComboQuote)
	s.router.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Post("/date", s.handleSelectDate)
			r.Post("/showtime", s.handleSelectShowtime)
			r.Post("/seats", s.handleProceedToSeats)
			r.Post("/seats/{seat}/toggle", s.handleToggleSeat)
			r.Post("/checkout", s.handleProceedToCheckout)
			r.Post("/back", s.handleBack)
			r.Post("/bookings", s.handleSubmitBooking)
		})
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start boots the HTTP server and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.IdleTimeoutSecs) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout())
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) shutdownTimeout() time.Duration {
	if s.cfg.ShutdownTimeoutSecs > 0 {
		return time.Duration(s.cfg.ShutdownTimeoutSecs) * time.Second
	}
	return 5 * time.Second
}

type healthResponse struct {
	Status   string           `json:"status"`
	Sessions string           `json:"sessions"`
	Stages   map[string]int64 `json:"stages,omitempty"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Sessions: "memory"}
	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.store.HealthCheck(ctx); err != nil {
			s.logger.Printf("healthz: store unavailable: %v", err)
			s.respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Session store unavailable")
			return
		}
		resp.Sessions = "postgres"
	}
	if counter, ok := s.sessions.(sessions.StageCounter); ok {
		stages, err := counter.CountByStage(r.Context())
		if err != nil {
			s.logger.Printf("healthz: count sessions: %v", err)
		} else {
			resp.Stages = stages
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

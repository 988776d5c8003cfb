package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/zsiec/reel/internal/config"
	"github.com/zsiec/reel/internal/errors"
	"github.com/zsiec/reel/internal/health"
	"github.com/zsiec/reel/internal/logger"
	"github.com/zsiec/reel/internal/media"
	"github.com/zsiec/reel/internal/playback/cache"
	"github.com/zsiec/reel/internal/playback/controller"
	"github.com/zsiec/reel/internal/playback/prefetch"
	"github.com/zsiec/reel/internal/registry"
)

// Server is the playback control plane: asset registration, transport
// commands, frame/thumbnail serving and the websocket event feed. It
// also owns the render-loop ticker that drives the controller.
type Server struct {
	cfg    *config.Config
	router *mux.Router

	httpServer *http.Server

	logger       *logrus.Logger
	redis        *redis.Client
	healthMgr    *health.Manager
	errorHandler *errors.ErrorHandler

	registry   registry.Registry
	store      *media.Store
	frames     *cache.Cache
	scheduler  *prefetch.Scheduler
	controller *controller.Controller
	hub        *Hub
}

// New wires the playback stack: store, cache, scheduler, controller
// and the event hub. redisClient may be nil when Redis is disabled.
func New(cfg *config.Config, log *logrus.Logger, redisClient *redis.Client, reg registry.Registry) *Server {
	adapted := logger.NewLogrusAdapter(logrus.NewEntry(log))

	store := media.NewStore(adapted)
	frames := cache.New(cfg.Cache, store, adapted)
	scheduler := prefetch.NewScheduler(cfg.Prefetch, frames, adapted)
	frames.SetRequester(scheduler)

	ctrl := controller.New(cfg.Playback, frames, adapted)
	hub := NewHub(log)

	// Observers feed the websocket event stream.
	ctrl.OnStateChange(func(sc controller.StateChange) {
		hub.Broadcast(Event{Type: EventStateChange, State: &sc})
	})
	ctrl.OnTimeUpdate(func(seconds float64) {
		hub.Broadcast(Event{Type: EventTimeUpdate, Time: &seconds})
	})

	s := &Server{
		cfg:          cfg,
		router:       mux.NewRouter(),
		logger:       log,
		redis:        redisClient,
		healthMgr:    health.NewManager(log),
		errorHandler: errors.NewErrorHandler(log),
		registry:     reg,
		store:        store,
		frames:       frames,
		scheduler:    scheduler,
		controller:   ctrl,
		hub:          hub,
	}

	s.registerHealthCheckers()
	s.setupRoutes()

	return s
}

// Start runs the HTTP server, the event hub, periodic health checks
// and the render loop until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	go s.healthMgr.StartPeriodicChecks(ctx, 30*time.Second)
	go s.hub.Run(ctx)
	go s.runRenderLoop(ctx)

	s.logger.WithField("port", s.cfg.Server.HTTPPort).Info("Starting HTTP server")

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown stops the HTTP listener, the scheduler and the playback
// stack.
func (s *Server) Shutdown() error {
	s.logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.controller.Dispose()
	s.scheduler.Stop()
	s.frames.Reset()

	s.logger.Info("Server shutdown complete")
	return nil
}

// runRenderLoop is the host-provided frame pacer: it ticks the
// controller once per display refresh interval.
func (s *Server) runRenderLoop(ctx context.Context) {
	refresh := s.cfg.Playback.RefreshRate
	if refresh <= 0 {
		refresh = 60
	}

	ticker := time.NewTicker(time.Duration(float64(time.Second) / refresh))
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.controller.Render()
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) registerHealthCheckers() {
	if s.redis != nil {
		s.healthMgr.Register(health.NewRedisChecker(s.redis))
	}
	s.healthMgr.Register(health.NewFFmpegChecker(s.cfg.Media.FFmpegPath))
	s.healthMgr.Register(health.NewCacheChecker(s.frames, s.cfg.Prefetch.MaxPending))
}

// GetRouter returns the router for testing.
func (s *Server) GetRouter() *mux.Router {
	return s.router
}

// Controller exposes the playback controller for testing.
func (s *Server) Controller() *controller.Controller {
	return s.controller
}

// Package server provides the HTTP service for intentify.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/intentify/internal/capture"
	"github.com/thebtf/intentify/internal/compose"
	"github.com/thebtf/intentify/internal/config"
	gormdb "github.com/thebtf/intentify/internal/db/gorm"
	"github.com/thebtf/intentify/internal/intent"
	"github.com/thebtf/intentify/internal/server/sse"
)

// Prober checks generative backend reachability.
type Prober interface {
	Probe(ctx context.Context) (string, error)
}

// Deps are the collaborators the service needs. Every component is
// constructed once at startup and injected here; nothing is discovered via
// shared global state.
type Deps struct {
	Config       *config.Config
	Store        *gormdb.Store
	SessionStore *gormdb.SessionStore
	PromptStore  *gormdb.PromptStore
	Ingestor     *capture.Ingestor
	Extractor    *intent.Extractor
	Composer     *compose.Composer
	Prober       Prober
}

// Service is the HTTP service.
type Service struct {
	version        string
	config         *config.Config
	store          *gormdb.Store
	sessionStore   *gormdb.SessionStore
	promptStore    *gormdb.PromptStore
	ingestor       *capture.Ingestor
	extractor      *intent.Extractor
	composer       *compose.Composer
	prober         Prober
	sseBroadcaster *sse.Broadcaster
	metrics        *serviceMetrics
	router         *chi.Mux
	httpServer     *http.Server
	ctx            context.Context
	cancel         context.CancelFunc
	startTime      time.Time
	ready          atomic.Bool
}

// New creates the service and wires its routes.
func New(version string, deps Deps) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	svc := &Service{
		version:        version,
		config:         deps.Config,
		store:          deps.Store,
		sessionStore:   deps.SessionStore,
		promptStore:    deps.PromptStore,
		ingestor:       deps.Ingestor,
		extractor:      deps.Extractor,
		composer:       deps.Composer,
		prober:         deps.Prober,
		sseBroadcaster: sse.NewBroadcaster(),
		metrics:        newServiceMetrics(),
		router:         chi.NewRouter(),
		ctx:            ctx,
		cancel:         cancel,
		startTime:      time.Now(),
	}

	svc.setupRoutes()
	svc.ready.Store(true)
	return svc
}

func (s *Service) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(requestLogger)
	s.router.Use(s.corsMiddleware)

	s.router.Get("/", s.handleRoot)
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/health/model", s.handleModelHealth)
	s.router.Get("/api/events", s.sseBroadcaster.Handler())

	s.router.Route("/session", func(r chi.Router) {
		r.Post("/start", s.handleStartSession)
		r.Get("/{sessionID}", s.handleGetSession)
		r.Get("/{sessionID}/prompts", s.handleListPrompts)
		r.Post("/{sessionID}/audio", s.handleUploadAudio)
		r.Post("/{sessionID}/screen", s.handleUploadScreen)
		r.Post("/{sessionID}/capture", s.handleCapture)
	})

	s.router.Post("/prompts/{sessionID}/generate", s.handleGenerate)
}

// Router exposes the chi router (used by tests).
func (s *Service) Router() http.Handler {
	return s.router
}

// Start serves HTTP until the context is cancelled or the listener fails.
func (s *Service) Start() error {
	addr := fmt.Sprintf(":%d", s.config.HTTPPort)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info().Str("addr", addr).Str("version", s.version).Msg("HTTP server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server gracefully.
func (s *Service) Shutdown(ctx context.Context) error {
	s.ready.Store(false)
	s.cancel()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// requestLogger logs each request with zerolog.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// corsMiddleware applies the configured CORS origins.
func (s *Service) corsMiddleware(next http.Handler) http.Handler {
	allowed := s.config.CORSOrigins
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && originAllowed(allowed, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func originAllowed(allowed []string, origin string) bool {
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}

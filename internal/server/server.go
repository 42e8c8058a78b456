package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/profiledesk/apiserver/config"
	"github.com/profiledesk/apiserver/internal/auth"
	"github.com/profiledesk/apiserver/internal/db"
	"github.com/profiledesk/apiserver/internal/handlers"
	"github.com/profiledesk/apiserver/internal/mq"
	"github.com/profiledesk/apiserver/internal/services"
	"github.com/profiledesk/apiserver/internal/storage"
	"github.com/profiledesk/apiserver/internal/store"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/crypto/bcrypt"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	broker     *mq.MQ
	logger     *slog.Logger
}

// Dependencies lets callers supply pre-built collaborators. Nil fields are
// built from config.
type Dependencies struct {
	DB      *sql.DB
	Objects services.ObjectStore
	Broker  *mq.MQ
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	return NewWithDependencies(ctx, cfg, logger, Dependencies{})
}

// NewWithDependencies is New with some collaborators injected.
func NewWithDependencies(ctx context.Context, cfg config.Config, logger *slog.Logger, deps Dependencies) (_ *Server, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	codec, err := auth.NewTokenCodec(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, err
	}

	dbConn := deps.DB
	if dbConn == nil {
		if dbConn, err = db.Open(ctx, cfg.Database); err != nil {
			return nil, err
		}
		defer func() {
			if err != nil {
				_ = dbConn.Close()
			}
		}()
	}

	objects := deps.Objects
	if objects == nil {
		media, err := storage.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := media.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("ensure media bucket: %w", err)
		}
		objects = media
	}

	broker := deps.Broker
	if broker == nil {
		if broker, err = mq.Open(ctx, cfg); err != nil {
			return nil, err
		}
	}

	// A nil *AccountEventPublisher must not reach the services as a
	// non-nil interface.
	var events services.EventPublisher
	if broker != nil {
		events = mq.NewAccountEventPublisher(broker, cfg.MQ.AccountEventsChannel)
	}

	accountRepo := store.NewAccountRepository(dbConn, cfg.Database.Driver)
	hasher := auth.NewBcryptHasher(bcrypt.DefaultCost)
	resolver := auth.NewResolver(codec)

	authService := services.NewAuthService(accountRepo, hasher, codec, events, logger)
	mediaService := services.NewMediaService(objects, cfg.Media.RootFolder, logger)
	profileService := services.NewProfileService(accountRepo, hasher, mediaService, events, logger)

	cookies := handlers.CookieOptions{TTL: codec.TTL(), Secure: cfg.Production()}
	authMiddleware := handlers.RequireAuth(resolver)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authService, resolver, cookies, logger)
	})
	router.Route("/user", func(r chi.Router) {
		handlers.ProfileRouter(r, profileService, authMiddleware, logger)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      otelhttp.NewHandler(router, "apiserver"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		broker:     broker,
		logger:     logger,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Handler returns the instrumented root handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start runs the HTTP server. It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones and then
// releases the database and broker.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.broker != nil {
		if closeErr := s.broker.Close(); closeErr != nil {
			s.logger.Warn("close broker failed", "error", closeErr)
		}
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return err
}

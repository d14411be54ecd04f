package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dryack/dndice/core/dsl"
	"github.com/dryack/dndice/core/receipt"
	"github.com/dryack/dndice/core/session"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/knadh/koanf/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Dependencies are the collaborators a Server is built from. Cache and
// Database may be nil; statistics are then recomputed or kept only in cache.
type Dependencies struct {
	Cache    dsl.Cache
	Database dsl.Database
	Sessions *session.SessionManager
	Receipts *receipt.Signer
	Source   dsl.Source
}

type Server struct {
	config     *koanf.Koanf
	router     *gin.Engine
	cache      dsl.Cache
	db         dsl.Database
	sessions   *session.SessionManager
	receipts   *receipt.Signer
	src        dsl.Source
	iterations int
	simTimeout time.Duration
	closers    []func()
}

// NewServer connects to the statistics cache and, when database.url is set,
// to Postgres. The server starts without a cache if the cache is unreachable.
func NewServer(ctx context.Context, cfg *koanf.Koanf) (*Server, error) {
	var (
		deps    = Dependencies{Source: dsl.SourceFromSeed(cfg.Int64("dice.seed"))}
		closers []func()
	)

	if cacheAddr := cfg.String("cache.address"); cacheAddr != "" {
		log.Info().Str("address", cacheAddr).Msg("connecting to Dragonfly")
		client := redis.NewClient(&redis.Options{Addr: cacheAddr})

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Warn().Err(err).Msg("error connecting to Dragonfly, continuing without cache")
			_ = client.Close()
		} else {
			deps.Cache = dsl.NewDragonflyCache(client, cfg.Int("cache.size"))
			closers = append(closers, func() { _ = client.Close() })
		}
	}

	if dbURL := cfg.String("database.url"); dbURL != "" {
		pool, err := pgxpool.Connect(ctx, dbURL)
		if err != nil {
			return nil, fmt.Errorf("unable to connect to database: %w", err)
		}
		db := dsl.NewPostgresDB(pool)
		if err := db.Migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("unable to migrate database: %w", err)
		}
		deps.Database = db
		closers = append(closers, pool.Close)
	}

	signer, err := receipt.NewSigner(cfg.String("receipt.secret"), cfg.Duration("receipt.ttl"))
	if err != nil {
		for _, c := range closers {
			c()
		}
		return nil, err
	}
	deps.Receipts = signer
	deps.Sessions = session.NewSessionManager(deps.Source)

	s := NewServerWith(cfg, deps)
	s.closers = closers
	return s, nil
}

// NewServerWith builds a Server around already constructed dependencies.
// Nil Sessions, Receipts or Source are replaced with defaults.
func NewServerWith(cfg *koanf.Koanf, deps Dependencies) *Server {
	if deps.Source == nil {
		deps.Source = dsl.DefaultSource
	}
	if deps.Sessions == nil {
		deps.Sessions = session.NewSessionManager(deps.Source)
	}
	if deps.Receipts == nil {
		signer, err := receipt.NewSigner("", 0)
		if err != nil {
			panic(err)
		}
		deps.Receipts = signer
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	s := &Server{
		config:     cfg,
		router:     router,
		cache:      deps.Cache,
		db:         deps.Database,
		sessions:   deps.Sessions,
		receipts:   deps.Receipts,
		src:        deps.Source,
		iterations: cfg.Int("simulation.iterations"),
		simTimeout: cfg.Duration("simulation.timeout"),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	{
		api.GET("/health", s.handleHealth)
		api.GET("/encode", s.handleEncodeExpression)
		api.GET("/roll", s.handleDiceRoll)
		api.GET("/scores/:method", s.handleScores)
		api.GET("/receipts/verify", s.handleVerifyReceipt)

		sessions := api.Group("/sessions")
		sessions.POST("", s.handleCreateSession)
		sessions.GET("/:id", s.handleGetSession)
		sessions.POST("/:id/roll", s.handleSessionRoll)
		sessions.GET("/:id/log/:back", s.handleSessionLog)
		sessions.DELETE("/:id", s.handleDeleteSession)
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Cache() dsl.Cache {
	return s.cache
}

func (s *Server) Database() dsl.Database {
	return s.db
}

func (s *Server) Sessions() *session.SessionManager {
	return s.sessions
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.String("server.address"),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("address", srv.Addr).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	log.Info().Msg("shutting down server")
	return srv.Shutdown(shutdownCtx)
}

// Close releases the cache and database connections opened by NewServer.
func (s *Server) Close() {
	for _, c := range s.closers {
		c()
	}
}

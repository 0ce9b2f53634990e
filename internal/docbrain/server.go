// Package docbrain provides the docbrain server implementation.
package docbrain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"
	"github.com/kart-io/logger/option"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/docbrain/internal/docbrain/biz"
	"github.com/kart-io/docbrain/internal/docbrain/router"
	"github.com/kart-io/docbrain/internal/docbrain/store"
	"github.com/kart-io/docbrain/internal/pkg/ranker"
	"github.com/kart-io/docbrain/internal/pkg/vectorizer"
	"github.com/kart-io/docbrain/pkg/llm"

	// Register LLM providers.
	_ "github.com/kart-io/docbrain/pkg/llm/gemini"
)

// Name is the name of the application.
const Name = "docbrain"

// CacheConfig contains optional Redis cache configuration.
type CacheConfig struct {
	Enabled   bool
	Addr      string
	Password  string
	Database  int
	TTL       time.Duration
	KeyPrefix string
}

// Config contains application-related configurations.
type Config struct {
	Addr            string
	DBPath          string
	LogOptions      *option.LogOption
	Auth            *biz.AuthConfig
	ChunkSize       int
	Vectorizer      *vectorizer.Config
	Ranker          *ranker.Config
	RAG             *biz.RAGConfig
	ChatProvider    string
	ChatOptions     map[string]any
	Cache           *CacheConfig
	ShutdownTimeout time.Duration
}

// Server is the assembled docbrain service.
type Server struct {
	httpSrv         *http.Server
	store           store.Factory
	rag             *biz.RAGService
	redisClose      func()
	shutdownTimeout time.Duration
}

// NewServer initializes and returns a new Server instance.
func (cfg *Config) NewServer(_ context.Context) (*Server, error) {
	if cfg.LogOptions == nil {
		cfg.LogOptions = option.DefaultLogOption()
	}
	log, err := logger.New(cfg.LogOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.SetGlobal(log)
	logger.Infof("Starting %s...", Name)

	factory, err := store.NewSQLiteFactory(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	logger.Infow("Store initialized", "path", cfg.DBPath)

	vec := vectorizer.New(cfg.Vectorizer)
	rk := ranker.New(cfg.Ranker)

	chatProvider, err := llm.NewChatProvider(cfg.ChatProvider, cfg.ChatOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chat provider: %w", err)
	}
	logger.Infow("Chat provider initialized", "provider", chatProvider.Name())

	queryCache, redisClose := cfg.newQueryCache()

	authSvc := biz.NewAuthService(factory, cfg.Auth)
	docSvc := biz.NewDocumentService(factory, vec, cfg.ChunkSize)
	ragSvc, err := biz.NewRAGService(factory, vec, rk, chatProvider, queryCache, cfg.RAG)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize rag service: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	router.Register(engine, authSvc, docSvc, ragSvc)

	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	logger.Infow("Service is ready", "addr", cfg.Addr)
	return &Server{
		httpSrv: &http.Server{
			Addr:    cfg.Addr,
			Handler: engine,
		},
		store:           factory,
		rag:             ragSvc,
		redisClose:      redisClose,
		shutdownTimeout: shutdownTimeout,
	}, nil
}

// newQueryCache builds the optional Redis-backed query cache. A cache
// that cannot be reached at startup is disabled rather than fatal.
func (cfg *Config) newQueryCache() (*biz.QueryCache, func()) {
	if cfg.Cache == nil || !cfg.Cache.Enabled {
		logger.Info("Query cache is disabled")
		return nil, nil
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Cache.Addr,
		Password: cfg.Cache.Password,
		DB:       cfg.Cache.Database,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warnw("failed to connect to redis, cache will be disabled", "error", err.Error())
		_ = client.Close()
		return nil, nil
	}

	cache := biz.NewQueryCache(client, &biz.QueryCacheConfig{
		Enabled:   true,
		TTL:       cfg.Cache.TTL,
		KeyPrefix: cfg.Cache.KeyPrefix,
	})
	logger.Infow("Query cache initialized", "addr", cfg.Cache.Addr, "ttl", cfg.Cache.TTL)
	return cache, func() { _ = client.Close() }
}

// Run starts the HTTP server and blocks until the context is canceled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.close()
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	err := s.httpSrv.Shutdown(shutdownCtx)
	s.close()
	if err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

func (s *Server) close() {
	s.rag.Close()
	if s.redisClose != nil {
		s.redisClose()
	}
	if err := s.store.Close(); err != nil {
		logger.Warnw("failed to close store", "error", err.Error())
	}
}

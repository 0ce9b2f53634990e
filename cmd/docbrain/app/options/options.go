// Package options contains flags and options for initializing the
// docbrain server.
package options

import (
	"fmt"
	"time"

	"github.com/kart-io/logger/option"
	"github.com/spf13/pflag"

	"github.com/kart-io/docbrain/internal/docbrain"
	"github.com/kart-io/docbrain/internal/docbrain/biz"
	"github.com/kart-io/docbrain/internal/pkg/chunker"
	"github.com/kart-io/docbrain/internal/pkg/ranker"
	"github.com/kart-io/docbrain/internal/pkg/vectorizer"
)

// ChatOptions contains chat provider configuration.
type ChatOptions struct {
	// Provider selects the registered chat provider.
	Provider string `json:"provider" mapstructure:"provider"`
	// APIKey authenticates against the provider.
	APIKey string `json:"api-key" mapstructure:"api-key"`
	// BaseURL overrides the provider endpoint.
	BaseURL string `json:"base-url" mapstructure:"base-url"`
	// Model selects the chat model.
	Model string `json:"model" mapstructure:"model"`
}

// CacheOptions contains optional Redis query cache configuration.
type CacheOptions struct {
	Enabled   bool          `json:"enabled" mapstructure:"enabled"`
	Addr      string        `json:"addr" mapstructure:"addr"`
	Password  string        `json:"password" mapstructure:"password"`
	Database  int           `json:"database" mapstructure:"database"`
	TTL       time.Duration `json:"ttl" mapstructure:"ttl"`
	KeyPrefix string        `json:"key-prefix" mapstructure:"key-prefix"`
}

// RetrievalOptions contains chunking and ranking configuration.
type RetrievalOptions struct {
	ChunkSize        int     `json:"chunk-size" mapstructure:"chunk-size"`
	MaxFeatures      int     `json:"max-features" mapstructure:"max-features"`
	FallbackMaxWords int     `json:"fallback-max-words" mapstructure:"fallback-max-words"`
	ScoreThreshold   float64 `json:"score-threshold" mapstructure:"score-threshold"`
	PerDocTopK       int     `json:"per-doc-top-k" mapstructure:"per-doc-top-k"`
	MaxSources       int     `json:"max-sources" mapstructure:"max-sources"`
	PoolSize         int     `json:"pool-size" mapstructure:"pool-size"`
}

// ServerOptions contains the configuration options for the server.
type ServerOptions struct {
	// Addr is the HTTP listen address.
	Addr string `json:"addr" mapstructure:"addr"`

	// DBPath is the sqlite database file path.
	DBPath string `json:"db-path" mapstructure:"db-path"`

	// JWTKey signs session tokens.
	JWTKey string `json:"jwt-key" mapstructure:"jwt-key"`

	// TokenExpiry bounds session token lifetime.
	TokenExpiry time.Duration `json:"token-expiry" mapstructure:"token-expiry"`

	// LogOptions contains logger configuration.
	LogOptions *option.LogOption `json:"log" mapstructure:"log"`

	// Chat contains chat provider configuration.
	Chat *ChatOptions `json:"chat" mapstructure:"chat"`

	// Cache contains query cache configuration.
	Cache *CacheOptions `json:"cache" mapstructure:"cache"`

	// Retrieval contains chunking and ranking configuration.
	Retrieval *RetrievalOptions `json:"retrieval" mapstructure:"retrieval"`

	// ShutdownTimeout is the timeout for graceful shutdown.
	ShutdownTimeout time.Duration `json:"shutdown-timeout" mapstructure:"shutdown-timeout"`
}

// NewServerOptions creates a ServerOptions instance with default values.
func NewServerOptions() *ServerOptions {
	return &ServerOptions{
		Addr:        ":8080",
		DBPath:      "docbrain.db",
		JWTKey:      "",
		TokenExpiry: 24 * time.Hour,
		LogOptions:  option.DefaultLogOption(),
		Chat: &ChatOptions{
			Provider: "gemini",
			Model:    "gemini-1.5-flash",
		},
		Cache: &CacheOptions{
			Enabled:   false,
			Addr:      "localhost:6379",
			TTL:       time.Hour,
			KeyPrefix: "docbrain:query:",
		},
		Retrieval: &RetrievalOptions{
			ChunkSize:        chunker.DefaultChunkSize,
			MaxFeatures:      1000,
			FallbackMaxWords: 500,
			ScoreThreshold:   ranker.DefaultScoreThreshold,
			PerDocTopK:       3,
			MaxSources:       5,
			PoolSize:         8,
		},
		ShutdownTimeout: 10 * time.Second,
	}
}

// AddFlags adds server flags to the flagset.
func (o *ServerOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Addr, "addr", o.Addr, "HTTP listen address")
	fs.StringVar(&o.DBPath, "db-path", o.DBPath, "Path to the sqlite database file")
	fs.StringVar(&o.JWTKey, "jwt-key", o.JWTKey, "Secret used to sign session tokens")
	fs.DurationVar(&o.TokenExpiry, "token-expiry", o.TokenExpiry, "Session token lifetime")
	fs.DurationVar(&o.ShutdownTimeout, "shutdown-timeout", o.ShutdownTimeout, "Graceful shutdown timeout")

	fs.StringVar(&o.Chat.Provider, "chat.provider", o.Chat.Provider, "Chat provider name")
	fs.StringVar(&o.Chat.APIKey, "chat.api-key", o.Chat.APIKey, "Chat provider API key")
	fs.StringVar(&o.Chat.BaseURL, "chat.base-url", o.Chat.BaseURL, "Chat provider base URL")
	fs.StringVar(&o.Chat.Model, "chat.model", o.Chat.Model, "Chat model name")

	fs.BoolVar(&o.Cache.Enabled, "cache.enabled", o.Cache.Enabled, "Enable the Redis query cache")
	fs.StringVar(&o.Cache.Addr, "cache.addr", o.Cache.Addr, "Redis address")
	fs.StringVar(&o.Cache.Password, "cache.password", o.Cache.Password, "Redis password")
	fs.IntVar(&o.Cache.Database, "cache.database", o.Cache.Database, "Redis database index")
	fs.DurationVar(&o.Cache.TTL, "cache.ttl", o.Cache.TTL, "Query cache entry lifetime")

	fs.IntVar(&o.Retrieval.ChunkSize, "retrieval.chunk-size", o.Retrieval.ChunkSize, "Target chunk size in characters")
	fs.IntVar(&o.Retrieval.MaxFeatures, "retrieval.max-features", o.Retrieval.MaxFeatures, "Vocabulary size cap for the vector space")
	fs.Float64Var(&o.Retrieval.ScoreThreshold, "retrieval.score-threshold", o.Retrieval.ScoreThreshold, "Minimum cosine similarity for a hit")
	fs.IntVar(&o.Retrieval.PerDocTopK, "retrieval.per-doc-top-k", o.Retrieval.PerDocTopK, "Hits kept per document")
	fs.IntVar(&o.Retrieval.MaxSources, "retrieval.max-sources", o.Retrieval.MaxSources, "Sources fed to the generator")
}

// Validate checks whether the options are valid.
func (o *ServerOptions) Validate() error {
	if o.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if o.DBPath == "" {
		return fmt.Errorf("db-path is required")
	}
	if o.JWTKey == "" {
		return fmt.Errorf("jwt-key is required")
	}
	if o.Chat == nil || o.Chat.Provider == "" {
		return fmt.Errorf("chat.provider is required")
	}
	if o.Chat.APIKey == "" {
		return fmt.Errorf("chat.api-key is required")
	}
	return nil
}

// Config builds the server runtime configuration from the options.
func (o *ServerOptions) Config() (*docbrain.Config, error) {
	chatOptions := map[string]any{
		"api_key": o.Chat.APIKey,
	}
	if o.Chat.BaseURL != "" {
		chatOptions["base_url"] = o.Chat.BaseURL
	}
	if o.Chat.Model != "" {
		chatOptions["chat_model"] = o.Chat.Model
	}

	return &docbrain.Config{
		Addr:       o.Addr,
		DBPath:     o.DBPath,
		LogOptions: o.LogOptions,
		Auth: &biz.AuthConfig{
			JWTKey:      o.JWTKey,
			TokenExpiry: o.TokenExpiry,
		},
		ChunkSize: o.Retrieval.ChunkSize,
		Vectorizer: &vectorizer.Config{
			MaxFeatures:      o.Retrieval.MaxFeatures,
			FallbackMaxWords: o.Retrieval.FallbackMaxWords,
		},
		Ranker: &ranker.Config{
			ScoreThreshold: o.Retrieval.ScoreThreshold,
		},
		RAG: &biz.RAGConfig{
			PerDocTopK: o.Retrieval.PerDocTopK,
			MaxSources: o.Retrieval.MaxSources,
			PoolSize:   o.Retrieval.PoolSize,
		},
		ChatProvider: o.Chat.Provider,
		ChatOptions:  chatOptions,
		Cache: &docbrain.CacheConfig{
			Enabled:   o.Cache.Enabled,
			Addr:      o.Cache.Addr,
			Password:  o.Cache.Password,
			Database:  o.Cache.Database,
			TTL:       o.Cache.TTL,
			KeyPrefix: o.Cache.KeyPrefix,
		},
		ShutdownTimeout: o.ShutdownTimeout,
	}, nil
}

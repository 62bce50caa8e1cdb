// Package config loads the server's TOML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	envMongoURI  = "ZKMSG_MONGODB_URI"
	envRedisAddr = "ZKMSG_REDIS_ADDR"
)

type (
	Config struct {
		Server    Server
		Logging   Logging
		Mongo     Mongo
		Redis     Redis
		BlobStore BlobStore
		Proof     Proof
	}

	Server struct {
		Addr           string
		AllowedOrigins []string
		RequestTimeout time.Duration
	}

	Logging struct {
		Level       string
		Development bool
	}

	// Mongo with an empty URI selects the in-memory index and registry.
	Mongo struct {
		URI      string
		Database string
	}

	// Redis with an empty Addr selects the in-memory offline queue.
	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	BlobStore struct {
		Backend       string
		PublisherURL  string
		AggregatorURL string
		Timeout       time.Duration
	}

	Proof struct {
		ArtifactsDir string
		Workers      int
		Timeout      time.Duration
	}
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: Server{
			Addr:           ":9090",
			AllowedOrigins: []string{"*"},
			RequestTimeout: 30 * time.Second,
		},
		Logging: Logging{
			Level: "info",
		},
		Mongo: Mongo{
			Database: "zkmsg",
		},
		BlobStore: BlobStore{
			Backend:       "memory",
			PublisherURL:  "https://walrus-publisher-testnet.n1stake.com",
			AggregatorURL: "https://aggregator.walrus-testnet.walrus.space",
			Timeout:       30 * time.Second,
		},
		Proof: Proof{
			ArtifactsDir: "artifacts",
			Timeout:      60 * time.Second,
		},
	}
}

// Validate returns nil if the config is valid
// and otherwise an error is returned.
func (cfg *Config) Validate() error {
	if cfg.Server.Addr == "" {
		return errors.New("config: Server.Addr is not set")
	}
	if cfg.Server.RequestTimeout <= 0 {
		return errors.New("config: Server.RequestTimeout must be positive")
	}
	if cfg.Mongo.URI != "" && cfg.Mongo.Database == "" {
		return errors.New("config: Mongo.Database is not set")
	}

	switch cfg.BlobStore.Backend {
	case "memory":
	case "redis":
		if cfg.Redis.Addr == "" {
			return errors.New("config: BlobStore.Backend is redis but Redis.Addr is not set")
		}
	case "walrus":
		if cfg.BlobStore.PublisherURL == "" || cfg.BlobStore.AggregatorURL == "" {
			return errors.New("config: walrus backend needs PublisherURL and AggregatorURL")
		}
	default:
		return fmt.Errorf("config: unknown BlobStore.Backend %q", cfg.BlobStore.Backend)
	}
	if cfg.BlobStore.Timeout <= 0 {
		return errors.New("config: BlobStore.Timeout must be positive")
	}

	if cfg.Proof.ArtifactsDir == "" {
		return errors.New("config: Proof.ArtifactsDir is not set")
	}
	if cfg.Proof.Workers < 0 {
		return errors.New("config: Proof.Workers is negative")
	}
	if cfg.Proof.Timeout <= 0 {
		return errors.New("config: Proof.Timeout must be positive")
	}
	return nil
}

// Load parses the provided buffer b over the defaults, applies environment
// overrides and validates the result.
func Load(b []byte) (*Config, error) {
	cfg := Default()
	md, err := toml.Decode(string(b), cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		return nil, fmt.Errorf("config: Undecoded keys in config file: %v", undecoded)
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads the named file. An empty name loads the defaults.
func LoadFile(f string) (*Config, error) {
	if f == "" {
		return Load(nil)
	}
	b, err := os.ReadFile(f)
	if err != nil {
		return nil, err
	}
	return Load(b)
}

func (cfg *Config) applyEnv() {
	if v := os.Getenv(envMongoURI); v != "" {
		cfg.Mongo.URI = v
	}
	if v := os.Getenv(envRedisAddr); v != "" {
		cfg.Redis.Addr = v
	}
}

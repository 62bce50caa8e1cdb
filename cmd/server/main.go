package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"zkmsg/internal/config"
	"zkmsg/internal/cryptographic/poseidon"
	"zkmsg/internal/protocol/commitment"
	"zkmsg/internal/protocol/zkproof"
	"zkmsg/internal/repository/message"
	"zkmsg/internal/repository/participant"
	"zkmsg/internal/service/blobstore"
	"zkmsg/internal/service/messenger"
	redisSvc "zkmsg/internal/service/redis"
	"zkmsg/internal/service/server"
	"zkmsg/internal/utils/log"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func newRootCommand() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "zkmsg-server",
		Short: "Zero-knowledge authenticated message server",
		Example: `
  # Start with defaults (in-memory stores, artifacts in ./artifacts)
  zkmsg-server

  # Start with a configuration file
  zkmsg-server --config /etc/zkmsg/server.toml`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return run(cfg)
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "path to the server configuration file (TOML format)")
	return cmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	if err := log.Init(cfg.Logging.Level, cfg.Logging.Development); err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hasher, err := poseidon.New()
	if err != nil {
		return err
	}
	artifacts, err := zkproof.LoadArtifacts(cfg.Proof.ArtifactsDir)
	if err != nil {
		return fmt.Errorf("%w (run zkmsg-setup first)", err)
	}
	prover := zkproof.NewGroth16Prover(artifacts, zkproof.NewPool(cfg.Proof.Workers))
	gateway := zkproof.NewGateway(hasher, commitment.New(hasher), prover, artifacts.VK)

	var (
		index        message.Repository     = message.NewMemoryRepo()
		participants participant.Repository = participant.NewMemoryRepo()
		queue        redisSvc.Queue         = redisSvc.NewMemoryQueue()
		rdb          *redis.Client
	)

	if cfg.Mongo.URI != "" {
		mongoDBClient, err := initMongo(cfg.Mongo.URI)
		if err != nil {
			return fmt.Errorf("mongo: %w", err)
		}
		defer mongoDBClient.Disconnect(context.Background())

		db := mongoDBClient.Database(cfg.Mongo.Database)
		messages := message.NewMongoRepo(db)
		if err := messages.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("mongo indexes: %w", err)
		}
		index = messages
		participants = participant.NewMongoRepo(db)
		log.Info("using mongodb", zap.String("database", cfg.Mongo.Database))
	} else {
		log.Warn("no mongodb configured, message index is in memory")
	}

	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		svc := redisSvc.NewRedis(rdb)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := svc.Ping(pingCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		queue = svc
	}

	blobs, err := newBlobStore(cfg.BlobStore, rdb)
	if err != nil {
		return err
	}

	hub := server.NewHub(queue, cfg.Server.AllowedOrigins)
	svc := messenger.NewService(gateway, blobs, index, participants, hub, cfg.Proof.Timeout)

	return server.NewHttpServer(cfg.Server, svc, hub).Run(ctx)
}

func newBlobStore(cfg config.BlobStore, rdb *redis.Client) (blobstore.Store, error) {
	var s blobstore.Store
	switch cfg.Backend {
	case blobstore.BackendWalrus:
		s = blobstore.NewWalrusStore(cfg.PublisherURL, cfg.AggregatorURL, cfg.Timeout)
	case blobstore.BackendRedis:
		if rdb == nil {
			return nil, fmt.Errorf("redis blob store needs Redis.Addr")
		}
		s = blobstore.NewRedisStore(rdb)
	case blobstore.BackendMemory:
		s = blobstore.NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown blob store backend %q", cfg.Backend)
	}
	log.Info("blob store ready", zap.String("backend", cfg.Backend))
	return blobstore.Instrument(cfg.Backend, s), nil
}

func initMongo(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	return client, client.Ping(ctx, nil)
}

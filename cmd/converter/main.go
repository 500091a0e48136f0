// cmd/converter/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"sems-converter/internal/codec"
	"sems-converter/internal/config"
	"sems-converter/internal/conversion"
	"sems-converter/internal/entity"
	"sems-converter/internal/observability"
	"sems-converter/internal/repository/filestore"
	"sems-converter/internal/repository/postgresql"
	"sems-converter/internal/repository/redisstore"
	"sems-converter/internal/service"
	httptransport "sems-converter/internal/transport/http"
)

// @title SEMS converter API
// @version 1.0
// @description Converts between SEMS election files and Vx election definitions and tallies.
// @BasePath /
func main() {
	configPath := flag.String("config", "", "path to a yaml config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "sems-converter: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := observability.SetupLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("config",
		zap.String("listen_addr", cfg.ListenAddr),
		zap.String("store", cfg.Store),
		zap.String("workspace", cfg.Workspace),
		zap.String("redis_addr", cfg.Redis.Addr),
		zap.String("postgres_dsn", redactDSN(cfg.PostgresDSN)),
		zap.String("definition_format", cfg.DefinitionFormat),
	)

	// Content store
	var store service.ContentStore
	switch cfg.Store {
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		store = redisstore.New(rdb, cfg.Redis.KeyPrefix)
	default:
		fs, err := filestore.New(cfg.Workspace)
		if err != nil {
			return fmt.Errorf("workspace: %w", err)
		}
		store = fs
	}

	// Run history
	runs := service.NopRecorder()
	if cfg.PostgresDSN != "" {
		pool, err := postgresql.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("pg: %w", err)
		}
		defer pool.Close()
		if err := postgresql.Migrate(ctx, pool); err != nil {
			return fmt.Errorf("pg migrate: %w", err)
		}
		runs = postgresql.NewRunRepository(pool)
	}

	// DI
	enc, err := codec.ByName(cfg.DefinitionFormat)
	if err != nil {
		return err
	}
	conv := conversion.New(store, conversion.WithDefinitionCodec(enc))
	reg, err := service.NewRegistry(store, runs, log,
		service.DefinitionJob(conv),
		service.ResultsJob(conv),
	)
	if err != nil {
		return err
	}
	// files left by a previous process are not trusted
	if err := reg.Reset(ctx); err != nil {
		return fmt.Errorf("startup reset: %w", err)
	}

	h := httptransport.NewHandler(reg, log, httptransport.Options{
		MaxUploadBytes: cfg.MaxUploadBytes,
		OutputTypes: map[string]string{
			entity.KindElection: enc.ContentType(),
			entity.KindTallies:  "text/plain; charset=utf-8",
		},
	})
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httptransport.Routes(h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("converter started", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown", zap.Error(err))
	}
	log.Info("converter stopped")
	return nil
}

// redactDSN masks the password: user:pass@ -> user:****@.
func redactDSN(dsn string) string {
	re := regexp.MustCompile(`://([^:/?#]+):([^@/]+)@`)
	return re.ReplaceAllString(dsn, `://$1:****@`)
}

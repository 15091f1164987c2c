// spne-server serves the backward-induction solver and a store of
// editable game trees over HTTP.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/timpalpant/go-spne"
	"github.com/timpalpant/go-spne/internal/config"
	"github.com/timpalpant/go-spne/ldbstore"
	"github.com/timpalpant/go-spne/rdbstore"
	"github.com/timpalpant/go-spne/rediscache"
	"github.com/timpalpant/go-spne/server"
)

func openStore(cfg *config.Config) (spne.SnapshotStore, error) {
	switch cfg.Store {
	case config.LevelDBStore:
		return ldbstore.New(cfg.StorePath, &opt.Options{})
	case config.RocksDBStore:
		return rdbstore.New(rdbstore.DefaultParams(cfg.StorePath))
	case config.MemoryStore:
		return spne.NewMemoryStore(), nil
	}

	return nil, errors.Errorf("unknown store %q", cfg.Store)
}

func run(ctx context.Context, cfg *config.Config) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	var cache server.SolutionCache
	if cfg.RedisAddr != "" {
		c, err := rediscache.New(ctx, rediscache.Params{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.CacheTTL,
		})
		if err != nil {
			return err
		}
		defer c.Close()
		cache = c
	}

	srv := server.New(server.Params{
		Solver: spne.Params{
			MaxNodes: cfg.MaxNodes,
			MaxDepth: cfg.MaxDepth,
		},
		MaxBodyBytes: cfg.MaxBodyBytes,
	}, store, cache)

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		glog.Infof("Listening on %s (store: %s)", cfg.ListenAddr, cfg.Store)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	glog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func main() {
	configPath := flag.String("config", "", "Path to a YAML, JSON or TOML config file")
	flag.Parse()
	defer glog.Flush()

	cfg, err := config.Load(*configPath)
	if err != nil {
		glog.Exitf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && err != http.ErrServerClosed {
		glog.Errorf("Server failed: %v", err)
		glog.Flush()
		os.Exit(1)
	}
}

// Command kvs-server runs the TCP front end over a kvs.Store, selecting
// the storage-engine variant and worker-pool implementation from flags
// (spec §6).
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iamNilotpal/kvs/internal/pool"
	"github.com/iamNilotpal/kvs/internal/server"
	"github.com/iamNilotpal/kvs/internal/sledengine"
	"github.com/iamNilotpal/kvs/pkg/kvs"
	"github.com/iamNilotpal/kvs/pkg/logger"
	"github.com/iamNilotpal/kvs/pkg/options"
)

func main() {
	addr := flag.String("addr", options.DefaultAddr, "TCP address to bind")
	dir := flag.String("dir", options.DefaultDataDir, "data directory")
	engine := flag.String("engine", options.DefaultEngine, "storage engine: kvs or sled")
	poolKind := flag.String("pool", string(options.DefaultPoolKind), "worker pool: naive, shared-queue, or external")
	poolSize := flag.Int("pool-size", options.DefaultPoolSize, "worker pool size")
	compactionThreshold := flag.Uint64(
		"compaction-threshold", options.DefaultCompactionThreshold, "dead bytes that trigger compaction",
	)
	flag.Parse()

	log := logger.New("kvs-server")

	store, closeStore, err := openStore(*engine, *dir, *compactionThreshold)
	if err != nil {
		log.Fatalw("failed to open store", "engine", *engine, "dir", *dir, "error", err)
	}
	defer closeStore()

	srv, err := server.New(&server.Config{
		Addr:   *addr,
		Store:  store,
		Pool:   pool.New(pool.Kind(*poolKind), *poolSize),
		Logger: log,
	})
	if err != nil {
		log.Fatalw("failed to start server", "addr", *addr, "error", err)
	}

	log.Infow("listening", "addr", srv.Addr(), "engine", *engine, "pool", *poolKind)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)
	go func() { done <- srv.Serve() }()

	select {
	case err := <-done:
		if err != nil {
			log.Errorw("serve exited", "error", err)
			os.Exit(1)
		}
	case <-sig:
		log.Infow("shutting down")
		if err := srv.Shutdown(); err != nil {
			log.Errorw("shutdown failed", "error", err)
			os.Exit(1)
		}
	}
}

// openStore returns a server.Store for the named engine variant and a
// function to release it.
func openStore(engine, dir string, compactionThreshold uint64) (server.Store, func() error, error) {
	switch engine {
	case "sled":
		e, err := sledengine.Open(dir)
		if err != nil {
			return nil, nil, err
		}
		return e, e.Close, nil

	case "kvs", "":
		s, err := kvs.Open(
			"kvs-server",
			options.WithDataDir(dir),
			options.WithEngine("kvs"),
			options.WithCompactionThreshold(compactionThreshold),
		)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown engine %q", engine)
	}
}

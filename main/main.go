// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	log "github.com/inconshreveable/log15"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ava-labs/snapshotvm/engine/rpcengine"
	"github.com/ava-labs/snapshotvm/invoke"
	"github.com/ava-labs/snapshotvm/modules"
	"github.com/ava-labs/snapshotvm/snapshotvm"
)

const shutdownTimeout = 10 * time.Second

func main() {
	version, v, err := PrintVersion()
	if err != nil {
		fmt.Printf("couldn't get config: %s\n", err)
		os.Exit(1)
	}
	// Print version and exit
	if version {
		fmt.Printf("%s@%s\n", snapshotvm.Name, snapshotvm.Version)
		os.Exit(0)
	}

	c, err := parseConfig(v)
	if err != nil {
		fmt.Printf("invalid config: %s\n", err)
		os.Exit(1)
	}
	if err := setupLogging(c); err != nil {
		fmt.Printf("couldn't set up logging: %s\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, c); err != nil {
		log.Error("server returned an error", "error", err)
		os.Exit(1)
	}
}

func setupLogging(c config) error {
	lvl, err := log.LvlFromString(c.LogLevel)
	if err != nil {
		return err
	}
	format := log.TerminalFormat()
	if c.LogFormat == "json" {
		format = log.JsonFormat()
	}
	log.Root().SetHandler(log.LvlFilterHandler(lvl, log.StreamHandler(os.Stderr, format)))
	return nil
}

func openStore(c config) (modules.Store, error) {
	switch c.ModuleStore {
	case leveldbStore:
		return modules.OpenLevelStore(c.ModuleStorePath)
	case sqliteStore:
		return modules.OpenSQLiteStore(c.ModuleStorePath)
	default:
		return modules.NewMemStore(), nil
	}
}

func run(ctx context.Context, c config) error {
	store, err := openStore(c)
	if err != nil {
		return fmt.Errorf("couldn't open module store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("error while closing module store", "error", err)
		}
	}()

	registry := prometheus.NewRegistry()
	pipelineConfig := snapshotvm.DefaultConfig()
	pipelineConfig.Passphrase = c.NetworkPassphrase
	pipelineConfig.SpecCacheSize = c.SpecCacheSize
	pipelineConfig.Invoke = invoke.Config{
		MaxArgs: c.MaxArgs,
		DefaultBudget: invoke.Budget{
			CPUInstructions: c.DefaultCPUInsns,
			MemoryBytes:     c.DefaultMemBytes,
		},
	}
	pipeline, err := snapshotvm.NewPipeline(pipelineConfig, store, rpcengine.New(c.EngineEndpoint), registry)
	if err != nil {
		return err
	}

	handlers, err := snapshotvm.CreateHandlers(pipeline)
	if err != nil {
		return err
	}
	staticHandlers, err := snapshotvm.CreateStaticHandlers()
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/ext/vm/"+snapshotvm.Name, handlers[""])
	mux.Handle("/ext/vm/"+snapshotvm.Name+"/static", staticHandlers[""])
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              net.JoinHostPort(c.HTTPHost, strconv.Itoa(int(c.HTTPPort))),
		Handler:           mux,
		ReadTimeout:       c.ReadTimeout,
		ReadHeaderTimeout: c.ReadTimeout,
		WriteTimeout:      c.WriteTimeout,
	}

	errs := make(chan error, 1)
	go func() {
		log.Info("serving",
			"address", server.Addr,
			"version", snapshotvm.Version,
			"store", c.ModuleStore,
			"engine", c.EngineEndpoint,
		)
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

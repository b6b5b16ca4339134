// Copyright 2026 The Taskwire Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/taskwire/taskwire/lib/authtoken"
	"github.com/taskwire/taskwire/lib/clock"
	"github.com/taskwire/taskwire/lib/config"
	"github.com/taskwire/taskwire/lib/hub"
	"github.com/taskwire/taskwire/lib/service"
	"github.com/taskwire/taskwire/lib/taskstore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to taskwire.yaml (default: TASKWIRE_CONFIG)")
	flag.Parse()

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := cfg.EnsurePaths(); err != nil {
		return err
	}

	publicKey, err := authtoken.LoadPublicKey(cfg.Keys.Dir)
	if err != nil {
		return fmt.Errorf("loading token verification key: %w", err)
	}
	logger.Info("token verification key loaded", "dir", cfg.Keys.Dir)

	clk := clock.Real()

	store, err := taskstore.Open(taskstore.Config{
		Path:     cfg.Storage.Path,
		PoolSize: cfg.Storage.PoolSize,
		Clock:    clk,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("opening task store: %w", err)
	}
	defer store.Close()
	logger.Info("task store open", "path", cfg.Storage.Path)

	verifier := &service.Verifier{PublicKey: publicKey, Clock: clk}
	broadcast := hub.New(logger)

	server := &taskServer{
		store:     store,
		hub:       broadcast,
		verifier:  verifier,
		clock:     clk,
		logger:    logger,
		startedAt: clk.Now(),

		streamBuffer: cfg.Stream.Buffer,
	}

	httpServer := service.NewHTTPServer(service.HTTPServerConfig{
		Address: cfg.HTTP.Address,
		Handler: server.routes(),
		Logger:  logger,
	})
	streamServer := service.NewStreamServer(service.StreamServerConfig{
		Address:  cfg.Stream.Address,
		Verifier: verifier,
		Handler:  server.handleStream,
		Clock:    clk,
		Logger:   logger,
	})

	httpDone := make(chan error, 1)
	go func() { httpDone <- httpServer.Serve(ctx) }()

	streamDone := make(chan error, 1)
	go func() { streamDone <- streamServer.Serve(ctx) }()

	logger.Info("taskwire server running",
		"http", cfg.HTTP.Address,
		"stream", cfg.Stream.Address,
	)

	// Either listener failing is fatal; otherwise wait for the
	// shutdown signal and drain both.
	var httpErr, streamErr error
	select {
	case httpErr = <-httpDone:
		cancel()
		streamErr = <-streamDone
	case streamErr = <-streamDone:
		cancel()
		httpErr = <-httpDone
	case <-ctx.Done():
		httpErr = <-httpDone
		streamErr = <-streamDone
	}

	if httpErr != nil {
		return fmt.Errorf("http server: %w", httpErr)
	}
	if streamErr != nil {
		return fmt.Errorf("stream server: %w", streamErr)
	}
	logger.Info("shut down cleanly")
	return nil
}

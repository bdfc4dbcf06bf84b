// Copyright 2025 The Canopy Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/canopy-run/canopy/internal/config"
	"github.com/canopy-run/canopy/internal/logger"
)

// Options carries the CLI flag overrides applied on top of the
// environment configuration.
type Options struct {
	NATSURL  string
	NATSHost string
	NATSPort string
	HTTPAddr string
	Mode     string
}

func Run(ctx context.Context, opts Options) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	// Allow CLI flags to override the environment.
	if opts.NATSHost != "" {
		cfg.NATS.Host = opts.NATSHost
	}
	if opts.NATSPort != "" {
		cfg.NATS.Port = opts.NATSPort
	}
	if opts.NATSHost != "" || opts.NATSPort != "" {
		cfg.NATS.URL = fmt.Sprintf("nats://%s:%s", cfg.NATS.Host, cfg.NATS.Port)
	}
	if opts.NATSURL != "" {
		cfg.NATS.URL = opts.NATSURL
	}
	if opts.HTTPAddr != "" {
		host, port, err := splitHostPort(opts.HTTPAddr)
		if err != nil {
			return fmt.Errorf("invalid http address %q: %w", opts.HTTPAddr, err)
		}
		cfg.HTTP.Host = host
		cfg.HTTP.Port = port
	}
	if opts.Mode != "" {
		cfg.Mode = config.Mode(opts.Mode)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.NewLogger(ctx, cfg)
	if err != nil {
		return err
	}
	slog.SetDefault(log.Slogger)
	defer func() {
		if log.LoggerProvider != nil {
			if err := log.LoggerProvider.Shutdown(ctx); err != nil {
				slog.Error("failed to shut down logger provider", "error", err)
			}
		}
	}()

	mgr, err := NewManager(ctx, cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- mgr.Run(ctx)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	slog.Info("daemon shutting down")
	cancel()
	return nil
}

// splitHostPort parses an address flag; a bare ":8080" binds all interfaces.
func splitHostPort(addr string) (string, string, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "", "", err
	}
	if host == "" {
		host = "0.0.0.0"
	}
	return host, port, nil
}

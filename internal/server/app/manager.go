package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"golang.org/x/sync/errgroup"

	"github.com/canopy-run/canopy/api/serde"
	"github.com/canopy-run/canopy/internal/config"
	httphandler "github.com/canopy-run/canopy/internal/server/handler/http"
	jetstreamx "github.com/canopy-run/canopy/internal/server/infra/jetstream"
	"github.com/canopy-run/canopy/internal/server/projection"
)

// Manager wires the daemon components: the NATS connection, the
// executions projector and the HTTP API.
type Manager struct {
	conn       *jetstreamx.Connection
	executions *projection.Executions
	httpServer *httphandler.Server
	httpAddr   string
}

func NewManager(ctx context.Context, cfg *config.Config) (*Manager, error) {
	conn, err := jetstreamx.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	if !conn.IsConnected() {
		conn.Close()
		return nil, fmt.Errorf("cannot connect to NATS instance")
	}

	httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
	executions := projection.NewExecutions(serde.Msgpack{}, slog.Default())

	m := &Manager{
		conn:       conn,
		executions: executions,
		httpServer: httphandler.NewServer(conn, executions, httpAddr),
		httpAddr:   httpAddr,
	}

	if err := m.ensureStreams(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ensure NATS streams: %w", err)
	}

	if err := m.ensureKV(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ensure NATS KV buckets: %w", err)
	}

	return m, nil
}

func (m *Manager) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return m.httpServer.Start(gCtx)
	})

	g.Go(func() error {
		slog.Info("starting executions projector")
		return m.executions.Run(gCtx, m.conn)
	})

	slog.Info("daemon is running", "http_addr", m.httpAddr)

	err := g.Wait()

	slog.Info("initiating graceful shutdown")
	m.Shutdown()

	if err != nil && err != context.Canceled {
		slog.Error("daemon stopped with error", "error", err)
		return err
	}

	slog.Info("daemon shutdown complete")
	return nil
}

// Shutdown performs graceful shutdown of all manager components
func (m *Manager) Shutdown() {
	// Closing the NATS connection drains and closes all subscriptions.
	if m.conn != nil {
		m.conn.Close()
		slog.Info("NATS connection closed")
	}
}

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	serverapp "github.com/canopy-run/canopy/internal/server/app"
)

func main() {
	var (
		natsURL  = flag.String("nats-url", "", "NATS server URL (overrides NATS_URL)")
		natsHost = flag.String("nats-host", "", "NATS server host (overrides NATS_HOST)")
		natsPort = flag.String("nats-port", "", "NATS server port (overrides NATS_PORT)")
		httpAddr = flag.String("http-addr", "", "HTTP listen address as host:port (overrides HTTP_HOST/HTTP_PORT)")
		mode     = flag.String("mode", "", "logging mode: debug or release (overrides MODE)")
	)
	flag.Parse()

	ctx := context.Background()
	if err := serverapp.Run(ctx, serverapp.Options{
		NATSURL:  *natsURL,
		NATSHost: *natsHost,
		NATSPort: *natsPort,
		HTTPAddr: *httpAddr,
		Mode:     *mode,
	}); err != nil {
		slog.Error("canopyd exited with error", "error", err)
		os.Exit(1)
	}
}

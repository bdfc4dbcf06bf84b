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

package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/canopy-run/canopy/api"
	"github.com/canopy-run/canopy/api/serde"
)

// ConnConfig is the dependency-injected interface required for
// establishing connections.
type ConnConfig interface {
	Endpoint() string
	NATSMaxReconnects() int
	NATSReconnectWait() time.Duration
	NATSDrainTimeout() time.Duration
	NATSPingInterval() time.Duration
	NATSMaxPingsOut() int
	// Optional human readable client name; may return empty.
	NATSClientName() string
}

// Conn is a NATS connection with JetStream capabilities tailored for the
// SDK: journal stream publishing, the result bucket, and command
// request-reply.
type Conn struct {
	nc    *nats.Conn
	js    jetstream.JetStream
	codec serde.Codec

	logger *slog.Logger
}

func from(nc *nats.Conn, codec serde.Codec, logger *slog.Logger) (*Conn, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}
	if codec == nil {
		codec = serde.Msgpack{}
	}
	return &Conn{
		nc:     nc,
		js:     js,
		codec:  codec,
		logger: defaultLogger(logger),
	}, nil
}

// Connect establishes a connection to NATS with the given configuration.
func Connect(cfg ConnConfig, codec serde.Codec, logger *slog.Logger) (*Conn, error) {
	if cfg == nil {
		return nil, fmt.Errorf("natz: nil config provided")
	}
	logger = defaultLogger(logger)

	clientName := cfg.NATSClientName()
	if clientName == "" {
		clientName = "canopy-sdk"
	}
	opts := []nats.Option{
		nats.Name(clientName),
		nats.MaxReconnects(cfg.NATSMaxReconnects()),
		nats.ReconnectWait(cfg.NATSReconnectWait()),
		nats.DrainTimeout(cfg.NATSDrainTimeout()),
		nats.PingInterval(cfg.NATSPingInterval()),
		nats.MaxPingsOutstanding(cfg.NATSMaxPingsOut()),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", "error", err)
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.Endpoint(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.Endpoint(), err)
	}
	return from(nc, codec, logger)
}

// WrapConn adopts an established NATS connection.
func WrapConn(nc *nats.Conn, codec serde.Codec, logger *slog.Logger) (*Conn, error) {
	if nc == nil {
		return nil, fmt.Errorf("natz: nil connection provided")
	}
	return from(nc, codec, logger)
}

func (c *Conn) Close() {
	if c.nc != nil && !c.nc.IsClosed() {
		c.nc.Close()
	}
}

// Drain flushes subscriptions before closing; used on worker shutdown so
// in-flight command replies still go out.
func (c *Conn) Drain() error {
	if c.nc == nil || c.nc.IsClosed() {
		return nil
	}
	return c.nc.Drain()
}

func (c *Conn) Logger() *slog.Logger {
	if c == nil {
		return slog.Default()
	}
	return defaultLogger(c.logger)
}

// JS returns the JetStream context associated with the NATS connection.
func (c *Conn) JS() jetstream.JetStream {
	return c.js
}

// NC returns the underlying NATS connection.
func (c *Conn) NC() *nats.Conn {
	return c.nc
}

// IsConnected returns whether the NATS connection is currently connected.
func (c *Conn) IsConnected() bool {
	return c.nc != nil && c.nc.IsConnected()
}

// Codec returns the codec the connection serializes with.
func (c *Conn) Codec() serde.Codec {
	return c.codec
}

// Encode serializes v with the connection's codec.
func (c *Conn) Encode(v any) ([]byte, error) {
	return c.codec.Encode(v)
}

// Decode deserializes data with the connection's codec.
func (c *Conn) Decode(data []byte, into any) error {
	return c.codec.Decode(data, into)
}

// EnsureKV ensures that a KeyValue store with the given configuration exists.
func (c *Conn) EnsureKV(ctx context.Context, cfg jetstream.KeyValueConfig) (jetstream.KeyValue, error) {
	kv, err := c.js.KeyValue(ctx, cfg.Bucket)
	if err != nil || kv == nil {
		if errors.Is(err, jetstream.ErrBucketNotFound) {
			kv, err := c.js.CreateKeyValue(ctx, cfg)
			if err != nil {
				return nil, fmt.Errorf("failed to create new KV: %v, %w", cfg.Bucket, err)
			}
			return kv, nil
		}
		return nil, fmt.Errorf("failed to ensure KV: %v, %w", cfg.Bucket, err)
	}

	updatedKV, err := c.js.UpdateKeyValue(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to update KV: %v, %w", cfg.Bucket, err)
	}
	return updatedKV, nil
}

// QueueSubscribe creates a queue subscription to a subject using basic NATS.
func (c *Conn) QueueSubscribe(subj, queue string, handler nats.MsgHandler) (*nats.Subscription, error) {
	sub, err := c.nc.QueueSubscribe(subj, queue, handler)
	if err != nil {
		return nil, fmt.Errorf("failed to queue subscribe to subject %s with queue %s: %w", subj, queue, err)
	}
	return sub, nil
}

// SetKV stores a key-value pair in the specified bucket.
func (c *Conn) SetKV(ctx context.Context, bucket, key string, value []byte) (uint64, error) {
	kv, err := c.js.KeyValue(ctx, bucket)
	if err != nil {
		return 0, fmt.Errorf("failed to get KV bucket '%s': %w", bucket, err)
	}

	rev, err := kv.Put(ctx, key, value)
	if err != nil {
		return 0, fmt.Errorf("failed to put key '%s' in bucket '%s': %w", key, bucket, err)
	}
	return rev, nil
}

// WatchResult blocks until a result is published for the execution and
// returns its raw bytes. Watching replays an already-stored value first,
// so late watchers still see results published before they started.
func (c *Conn) WatchResult(ctx context.Context, executionID string) ([]byte, error) {
	kv, err := c.js.KeyValue(ctx, api.ExecutionResultBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to get KV bucket '%s': %w", api.ExecutionResultBucket, err)
	}

	watcher, err := kv.Watch(ctx, executionID)
	if err != nil {
		return nil, fmt.Errorf("could not start KV watcher for key '%s': %w", executionID, err)
	}
	defer watcher.Stop()
	c.Logger().Debug("watching for execution result", "execution_id", executionID)

	for update := range watcher.Updates() {
		if update == nil {
			// Initial values done marker; keep waiting for a put.
			continue
		}
		if update.Operation() == jetstream.KeyValuePut {
			c.Logger().Debug("received execution result", "execution_id", executionID)
			return update.Value(), nil
		}
	}

	return nil, fmt.Errorf("watcher stopped without receiving a result: %w", ctx.Err())
}

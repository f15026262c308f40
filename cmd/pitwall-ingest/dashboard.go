// Copyright 2026 The Pitwall Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/pitwall-systems/pitwall/lib/clock"
	"github.com/pitwall-systems/pitwall/lib/fanout"
)

//go:embed dashboard.html
var dashboardHTML []byte

// sinkWriteTimeout bounds one frame write to a dashboard client. A
// client that cannot take a frame in this long is effectively gone;
// failing the write ends the session.
const sinkWriteTimeout = 10 * time.Second

// dashboard serves the live telemetry page and its websocket stream.
type dashboard struct {
	hub       *fanout.Hub
	keepAlive time.Duration
	clock     clock.Clock
	logger    *slog.Logger
}

func (d *dashboard) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", d.handleIndex)
	mux.HandleFunc("GET /ws", d.handleStream)
	return mux
}

func (d *dashboard) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(dashboardHTML)
}

// handleStream upgrades to a websocket and serves the observation
// stream until the client disconnects or the daemon shuts down.
func (d *dashboard) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		d.logger.Debug("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	subscriber := d.hub.Subscribe()
	defer d.hub.Unsubscribe(subscriber)

	// Dashboard clients never send frames. CloseRead pumps the read
	// side (answering control frames) and returns a context that ends
	// on client disconnect. The request context descends from the
	// serve context, so daemon shutdown ends the session too.
	ctx := conn.CloseRead(r.Context())

	d.logger.Info("dashboard client connected", "remote", r.RemoteAddr)

	sink := &websocketSink{ctx: ctx, conn: conn}
	if err := fanout.Serve(ctx, subscriber, sink, d.keepAlive, d.clock); err != nil {
		d.logger.Info("dashboard client lost",
			"remote", r.RemoteAddr, "error", err)
		return
	}

	d.logger.Info("dashboard client disconnected", "remote", r.RemoteAddr)
	conn.Close(websocket.StatusNormalClosure, "")
}

// websocketSink delivers observations to one dashboard client as JSON
// text frames. The session context is held rather than passed per call
// because the fan-out session loop owns cancellation.
type websocketSink struct {
	ctx  context.Context
	conn *websocket.Conn
}

func (s *websocketSink) Send(observation fanout.Observation) error {
	data, err := json.Marshal(observation)
	if err != nil {
		return fmt.Errorf("encoding observation: %w", err)
	}
	ctx, cancel := context.WithTimeout(s.ctx, sinkWriteTimeout)
	defer cancel()
	return s.conn.Write(ctx, websocket.MessageText, data)
}

// KeepAlive pings the client so half-open connections are detected
// across idle stretches between sampled records.
func (s *websocketSink) KeepAlive() error {
	ctx, cancel := context.WithTimeout(s.ctx, sinkWriteTimeout)
	defer cancel()
	return s.conn.Ping(ctx)
}

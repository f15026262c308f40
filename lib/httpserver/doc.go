// Copyright 2026 The Pitwall Authors
// SPDX-License-Identifier: Apache-2.0

// Package httpserver manages TCP listener lifecycle for the HTTP
// surfaces of the ingest daemon: the live dashboard (HTML page plus
// WebSocket stream) and the Prometheus /metrics endpoint. The caller
// provides the http.Handler; [Server.Serve] blocks until the context
// is cancelled and active requests drain.
package httpserver

// Copyright 2026 The Pitwall Authors
// SPDX-License-Identifier: Apache-2.0

// Package control implements the Unix-socket request-response
// protocol between the ingest daemon and operator tooling.
//
// The daemon exposes a [Server] on a Unix socket with a handler per
// action ("status", "config", ...). Each connection carries exactly
// one CBOR request and one CBOR response: the client writes a map
// with an "action" field plus action-specific fields, the server
// routes on the action and replies with a [Response] envelope, then
// the connection closes.
//
// [Client] is the matching caller side: one connection per Call,
// action injection, and *CallError for server-reported failures.
package control

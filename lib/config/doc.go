// Copyright 2026 The Pitwall Authors
// SPDX-License-Identifier: Apache-2.0

// Package config defines the ingest service configuration: a single
// YAML file unmarshalled over built-in defaults, validated as a whole.
//
// Precedence is flags over file over defaults. The file never reads
// environment variables and nothing is discovered implicitly; what the
// flags and the file say is everything there is.
//
// Durations are plain numbers in the unit the field name carries
// (latency_budget_ms, keepalive_s, tier_delays_us) to match the wire
// and dashboard contracts; accessor methods convert to time.Duration
// at the edges.
package config

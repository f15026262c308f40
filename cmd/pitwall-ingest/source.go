// Copyright 2026 The Pitwall Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/pitwall-systems/pitwall/lib/pipeline"
)

// udpSource adapts a UDP socket to the pipeline's Source interface.
// One datagram per Receive; reads are bounded by the inactivity
// timeout so a silent stream ends the ingestion loop.
type udpSource struct {
	conn *net.UDPConn
	idle time.Duration

	// buffer is reused across reads. Receive copies each datagram out
	// before returning, so callers may hold the result indefinitely.
	buffer []byte
}

// listenUDP binds addr for ingestion. A pending read is unblocked by
// closing the socket when ctx is cancelled; Receive reports the
// cancellation rather than the closed-connection error.
func listenUDP(ctx context.Context, addr string, maxDatagramBytes int, idle time.Duration) (*udpSource, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolving listen address %s: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	return &udpSource{
		conn:   conn,
		idle:   idle,
		buffer: make([]byte, maxDatagramBytes),
	}, nil
}

// Receive blocks for the next datagram. Returns pipeline.ErrIdle when
// the inactivity timeout passes without traffic, the context error
// after cancellation, and a wrapped socket error otherwise.
func (s *udpSource) Receive(ctx context.Context) ([]byte, error) {
	if err := s.conn.SetReadDeadline(time.Now().Add(s.idle)); err != nil {
		return nil, fmt.Errorf("setting read deadline: %w", err)
	}

	n, _, err := s.conn.ReadFromUDP(s.buffer)
	if err != nil {
		// Cancellation closes the socket; report the cancellation, not
		// the read error it provokes.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, pipeline.ErrIdle
		}
		return nil, fmt.Errorf("udp receive: %w", err)
	}

	datagram := make([]byte, n)
	copy(datagram, s.buffer[:n])
	return datagram, nil
}

// LocalAddr returns the bound address, which differs from the
// configured one when port 0 requested an ephemeral port.
func (s *udpSource) LocalAddr() net.Addr { return s.conn.LocalAddr() }

// Close releases the socket. Safe to call after the context watcher
// has already closed it.
func (s *udpSource) Close() error {
	err := s.conn.Close()
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

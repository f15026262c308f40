// Copyright 2026 The Pitwall Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/pitwall-systems/pitwall/lib/pipeline"
)

// testSource binds an ephemeral source and a client socket aimed at it.
func testSource(t *testing.T, idle time.Duration) (*udpSource, *net.UDPConn) {
	t.Helper()

	source, err := listenUDP(t.Context(), "127.0.0.1:0", 2048, idle)
	if err != nil {
		t.Fatalf("listenUDP: %v", err)
	}
	t.Cleanup(func() { source.Close() })

	addr, err := net.ResolveUDPAddr("udp", source.LocalAddr().String())
	if err != nil {
		t.Fatalf("resolving source address: %v", err)
	}
	client, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		t.Fatalf("dialing source: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return source, client
}

func TestUDPSourceReceive(t *testing.T) {
	source, client := testSource(t, 5*time.Second)

	sent := []byte{0x81, 0xa1, 0x74, 0x01}
	if _, err := client.Write(sent); err != nil {
		t.Fatalf("sending datagram: %v", err)
	}

	got, err := source.Receive(t.Context())
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if !bytes.Equal(got, sent) {
		t.Fatalf("Receive = %x, want %x", got, sent)
	}
}

func TestUDPSourceCopiesOutOfReadBuffer(t *testing.T) {
	source, client := testSource(t, 5*time.Second)

	first := []byte("first datagram")
	second := []byte("second one ...")
	if _, err := client.Write(first); err != nil {
		t.Fatalf("sending first: %v", err)
	}

	got1, err := source.Receive(t.Context())
	if err != nil {
		t.Fatalf("first Receive: %v", err)
	}

	if _, err := client.Write(second); err != nil {
		t.Fatalf("sending second: %v", err)
	}
	got2, err := source.Receive(t.Context())
	if err != nil {
		t.Fatalf("second Receive: %v", err)
	}

	// The second read must not clobber the first result.
	if !bytes.Equal(got1, first) {
		t.Fatalf("first datagram mutated: %q", got1)
	}
	if !bytes.Equal(got2, second) {
		t.Fatalf("second Receive = %q, want %q", got2, second)
	}
}

func TestUDPSourceTruncatesOversizedDatagram(t *testing.T) {
	source, err := listenUDP(t.Context(), "127.0.0.1:0", 8, 5*time.Second)
	if err != nil {
		t.Fatalf("listenUDP: %v", err)
	}
	t.Cleanup(func() { source.Close() })

	addr, err := net.ResolveUDPAddr("udp", source.LocalAddr().String())
	if err != nil {
		t.Fatalf("resolving source address: %v", err)
	}
	client, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		t.Fatalf("dialing source: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	if _, err := client.Write(bytes.Repeat([]byte{0xab}, 32)); err != nil {
		t.Fatalf("sending oversized datagram: %v", err)
	}

	got, err := source.Receive(t.Context())
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	// The kernel truncates to the receive buffer; the tail is lost and
	// the datagram later fails decode rather than crashing the read.
	if len(got) != 8 {
		t.Fatalf("Receive returned %d bytes, want 8", len(got))
	}
}

func TestUDPSourceIdleTimeout(t *testing.T) {
	source, _ := testSource(t, 50*time.Millisecond)

	_, err := source.Receive(t.Context())
	if !errors.Is(err, pipeline.ErrIdle) {
		t.Fatalf("Receive on silent stream = %v, want ErrIdle", err)
	}
}

func TestUDPSourceCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	source, err := listenUDP(ctx, "127.0.0.1:0", 2048, time.Minute)
	if err != nil {
		t.Fatalf("listenUDP: %v", err)
	}
	t.Cleanup(func() { source.Close() })

	received := make(chan error, 1)
	go func() {
		_, err := source.Receive(ctx)
		received <- err
	}()

	cancel()

	select {
	case err := <-received:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Receive after cancel = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Receive did not unblock after cancellation")
	}
}

func TestListenUDPBadAddress(t *testing.T) {
	if _, err := listenUDP(t.Context(), "not-an-address", 2048, time.Second); err == nil {
		t.Fatal("listenUDP on a malformed address succeeded")
	}
}

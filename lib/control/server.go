// Copyright 2026 The Pitwall Authors
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/pitwall-systems/pitwall/lib/codec"
)

// exchangeTimeout bounds one full request-response cycle on a
// connection, set as an absolute deadline at accept time. Control
// exchanges are a few hundred bytes against in-memory state; a
// connection that cannot finish in this long is wedged.
const exchangeTimeout = 30 * time.Second

// maxRequestBytes caps a single request. Requests are an action name
// plus a handful of scalar fields; the cap exists so a broken client
// cannot make the daemon buffer arbitrary amounts.
const maxRequestBytes = 1 << 20

// ActionFunc handles one request for a registered action. raw is the
// complete CBOR request including the "action" field; handlers with
// parameters decode their own fields from it. The returned value is
// marshaled into the response's "data" field; nil means a bare
// {ok: true}.
type ActionFunc func(ctx context.Context, raw []byte) (any, error)

// Response is the envelope every control reply uses. Exactly one of
// the two shapes goes out: {ok: true, data?} or {ok: false, error}.
type Response struct {
	OK    bool             `cbor:"ok"`
	Error string           `cbor:"error,omitempty"`
	Data  codec.RawMessage `cbor:"data,omitempty"`
}

// envelope is the part of a request the server itself reads. The rest
// of the request stays raw for the handler.
type envelope struct {
	Action string `cbor:"action"`
}

// Server answers CBOR requests on a Unix socket, one request per
// connection. Register actions with Handle before Serve; a request
// naming anything else gets an error response.
type Server struct {
	socketPath string
	handlers   map[string]ActionFunc
	logger     *slog.Logger

	// inFlight counts connections being handled; Serve drains it
	// before returning so no response is abandoned mid-write.
	inFlight sync.WaitGroup
}

// NewServer returns a Server for socketPath. The path must be
// non-empty: callers disable the control surface by never constructing
// the server, not by passing an empty path.
func NewServer(socketPath string, logger *slog.Logger) *Server {
	if socketPath == "" {
		panic("control: empty socket path")
	}
	return &Server{
		socketPath: socketPath,
		handlers:   make(map[string]ActionFunc),
		logger:     logger,
	}
}

// Handle registers handler under action. Duplicate registration is a
// programming error and panics.
func (s *Server) Handle(action string, handler ActionFunc) {
	if _, exists := s.handlers[action]; exists {
		panic(fmt.Sprintf("control.Server: duplicate handler for action %q", action))
	}
	s.handlers[action] = handler
}

// Serve accepts and answers requests until ctx is cancelled, then
// waits for in-flight exchanges to finish. A socket file left at the
// path by a previous run is removed before listening, and the socket
// file is removed again on return.
func (s *Server) Serve(ctx context.Context) error {
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket %s: %w", s.socketPath, err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.socketPath, err)
	}
	defer func() {
		listener.Close()
		os.Remove(s.socketPath)
	}()

	// Accept blocks with no context form; closing the listener is how
	// cancellation reaches it.
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	s.logger.Info("control server listening", "path", s.socketPath)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("control accept failed", "error", err)
			continue
		}

		s.inFlight.Add(1)
		go func() {
			defer s.inFlight.Done()
			defer conn.Close()
			s.serveConn(ctx, conn)
		}()
	}

	s.inFlight.Wait()
	return nil
}

// serveConn runs one request-response exchange. Transport only: it
// reads one CBOR value, hands it to dispatch, and writes the envelope
// back. The deadline covers the whole exchange.
func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	conn.SetDeadline(time.Now().Add(exchangeTimeout))

	// CBOR is self-delimiting, so one Decode reads exactly one
	// request with no framing.
	var raw codec.RawMessage
	if err := codec.NewDecoder(io.LimitReader(conn, maxRequestBytes)).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			// Connected and hung up without sending anything.
			return
		}
		s.respond(conn, Response{OK: false, Error: fmt.Sprintf("invalid request: %v", err)})
		return
	}

	s.respond(conn, s.dispatch(ctx, raw))
}

// dispatch routes one decoded request to its handler and builds the
// response envelope.
func (s *Server) dispatch(ctx context.Context, raw codec.RawMessage) Response {
	var request envelope
	if err := codec.Unmarshal(raw, &request); err != nil {
		return Response{OK: false, Error: fmt.Sprintf("invalid request: %v", err)}
	}
	if request.Action == "" {
		return Response{OK: false, Error: "missing required field: action"}
	}

	handler, exists := s.handlers[request.Action]
	if !exists {
		return Response{OK: false, Error: fmt.Sprintf("unknown action %q", request.Action)}
	}

	result, err := handler(ctx, []byte(raw))
	if err != nil {
		s.logger.Debug("control action failed", "action", request.Action, "error", err)
		return Response{OK: false, Error: err.Error()}
	}

	response := Response{OK: true}
	if result != nil {
		data, err := codec.Marshal(result)
		if err != nil {
			return Response{OK: false, Error: fmt.Sprintf("internal: marshaling response: %v", err)}
		}
		response.Data = data
	}
	return response
}

// respond writes one envelope. A write failure only gets a debug log:
// the peer is gone and the connection is closing either way.
func (s *Server) respond(conn net.Conn, response Response) {
	if err := codec.NewEncoder(conn).Encode(response); err != nil {
		s.logger.Debug("control response write failed", "error", err)
	}
}

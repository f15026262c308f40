// Copyright 2026 The Pitwall Authors
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/pitwall-systems/pitwall/lib/codec"
)

// maxResponseBytes caps one response read, mirroring the server's
// request cap.
const maxResponseBytes = maxRequestBytes

// CallError is the failure the server reported: the action ran (or was
// rejected) and answered {ok: false}. Transport and decode failures are
// plain errors, not CallErrors.
type CallError struct {
	Action  string
	Message string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("control error on %q: %s", e.Action, e.Message)
}

// Client issues requests against a daemon's control socket. Each Call
// is one connection, mirroring the server's one-request-per-connection
// protocol; a Client carries no state and is safe for concurrent use.
type Client struct {
	socketPath string
}

// NewClient returns a Client for the control socket at socketPath.
func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath}
}

// Call sends one request and decodes the reply.
//
// fields holds action-specific request fields; nil is fine for actions
// without parameters. The "action" key is reserved for the client.
// When the server answers ok with data and result is non-nil, the data
// is decoded into result; an ok answer without data leaves result
// untouched. A {ok: false} answer comes back as *CallError.
func (c *Client) Call(ctx context.Context, action string, fields map[string]any, result any) error {
	request := make(map[string]any, len(fields)+1)
	for key, value := range fields {
		request[key] = value
	}
	request["action"] = action

	response, err := c.roundTrip(ctx, request)
	if err != nil {
		return fmt.Errorf("calling %q on %s: %w", action, c.socketPath, err)
	}

	if !response.OK {
		return &CallError{Action: action, Message: response.Error}
	}
	if result != nil && len(response.Data) > 0 {
		if err := codec.Unmarshal(response.Data, result); err != nil {
			return fmt.Errorf("decoding response data for %q: %w", action, err)
		}
	}
	return nil
}

// roundTrip runs one connect-write-read exchange. A single absolute
// deadline covers the whole cycle, matching the server's.
func (c *Client) roundTrip(ctx context.Context, request any) (Response, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return Response{}, fmt.Errorf("connecting: %w", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(exchangeTimeout))

	if err := codec.NewEncoder(conn).Encode(request); err != nil {
		return Response{}, fmt.Errorf("writing request: %w", err)
	}

	// Half-close the write side so the server's decoder sees a clean
	// EOF after the request bytes.
	if unixConn, ok := conn.(*net.UnixConn); ok {
		unixConn.CloseWrite()
	}

	var response Response
	if err := codec.NewDecoder(io.LimitReader(conn, maxResponseBytes)).Decode(&response); err != nil {
		return Response{}, fmt.Errorf("reading response: %w", err)
	}
	return response, nil
}

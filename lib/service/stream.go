// Copyright 2026 The Taskwire Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/taskwire/taskwire/lib/api"
	"github.com/taskwire/taskwire/lib/clock"
	"github.com/taskwire/taskwire/lib/codec"
)

// handshakeLimit bounds the hello frame read. A hello carries one
// credential; anything larger is a broken or hostile client.
const handshakeLimit = 4096

// handshakeTimeout bounds how long a connection may sit between
// accept and a complete hello.
const handshakeTimeout = 10 * time.Second

// writeTimeout bounds each event write. A consumer that cannot drain
// an event within this window is disconnected.
const writeTimeout = 10 * time.Second

// StreamSession is one authenticated realtime connection. The
// handler owns the session until its context ends; Send is safe for
// concurrent use.
type StreamSession struct {
	owner string
	conn  net.Conn

	writeMu sync.Mutex
	encoder *codec.Encoder
}

// Owner returns the verified subject of the session's credential.
func (s *StreamSession) Owner() string {
	return s.owner
}

// Send writes one CBOR value to the client. It returns an error if
// the write fails or exceeds the write timeout, after which the
// connection is unusable.
func (s *StreamSession) Send(v any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("setting write deadline: %w", err)
	}
	if err := s.encoder.Encode(v); err != nil {
		return fmt.Errorf("writing stream event: %w", err)
	}
	return nil
}

// StreamHandler runs one authenticated session. It must return when
// ctx is done; the connection closes when it returns.
type StreamHandler func(ctx context.Context, session *StreamSession)

// StreamServer accepts realtime connections, performs the hello
// handshake, verifies the presented credential, and hands
// authenticated sessions to a handler.
//
// A session's context ends when the client disconnects, the server
// shuts down, or the session's credential expires, whichever comes
// first.
type StreamServer struct {
	address  string
	verifier *Verifier
	handler  StreamHandler
	clock    clock.Clock
	logger   *slog.Logger

	ready chan struct{}
	addr  net.Addr
}

// StreamServerConfig configures a StreamServer.
type StreamServerConfig struct {
	// Address is the TCP listen address. Required.
	Address string

	// Verifier authenticates hello credentials. Required.
	Verifier *Verifier

	// Handler runs each authenticated session. Required.
	Handler StreamHandler

	// Clock drives credential-expiry disconnects. Required.
	Clock clock.Clock

	// Logger is the structured logger. Required.
	Logger *slog.Logger
}

// NewStreamServer creates a stream server. Call Serve to start
// accepting connections.
func NewStreamServer(config StreamServerConfig) *StreamServer {
	if config.Address == "" {
		panic("service.StreamServer: Address is required")
	}
	if config.Verifier == nil {
		panic("service.StreamServer: Verifier is required")
	}
	if config.Handler == nil {
		panic("service.StreamServer: Handler is required")
	}
	if config.Clock == nil {
		panic("service.StreamServer: Clock is required")
	}
	if config.Logger == nil {
		panic("service.StreamServer: Logger is required")
	}
	return &StreamServer{
		address:  config.Address,
		verifier: config.Verifier,
		handler:  config.Handler,
		clock:    config.Clock,
		logger:   config.Logger,
		ready:    make(chan struct{}),
	}
}

// Ready returns a channel closed once the server is accepting
// connections.
func (s *StreamServer) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the resolved listen address. Only valid after Ready()
// is closed.
func (s *StreamServer) Addr() net.Addr {
	return s.addr
}

// Serve accepts connections until ctx is cancelled. Active sessions
// are torn down on cancellation.
func (s *StreamServer) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.address, err)
	}
	s.addr = listener.Addr()
	close(s.ready)

	s.logger.Info("stream server listening", "address", s.addr.String())

	var sessions sync.WaitGroup

	// Closing the listener unblocks Accept when the context ends.
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}
		sessions.Add(1)
		go func() {
			defer sessions.Done()
			s.handleConn(ctx, conn)
		}()
	}

	sessions.Wait()
	s.logger.Info("stream server stopped")
	return nil
}

// handleConn runs the handshake and, on success, the handler. The
// connection is closed before return.
func (s *StreamServer) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	remote := conn.RemoteAddr().String()

	if err := conn.SetReadDeadline(time.Now().Add(handshakeTimeout)); err != nil {
		s.logger.Warn("stream handshake setup failed", "remote", remote, "error", err)
		return
	}

	decoder := codec.NewDecoder(io.LimitReader(conn, handshakeLimit))
	var hello api.StreamHello
	if err := decoder.Decode(&hello); err != nil {
		s.logger.Warn("stream hello unreadable", "remote", remote, "error", err)
		writeReply(conn, api.StreamReply{Error: api.CodeUnauthenticated, Message: "malformed hello"})
		return
	}

	token, err := s.verifier.VerifyRaw(hello.Token)
	if err != nil {
		code := api.CodeUnauthenticated
		if errors.Is(err, ErrInvalidCredential) {
			code = api.CodeInvalidCredential
		}
		s.logger.Warn("stream credential rejected", "remote", remote, "error", err)
		writeReply(conn, api.StreamReply{Error: code, Message: "credential rejected"})
		return
	}

	// Handshake complete. Clear the read deadline; the reader
	// goroutine below watches for client disconnect.
	if err := conn.SetReadDeadline(time.Time{}); err != nil {
		s.logger.Warn("stream deadline reset failed", "remote", remote, "error", err)
		return
	}

	session := &StreamSession{
		owner:   token.Subject,
		conn:    conn,
		encoder: codec.NewEncoder(conn),
	}

	if err := session.Send(api.StreamReply{OK: true}); err != nil {
		s.logger.Warn("stream ack failed", "remote", remote, "error", err)
		return
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The session ends when the credential does. The timer is armed
	// from the verifying clock so tests can drive expiry.
	remaining := time.Unix(token.ExpiresAt, 0).Sub(s.clock.Now())
	expiry := s.clock.AfterFunc(remaining, cancel)
	defer expiry.Stop()

	// Clients never send after the hello; any read result, data or
	// error, means the connection is done.
	go func() {
		buf := make([]byte, 1)
		conn.Read(buf)
		cancel()
	}()

	s.logger.Info("stream session started", "owner", token.Subject, "remote", remote)
	s.handler(sessionCtx, session)
	s.logger.Info("stream session ended", "owner", token.Subject, "remote", remote)
}

// writeReply best-effort writes a handshake rejection before the
// connection closes.
func writeReply(conn net.Conn, reply api.StreamReply) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	data, err := codec.Marshal(reply)
	if err != nil {
		return
	}
	conn.Write(data)
}

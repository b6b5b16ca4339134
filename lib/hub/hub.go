// Copyright 2026 The Taskwire Authors
// SPDX-License-Identifier: Apache-2.0

// Package hub is the broadcast registry: the set of live realtime
// connections, bucketed by owner identity, and the fan-out of change
// events to them. The hub owns connection registration only — it
// holds no task data and never surfaces delivery failure to the
// mutation path. A send that cannot complete immediately (full
// buffer, slow consumer) tears that one connection down; the event is
// not owed to anyone.
package hub

import (
	"log/slog"
	"sync"

	"github.com/taskwire/taskwire/lib/task"
)

// DefaultBuffer is the per-connection event channel capacity. Large
// enough to absorb a burst of mutations while the writer drains; a
// consumer that falls further behind is cut off rather than awaited.
const DefaultBuffer = 64

// Conn is one registered realtime connection. The transport layer
// reads Events and watches Done; the hub writes Events and closes
// Done on teardown.
type Conn struct {
	owner  string
	events chan task.Event

	done     chan struct{}
	doneOnce sync.Once

	// lagged records that the connection was dropped for falling
	// behind, so the transport can tell the difference between a
	// clean shutdown and an overflow cut-off.
	mu     sync.Mutex
	lagged bool
}

// NewConn creates an unregistered connection tagged with the owner
// identity. buffer <= 0 uses DefaultBuffer.
func NewConn(owner string, buffer int) *Conn {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Conn{
		owner:  owner,
		events: make(chan task.Event, buffer),
		done:   make(chan struct{}),
	}
}

// Owner returns the identity the connection was registered under.
func (c *Conn) Owner() string { return c.owner }

// Events is the stream of change events delivered to this connection.
func (c *Conn) Events() <-chan task.Event { return c.events }

// Done is closed when the hub tears the connection down (unregister,
// overflow). Safe to select on alongside Events.
func (c *Conn) Done() <-chan struct{} { return c.done }

// Lagged reports whether the connection was dropped for a full buffer.
func (c *Conn) Lagged() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lagged
}

func (c *Conn) markLagged() {
	c.mu.Lock()
	c.lagged = true
	c.mu.Unlock()
}

func (c *Conn) close() {
	c.doneOnce.Do(func() { close(c.done) })
}

// Hub maps owner identities to their live connections. All access to
// the registry goes through one mutex; no delivery IO ever happens
// under the lock — sends are non-blocking channel writes.
type Hub struct {
	mu     sync.Mutex
	conns  map[string][]*Conn
	logger *slog.Logger
}

// New creates an empty hub. logger may be nil.
func New(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Hub{
		conns:  make(map[string][]*Conn),
		logger: logger,
	}
}

// Register adds the connection under its owner's bucket. Idempotent
// per connection; registering a connection that has already been torn
// down is a no-op.
func (h *Hub) Register(conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Checked under the lock so a concurrent Unregister cannot slip
	// between the check and the append.
	select {
	case <-conn.done:
		return
	default:
	}

	for _, existing := range h.conns[conn.owner] {
		if existing == conn {
			return
		}
	}
	h.conns[conn.owner] = append(h.conns[conn.owner], conn)
}

// Unregister removes the connection and closes its Done channel. Safe
// to call multiple times and on connections that were never
// registered.
func (h *Hub) Unregister(conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeLocked(conn)

	// Closed under the lock: once any Unregister returns, a racing
	// Register observes the closed done channel and cannot re-add
	// the connection.
	conn.close()
}

// removeLocked drops conn from its owner's bucket. Caller holds h.mu.
func (h *Hub) removeLocked(conn *Conn) {
	bucket := h.conns[conn.owner]
	for i, existing := range bucket {
		if existing == conn {
			h.conns[conn.owner] = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(h.conns[conn.owner]) == 0 {
		delete(h.conns, conn.owner)
	}
}

// Publish delivers the event to every connection registered under the
// event's owner, in any order, including the originator's own
// connections. Sends are non-blocking: a full channel marks the
// connection lagged and tears it down; a connection already mid-
// teardown is skipped. Delivery failure never reaches the caller —
// the mutation that produced the event has already committed.
func (h *Hub) Publish(event task.Event) {
	var dropped []*Conn

	h.mu.Lock()
	bucket := h.conns[event.Owner]
	// Iterate in reverse so removals don't shift unvisited elements.
	for i := len(bucket) - 1; i >= 0; i-- {
		conn := bucket[i]

		select {
		case <-conn.done:
			bucket = append(bucket[:i], bucket[i+1:]...)
			continue
		default:
		}

		select {
		case conn.events <- event:
		default:
			conn.markLagged()
			bucket = append(bucket[:i], bucket[i+1:]...)
			dropped = append(dropped, conn)
		}
	}
	if len(bucket) == 0 {
		delete(h.conns, event.Owner)
	} else {
		h.conns[event.Owner] = bucket
	}
	// Same contract as Unregister: done closes before the lock is
	// released, so a racing Register cannot resurrect a dropped
	// connection.
	for _, conn := range dropped {
		conn.close()
	}
	h.mu.Unlock()

	for _, conn := range dropped {
		h.logger.Warn("dropping lagged connection", "owner", conn.owner)
	}
}

// Connections reports how many live connections the owner has.
func (h *Hub) Connections(owner string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns[owner])
}

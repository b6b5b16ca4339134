// Copyright 2026 The Taskwire Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/taskwire/taskwire/lib/reconcile"
	"github.com/taskwire/taskwire/lib/task"
)

// Watcher is a live, reconciled view of the caller's task list. It
// holds a stream subscription and folds incoming change events into a
// local snapshot.
type Watcher struct {
	client *Client

	mu   sync.Mutex
	view *reconcile.View

	// updates receives a signal after any event that changed the
	// snapshot. Coalescing: a slow reader sees at least one signal
	// for any burst of changes.
	updates chan struct{}

	// done closes when the stream ends.
	done chan struct{}
}

// Watch opens a stream subscription and initializes a live view from
// a full fetch. The subscription is opened before the fetch, so
// events racing the fetch are absorbed by reconciler idempotence
// rather than lost.
func (c *Client) Watch(ctx context.Context) (*Watcher, error) {
	events, err := c.Subscribe(ctx)
	if err != nil {
		return nil, err
	}

	tasks, err := c.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching initial task list: %w", err)
	}

	w := &Watcher{
		client:  c,
		view:    reconcile.NewView(),
		updates: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	w.view.Reset(tasks)

	go w.run(events)
	return w, nil
}

// run folds stream events into the view until the stream ends.
func (w *Watcher) run(events <-chan task.Event) {
	defer close(w.done)
	for event := range events {
		w.mu.Lock()
		changed := w.view.Apply(event)
		w.mu.Unlock()
		if changed {
			w.signal()
		}
	}
}

// signal notifies Updates without blocking.
func (w *Watcher) signal() {
	select {
	case w.updates <- struct{}{}:
	default:
	}
}

// Updates returns a channel that receives a signal whenever the
// snapshot changes. Signals coalesce; read Tasks after each one.
func (w *Watcher) Updates() <-chan struct{} {
	return w.updates
}

// Done returns a channel closed when the underlying stream ends (the
// context was cancelled, the server closed the connection, or the
// credential expired). The snapshot stops updating after that;
// re-open with Watch.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

// Tasks returns a copy of the current snapshot.
func (w *Watcher) Tasks() []task.Task {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.view.Tasks()
}

// Refresh re-fetches the task list and resets the view. This is the
// recovery path after suspected divergence.
func (w *Watcher) Refresh(ctx context.Context) error {
	tasks, err := w.client.List(ctx)
	if err != nil {
		return fmt.Errorf("refreshing task list: %w", err)
	}
	w.mu.Lock()
	w.view.Reset(tasks)
	w.mu.Unlock()
	w.signal()
	return nil
}

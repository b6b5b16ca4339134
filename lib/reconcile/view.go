// Copyright 2026 The Taskwire Authors
// SPDX-License-Identifier: Apache-2.0

// Package reconcile merges a full-list fetch with a stream of
// incremental change events into one authoritative in-memory list.
//
// The merge is a pure reducer: Apply(tasks, event) returns the next
// list without touching the transport, the clock, or any lock.
// Created and updated events upsert by id, deleted events remove by
// id, so re-delivering an event is always a no-op and a limited class
// of reordering is absorbed. The one hazard this design accepts is an
// updated event arriving after the deleted event for the same id,
// which resurrects the task until the next full re-fetch — the stream
// is a convenience layer, and re-fetching is the recovery path.
package reconcile

import "github.com/taskwire/taskwire/lib/task"

// Apply is the pure reducer. It returns the list after the event:
// upsert for created/updated (insert appends, replace keeps position),
// removal for deleted. The input slice is not modified.
func Apply(tasks []task.Task, event task.Event) []task.Task {
	switch event.Kind {
	case task.EventCreated, task.EventUpdated:
		if event.Task == nil {
			return tasks
		}
		for i, existing := range tasks {
			if existing.ID == event.TaskID {
				next := make([]task.Task, len(tasks))
				copy(next, tasks)
				next[i] = *event.Task
				return next
			}
		}
		next := make([]task.Task, len(tasks), len(tasks)+1)
		copy(next, tasks)
		return append(next, *event.Task)

	case task.EventDeleted:
		for i, existing := range tasks {
			if existing.ID == event.TaskID {
				next := make([]task.Task, 0, len(tasks)-1)
				next = append(next, tasks[:i]...)
				return append(next, tasks[i+1:]...)
			}
		}
		return tasks

	default:
		return tasks
	}
}

// State is the view's lifecycle position.
type State int

const (
	// Uninitialized means no baseline has been fetched; events are
	// dropped because there is nothing to patch.
	Uninitialized State = iota

	// Synced means a baseline is loaded and events apply
	// incrementally.
	Synced
)

// View is the per-session reconciler: a baseline snapshot plus the
// reducer. Not safe for concurrent use; callers that share a View
// across goroutines wrap it in their own lock.
type View struct {
	state State
	tasks []task.Task
}

// NewView returns an Uninitialized view.
func NewView() *View {
	return &View{state: Uninitialized}
}

// State returns the view's lifecycle position.
func (v *View) State() State { return v.state }

// Reset replaces the list wholesale with a fresh full fetch and
// enters Synced. Also the recovery path after a suspected missed or
// misordered event.
func (v *View) Reset(tasks []task.Task) {
	v.tasks = make([]task.Task, len(tasks))
	copy(v.tasks, tasks)
	v.state = Synced
}

// Apply feeds one change event through the reducer. Events arriving
// before the first Reset are dropped. Returns whether the list
// changed.
func (v *View) Apply(event task.Event) bool {
	if v.state != Synced {
		return false
	}
	before := v.tasks
	after := Apply(before, event)
	v.tasks = after

	if len(before) != len(after) {
		return true
	}
	for i := range before {
		if before[i] != after[i] {
			return true
		}
	}
	return false
}

// Tasks returns a copy of the current list.
func (v *View) Tasks() []task.Task {
	tasks := make([]task.Task, len(v.tasks))
	copy(tasks, v.tasks)
	return tasks
}

// Len returns the current list length.
func (v *View) Len() int { return len(v.tasks) }

// Copyright 2026 The Taskwire Authors
// SPDX-License-Identifier: Apache-2.0

// Package task defines the task record, the partial-update patch, and
// the change event that flows from a committed mutation to every live
// connection of the owning user. The same types serve the JSON HTTP
// surface and the CBOR stream (the codec falls back to json tags).
package task

import (
	"errors"
	"strings"
	"time"
)

// Task is one task record. ID, Owner, and CreatedAt are immutable
// after creation.
type Task struct {
	ID          string    `json:"id"`
	Owner       string    `json:"owner"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
}

// ErrEmptyTitle rejects tasks whose title is empty or whitespace-only.
var ErrEmptyTitle = errors.New("task: title must not be empty")

// ValidateTitle checks the non-empty title invariant.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return ErrEmptyTitle
	}
	return nil
}

// Patch is a partial update. Nil fields are left unchanged; the store
// applies all set fields in a single statement so two concurrent
// patches never interleave field-by-field.
type Patch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

// IsZero reports whether the patch changes nothing.
func (p Patch) IsZero() bool {
	return p.Title == nil && p.Description == nil && p.Completed == nil
}

// Validate checks the fields a patch does set. A patch may not blank
// a task's title.
func (p Patch) Validate() error {
	if p.Title != nil {
		return ValidateTitle(*p.Title)
	}
	return nil
}

// EventKind discriminates change events.
type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
)

// Event is the transient change notification handed from a committed
// mutation to the broadcast hub and on to the wire. Created and
// updated events carry the post-commit task snapshot; deleted events
// carry only the id. Owner scopes fan-out and is always set.
type Event struct {
	Kind   EventKind `json:"kind"`
	Owner  string    `json:"owner"`
	TaskID string    `json:"task_id"`
	Task   *Task     `json:"task,omitempty"`
}

// Created builds a change event for a newly created task.
func Created(t Task) Event {
	return Event{Kind: EventCreated, Owner: t.Owner, TaskID: t.ID, Task: &t}
}

// Updated builds a change event carrying the full post-commit record.
func Updated(t Task) Event {
	return Event{Kind: EventUpdated, Owner: t.Owner, TaskID: t.ID, Task: &t}
}

// Deleted builds a change event for a removed task.
func Deleted(owner, id string) Event {
	return Event{Kind: EventDeleted, Owner: owner, TaskID: id}
}

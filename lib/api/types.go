// Copyright 2026 The Taskwire Authors
// SPDX-License-Identifier: Apache-2.0

// Package api defines the wire types shared by the server and the Go
// client: JSON request/response bodies for the HTTP mutation surface
// and the CBOR frames of the stream handshake. Task records and
// change events themselves live in lib/task.
package api

import "github.com/taskwire/taskwire/lib/task"

// Error code strings carried in failure responses. The server maps
// its internal errors onto these; the client maps them back to typed
// errors.
const (
	// CodeUnauthenticated: the request carried no credential, or one
	// that could not even be decoded.
	CodeUnauthenticated = "unauthenticated"

	// CodeInvalidCredential: the credential decoded but failed the
	// signature or expiry check.
	CodeInvalidCredential = "invalid_credential"

	// CodeValidation: the request body was malformed or violated a
	// field invariant (empty title).
	CodeValidation = "validation"

	// CodeNotFound: no task with that id is owned by the caller.
	// Deliberately covers "owned by someone else" too.
	CodeNotFound = "not_found"
)

// Error is the JSON failure body. Every failure response is
// structurally distinct from any success payload.
type Error struct {
	Code    string `json:"error"`
	Message string `json:"message,omitempty"`
}

// CreateTaskRequest is the body of POST /v1/tasks.
type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// TaskListResponse is the body of GET /v1/tasks.
type TaskListResponse struct {
	Tasks []task.Task `json:"tasks"`
}

// DeleteTaskResponse is the body of DELETE /v1/tasks/{id}.
type DeleteTaskResponse struct {
	ID string `json:"id"`
}

// HealthResponse is the body of GET /v1/healthz. Liveness only; it
// discloses nothing about users or tasks.
type HealthResponse struct {
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// StreamHello is the first (and only) CBOR frame a client sends on a
// realtime connection: the raw credential bytes, not base64.
type StreamHello struct {
	Token []byte `json:"token"`
}

// StreamReply answers the hello. On success OK is true and change
// events follow as consecutive CBOR values; on failure Error holds an
// api error code and the server closes the connection.
type StreamReply struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

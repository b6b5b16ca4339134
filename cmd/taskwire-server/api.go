// Copyright 2026 The Taskwire Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/taskwire/taskwire/lib/api"
	"github.com/taskwire/taskwire/lib/authtoken"
	"github.com/taskwire/taskwire/lib/clock"
	"github.com/taskwire/taskwire/lib/hub"
	"github.com/taskwire/taskwire/lib/service"
	"github.com/taskwire/taskwire/lib/task"
	"github.com/taskwire/taskwire/lib/taskstore"
)

// requestBodyLimit bounds mutation request bodies. Task titles and
// descriptions are short.
const requestBodyLimit = 1 << 20

// taskServer holds the wired components behind both listeners.
type taskServer struct {
	store     *taskstore.Store
	hub       *hub.Hub
	verifier  *service.Verifier
	clock     clock.Clock
	logger    *slog.Logger
	startedAt time.Time

	streamBuffer int
}

// routes builds the mutation API handler.
func (s *taskServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/tasks", s.handleCreate)
	mux.HandleFunc("GET /v1/tasks", s.handleList)
	mux.HandleFunc("PATCH /v1/tasks/{id}", s.handleUpdate)
	mux.HandleFunc("DELETE /v1/tasks/{id}", s.handleDelete)
	mux.HandleFunc("GET /v1/healthz", s.handleHealth)
	return mux
}

// authenticate verifies the bearer credential and returns the token,
// or writes the failure response and returns nil. Authentication
// always runs before any store access.
func (s *taskServer) authenticate(w http.ResponseWriter, r *http.Request) *authtoken.Token {
	token, err := s.verifier.VerifyHeader(r.Header.Get("Authorization"))
	if err != nil {
		code := api.CodeUnauthenticated
		if errors.Is(err, service.ErrInvalidCredential) {
			code = api.CodeInvalidCredential
		}
		s.writeError(w, http.StatusUnauthorized, code, "credential rejected")
		return nil
	}
	return token
}

func (s *taskServer) handleCreate(w http.ResponseWriter, r *http.Request) {
	token := s.authenticate(w, r)
	if token == nil {
		return
	}

	var request api.CreateTaskRequest
	if !s.readBody(w, r, &request) {
		return
	}

	created, err := s.store.Create(r.Context(), token.Subject, request.Title, request.Description)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.hub.Publish(task.Created(created))
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *taskServer) handleList(w http.ResponseWriter, r *http.Request) {
	token := s.authenticate(w, r)
	if token == nil {
		return
	}

	tasks, err := s.store.List(r.Context(), token.Subject)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	s.writeJSON(w, http.StatusOK, api.TaskListResponse{Tasks: tasks})
}

func (s *taskServer) handleUpdate(w http.ResponseWriter, r *http.Request) {
	token := s.authenticate(w, r)
	if token == nil {
		return
	}

	var patch task.Patch
	if !s.readBody(w, r, &patch) {
		return
	}

	updated, err := s.store.Update(r.Context(), token.Subject, r.PathValue("id"), patch)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.hub.Publish(task.Updated(updated))
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *taskServer) handleDelete(w http.ResponseWriter, r *http.Request) {
	token := s.authenticate(w, r)
	if token == nil {
		return
	}

	id, err := s.store.Delete(r.Context(), token.Subject, r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.hub.Publish(task.Deleted(token.Subject, id))
	s.writeJSON(w, http.StatusOK, api.DeleteTaskResponse{ID: id})
}

// handleHealth reports liveness. Unauthenticated and deliberately
// content-free beyond uptime.
func (s *taskServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	uptime := s.clock.Now().Sub(s.startedAt).Seconds()
	s.writeJSON(w, http.StatusOK, api.HealthResponse{UptimeSeconds: uptime})
}

// readBody decodes a JSON request body into v, writing a validation
// error on failure.
func (s *taskServer) readBody(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, requestBodyLimit))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, api.CodeValidation, "unreadable request body")
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		s.writeError(w, http.StatusBadRequest, api.CodeValidation, "malformed request body")
		return false
	}
	return true
}

// writeStoreError maps store errors onto the API error taxonomy.
func (s *taskServer) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, task.ErrEmptyTitle):
		s.writeError(w, http.StatusBadRequest, api.CodeValidation, "title must not be empty")
	case errors.Is(err, taskstore.ErrNotFound):
		s.writeError(w, http.StatusNotFound, api.CodeNotFound, "no such task")
	default:
		s.logger.Error("store operation failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func (s *taskServer) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, api.Error{Code: code, Message: message})
}

func (s *taskServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("writing response failed", "error", err)
	}
}

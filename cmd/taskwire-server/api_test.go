// Copyright 2026 The Taskwire Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/taskwire/taskwire/lib/api"
	"github.com/taskwire/taskwire/lib/authtoken"
	"github.com/taskwire/taskwire/lib/clock"
	"github.com/taskwire/taskwire/lib/hub"
	"github.com/taskwire/taskwire/lib/service"
	"github.com/taskwire/taskwire/lib/task"
	"github.com/taskwire/taskwire/lib/taskstore"
)

type testEnv struct {
	server     *taskServer
	httpServer *httptest.Server
	private    ed25519.PrivateKey
	clock      *clock.FakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fake := clock.Fake(now)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	public, private, err := authtoken.GenerateKeypair()
	if err != nil {
		t.Fatalf("generating keypair: %v", err)
	}

	store, err := taskstore.Open(taskstore.Config{
		Path:     filepath.Join(t.TempDir(), "tasks.db"),
		PoolSize: 2,
		Clock:    fake,
		Logger:   logger,
	})
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	server := &taskServer{
		store:        store,
		hub:          hub.New(logger),
		verifier:     &service.Verifier{PublicKey: public, Clock: fake},
		clock:        fake,
		logger:       logger,
		startedAt:    fake.Now(),
		streamBuffer: hub.DefaultBuffer,
	}

	httpServer := httptest.NewServer(server.routes())
	t.Cleanup(httpServer.Close)

	return &testEnv{
		server:     server,
		httpServer: httpServer,
		private:    private,
		clock:      fake,
	}
}

func (e *testEnv) credential(t *testing.T, subject string) string {
	t.Helper()
	id, err := authtoken.NewTokenID()
	if err != nil {
		t.Fatalf("generating token id: %v", err)
	}
	tokenBytes, err := authtoken.Mint(e.private, &authtoken.Token{
		Subject:   subject,
		ID:        id,
		IssuedAt:  e.clock.Now().Unix(),
		ExpiresAt: e.clock.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("minting token: %v", err)
	}
	return authtoken.EncodeCredential(tokenBytes)
}

// request issues one JSON request with the given credential and
// decodes the response body into out (if non-nil).
func (e *testEnv) request(t *testing.T, method, path, credential string, body, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encoding body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	request, err := http.NewRequest(method, e.httpServer.URL+path, reader)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	if credential != "" {
		request.Header.Set("Authorization", "Bearer "+credential)
	}

	response, err := e.httpServer.Client().Do(request)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer response.Body.Close()

	if out != nil {
		if err := json.NewDecoder(response.Body).Decode(out); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
	}
	return response.StatusCode
}

func TestCreateListRoundtrip(t *testing.T) {
	env := newTestEnv(t)
	credential := env.credential(t, "alice")

	var created task.Task
	status := env.request(t, http.MethodPost, "/v1/tasks", credential,
		api.CreateTaskRequest{Title: "buy milk", Description: "2 liters"}, &created)
	if status != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", status)
	}
	if created.Owner != "alice" || created.Title != "buy milk" || created.ID == "" {
		t.Fatalf("created = %+v", created)
	}
	if created.Completed {
		t.Fatal("new task should not be completed")
	}

	var list api.TaskListResponse
	status = env.request(t, http.MethodGet, "/v1/tasks", credential, nil, &list)
	if status != http.StatusOK {
		t.Fatalf("list status = %d, want 200", status)
	}
	if len(list.Tasks) != 1 || list.Tasks[0].ID != created.ID {
		t.Fatalf("list = %+v", list.Tasks)
	}
}

func TestListScopedToOwner(t *testing.T) {
	env := newTestEnv(t)
	alice := env.credential(t, "alice")
	bob := env.credential(t, "bob")

	env.request(t, http.MethodPost, "/v1/tasks", alice,
		api.CreateTaskRequest{Title: "alice's task"}, nil)

	var list api.TaskListResponse
	env.request(t, http.MethodGet, "/v1/tasks", bob, nil, &list)
	if len(list.Tasks) != 0 {
		t.Fatalf("bob sees %d tasks, want 0", len(list.Tasks))
	}
}

func TestCreateEmptyTitle(t *testing.T) {
	env := newTestEnv(t)
	credential := env.credential(t, "alice")

	var apiErr api.Error
	status := env.request(t, http.MethodPost, "/v1/tasks", credential,
		api.CreateTaskRequest{Title: "   "}, &apiErr)
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
	if apiErr.Code != api.CodeValidation {
		t.Fatalf("code = %q, want %q", apiErr.Code, api.CodeValidation)
	}
}

func TestUnauthenticated(t *testing.T) {
	env := newTestEnv(t)

	var apiErr api.Error
	status := env.request(t, http.MethodGet, "/v1/tasks", "", nil, &apiErr)
	if status != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", status)
	}
	if apiErr.Code != api.CodeUnauthenticated {
		t.Fatalf("code = %q, want %q", apiErr.Code, api.CodeUnauthenticated)
	}
}

func TestExpiredCredential(t *testing.T) {
	env := newTestEnv(t)
	credential := env.credential(t, "alice")

	env.clock.Advance(2 * time.Hour)

	var apiErr api.Error
	status := env.request(t, http.MethodGet, "/v1/tasks", credential, nil, &apiErr)
	if status != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", status)
	}
	if apiErr.Code != api.CodeInvalidCredential {
		t.Fatalf("code = %q, want %q", apiErr.Code, api.CodeInvalidCredential)
	}
}

func TestUpdateForeignTaskNotFound(t *testing.T) {
	env := newTestEnv(t)
	alice := env.credential(t, "alice")
	bob := env.credential(t, "bob")

	var created task.Task
	env.request(t, http.MethodPost, "/v1/tasks", alice,
		api.CreateTaskRequest{Title: "alice's task"}, &created)

	completed := true
	var foreignErr api.Error
	status := env.request(t, http.MethodPatch, "/v1/tasks/"+created.ID, bob,
		task.Patch{Completed: &completed}, &foreignErr)

	var missingErr api.Error
	missingStatus := env.request(t, http.MethodPatch, "/v1/tasks/no-such-id", bob,
		task.Patch{Completed: &completed}, &missingErr)

	// Foreign and nonexistent ids must be indistinguishable.
	if status != http.StatusNotFound || missingStatus != http.StatusNotFound {
		t.Fatalf("statuses = %d, %d, want 404, 404", status, missingStatus)
	}
	if foreignErr != missingErr {
		t.Fatalf("foreign error %+v differs from missing error %+v", foreignErr, missingErr)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	env := newTestEnv(t)
	credential := env.credential(t, "alice")

	var created task.Task
	env.request(t, http.MethodPost, "/v1/tasks", credential,
		api.CreateTaskRequest{Title: "first"}, &created)

	completed := true
	var updated task.Task
	status := env.request(t, http.MethodPatch, "/v1/tasks/"+created.ID, credential,
		task.Patch{Completed: &completed}, &updated)
	if status != http.StatusOK {
		t.Fatalf("update status = %d, want 200", status)
	}
	if !updated.Completed || updated.Title != "first" {
		t.Fatalf("updated = %+v", updated)
	}

	var deleted api.DeleteTaskResponse
	status = env.request(t, http.MethodDelete, "/v1/tasks/"+created.ID, credential, nil, &deleted)
	if status != http.StatusOK {
		t.Fatalf("delete status = %d, want 200", status)
	}
	if deleted.ID != created.ID {
		t.Fatalf("deleted id = %q, want %q", deleted.ID, created.ID)
	}

	// Second delete of the same id reports not found.
	var apiErr api.Error
	status = env.request(t, http.MethodDelete, "/v1/tasks/"+created.ID, credential, nil, &apiErr)
	if status != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", status)
	}
	if apiErr.Code != api.CodeNotFound {
		t.Fatalf("code = %q, want %q", apiErr.Code, api.CodeNotFound)
	}
}

func TestMalformedBody(t *testing.T) {
	env := newTestEnv(t)
	credential := env.credential(t, "alice")

	request, err := http.NewRequest(http.MethodPost, env.httpServer.URL+"/v1/tasks",
		bytes.NewReader([]byte("{not json")))
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	request.Header.Set("Authorization", "Bearer "+credential)

	response, err := env.httpServer.Client().Do(request)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", response.StatusCode)
	}
	var apiErr api.Error
	if err := json.NewDecoder(response.Body).Decode(&apiErr); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	if apiErr.Code != api.CodeValidation {
		t.Fatalf("code = %q, want %q", apiErr.Code, api.CodeValidation)
	}
}

func TestMutationsPublishToHub(t *testing.T) {
	env := newTestEnv(t)
	credential := env.credential(t, "alice")

	conn := hub.NewConn("alice", hub.DefaultBuffer)
	env.server.hub.Register(conn)
	defer env.server.hub.Unregister(conn)

	var created task.Task
	env.request(t, http.MethodPost, "/v1/tasks", credential,
		api.CreateTaskRequest{Title: "watched"}, &created)

	// Publish happens before the response is written, so the event
	// is already buffered by the time the request returns.
	select {
	case event := <-conn.Events():
		if event.Kind != task.EventCreated || event.Task == nil || event.Task.ID != created.ID {
			t.Fatalf("event = %+v", event)
		}
	default:
		t.Fatal("created event was not published before the response")
	}

	env.request(t, http.MethodDelete, "/v1/tasks/"+created.ID, credential, nil, nil)
	select {
	case event := <-conn.Events():
		if event.Kind != task.EventDeleted || event.TaskID != created.ID {
			t.Fatalf("event = %+v", event)
		}
	default:
		t.Fatal("deleted event was not published before the response")
	}
}

func TestFailedMutationPublishesNothing(t *testing.T) {
	env := newTestEnv(t)
	credential := env.credential(t, "alice")

	conn := hub.NewConn("alice", hub.DefaultBuffer)
	env.server.hub.Register(conn)
	defer env.server.hub.Unregister(conn)

	env.request(t, http.MethodPost, "/v1/tasks", credential,
		api.CreateTaskRequest{Title: ""}, nil)
	env.request(t, http.MethodDelete, "/v1/tasks/no-such-id", credential, nil, nil)

	select {
	case event := <-conn.Events():
		t.Fatalf("unexpected event: %+v", event)
	default:
	}
}

func TestEventsScopedToOwner(t *testing.T) {
	env := newTestEnv(t)
	alice := env.credential(t, "alice")

	bobConn := hub.NewConn("bob", hub.DefaultBuffer)
	env.server.hub.Register(bobConn)
	defer env.server.hub.Unregister(bobConn)

	env.request(t, http.MethodPost, "/v1/tasks", alice,
		api.CreateTaskRequest{Title: "private"}, nil)

	select {
	case event := <-bobConn.Events():
		t.Fatalf("bob received alice's event: %+v", event)
	default:
	}
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	env.clock.Advance(90 * time.Second)

	var health api.HealthResponse
	status := env.request(t, http.MethodGet, "/v1/healthz", "", nil, &health)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if health.UptimeSeconds != 90 {
		t.Fatalf("uptime = %v, want 90", health.UptimeSeconds)
	}
}

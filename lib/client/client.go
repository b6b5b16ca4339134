// Copyright 2026 The Taskwire Authors
// SPDX-License-Identifier: Apache-2.0

// Package client is the Go client for a taskwire server: typed CRUD
// calls against the mutation API, subscription to the realtime change
// feed, and a live reconciled view combining the two.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/taskwire/taskwire/lib/api"
	"github.com/taskwire/taskwire/lib/authtoken"
	"github.com/taskwire/taskwire/lib/codec"
	"github.com/taskwire/taskwire/lib/task"
)

// Typed errors mapped from server error codes. Errors wrap these
// sentinels; match with errors.Is.
var (
	ErrUnauthenticated   = errors.New("client: unauthenticated")
	ErrInvalidCredential = errors.New("client: invalid credential")
	ErrValidation        = errors.New("client: validation failed")
	ErrNotFound          = errors.New("client: task not found")
)

// Config configures a Client.
type Config struct {
	// BaseURL is the mutation API root, e.g. "http://localhost:8600".
	// Required.
	BaseURL string

	// StreamAddress is the realtime listener address, e.g.
	// "localhost:8601". Required for Subscribe and Watch.
	StreamAddress string

	// Credential is the base64url bearer credential. Required.
	Credential string

	// HTTPClient overrides the HTTP client. Defaults to a client with
	// a 30s timeout.
	HTTPClient *http.Client
}

// Client calls a taskwire server on behalf of one credential.
type Client struct {
	baseURL       string
	streamAddress string
	credential    string
	httpClient    *http.Client
}

// New creates a Client.
func New(config Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("client: BaseURL is required")
	}
	if config.Credential == "" {
		return nil, fmt.Errorf("client: Credential is required")
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:       config.BaseURL,
		streamAddress: config.StreamAddress,
		credential:    config.Credential,
		httpClient:    httpClient,
	}, nil
}

// Create adds a task and returns the stored record.
func (c *Client) Create(ctx context.Context, title, description string) (task.Task, error) {
	body := api.CreateTaskRequest{Title: title, Description: description}
	var created task.Task
	if err := c.do(ctx, http.MethodPost, "/v1/tasks", body, &created); err != nil {
		return task.Task{}, err
	}
	return created, nil
}

// List fetches the caller's tasks in insertion order.
func (c *Client) List(ctx context.Context) ([]task.Task, error) {
	var response api.TaskListResponse
	if err := c.do(ctx, http.MethodGet, "/v1/tasks", nil, &response); err != nil {
		return nil, err
	}
	return response.Tasks, nil
}

// Update applies a partial update and returns the updated record.
func (c *Client) Update(ctx context.Context, id string, patch task.Patch) (task.Task, error) {
	var updated task.Task
	if err := c.do(ctx, http.MethodPatch, "/v1/tasks/"+id, patch, &updated); err != nil {
		return task.Task{}, err
	}
	return updated, nil
}

// Delete removes a task and returns its id.
func (c *Client) Delete(ctx context.Context, id string) (string, error) {
	var response api.DeleteTaskResponse
	if err := c.do(ctx, http.MethodDelete, "/v1/tasks/"+id, nil, &response); err != nil {
		return "", err
	}
	return response.ID, nil
}

// do issues one JSON request and decodes the response into out.
// Non-2xx responses are mapped to typed errors.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("client: building request: %w", err)
	}
	request.Header.Set("Authorization", "Bearer "+c.credential)
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return decodeError(response)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decoding response: %w", err)
	}
	return nil
}

// decodeError maps a failure response onto a typed error.
func decodeError(response *http.Response) error {
	var apiErr api.Error
	if err := json.NewDecoder(response.Body).Decode(&apiErr); err != nil {
		return fmt.Errorf("client: server returned %s with unreadable body", response.Status)
	}

	sentinel := map[string]error{
		api.CodeUnauthenticated:   ErrUnauthenticated,
		api.CodeInvalidCredential: ErrInvalidCredential,
		api.CodeValidation:        ErrValidation,
		api.CodeNotFound:          ErrNotFound,
	}[apiErr.Code]
	if sentinel == nil {
		return fmt.Errorf("client: server error %q: %s", apiErr.Code, apiErr.Message)
	}
	if apiErr.Message != "" {
		return fmt.Errorf("%w: %s", sentinel, apiErr.Message)
	}
	return sentinel
}

// Subscribe dials the realtime listener, authenticates, and returns a
// channel of change events. The channel closes when ctx ends, the
// server closes the connection, or a decode error occurs.
func (c *Client) Subscribe(ctx context.Context) (<-chan task.Event, error) {
	if c.streamAddress == "" {
		return nil, fmt.Errorf("client: StreamAddress is required for Subscribe")
	}

	tokenBytes, err := authtoken.DecodeCredential(c.credential)
	if err != nil {
		return nil, fmt.Errorf("client: %w", err)
	}

	dialer := net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", c.streamAddress)
	if err != nil {
		return nil, fmt.Errorf("client: dialing stream: %w", err)
	}

	if err := codec.NewEncoder(conn).Encode(api.StreamHello{Token: tokenBytes}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("client: sending hello: %w", err)
	}

	decoder := codec.NewDecoder(conn)
	var reply api.StreamReply
	if err := decoder.Decode(&reply); err != nil {
		conn.Close()
		return nil, fmt.Errorf("client: reading handshake reply: %w", err)
	}
	if !reply.OK {
		conn.Close()
		switch reply.Error {
		case api.CodeInvalidCredential:
			return nil, fmt.Errorf("%w: %s", ErrInvalidCredential, reply.Message)
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnauthenticated, reply.Message)
		}
	}

	events := make(chan task.Event)
	readerDone := make(chan struct{})

	// Closing the conn unblocks the decoder when ctx ends; readerDone
	// retires this goroutine if the server closes first.
	go func() {
		select {
		case <-ctx.Done():
		case <-readerDone:
		}
		conn.Close()
	}()

	go func() {
		defer close(events)
		defer close(readerDone)
		for {
			var event task.Event
			if err := decoder.Decode(&event); err != nil {
				return
			}
			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, nil
}

// Package taskclient is the Go client for the task API: a thin typed HTTP
// client plus an optimistic mutation pipeline. Callers read from the Cache
// synchronously while the Reconciler settles mutations against the server.
package taskclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// APITimeout bounds every call when the caller's context carries no deadline.
const APITimeout = 10 * time.Second

// APIError is a decoded error envelope from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details map[string]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
}

// Client talks to the task API with a fixed bearer credential.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// ClientOption configures optional Client collaborators.
type ClientOption func(*Client)

// WithHTTPClient swaps the transport, mainly for tests against httptest
// servers.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

// NewClient creates a client for baseURL authenticating with token.
func NewClient(baseURL, token string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: APITimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListTasks returns every task the credential's subject owns.
func (c *Client) ListTasks(ctx context.Context) ([]*Task, error) {
	var tasks []*Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetTask fetches a single owned task.
func (c *Client) GetTask(ctx context.Context, taskID string) (*Task, error) {
	var task Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks/"+taskID, nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// CreateTask creates a task and returns the server's canonical record.
func (c *Client) CreateTask(ctx context.Context, req CreateTaskRequest) (*Task, error) {
	var task Task
	if err := c.do(ctx, http.MethodPost, "/api/tasks", req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask merges the supplied fields into an owned task.
func (c *Client) UpdateTask(ctx context.Context, taskID string, req UpdateTaskRequest) (*Task, error) {
	var task Task
	if err := c.do(ctx, http.MethodPut, "/api/tasks/"+taskID, req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteTask permanently removes an owned task.
func (c *Client) DeleteTask(ctx context.Context, taskID string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+taskID, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, APITimeout)
		defer cancel()
	}

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Code: "SERVER_ERROR"}
	var envelope struct {
		Error   string            `json:"error"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Error != "" {
		apiErr.Code = envelope.Error
		apiErr.Message = envelope.Message
		apiErr.Details = envelope.Details
	}
	return apiErr
}

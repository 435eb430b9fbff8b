// Package client talks to the famtasks API. It provides the backend,
// notifier and realtime source the task store needs on the client side.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"famtasks/internal/model"
	"famtasks/internal/push"
	"famtasks/internal/realtime"
	"famtasks/internal/taskstore"
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

var (
	_ taskstore.Backend  = (*Client)(nil)
	_ taskstore.Notifier = (*Client)(nil)
	_ realtime.Source    = (*Client)(nil)
)

func New(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), token: token, http: httpClient}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string        `json:"token"`
	User  model.Profile `json:"user"`
}

// Login exchanges credentials for a token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (model.Profile, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/login", loginRequest{Email: email, Password: password}, &resp); err != nil {
		return model.Profile{}, err
	}
	c.token = resp.Token
	return resp.User, nil
}

func (c *Client) Token() string {
	return c.token
}

func (c *Client) Me(ctx context.Context) (model.Profile, error) {
	var profile model.Profile
	err := c.do(ctx, http.MethodGet, "/me", nil, &profile)
	return profile, err
}

// ListTasks ignores householdID: the API scopes tasks to the caller's household.
func (c *Client) ListTasks(ctx context.Context, _ uuid.UUID) ([]model.Task, error) {
	var tasks []model.Task
	err := c.do(ctx, http.MethodGet, "/tasks", nil, &tasks)
	return tasks, err
}

type createTaskRequest struct {
	ID         uuid.UUID  `json:"id"`
	Title      string     `json:"title"`
	CategoryID *uuid.UUID `json:"category_id,omitempty"`
	Memo       *string    `json:"memo,omitempty"`
	URL        *string    `json:"url,omitempty"`
	DueDate    *time.Time `json:"due_date,omitempty"`
}

func (c *Client) CreateTask(ctx context.Context, task model.Task) (model.Task, error) {
	var saved model.Task
	err := c.do(ctx, http.MethodPost, "/tasks", createTaskRequest{
		ID:         task.ID,
		Title:      task.Title,
		CategoryID: task.CategoryID,
		Memo:       task.Memo,
		URL:        task.URL,
		DueDate:    task.DueDate,
	}, &saved)
	return saved, err
}

func (c *Client) UpdateTask(ctx context.Context, id uuid.UUID, patch model.TaskPatch) (model.Task, error) {
	var saved model.Task
	err := c.do(ctx, http.MethodPatch, "/tasks/"+id.String(), patch, &saved)
	return saved, err
}

func (c *Client) DeleteTask(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/tasks/"+id.String(), nil, nil)
}

func (c *Client) ReorderTasks(ctx context.Context, taskIDs []uuid.UUID) error {
	return c.do(ctx, http.MethodPost, "/tasks/reorder", map[string][]uuid.UUID{"task_ids": taskIDs}, nil)
}

// Notify asks the API to push msg to the other household members.
func (c *Client) Notify(ctx context.Context, msg push.Message) error {
	return c.do(ctx, http.MethodPost, "/push/send", msg, nil)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := sonic.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = sonic.Unmarshal(data, &apiErr)
		if apiErr.Error == "" {
			apiErr.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: apiErr.Error}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

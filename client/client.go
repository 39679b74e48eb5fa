package client

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"recap/board"
	"recap/domain"
	"recap/ingest"
)

const maxResponseBytes = 4 << 20

// APIError is a non-2xx answer from the recap API.
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string]string
}

func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%d %s: %v", e.StatusCode, e.Message, e.Fields)
	}
	return fmt.Sprintf("%d %s", e.StatusCode, e.Message)
}

// Client calls the recap API with a bearer token.
type Client struct {
	BaseURL string
	Bearer  string
	HTTP    *http.Client
	// Gzip compresses request bodies.
	Gzip bool
}

var _ board.Store = (*Client)(nil)

func New(baseURL, bearer string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Bearer:  bearer,
		HTTP:    &http.Client{Timeout: 90 * time.Second},
	}
}

// Upload submits meeting notes. A fresh idempotency key is generated when
// key is empty.
func (c *Client) Upload(ctx context.Context, in domain.UploadInput, key string) (ingest.Result, error) {
	if key == "" {
		key = uuid.NewString()
	}
	var res ingest.Result
	err := c.do(ctx, http.MethodPost, "/api/meetings", in, &res, http.Header{"Idempotency-Key": {key}})
	return res, err
}

func (c *Client) Meetings(ctx context.Context) ([]domain.Meeting, error) {
	var out []domain.Meeting
	err := c.do(ctx, http.MethodGet, "/api/meetings", nil, &out, nil)
	return out, err
}

// Meeting returns one meeting with its tasks.
func (c *Client) Meeting(ctx context.Context, id string) (domain.Meeting, []domain.Task, error) {
	var out struct {
		Meeting domain.Meeting `json:"meeting"`
		Tasks   []domain.Task  `json:"tasks"`
	}
	err := c.do(ctx, http.MethodGet, "/api/meetings/"+url.PathEscape(id), nil, &out, nil)
	return out.Meeting, out.Tasks, err
}

func (c *Client) Columns(ctx context.Context) ([]domain.Column, error) {
	var out struct {
		Columns []domain.Column `json:"columns"`
	}
	err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &out, nil)
	return out.Columns, err
}

// ListTasks flattens the board columns.
func (c *Client) ListTasks(ctx context.Context) ([]domain.Task, error) {
	cols, err := c.Columns(ctx)
	if err != nil {
		return nil, err
	}
	var tasks []domain.Task
	for _, col := range cols {
		tasks = append(tasks, col.Tasks...)
	}
	return tasks, nil
}

func (c *Client) CreateTask(ctx context.Context, in domain.TaskInput) (domain.Task, error) {
	var out struct {
		Task domain.Task `json:"task"`
	}
	err := c.do(ctx, http.MethodPost, "/api/tasks", in, &out, nil)
	return out.Task, err
}

func (c *Client) UpdateTask(ctx context.Context, ref domain.TaskRef, patch domain.TaskPatch) error {
	return c.do(ctx, http.MethodPatch, "/api/tasks/"+url.PathEscape(ref.TaskID()), patch, nil, nil)
}

func (c *Client) Search(ctx context.Context, query string) (domain.SearchResults, error) {
	var out domain.SearchResults
	err := c.do(ctx, http.MethodGet, "/api/search?q="+url.QueryEscape(query), nil, &out, nil)
	return out, err
}

func (c *Client) Dashboard(ctx context.Context) (domain.Stats, error) {
	var out domain.Stats
	err := c.do(ctx, http.MethodGet, "/api/dashboard", nil, &out, nil)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, header http.Header) error {
	var reader io.Reader
	if body != nil {
		payload, err := sonic.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		if c.Gzip {
			if payload, err = gzipBytes(payload); err != nil {
				return err
			}
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	for k, v := range header {
		req.Header[k] = v
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		if c.Gzip {
			req.Header.Set("Content-Encoding", "gzip")
		}
	}
	if c.Bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.Bearer)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func apiError(status int, data []byte) *APIError {
	e := &APIError{StatusCode: status}
	var body struct {
		Error   string            `json:"error"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	}
	if sonic.Unmarshal(data, &body) == nil && body.Error != "" {
		e.Message = body.Error
		if body.Message != "" {
			e.Message += ": " + body.Message
		}
		e.Fields = body.Fields
		return e
	}
	if msg := strings.TrimSpace(string(data)); msg != "" {
		e.Message = msg
	} else {
		e.Message = http.StatusText(status)
	}
	return e
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

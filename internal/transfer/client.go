package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/existflow/irontrack/internal/codec"
	"github.com/existflow/irontrack/internal/model"
)

// maxPullSize bounds subtree payloads read by Pull
const maxPullSize = 4 << 20

// Difference reports how one handed-off task compares to the stored row
type Difference struct {
	ID                  int64    `json:"id"`
	Known               bool     `json:"known"`
	DifferentProperties []string `json:"different_properties"`
}

// HandoffResponse is the body returned by POST /api/v1/handoff
type HandoffResponse struct {
	Tasks []Difference `json:"tasks"`
}

// Client talks to an irontrack server
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a client for the server at baseURL. token may be empty.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Push sends tasks as a variant list and returns the server's comparison
func (c *Client) Push(ctx context.Context, tasks []*model.Task) (*HandoffResponse, error) {
	payload, err := codec.EncodeList(tasks)
	if err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/v1/handoff", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", codec.ContentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("handoff failed: %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}

	var result HandoffResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Pull fetches a task and its subtree from the server
func (c *Client) Pull(ctx context.Context, id int64) ([]*model.Task, error) {
	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("/api/v1/tasks/%d/variant", id), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", codec.ContentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPullSize))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pull failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	tasks, ok := codec.DecodeList(body)
	if !ok {
		return nil, ErrMismatch
	}
	return tasks, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// Package client is the REST client for the exploration agent's HTTP API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/explomap/explomap/pkg/device"
	"github.com/explomap/explomap/pkg/logging"
	"github.com/explomap/explomap/pkg/schema"
)

// DefaultTimeout bounds every request. Capture can take a while on-device,
// so it is generous.
const DefaultTimeout = 30 * time.Second

// ErrCaptureRejected is returned when the agent accepts the request but
// declines to capture (device gone, screenshot failure)
var ErrCaptureRejected = errors.New("capture rejected by agent")

// StatusError is a non-2xx response
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.Code, e.Body)
}

// Client talks to the agent API
type Client struct {
	baseURL    string
	httpClient *http.Client
	instanceID string
	logger     logging.Logger
}

// New creates a client for the given base URL (scheme + host, no trailing
// slash required)
func New(baseURL string, logger logging.Logger) *Client {
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		instanceID: uuid.New().String(),
		logger:     logger.With(logging.Component("client")),
	}
}

// BaseURL returns the configured base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchGraph loads the raw graph payload. Non-2xx or a network error is a
// load failure; the caller surfaces it and falls back to an empty graph.
func (c *Client) FetchGraph(ctx context.Context) (*schema.RawGraph, error) {
	body, err := c.get(ctx, "/api/graph")
	if err != nil {
		return nil, err
	}
	return schema.ParseGraph(body)
}

// adbStatusResponse mirrors GET /api/adb/status
type adbStatusResponse struct {
	Connected bool   `json:"connected"`
	Status    string `json:"status"`
	Message   string `json:"message"`
	Device    string `json:"device"`
}

// DeviceStatus fetches the current ADB status
func (c *Client) DeviceStatus(ctx context.Context) (device.Status, error) {
	body, err := c.get(ctx, "/api/adb/status")
	if err != nil {
		return device.Status{}, err
	}
	var resp adbStatusResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return device.Status{}, fmt.Errorf("decode status: %w", err)
	}
	return device.Status{
		State:   device.State(resp.Status),
		Device:  resp.Device,
		Message: resp.Message,
	}, nil
}

// CaptureResponse mirrors POST /api/analyze-screen. The response only
// acknowledges the capture; the resulting graph delta arrives via the push
// channel.
type CaptureResponse struct {
	ScreenshotURL string            `json:"screenshot_url"`
	Elements      []json.RawMessage `json:"elements"`
	Err           string            `json:"error"`
}

// AnalyzeScreen triggers one capture+analysis cycle
func (c *Client) AnalyzeScreen(ctx context.Context) (*CaptureResponse, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/analyze-screen", nil)
	if err != nil {
		return nil, err
	}
	body, err := c.do(req, "AnalyzeScreen")
	if err != nil {
		return nil, err
	}
	var resp CaptureResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode capture response: %w", err)
	}
	if resp.Err != "" {
		return &resp, fmt.Errorf("%w: %s", ErrCaptureRejected, resp.Err)
	}
	c.logger.Info("capture accepted",
		logging.URL(resp.ScreenshotURL),
		logging.Count(len(resp.Elements)))
	return &resp, nil
}

// DeleteNode removes a node and its assets server-side. Callers apply the
// local removal only after this returns nil.
func (c *Client) DeleteNode(ctx context.Context, id string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/api/nodes/"+id, nil)
	if err != nil {
		return err
	}
	_, err = c.do(req, "DeleteNode")
	return err
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req, "GET "+path)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Instance-ID", c.instanceID)
	req.Header.Set("X-Request-ID", uuid.New().String())
	return req, nil
}

func (c *Client) do(req *http.Request, op string) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Op: op, Code: resp.StatusCode, Body: truncate(string(body), 200)}
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

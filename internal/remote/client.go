// Package remote is the HTTP client for the progress mirror service.
// The server is an opaque collaborator: it accepts one JSON payload per
// queue item and answers success or failure.
package remote

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hartley/lx/internal/models"
)

// Sentinel errors for common HTTP error classes.
var (
	// ErrDeliveryFailed covers transport errors and non-success
	// responses. The item stays queued; the failure is recoverable and
	// never user-facing.
	ErrDeliveryFailed = errors.New("delivery failed")
	ErrUnauthorized   = errors.New("unauthorized")
)

// Client is an HTTP client for the sync endpoints.
type Client struct {
	BaseURL  string
	APIKey   string
	DeviceID string
	HTTP     *http.Client
}

// New creates a new sync client.
func New(baseURL, apiKey, deviceID string) *Client {
	return &Client{
		BaseURL:  baseURL,
		APIKey:   apiKey,
		DeviceID: deviceID,
		HTTP:     &http.Client{Timeout: 30 * time.Second},
	}
}

// endpointFor maps a queue kind to its delivery path.
func endpointFor(kind models.QueueKind) (string, error) {
	switch kind {
	case models.KindActivity:
		return "/v1/sync/activity", nil
	case models.KindAnalytics:
		return "/v1/sync/analytics", nil
	case models.KindProgressSnapshot:
		return "/v1/sync/progress", nil
	default:
		return "", fmt.Errorf("no endpoint for kind %q", kind)
	}
}

// deliveryEnvelope wraps a queue item payload with device metadata.
type deliveryEnvelope struct {
	DeviceID   string          `json:"device_id"`
	ItemID     int64           `json:"item_id"`
	Kind       string          `json:"kind"`
	EnqueuedAt string          `json:"enqueued_at"`
	Payload    json.RawMessage `json:"payload"`
}

// ackResponse is the server's acceptance body.
type ackResponse struct {
	Accepted bool   `json:"accepted"`
	ItemID   int64  `json:"item_id,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// HealthResponse is the response from GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// HealthCheck hits the /healthz endpoint to verify server reachability.
func (c *Client) HealthCheck() (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.do("GET", "/healthz", nil, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Deliver sends one queue item to its kind endpoint. Any transport
// error or non-success response is reported as ErrDeliveryFailed so the
// caller retains the item for a later drain.
func (c *Client) Deliver(item *models.QueueItem) error {
	path, err := endpointFor(item.Kind)
	if err != nil {
		return err
	}

	env := deliveryEnvelope{
		DeviceID:   c.DeviceID,
		ItemID:     item.ID,
		Kind:       string(item.Kind),
		EnqueuedAt: item.EnqueuedAt.Format(time.RFC3339),
		Payload:    item.Payload,
	}

	var ack ackResponse
	if err := c.do("POST", path, env, &ack, true); err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	if !ack.Accepted {
		return fmt.Errorf("%w: server refused item %d: %s", ErrDeliveryFailed, item.ID, ack.Reason)
	}
	return nil
}

// apiError is the standard error body from the server.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Code
}

// do executes an HTTP request, optionally with auth.
func (c *Client) do(method, path string, body, result any, auth bool) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth && c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Code != "" {
			if resp.StatusCode == http.StatusUnauthorized {
				return fmt.Errorf("%w: %s", ErrUnauthorized, apiErr.Message)
			}
			return &apiErr
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}

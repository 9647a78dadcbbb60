package locksync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is the lock API client. It authenticates with the caller's session
// token, sent as a bearer token so the SDK works outside a browser.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option is a function that configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(client *Client) {
		client.httpClient.Timeout = d
	}
}

// NewClient creates a new lock API client.
//
// Parameters:
//   - baseURL: the API base URL (e.g. "https://opsync.internal")
//   - token: the caller's access token from login
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListLocks returns the live locks in a scope.
func (c *Client) ListLocks(ctx context.Context, scopeID uint) ([]Lock, error) {
	url := fmt.Sprintf("%s/api/locks?scope_id=%d", c.baseURL, scopeID)

	var locks []Lock
	if err := c.doRequest(ctx, http.MethodGet, url, nil, &locks); err != nil {
		return nil, fmt.Errorf("list locks: %w", err)
	}
	return locks, nil
}

// Acquire claims the record. A *Conflict error carries the current holder's
// display name when someone else has it.
func (c *Client) Acquire(ctx context.Context, ref RecordRef) (*Lock, error) {
	url := fmt.Sprintf("%s/api/locks", c.baseURL)

	var acquired Lock
	if err := c.doRequest(ctx, http.MethodPost, url, ref, &acquired); err != nil {
		if apiErr, ok := err.(*apiError); ok && apiErr.status == http.StatusConflict {
			return nil, &Conflict{Ref: ref, HolderName: apiErr.details}
		}
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	return &acquired, nil
}

// Renew extends the lease on a held lock.
func (c *Client) Renew(ctx context.Context, lockID string) (*Lock, error) {
	url := fmt.Sprintf("%s/api/locks/%s/renew", c.baseURL, lockID)

	var renewed Lock
	if err := c.doRequest(ctx, http.MethodPost, url, nil, &renewed); err != nil {
		if apiErr, ok := err.(*apiError); ok && apiErr.status == http.StatusNotFound {
			return nil, ErrLockNotFound
		}
		return nil, fmt.Errorf("renew lock: %w", err)
	}
	return &renewed, nil
}

// Release gives up a held lock. Releasing a lock that is already gone is
// not an error.
func (c *Client) Release(ctx context.Context, lockID string) error {
	url := fmt.Sprintf("%s/api/locks/%s", c.baseURL, lockID)

	if err := c.doRequest(ctx, http.MethodDelete, url, nil, nil); err != nil {
		if apiErr, ok := err.(*apiError); ok && apiErr.status == http.StatusNotFound {
			return ErrLockNotFound
		}
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *apiErrorInfo   `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

type apiErrorInfo struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// apiError carries the HTTP status and decoded error envelope of a failed call.
type apiError struct {
	status  int
	message string
	details string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("api error: status=%d message=%s", e.status, e.message)
}

// doRequest performs an HTTP request and decodes the response envelope.
func (c *Client) doRequest(ctx context.Context, method, url string, body any, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &apiError{status: resp.StatusCode}
		var envelope apiResponse
		if err := json.Unmarshal(respBody, &envelope); err == nil && envelope.Error != nil {
			apiErr.message = envelope.Error.Message
			apiErr.details = envelope.Error.Details
		} else {
			apiErr.message = string(respBody)
		}
		return apiErr
	}

	if result == nil {
		return nil
	}

	var envelope apiResponse
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	if !envelope.Success {
		message := envelope.Message
		if envelope.Error != nil {
			message = envelope.Error.Message
		}
		return fmt.Errorf("api error: %s", message)
	}

	if envelope.Data == nil {
		return nil
	}

	if err := json.Unmarshal(envelope.Data, result); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}

	return nil
}

package empower

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 5 * time.Second

	// DefaultMaxRetries is zero: polling loops retry on their next cycle
	DefaultMaxRetries = 0

	// DefaultRetryDelay is the default delay between retry attempts
	DefaultRetryDelay = 250 * time.Millisecond

	// DefaultMaxRetryDelay is the maximum delay for exponential backoff
	DefaultMaxRetryDelay = 5 * time.Second

	// MaxBodySize caps how much of a response body is read
	MaxBodySize = 4 << 20

	apiPrefix = "/api/v1"
)

// Client talks to the EmPOWER controller REST API
type Client struct {
	// BaseURL is the controller root (e.g., "http://127.0.0.1:8888")
	BaseURL string

	// Username for HTTP Basic Auth; empty disables auth
	Username string

	// Password for HTTP Basic Auth
	Password string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// MaxRetries is the number of extra attempts for retryable errors
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts
	RetryDelay time.Duration

	// MaxRetryDelay is the maximum delay for exponential backoff
	MaxRetryDelay time.Duration
}

// NewClient creates a client for the controller at baseURL
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:       strings.TrimRight(baseURL, "/"),
		HTTPClient:    &http.Client{Timeout: DefaultTimeout},
		MaxRetries:    DefaultMaxRetries,
		RetryDelay:    DefaultRetryDelay,
		MaxRetryDelay: DefaultMaxRetryDelay,
	}
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// SetAuth sets HTTP Basic Auth credentials
func (c *Client) SetAuth(username, password string) {
	c.Username = username
	c.Password = password
}

// SetRetry configures retry behavior
func (c *Client) SetRetry(maxRetries int, retryDelay time.Duration) {
	c.MaxRetries = maxRetries
	c.RetryDelay = retryDelay
}

// ListTenants returns every tenant known to the controller
func (c *Client) ListTenants(ctx context.Context) ([]Tenant, error) {
	var out []Tenant
	if err := c.get(ctx, apiPrefix+"/tenants", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListVBSPs returns the access points of a tenant
func (c *Client) ListVBSPs(ctx context.Context, tenantID string) ([]VBSP, error) {
	if tenantID == "" {
		return nil, NewValidationError("tenant id is required")
	}
	var out []VBSP
	if err := c.get(ctx, VBSPsPath(tenantID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListUEs returns the devices attached to a VBSP
func (c *Client) ListUEs(ctx context.Context, vbsp string) ([]UE, error) {
	if vbsp == "" {
		return nil, NewValidationError("vbsp is required")
	}
	var out []UE
	if err := c.get(ctx, UEsPath(vbsp), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetUE returns a single UE
func (c *Client) GetUE(ctx context.Context, vbsp string, rnti int) (*UE, error) {
	if vbsp == "" {
		return nil, NewValidationError("vbsp is required")
	}
	var out UE
	if err := c.get(ctx, UEPath(vbsp, rnti), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RRCMeasurements returns the latest RRC report of a UE
func (c *Client) RRCMeasurements(ctx context.Context, tenantID, vbsp string, rnti int) (*RRCMeasurements, error) {
	if tenantID == "" || vbsp == "" {
		return nil, NewValidationError("tenant id and vbsp are required")
	}
	var out RRCMeasurements
	if err := c.get(ctx, MeasurementsPath(tenantID, vbsp, rnti), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VBSPsPath is the VBSP list endpoint of a tenant.
func VBSPsPath(tenantID string) string {
	return fmt.Sprintf("%s/tenants/%s/vbsps", apiPrefix, url.PathEscape(tenantID))
}

// UEsPath is the UE list endpoint of a VBSP.
func UEsPath(vbsp string) string {
	return fmt.Sprintf("%s/vbsps/%s/ues", apiPrefix, url.PathEscape(vbsp))
}

// UEPath is the endpoint of a single UE.
func UEPath(vbsp string, rnti int) string {
	return UEsPath(vbsp) + "/" + strconv.Itoa(rnti)
}

// MeasurementsPath is the RRC measurement endpoint of a UE.
func MeasurementsPath(tenantID, vbsp string, rnti int) string {
	return fmt.Sprintf("%s/tenants/%s/vbsps/%s/ues/%d/ue_rrc_measurements",
		apiPrefix, url.PathEscape(tenantID), url.PathEscape(vbsp), rnti)
}

// get performs a GET with retries and decodes the JSON body into out
func (c *Client) get(ctx context.Context, path string, out any) error {
	var lastErr error
	currentDelay := c.RetryDelay

	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return NewNetworkError("request cancelled", path, ctx.Err())
			case <-time.After(currentDelay):
			}

			currentDelay *= 2
			if c.MaxRetryDelay > 0 && currentDelay > c.MaxRetryDelay {
				currentDelay = c.MaxRetryDelay
			}
		}

		err := c.getAttempt(ctx, path, out)
		if err == nil {
			return nil
		}
		lastErr = err

		// Don't retry non-retryable errors
		if !IsRetryable(err) {
			return err
		}
	}

	return lastErr
}

// getAttempt performs a single request
func (c *Client) getAttempt(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return NewValidationError(fmt.Sprintf("invalid request for %s: %v", path, err))
	}
	req.Header.Set("Accept", "application/json")
	if c.Username != "" {
		req.SetBasicAuth(c.Username, c.Password)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return NewNetworkError("GET request failed", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return NewAuthError(path)
	case resp.StatusCode == http.StatusNotFound:
		return NewNotFoundError(path)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		msg := fmt.Sprintf("unexpected status code: %d", resp.StatusCode)
		if s := strings.TrimSpace(string(body)); s != "" {
			msg += ": " + s
		}
		return NewHTTPError(resp.StatusCode, msg, path)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		return NewNetworkError("failed to read response body", path, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return NewParseError("failed to parse JSON response", path, err)
	}
	return nil
}

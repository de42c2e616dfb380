// Package scanbridge talks to a networked scan head (camera bridge) that
// exposes a small HTTP API for triggering scans.
package scanbridge

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client exposes the scan-head operations used by the application.
type Client interface {
	ReadCode(ctx context.Context) (*ReadCodeResponse, error)
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
	timeout    time.Duration
}

// NewClient builds a scan-head client for the given base URL. The timeout
// is passed to the device so a scan yields a definitive answer instead of
// hanging.
func NewClient(baseURL string, timeout time.Duration) *APIClient {
	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout + 2*time.Second)

	return &APIClient{
		httpClient: restyClient,
		timeout:    timeout,
	}
}

// ReadCodeResponse is the device's answer to a scan request.
type ReadCodeResponse struct {
	Code     string `json:"code"`
	TimedOut bool   `json:"timed_out"`
}

// apiError represents the bridge's error payload.
type apiError struct {
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// ReadCode triggers one scan on the device and waits for the decoded text.
func (c *APIClient) ReadCode(ctx context.Context) (*ReadCodeResponse, error) {
	payload := map[string]any{
		"timeout_ms": c.timeout.Milliseconds(),
	}

	result := new(ReadCodeResponse)
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(result).
		SetError(apiErr).
		Post("/scan")
	if err != nil {
		return nil, fmt.Errorf("request scan: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		message := ""
		code := resp.StatusCode()
		if apiErr != nil {
			message = apiErr.Error.Message
			if apiErr.Error.Code != 0 {
				code = apiErr.Error.Code
			}
		}
		return nil, fmt.Errorf("scan bridge error: code=%d, message=%s", code, message)
	}

	return result, nil
}

package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/kjstillabower/weather-dashboard/internal/observability"
)

// maxErrorBody bounds how much of a failed response body is kept for messages.
const maxErrorBody = 512

// Fetcher issues one GET and decodes the JSON body into out.
type Fetcher interface {
	FetchJSON(ctx context.Context, rawURL string, out any) error
}

// HTTPClient implements Fetcher. It never retries: one call, one request.
type HTTPClient struct {
	client *http.Client
}

// New returns an HTTPClient. A zero timeout leaves the request bounded only by ctx.
func New(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewWithHTTPClient wraps an existing *http.Client (tests, custom transports).
func NewWithHTTPClient(c *http.Client) *HTTPClient {
	if c == nil {
		c = http.DefaultClient
	}
	return &HTTPClient{client: c}
}

// FetchJSON performs a GET on rawURL and classifies the response:
// 401 -> *AuthError, 404 -> *NotFoundError, other non-2xx -> *APIError,
// transport failure -> *NetworkError, undecodable body -> *ParseError.
func (c *HTTPClient) FetchJSON(ctx context.Context, rawURL string, out any) error {
	start := time.Now()
	endpoint := endpointLabel(rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if corrID := extractCorrelationID(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues(endpoint, "error").Inc()
		observability.WeatherAPIDuration.WithLabelValues(endpoint, "error").Observe(time.Since(start).Seconds())
		return &NetworkError{Err: stripURL(err)}
	}
	defer resp.Body.Close()

	status := statusLabel(resp.StatusCode)
	observability.WeatherAPICallsTotal.WithLabelValues(endpoint, status).Inc()
	observability.WeatherAPIDuration.WithLabelValues(endpoint, status).Observe(time.Since(start).Seconds())

	if err := handleErrorResponse(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Err: fmt.Errorf("read response body: %w", err)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &ParseError{Reason: "invalid JSON", Err: err}
	}
	return nil
}

func handleErrorResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body := readErrorBody(resp.Body)
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return &AuthError{Body: body}
	case http.StatusNotFound:
		return &NotFoundError{Body: body}
	}
	return &APIError{Status: resp.StatusCode, Body: body}
}

func readErrorBody(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

// stripURL drops the request URL from *url.Error so the credential in the
// query string never reaches logs or status messages.
func stripURL(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err
	}
	return err
}

// endpointLabel returns the last path segment ("weather", "forecast") for metric labels.
func endpointLabel(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return "unknown"
	}
	return path.Base(u.Path)
}

func extractCorrelationID(ctx context.Context) string {
	if corrIDVal := ctx.Value("correlation_id"); corrIDVal != nil {
		if corrID, ok := corrIDVal.(string); ok {
			return corrID
		}
	}
	return ""
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode == 429 {
		return "rate_limited"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}

// RedactURL replaces the appid query value so URLs can be logged.
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid url>"
	}
	q := u.Query()
	if q.Has("appid") {
		q.Set("appid", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// MaxBodyBytes caps how much of a response body is read.
const MaxBodyBytes = 2 << 20

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
}

func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.Code)
}

// CheckStatus returns a *StatusError for non-2xx responses.
func CheckStatus(r *Response) error {
	if r.OK() {
		return nil
	}
	body := r.Body
	if len(body) > 512 {
		body = body[:512]
	}
	return &StatusError{Code: r.StatusCode, Body: string(body)}
}

// Do executes exactly one request built by buildReq and reads the body.
// Transport failures and timeouts are returned as errors; any status code
// is returned in the Response for the caller to classify.
func Do(ctx context.Context, client *http.Client, buildReq func() (*http.Request, error)) (*Response, error) {
	req, err := buildReq()
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

// Client issues single-attempt GET requests with a fixed timeout.
type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{httpClient: &http.Client{Timeout: timeout}}
}

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration {
	return c.httpClient.Timeout
}

// Get issues one GET with the given headers.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	return Do(ctx, c.httpClient, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return req, nil
	})
}

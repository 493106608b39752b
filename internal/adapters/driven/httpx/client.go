// Package httpx holds the JSON-over-HTTP plumbing shared by the Ollama,
// OpenAI and Qdrant adapters.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/mnemolet/mnemolet/internal/core/domain"
)

// maxErrorBody bounds how much of a failed response is kept in errors.
const maxErrorBody = 512

// StatusError is a response with a non-2xx status code.
type StatusError struct {
	Service string
	Op      string
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Service, e.Op, e.Code)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Service, e.Op, e.Code, e.Body)
}

// StatusCode returns the HTTP status of err if it is a StatusError, else 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

// Classify turns a transport failure into a domain.NetworkError. Timeouts
// are marked so callers can skip the work and continue. Cancellation by the
// caller is returned unchanged.
func Classify(service, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	var netErr net.Error
	timeout := errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout())
	return &domain.NetworkError{Service: service, Op: op, Timeout: timeout, Err: err}
}

// Wrap classifies err when it came from the transport and otherwise only
// adds the service and operation. Used around third-party SDK calls whose
// API errors are not network failures.
func Wrap(service, op string, err error) error {
	if err == nil {
		return nil
	}
	if isTransportError(err) {
		return Classify(service, op, err)
	}
	return fmt.Errorf("%s %s: %w", service, op, err)
}

// Client sends JSON requests to one base URL.
type Client struct {
	HTTP    *http.Client
	BaseURL string

	// Service names the remote side in errors.
	Service string

	// Header is added to every request.
	Header http.Header
}

// New creates a client with the given timeout. A zero timeout leaves
// requests bounded only by their context.
func New(service, baseURL string, timeout time.Duration) *Client {
	return &Client{
		HTTP:    &http.Client{Timeout: timeout},
		BaseURL: strings.TrimRight(baseURL, "/"),
		Service: service,
		Header:  make(http.Header),
	}
}

// Do sends in as a JSON body (nil sends none) and decodes a 2xx response
// into out (nil discards it).
func (c *Client) Do(ctx context.Context, op, method, path string, in, out any) error {
	resp, err := c.Send(ctx, op, method, path, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if isTransportError(err) {
			return Classify(c.Service, op, err)
		}
		return &domain.DecodeError{Service: c.Service, Op: op, Err: err}
	}
	return nil
}

// Send performs the request and returns the response when its status is
// 2xx. The caller closes the body. Used directly for streaming endpoints.
func (c *Client) Send(ctx context.Context, op, method, path string, in any) (*http.Response, error) {
	var body io.Reader = http.NoBody
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("%s %s: marshal request: %w", c.Service, op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: create request: %w", c.Service, op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range c.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, Classify(c.Service, op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{
			Service: c.Service,
			Op:      op,
			Code:    resp.StatusCode,
			Body:    strings.TrimSpace(string(raw)),
		}
	}
	return resp, nil
}

// isTransportError reports whether a body read failed below the JSON layer.
func isTransportError(err error) bool {
	var netErr net.Error
	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.As(err, &netErr)
}

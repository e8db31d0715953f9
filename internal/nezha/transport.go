package nezha

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultRequestTimeout = 10 * time.Second
	maxResponseBytes      = 4 << 20
)

// Request is one HTTP exchange as seen by a Transport.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response is the raw status and body. It is not interpreted.
type Response struct {
	StatusCode int
	Status     string
	Body       []byte
}

// Transport issues exactly one request per call. It never retries.
type Transport interface {
	Send(ctx context.Context, req Request) (Response, error)
}

// HTTPTransport sends requests with net/http.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport returns a transport with the given per-request timeout.
func NewHTTPTransport(timeout time.Duration) *HTTPTransport {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &HTTPTransport{client: &http.Client{Timeout: timeout}}
}

// Send implements Transport. Every failure is a *NetworkError.
func (t *HTTPTransport) Send(ctx context.Context, r Request) (Response, error) {
	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return Response{}, &NetworkError{Err: fmt.Errorf("create request: %w", err)}
	}
	for key, values := range r.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return Response{}, &NetworkError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Response{}, &NetworkError{Err: fmt.Errorf("read response: %w", err)}
	}
	return Response{StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode), Body: data}, nil
}

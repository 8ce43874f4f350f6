// Package transport defines the small HTTP abstraction shared by the JWKS cache
// and the identity client.
//
// Both consumers only need "send a request, get a status code and a body back",
// so they depend on the Doer interface instead of *http.Client. Any HTTP client
// can be adapted to it, and tests can swap in a fake without a network.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxBodySize bounds every response body read by HTTPDoer.
// JWKS documents and Passage API payloads are a few KB at most.
const maxBodySize = 1 << 20

// ErrNilRequest is returned when Do is called without a request.
var ErrNilRequest = errors.New("transport: request cannot be nil")

// Request is an outbound HTTP request.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response is the fully read result of a Request.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Doer sends a Request. A non-nil error means the exchange itself failed
// (dial, timeout, cancelled context); any status code is a successful exchange.
type Doer interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// DoerFunc adapts an ordinary function to the Doer interface.
type DoerFunc func(ctx context.Context, req *Request) (*Response, error)

// Do calls f(ctx, req).
func (f DoerFunc) Do(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// HTTPDoer is a Doer backed by *http.Client.
type HTTPDoer struct {
	Client *http.Client
}

// NewHTTPDoer returns a Doer using client, or a client with a 30s timeout when
// client is nil.
func NewHTTPDoer(client *http.Client) *HTTPDoer {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPDoer{Client: client}
}

// Do implements Doer.
func (d *HTTPDoer) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, ErrNilRequest
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for name, values := range req.Header {
		for _, value := range values {
			httpReq.Header.Add(name, value)
		}
	}

	resp, err := d.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// Fetch performs a GET against url with the given headers.
func Fetch(ctx context.Context, doer Doer, url string, header http.Header) (*Response, error) {
	return doer.Do(ctx, &Request{
		Method: http.MethodGet,
		URL:    url,
		Header: header,
	})
}

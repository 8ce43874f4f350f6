package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_HTTPDoer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/echo":
			body, _ := io.ReadAll(r.Body)
			w.Header().Set("X-Method", r.Method)
			w.Header().Set("X-Auth", r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write(body)
		case "/large":
			_, _ = w.Write([]byte(strings.Repeat("a", maxBodySize+100)))
		case "/slow":
			time.Sleep(200 * time.Millisecond)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	doer := NewHTTPDoer(nil)

	t.Run("it sends method, headers and body", func(t *testing.T) {
		resp, err := doer.Do(context.Background(), &Request{
			Method: http.MethodPost,
			URL:    server.URL + "/echo",
			Header: http.Header{"Authorization": []string{"Bearer key"}},
			Body:   []byte(`{"a":1}`),
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, http.MethodPost, resp.Header.Get("X-Method"))
		assert.Equal(t, "Bearer key", resp.Header.Get("X-Auth"))
		assert.Equal(t, `{"a":1}`, string(resp.Body))
	})

	t.Run("non 2xx status is not an error", func(t *testing.T) {
		resp, err := Fetch(context.Background(), doer, server.URL+"/missing", nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("it limits the body size", func(t *testing.T) {
		resp, err := Fetch(context.Background(), doer, server.URL+"/large", nil)
		require.NoError(t, err)
		assert.Len(t, resp.Body, maxBodySize)
	})

	t.Run("it honours context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err := Fetch(ctx, doer, server.URL+"/slow", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "context deadline exceeded")
	})

	t.Run("it rejects a nil request", func(t *testing.T) {
		_, err := doer.Do(context.Background(), nil)
		assert.ErrorIs(t, err, ErrNilRequest)
	})

	t.Run("it rejects an invalid url", func(t *testing.T) {
		_, err := Fetch(context.Background(), doer, "://bad", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create request")
	})
}

func Test_DoerFunc(t *testing.T) {
	var got *Request
	doer := DoerFunc(func(_ context.Context, req *Request) (*Response, error) {
		got = req
		return &Response{StatusCode: http.StatusOK}, nil
	})

	resp, err := Fetch(context.Background(), doer, "https://example.com", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "https://example.com", got.URL)
}

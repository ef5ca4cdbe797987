package search

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/mwq/internal/query"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL+"/api/search", opts...)
	require.NoError(t, err)
	return c
}

func TestSearchPostsQuery(t *testing.T) {
	var got Request
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/search", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`[{"id": "a"}, {"id": "b"}]`))
	}, WithToken("secret"))

	results, err := c.Search(context.Background(), `tag:"x" AND file.size:>100`, "file")
	require.NoError(t, err)
	assert.Equal(t, `tag:"x" AND file.size:>100`, got.Query)
	assert.Equal(t, "file", got.Type)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].(map[string]any)["id"])
}

func TestSearchUnwrapsSingleList(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Empty(t, req.Type, "the generic type is not sent")
		_, _ = w.Write([]byte("{\n  \"files\": [\n    {\"id\": \"a\"}\n  ]\n}\n"))
	})

	results, err := c.Search(context.Background(), "tag:x", "object")
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestSearchKeepsOtherObjects(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id": "a", "tags": []}`))
	})
	results, err := c.Search(context.Background(), "tag:x", "object")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].(map[string]any)["id"])
}

func TestSearchEmptyBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	results, err := c.Search(context.Background(), "tag:x", "object")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchHTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message": "Not authenticated."}`))
	})

	_, err := c.Search(context.Background(), "tag:x", "object")
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusForbidden, httpErr.StatusCode)
	assert.Equal(t, "Not authenticated.", httpErr.Message)
	assert.NotEmpty(t, httpErr.RequestID)
	assert.EqualError(t, err, "search failed: 403 Forbidden: Not authenticated.")
}

func TestSearchRejectsInvalidQueryWithoutRequest(t *testing.T) {
	called := false
	c := newTestClient(t, func(http.ResponseWriter, *http.Request) { called = true })

	_, err := c.Search(context.Background(), "tag: AND", "object")
	var gErr *query.GrammarError
	require.True(t, errors.As(err, &gErr))
	assert.Equal(t, 5, gErr.Token.Offset)

	_, err = c.Search(context.Background(), "tag:", "object")
	require.ErrorContains(t, err, "unexpected end of query")
	assert.False(t, called)
}

func TestSearchHonoursContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}, WithTimeout(5*time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Search(ctx, "tag:x", "object")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSearchInvalidJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	})
	_, err := c.Search(context.Background(), "tag:x", "object")
	require.ErrorContains(t, err, "decode search response")
}

func TestNewClientValidatesEndpoint(t *testing.T) {
	_, err := NewClient("")
	require.ErrorContains(t, err, "not configured")
	_, err = NewClient("ftp://example.com")
	require.ErrorContains(t, err, "invalid search endpoint")
	_, err = NewClient("http://")
	require.Error(t, err)
}

func TestErrorMessageTruncates(t *testing.T) {
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}
	msg := errorMessage(long)
	assert.Len(t, []rune(msg), 201)
}

func TestErrorMessageTruncatesOnRunes(t *testing.T) {
	long := []byte(strings.Repeat("ż", 250))
	msg := errorMessage(long)
	assert.True(t, utf8.ValidString(msg))
	assert.Equal(t, strings.Repeat("ż", 200)+"…", msg)
}

func TestWithTimeout(t *testing.T) {
	hc := &http.Client{Timeout: time.Minute}
	for _, opts := range [][]Option{
		{WithTimeout(5 * time.Second), WithHTTPClient(hc)},
		{WithHTTPClient(hc), WithTimeout(5 * time.Second)},
	} {
		c, err := NewClient("https://example.com/api/search", opts...)
		require.NoError(t, err)
		assert.Equal(t, 5*time.Second, c.http.Timeout)
		assert.NotSame(t, hc, c.http)
	}
	assert.Equal(t, time.Minute, hc.Timeout)

	c, err := NewClient("https://example.com/api/search", WithHTTPClient(hc))
	require.NoError(t, err)
	assert.Same(t, hc, c.http)

	c, err = NewClient("https://example.com/api/search")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, c.http.Timeout)
}

package websearch_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/effective-security/gaia-agent/tools/websearch"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchPage = `<html><body>
<div class="result">
  <h2 class="result__title">Go Programming Language</h2>
  <a class="result__url" href="https://go.dev/">go.dev</a>
  <div class="result__snippet">Build simple, secure, scalable systems with Go.</div>
</div>
<div class="result">
  <h2 class="result__title">Go (programming language) - Wikipedia</h2>
  <a class="result__url">en.wikipedia.org/wiki/Go_(programming_language)</a>
  <div class="result__snippet">Go is a statically typed, compiled language.</div>
</div>
<div class="result">
  <h2 class="result__title">A Tour of Go</h2>
  <a class="result__url" href="https://go.dev/tour/">go.dev/tour</a>
  <div class="result__snippet">An interactive introduction to Go.</div>
</div>
</body></html>`

func TestSearch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "golang", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(searchPage))
	}))
	defer srv.Close()

	tool := websearch.New().WithBaseURL(srv.URL)
	assert.Equal(t, websearch.ToolName, tool.Name())
	assert.NotEmpty(t, tool.Description())
	assert.NotNil(t, tool.Parameters())

	res, err := tool.Run(context.Background(), &websearch.Request{SearchTerm: "golang"})
	require.NoError(t, err)

	// the second result has no href, the link falls back to the element text
	expected := []websearch.SearchResult{
		{
			Title:   "Go Programming Language",
			Link:    "https://go.dev/",
			Snippet: "Build simple, secure, scalable systems with Go.",
		},
		{
			Title:   "Go (programming language) - Wikipedia",
			Link:    "en.wikipedia.org/wiki/Go_(programming_language)",
			Snippet: "Go is a statically typed, compiled language.",
		},
		{
			Title:   "A Tour of Go",
			Link:    "https://go.dev/tour/",
			Snippet: "An interactive introduction to Go.",
		},
	}
	if diff := cmp.Diff(expected, res.Results); diff != "" {
		t.Errorf("unexpected results (-want +got):\n%s", diff)
	}
}

func TestSearch_NumResults(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(searchPage))
	}))
	defer srv.Close()

	tool := websearch.New().WithBaseURL(srv.URL)
	res, err := tool.Run(context.Background(), &websearch.Request{SearchTerm: "golang", NumResults: 2})
	require.NoError(t, err)
	assert.Len(t, res.Results, 2)
}

func TestSearch_NoResults(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><div class="no-results">No results.</div></body></html>`))
	}))
	defer srv.Close()

	tool := websearch.New().WithBaseURL(srv.URL)
	res, err := tool.Run(context.Background(), &websearch.Request{SearchTerm: "gibberish"})
	require.NoError(t, err)
	require.NotNil(t, res.Results)
	assert.Empty(t, res.Results)
	assert.Equal(t, "[]", res.String())
}

func TestSearch_RequestFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	tool := websearch.New().WithBaseURL(srv.URL)
	res, err := tool.Run(context.Background(), &websearch.Request{SearchTerm: "golang"})
	require.NoError(t, err)
	require.NotNil(t, res.Results)
	assert.Empty(t, res.Results)
}

func TestSearch_Call(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(searchPage))
	}))
	defer srv.Close()

	tool := websearch.New().WithBaseURL(srv.URL)
	out, err := tool.Call(context.Background(), `{"search_term": "golang", "num_results": 1}`)
	require.NoError(t, err)

	var results []websearch.SearchResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "Go Programming Language", results[0].Title)
}

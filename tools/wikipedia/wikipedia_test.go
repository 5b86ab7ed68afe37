package wikipedia_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/effective-security/gaia-agent/tools/wikipedia"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchResultsPage = `<html>
<head><title>Suchergebnisse – Wikipedia</title></head>
<body>
<p class="mw-search-exists">Der Artikel "<a href="/wiki/Berlin" title="Berlin">Berlin</a>" existiert.</p>
<div class="searchdidyoumean">Meintest du <a href="/wiki/Berliner" title="Berliner">Berliner</a>?</div>
<div class="mw-search-result-heading"><a href="/wiki/Berlin-Mitte" title="Berlin-Mitte">Berlin-Mitte</a></div>
<div class="mw-search-result-heading"><a href="/wiki/Gro%C3%9F-Berlin" title="Groß-Berlin">Groß-Berlin</a></div>
</body></html>`

const redirectedArticlePage = `<html>
<head><title>Berlin – Wikipedia</title></head>
<body><h1 id="firstHeading">Berlin</h1></body></html>`

func TestCheck_SearchResults(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/w/index.php", r.URL.Path)
		assert.Equal(t, "Groß_Berlin", r.URL.Query().Get("search"))
		_, _ = w.Write([]byte(searchResultsPage))
	}))
	defer srv.Close()

	tool := wikipedia.NewCheck().WithBaseURL(srv.URL)
	assert.Equal(t, wikipedia.CheckToolName, tool.Name())
	assert.NotNil(t, tool.Parameters())

	res, err := tool.Run(context.Background(), &wikipedia.CheckRequest{PossibleTitle: "Groß Berlin"})
	require.NoError(t, err)

	// exact match first, then result headings, then the suggestion
	assert.Equal(t, []string{"Berlin", "Berlin-Mitte", "Groß-Berlin", "Berliner"}, res.Titles)
}

func TestCheck_Redirected(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(redirectedArticlePage))
	}))
	defer srv.Close()

	tool := wikipedia.NewCheck().WithBaseURL(srv.URL)
	res, err := tool.Run(context.Background(), &wikipedia.CheckRequest{PossibleTitle: "Berlin"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Berlin"}, res.Titles)
}

func TestCheck_RequestFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	tool := wikipedia.NewCheck().WithBaseURL(srv.URL)
	res, err := tool.Run(context.Background(), &wikipedia.CheckRequest{PossibleTitle: "Berlin"})
	require.NoError(t, err)
	require.NotNil(t, res.Titles)
	assert.Empty(t, res.Titles)
	assert.Equal(t, "[]", res.String())
}

func TestGet(t *testing.T) {
	t.Parallel()

	body := strings.Repeat("Berlin ist die Hauptstadt Deutschlands. ", 100)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wiki/Berlin", r.URL.Path)
		_, _ = w.Write([]byte(`<html><body><div class="mw-parser-output">` + body + `</div></body></html>`))
	}))
	defer srv.Close()

	tool := wikipedia.NewGet().WithBaseURL(srv.URL)
	assert.Equal(t, wikipedia.GetToolName, tool.Name())

	res, err := tool.Run(context.Background(), &wikipedia.GetRequest{Title: "Berlin"})
	require.NoError(t, err)
	assert.Len(t, []rune(res.Content), wikipedia.MaxArticleLength)
	assert.True(t, strings.HasPrefix(res.Content, "Berlin ist die Hauptstadt"))
}

func TestGet_RequestFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	tool := wikipedia.NewGet().WithBaseURL(srv.URL)
	res, err := tool.Run(context.Background(), &wikipedia.GetRequest{Title: "Nope"})
	require.NoError(t, err)
	assert.Empty(t, res.Content)
}

func TestCall(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(redirectedArticlePage))
	}))
	defer srv.Close()

	tool := wikipedia.NewCheck().WithBaseURL(srv.URL)
	out, err := tool.Call(context.Background(), `{"possible_title": "Berlin"}`)
	require.NoError(t, err)
	assert.Equal(t, `["Berlin"]`, out)
}

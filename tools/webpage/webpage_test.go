package webpage_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/effective-security/gaia-agent/tools/webpage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><h1>Welcome</h1><p>This page has content.</p></body></html>`))
	}))
	defer srv.Close()

	tool := webpage.New()
	assert.Equal(t, webpage.ToolName, tool.Name())
	assert.NotEmpty(t, tool.Description())
	assert.NotNil(t, tool.Parameters())

	res, err := tool.Run(context.Background(), &webpage.Request{URL: srv.URL})
	require.NoError(t, err)
	assert.Contains(t, res.Content, "Welcome")
	assert.Contains(t, res.Content, "This page has content.")
}

func TestRead_Truncated(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("lorem ipsum dolor sit amet ", 200)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><body><p>" + long + "</p></body></html>"))
	}))
	defer srv.Close()

	tool := webpage.New()
	res, err := tool.Run(context.Background(), &webpage.Request{URL: srv.URL})
	require.NoError(t, err)
	assert.Len(t, []rune(res.Content), webpage.MaxContentLength)
}

func TestRead_Failure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	tool := webpage.New()
	res, err := tool.Run(context.Background(), &webpage.Request{URL: srv.URL})
	require.NoError(t, err)
	assert.Empty(t, res.Content)
}

func TestRead_Call(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body>brief</body></html>`))
	}))
	defer srv.Close()

	tool := webpage.New()
	out, err := tool.Call(context.Background(), `{"url": "`+srv.URL+`"}`)
	require.NoError(t, err)
	assert.Equal(t, "brief", out)
}

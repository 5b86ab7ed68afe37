package download_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/effective-security/gaia-agent/tools/download"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownload(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/files/report.csv", r.URL.Path)
		_, _ = w.Write([]byte("a,b\n1,2\n"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	tool := download.New().WithTempDir(dir)
	assert.Equal(t, download.ToolName, tool.Name())
	assert.NotEmpty(t, tool.Description())
	assert.NotNil(t, tool.Parameters())

	res, err := tool.Run(context.Background(), &download.Request{URL: srv.URL + "/files/report.csv"})
	require.NoError(t, err)

	expectedPath := filepath.Join(dir, "report.csv")
	assert.Equal(t, expectedPath, res.Path)
	assert.Equal(t, "File downloaded to "+expectedPath+". You can now process this file.", res.Message)

	content, err := os.ReadFile(expectedPath)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(content))
}

func TestDownload_ExplicitFilename(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	tool := download.New().WithTempDir(dir)
	res, err := tool.Run(context.Background(), &download.Request{
		URL:      srv.URL + "/opaque",
		Filename: "data.bin",
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "data.bin"), res.Path)
}

func TestDownload_GeneratedFilename(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	tool := download.New().WithTempDir(dir)
	res, err := tool.Run(context.Background(), &download.Request{URL: srv.URL + "/"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(res.Path), "downloaded_"))
}

func TestDownload_Failure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	tool := download.New().WithTempDir(t.TempDir())
	res, err := tool.Run(context.Background(), &download.Request{URL: srv.URL + "/missing.xlsx"})
	require.NoError(t, err)
	assert.Empty(t, res.Path)
	assert.True(t, strings.HasPrefix(res.Message, "Error downloading file: "))
}

func TestDownload_Call(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	tool := download.New().WithTempDir(dir)
	out, err := tool.Call(context.Background(), `{"url": "`+srv.URL+`/files/data.txt"}`)
	require.NoError(t, err)
	assert.Equal(t, "File downloaded to "+filepath.Join(dir, "data.txt")+". You can now process this file.", out)
}

// Package download provides the file download tool. Files are saved to
// the system temporary directory and referenced by path in later tool
// calls within the same question.
package download

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"reflect"
	"time"

	"github.com/bububa/ljson"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/gaia-agent/pkg/llmutils"
	"github.com/effective-security/gaia-agent/pkg/schema"
	"github.com/effective-security/gaia-agent/tools"
	"github.com/effective-security/xlog"
	"github.com/google/uuid"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/gaia-agent", "download")

// ToolName is the dispatch key of the tool.
const ToolName = "download_file_from_url"

const requestTimeout = 30 * time.Second

// Request is the tool input.
type Request struct {
	URL      string `json:"url" jsonschema:"description=The URL of the file to download."`
	Filename string `json:"filename,omitempty" jsonschema:"description=Optional filename to save the file as. If not provided\\, it will be inferred from the URL or generated randomly."`
}

// Result is the tool output. On failure Message carries the error
// description and Path is empty.
type Result struct {
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

func (r *Result) String() string {
	return r.Message
}

// Tool downloads a file from a URL into the temp directory.
type Tool struct {
	name        string
	description string

	tempDir    string
	httpClient *http.Client
}

var _ tools.Tool[Request, Result] = (*Tool)(nil)

// New returns the download tool.
func New() *Tool {
	return &Tool{
		name:        ToolName,
		description: "Download a file from a URL and save it to a temporary location. Returns the path to the downloaded file or an error message.",
		tempDir:     os.TempDir(),
		httpClient:  &http.Client{Timeout: requestTimeout},
	}
}

// WithTempDir overrides the destination directory.
func (t *Tool) WithTempDir(dir string) *Tool {
	t.tempDir = dir
	return t
}

// WithHTTPClient overrides the HTTP client.
func (t *Tool) WithHTTPClient(client *http.Client) *Tool {
	t.httpClient = client
	return t
}

func (t *Tool) Name() string {
	return t.name
}

func (t *Tool) Description() string {
	return t.description
}

func (t *Tool) Parameters() any {
	return schema.MustParameters(reflect.TypeOf(Request{}))
}

// Run downloads the file. Network and filesystem failures are reported
// in the result message, never as an error.
func (t *Tool) Run(ctx context.Context, req *Request) (*Result, error) {
	filePath, err := t.download(ctx, req)
	if err != nil {
		logger.ContextKV(ctx, xlog.WARNING,
			"tool", t.name,
			"status", "download_failed",
			"url", req.URL,
			"err", err.Error(),
		)
		return &Result{
			Message: "Error downloading file: " + err.Error(),
		}, nil
	}
	return &Result{
		Path:    filePath,
		Message: "File downloaded to " + filePath + ". You can now process this file.",
	}, nil
}

func (t *Tool) download(ctx context.Context, req *Request) (string, error) {
	filename := req.Filename
	if filename == "" {
		if u, err := url.Parse(req.URL); err == nil {
			filename = path.Base(u.Path)
		}
		if filename == "" || filename == "." || filename == "/" {
			// no usable name in the URL path
			filename = "downloaded_" + uuid.NewString()[:8]
		}
	}
	filePath := filepath.Join(t.tempDir, filepath.Base(filename))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return "", err
	}
	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	f, err := os.Create(filePath)
	if err != nil {
		return "", err
	}
	_, err = io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", err
	}
	return filePath, nil
}

// Call implements tools.ITool.
func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	var req Request
	if err := ljson.Unmarshal(llmutils.CleanJSON([]byte(input)), &req); err != nil {
		return "", errors.WithMessage(tools.ErrFailedUnmarshalInput, err.Error())
	}
	out, err := t.Run(ctx, &req)
	if err != nil {
		return "", err
	}
	return out.String(), nil
}

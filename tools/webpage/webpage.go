// Package webpage provides the webpage reading tool.
package webpage

import (
	"context"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/bububa/ljson"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/gaia-agent/pkg/llmutils"
	"github.com/effective-security/gaia-agent/pkg/schema"
	"github.com/effective-security/gaia-agent/tools"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/gaia-agent", "webpage")

// ToolName is the dispatch key of the tool.
const ToolName = "read_content_from_webpage"

const (
	requestTimeout = 60 * time.Second
	// MaxContentLength bounds the text returned to the LLM.
	MaxContentLength = 2000
)

// Request is the tool input.
type Request struct {
	URL string `json:"url" jsonschema:"description=The URL of the webpage to read."`
}

// Result is the tool output. Content is empty when the request failed.
type Result struct {
	Content string `json:"content"`
}

func (r *Result) String() string {
	return r.Content
}

// Tool reads the textual content of a webpage.
type Tool struct {
	name        string
	description string

	httpClient *http.Client
}

var _ tools.Tool[Request, Result] = (*Tool)(nil)

// New returns the webpage reading tool.
func New() *Tool {
	return &Tool{
		name:        ToolName,
		description: "Read the textual content from a webpage URL and return the first 2000 characters.",
		httpClient:  &http.Client{Timeout: requestTimeout},
	}
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

// Run fetches the page and extracts its text. Request failures yield
// an empty content, never an error.
func (t *Tool) Run(ctx context.Context, req *Request) (*Result, error) {
	content, err := t.fetch(ctx, req.URL)
	if err != nil {
		logger.ContextKV(ctx, xlog.WARNING,
			"tool", t.name,
			"status", "fetch_failed",
			"url", req.URL,
			"err", err.Error(),
		)
		return &Result{}, nil
	}
	return &Result{
		Content: llmutils.Truncate(content, MaxContentLength),
	}, nil
}

func (t *Tool) fetch(ctx context.Context, pageURL string) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
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
		return "", errors.Newf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(doc.Text()), nil
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

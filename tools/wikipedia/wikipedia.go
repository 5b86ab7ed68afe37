// Package wikipedia provides tools for looking up and retrieving
// German Wikipedia articles.
package wikipedia

import (
	"context"
	"net/http"
	"net/url"
	"reflect"
	"slices"
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

var logger = xlog.NewPackageLogger("github.com/effective-security/gaia-agent", "wikipedia")

const (
	// CheckToolName is the dispatch key of the article lookup tool.
	CheckToolName = "check_available_wikipedia_articles"
	// GetToolName is the dispatch key of the article retrieval tool.
	GetToolName = "get_wikipedia_article"

	// MaxArticleLength caps the returned article content in runes.
	MaxArticleLength = 2000

	defaultBaseURL = "https://de.wikipedia.org"
	requestTimeout = 60 * time.Second
)

// CheckRequest is the lookup tool input.
type CheckRequest struct {
	PossibleTitle string `json:"possible_title" jsonschema:"description=The search term or potential title to look up on German Wikipedia."`
}

// CheckResult is the lookup tool output.
type CheckResult struct {
	Titles []string `json:"titles"`
}

func (r *CheckResult) String() string {
	return llmutils.ToJSON(r.Titles)
}

// CheckTool searches German Wikipedia for articles matching a term.
type CheckTool struct {
	name        string
	description string

	baseURL    string
	httpClient *http.Client
}

var _ tools.Tool[CheckRequest, CheckResult] = (*CheckTool)(nil)

// NewCheck returns the article lookup tool.
func NewCheck() *CheckTool {
	return &CheckTool{
		name:        CheckToolName,
		description: "Check German Wikipedia for articles matching the given search term. Returns a list of potential exact article titles.",
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: requestTimeout},
	}
}

// WithBaseURL overrides the Wikipedia host.
func (t *CheckTool) WithBaseURL(baseURL string) *CheckTool {
	t.baseURL = baseURL
	return t
}

// WithHTTPClient overrides the HTTP client.
func (t *CheckTool) WithHTTPClient(client *http.Client) *CheckTool {
	t.httpClient = client
	return t
}

func (t *CheckTool) Name() string {
	return t.name
}

func (t *CheckTool) Description() string {
	return t.description
}

func (t *CheckTool) Parameters() any {
	return schema.MustParameters(reflect.TypeOf(CheckRequest{}))
}

// Run performs the search. An ambiguous term yields the result page's
// candidate titles, an unambiguous one yields the single title of the
// page Wikipedia redirects to. Request failures yield an empty list.
func (t *CheckTool) Run(ctx context.Context, req *CheckRequest) (*CheckResult, error) {
	titles, err := t.check(ctx, req.PossibleTitle)
	if err != nil {
		logger.ContextKV(ctx, xlog.WARNING,
			"tool", t.name,
			"status", "search_failed",
			"title", req.PossibleTitle,
			"err", err.Error(),
		)
		return &CheckResult{Titles: []string{}}, nil
	}
	return &CheckResult{Titles: titles}, nil
}

func (t *CheckTool) check(ctx context.Context, possibleTitle string) ([]string, error) {
	searchURL := t.baseURL + "/w/index.php?search=" + url.QueryEscape(strings.ReplaceAll(possibleTitle, " ", "_"))
	doc, err := fetchDocument(ctx, t.httpClient, searchURL)
	if err != nil {
		return nil, err
	}

	// An unambiguous term redirects straight to the article instead
	// of a "Suchergebnisse" page.
	if !strings.Contains(doc.Find("title").First().Text(), "Suchergebnisse") {
		pageTitle := strings.TrimSpace(doc.Find("h1#firstHeading").First().Text())
		return []string{pageTitle}, nil
	}

	titles := []string{}
	doc.Find("div.mw-search-result-heading").Each(func(_ int, element *goquery.Selection) {
		title := element.Find("a").First().AttrOr("title", "")
		if title != "" {
			titles = append(titles, title)
		}
	})

	if didYouMean := doc.Find("div.searchdidyoumean").First(); didYouMean.Length() > 0 {
		title := didYouMean.Find("a").First().AttrOr("title", "")
		if title != "" && !slices.Contains(titles, title) {
			titles = append(titles, title)
		}
	}

	// An exact match goes first.
	if exactMatch := doc.Find("p.mw-search-exists").First(); exactMatch.Length() > 0 {
		title := exactMatch.Find("a").First().AttrOr("title", "")
		if title != "" && !slices.Contains(titles, title) {
			titles = append([]string{title}, titles...)
		}
	}
	return titles, nil
}

// Call implements tools.ITool.
func (t *CheckTool) Call(ctx context.Context, input string) (string, error) {
	var req CheckRequest
	if err := ljson.Unmarshal(llmutils.CleanJSON([]byte(input)), &req); err != nil {
		return "", errors.WithMessage(tools.ErrFailedUnmarshalInput, err.Error())
	}
	out, err := t.Run(ctx, &req)
	if err != nil {
		return "", err
	}
	return out.String(), nil
}

// GetRequest is the retrieval tool input.
type GetRequest struct {
	Title string `json:"title" jsonschema:"description=The exact title of the German Wikipedia article to retrieve. Use 'check_available_wikipedia_articles' first to find potential titles."`
}

// GetResult is the retrieval tool output.
type GetResult struct {
	Content string `json:"content"`
}

func (r *GetResult) String() string {
	return r.Content
}

// GetTool retrieves the content of a German Wikipedia article.
type GetTool struct {
	name        string
	description string

	baseURL    string
	httpClient *http.Client
}

var _ tools.Tool[GetRequest, GetResult] = (*GetTool)(nil)

// NewGet returns the article retrieval tool.
func NewGet() *GetTool {
	return &GetTool{
		name:        GetToolName,
		description: "Retrieve the content of a specific German Wikipedia article using its exact title. Returns the first 2000 characters of the article's main content.",
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: requestTimeout},
	}
}

// WithBaseURL overrides the Wikipedia host.
func (t *GetTool) WithBaseURL(baseURL string) *GetTool {
	t.baseURL = baseURL
	return t
}

// WithHTTPClient overrides the HTTP client.
func (t *GetTool) WithHTTPClient(client *http.Client) *GetTool {
	t.httpClient = client
	return t
}

func (t *GetTool) Name() string {
	return t.name
}

func (t *GetTool) Description() string {
	return t.description
}

func (t *GetTool) Parameters() any {
	return schema.MustParameters(reflect.TypeOf(GetRequest{}))
}

// Run fetches the article body, trimmed to MaxArticleLength runes.
// Request failures yield an empty content.
func (t *GetTool) Run(ctx context.Context, req *GetRequest) (*GetResult, error) {
	articleURL := t.baseURL + "/wiki/" + url.PathEscape(strings.ReplaceAll(req.Title, " ", "_"))
	doc, err := fetchDocument(ctx, t.httpClient, articleURL)
	if err != nil {
		logger.ContextKV(ctx, xlog.WARNING,
			"tool", t.name,
			"status", "fetch_failed",
			"title", req.Title,
			"err", err.Error(),
		)
		return &GetResult{}, nil
	}

	content := doc.Find("div.mw-parser-output").First().Text()
	return &GetResult{Content: llmutils.Truncate(content, MaxArticleLength)}, nil
}

// Call implements tools.ITool.
func (t *GetTool) Call(ctx context.Context, input string) (string, error) {
	var req GetRequest
	if err := ljson.Unmarshal(llmutils.CleanJSON([]byte(input)), &req); err != nil {
		return "", errors.WithMessage(tools.ErrFailedUnmarshalInput, err.Error())
	}
	out, err := t.Run(ctx, &req)
	if err != nil {
		return "", err
	}
	return out.String(), nil
}

func fetchDocument(ctx context.Context, client *http.Client, pageURL string) (*goquery.Document, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("unexpected status code: %d", resp.StatusCode)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

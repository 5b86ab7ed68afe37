// Package websearch provides web search tools: a DuckDuckGo HTML
// scraper and a Tavily API variant.
package websearch

import (
	"context"
	"net/http"
	"net/url"
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

var logger = xlog.NewPackageLogger("github.com/effective-security/gaia-agent", "websearch")

// ToolName is the dispatch key of the DuckDuckGo search tool.
const ToolName = "search_web"

const (
	defaultBaseURL    = "https://html.duckduckgo.com/html/"
	requestTimeout    = 60 * time.Second
	defaultNumResults = 5
)

// Request is the tool input.
type Request struct {
	SearchTerm string `json:"search_term" jsonschema:"description=The term or query to search for on the web."`
	NumResults int    `json:"num_results,omitempty" jsonschema:"description=The maximum number of search results to return. Defaults to 5.,default=5"`
}

// SearchResult is one hit of a web search.
type SearchResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Result is the tool output. Results is empty, not nil, both for
// zero hits and for request failures.
type Result struct {
	Results []SearchResult `json:"results"`
}

func (r *Result) String() string {
	return llmutils.ToJSON(r.Results)
}

// Tool performs a web search against the DuckDuckGo HTML endpoint.
type Tool struct {
	name        string
	description string

	baseURL    string
	httpClient *http.Client
}

var _ tools.Tool[Request, Result] = (*Tool)(nil)

// New returns the DuckDuckGo search tool.
func New() *Tool {
	return &Tool{
		name:        ToolName,
		description: "Perform a web search using DuckDuckGo with the given search term and return a list of search results, each containing a title, link, and snippet.",
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: requestTimeout},
	}
}

// WithBaseURL overrides the search endpoint.
func (t *Tool) WithBaseURL(baseURL string) *Tool {
	t.baseURL = baseURL
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

// Run performs the search. Request failures yield an empty result
// list, never an error, so the agent can continue with degraded
// information.
func (t *Tool) Run(ctx context.Context, req *Request) (*Result, error) {
	numResults := req.NumResults
	if numResults <= 0 {
		numResults = defaultNumResults
	}

	results, err := t.search(ctx, req.SearchTerm, numResults)
	if err != nil {
		logger.ContextKV(ctx, xlog.WARNING,
			"tool", t.name,
			"status", "search_failed",
			"term", req.SearchTerm,
			"err", err.Error(),
		)
		return &Result{Results: []SearchResult{}}, nil
	}
	return &Result{Results: results}, nil
}

func (t *Tool) search(ctx context.Context, term string, numResults int) ([]SearchResult, error) {
	searchURL := t.baseURL + "?q=" + url.QueryEscape(term)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	results := []SearchResult{}
	doc.Find(".result").EachWithBreak(func(_ int, element *goquery.Selection) bool {
		if len(results) >= numResults {
			return false
		}
		titleElement := element.Find(".result__title").First()
		linkElement := element.Find(".result__url").First()
		if titleElement.Length() == 0 || linkElement.Length() == 0 {
			return true
		}

		link := linkElement.AttrOr("href", "")
		if link == "" {
			link = strings.TrimSpace(linkElement.Text())
		}
		results = append(results, SearchResult{
			Title:   strings.TrimSpace(titleElement.Text()),
			Link:    link,
			Snippet: strings.TrimSpace(element.Find(".result__snippet").First().Text()),
		})
		return true
	})
	return results, nil
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

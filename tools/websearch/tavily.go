package websearch

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"reflect"

	tavilygo "github.com/diverged/tavily-go"
	tavilyModels "github.com/diverged/tavily-go/models"
	"github.com/bububa/ljson"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/gaia-agent/pkg/llmutils"
	"github.com/effective-security/gaia-agent/pkg/schema"
	"github.com/effective-security/gaia-agent/tools"
)

// TavilyToolName is the dispatch key of the Tavily search tool.
const TavilyToolName = "tavily_search"

// TavilyRequest is the tool input.
type TavilyRequest struct {
	Query string `json:"query" jsonschema:"description=The query to search the web for."`
}

// TavilyResult is the tool output.
type TavilyResult struct {
	Results []tavilyModels.SearchResult `json:"results"`
	Answer  string                      `json:"answer,omitempty"`
}

func (r *TavilyResult) String() string {
	var buf bytes.Buffer
	if r.Answer != "" {
		fmt.Fprintf(&buf, "ANSWER: %s\n", r.Answer)
	}
	for _, result := range r.Results {
		fmt.Fprintf(&buf, "- URL: %s\n", result.URL)
		fmt.Fprintf(&buf, "  TITLE: %s\n", result.Title)
		fmt.Fprintf(&buf, "  SCORE: %f\n", result.Score)
		fmt.Fprintf(&buf, "  CONTENT: %s\n", result.Content)
	}
	return buf.String()
}

// TavilyTool searches the web through the Tavily API. It requires
// TAVILY_API_KEY in the environment.
type TavilyTool struct {
	name        string
	description string

	baseURL    string
	httpClient *http.Client
}

var _ tools.Tool[TavilyRequest, TavilyResult] = (*TavilyTool)(nil)

// NewTavily returns the Tavily search tool, or an error if no API key
// is configured.
func NewTavily() (*TavilyTool, error) {
	if os.Getenv("TAVILY_API_KEY") == "" {
		return nil, errors.New("TAVILY_API_KEY is not set")
	}
	return &TavilyTool{
		name:        TavilyToolName,
		description: "Perform a web search using the Tavily API and return an aggregated answer together with scored search results.",
		httpClient:  http.DefaultClient,
	}, nil
}

// WithBaseURL overrides the Tavily endpoint.
func (t *TavilyTool) WithBaseURL(baseURL string) *TavilyTool {
	t.baseURL = baseURL
	return t
}

// WithHTTPClient overrides the HTTP client.
func (t *TavilyTool) WithHTTPClient(client *http.Client) *TavilyTool {
	t.httpClient = client
	return t
}

func (t *TavilyTool) Name() string {
	return t.name
}

func (t *TavilyTool) Description() string {
	return t.description
}

func (t *TavilyTool) Parameters() any {
	return schema.MustParameters(reflect.TypeOf(TavilyRequest{}))
}

func (t *TavilyTool) Run(ctx context.Context, req *TavilyRequest) (*TavilyResult, error) {
	if req.Query == "" {
		return nil, errors.New("invalid request: empty query")
	}

	apikey := os.Getenv("TAVILY_API_KEY")
	if apikey == "" {
		return nil, errors.New("TAVILY_API_KEY is not set")
	}

	client := tavilygo.NewClient(apikey)
	if t.baseURL != "" {
		client.BaseURL = t.baseURL
	}
	if t.httpClient != nil {
		client.HTTPClient = t.httpClient
	}

	searchReq := tavilyModels.SearchRequest{
		Query:         req.Query,
		SearchDepth:   "basic",
		IncludeAnswer: true,
	}
	searchResp, err := tavilygo.Search(client, searchReq)
	if err != nil {
		return nil, errors.Wrap(err, "failed to perform search")
	}

	return &TavilyResult{
		Results: searchResp.Results,
		Answer:  searchResp.Answer,
	}, nil
}

// Call implements tools.ITool.
func (t *TavilyTool) Call(ctx context.Context, input string) (string, error) {
	var req TavilyRequest
	if err := ljson.Unmarshal(llmutils.CleanJSON([]byte(input)), &req); err != nil {
		return "", errors.WithMessage(tools.ErrFailedUnmarshalInput, err.Error())
	}
	out, err := t.Run(ctx, &req)
	if err != nil {
		return "", err
	}
	return out.String(), nil
}

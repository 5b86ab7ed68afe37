package openaiclient

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
)

const (
	// DefaultBaseURL is the OpenAI API endpoint.
	DefaultBaseURL = "https://api.openai.com/v1"
	// DefaultChatModel is used when no model is configured.
	DefaultChatModel = "gpt-4.1-mini"
	// DefaultMaxTokens bounds the completion size when not configured.
	DefaultMaxTokens = 16384
)

// ErrEmptyResponse is returned when the OpenAI API returns an empty response.
var ErrEmptyResponse = errors.New("empty response")

// ProviderType is the flavor of the OpenAI-compatible endpoint.
type ProviderType string

const (
	ProviderOpenAI  ProviderType = "OPENAI"
	ProviderAzure   ProviderType = "AZURE"
	ProviderAzureAD ProviderType = "AZURE_AD"
)

// ToolType is the type of a tool.
type ToolType string

const (
	ToolTypeFunction ToolType = "function"
)

// Doer performs a HTTP request.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a client for the OpenAI API.
type Client struct {
	Model    string
	Provider ProviderType

	token        string
	baseURL      string
	organization string
	httpClient   Doer

	// required when Provider is ProviderAzure or ProviderAzureAD
	apiVersion string
}

// New returns a new OpenAI client.
func New(provider ProviderType, model, token, baseURL, organization, apiVersion string, httpClient Doer) (*Client, error) {
	if token == "" {
		return nil, errors.New("missing API token")
	}
	c := &Client{
		Model:        model,
		Provider:     provider,
		token:        token,
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		organization: organization,
		apiVersion:   apiVersion,
		httpClient:   httpClient,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	if IsAzure(provider) && c.apiVersion == "" {
		return nil, errors.New("missing API version for Azure provider")
	}
	return c, nil
}

// IsAzure reports whether the provider is an Azure flavor.
func IsAzure(apiType ProviderType) bool {
	return apiType == ProviderAzure || apiType == ProviderAzureAD
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.Provider == ProviderAzure {
		req.Header.Set("api-key", c.token)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.organization != "" {
		req.Header.Set("OpenAI-Organization", c.organization)
	}
}

func (c *Client) buildURL(suffix string, model string) string {
	if IsAzure(c.Provider) {
		return c.buildAzureURL(suffix, model)
	}
	return fmt.Sprintf("%s%s", c.baseURL, suffix)
}

func (c *Client) buildAzureURL(suffix string, model string) string {
	baseURL := strings.TrimRight(c.baseURL, "/")

	// azure example url:
	// /openai/deployments/{model}/chat/completions?api-version={api_version}
	return fmt.Sprintf("%s/openai/deployments/%s%s?api-version=%s",
		baseURL, model, suffix, c.apiVersion,
	)
}

type errorMessage struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

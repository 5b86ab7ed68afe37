package openai

import (
	"os"

	"github.com/effective-security/gaia-agent/pkg/llms"
	"github.com/effective-security/gaia-agent/pkg/llms/openai/internal/openaiclient"
)

const (
	tokenEnvVarName   = "OPENAI_API_KEY"  //nolint:gosec
	modelEnvVarName   = "OPENAI_MODEL"    //nolint:gosec
	baseURLEnvVarName = "OPENAI_BASE_URL" //nolint:gosec
)

// ProviderType is the flavor of the OpenAI-compatible endpoint.
type ProviderType = openaiclient.ProviderType

const (
	ProviderOpenAI  = openaiclient.ProviderOpenAI
	ProviderAzure   = openaiclient.ProviderAzure
	ProviderAzureAD = openaiclient.ProviderAzureAD
)

type options struct {
	token        string
	model        string
	baseURL      string
	organization string
	provider     ProviderType
	apiVersion   string
	httpClient   openaiclient.Doer
}

// Option is a functional option for the OpenAI client.
type Option func(*options)

// WithToken passes the API token to the client. If not set, the token
// is read from the OPENAI_API_KEY environment variable.
func WithToken(token string) Option {
	return func(opts *options) {
		opts.token = token
	}
}

// WithModel passes the model name to the client. If not set, the model
// is read from the OPENAI_MODEL environment variable.
// Required when the provider is Azure (deployment name).
func WithModel(model string) Option {
	return func(opts *options) {
		opts.model = model
	}
}

// WithBaseURL passes the base url to the client. If not set, the base url
// is read from the OPENAI_BASE_URL environment variable, falling back to
// the public OpenAI endpoint.
func WithBaseURL(baseURL string) Option {
	return func(opts *options) {
		opts.baseURL = baseURL
	}
}

// WithOrganization passes the OpenAI organization to the client.
func WithOrganization(organization string) Option {
	return func(opts *options) {
		opts.organization = organization
	}
}

// WithProvider passes the provider flavor to the client. If not set, the
// default value is ProviderOpenAI.
func WithProvider(provider ProviderType) Option {
	return func(opts *options) {
		opts.provider = provider
	}
}

// WithAPIVersion passes the api version to the client.
// Required when the provider is Azure.
func WithAPIVersion(apiVersion string) Option {
	return func(opts *options) {
		opts.apiVersion = apiVersion
	}
}

// WithHTTPClient allows setting a custom HTTP client.
func WithHTTPClient(client openaiclient.Doer) Option {
	return func(opts *options) {
		opts.httpClient = client
	}
}

func newClient(opts ...Option) (*openaiclient.Client, llms.ProviderType, error) {
	o := &options{
		token:    os.Getenv(tokenEnvVarName),
		model:    os.Getenv(modelEnvVarName),
		baseURL:  os.Getenv(baseURLEnvVarName),
		provider: ProviderOpenAI,
	}
	for _, opt := range opts {
		opt(o)
	}

	provider := llms.ProviderOpenAI
	switch o.provider {
	case ProviderAzure:
		provider = llms.ProviderAzure
	case ProviderAzureAD:
		provider = llms.ProviderAzureAD
	}

	c, err := openaiclient.New(o.provider, o.model, o.token, o.baseURL, o.organization, o.apiVersion, o.httpClient)
	return c, provider, err
}

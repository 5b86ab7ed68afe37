package llmfactory

import (
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/gaia-agent/pkg/llms"
	"github.com/effective-security/gaia-agent/pkg/llms/openai"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/gaia-agent", "llmfactory")

// NewLLM is a wrapper for CreateLLM to allow for overriding the default implementation.
var NewLLM = CreateLLM

// Factory creates and caches LLM models.
type Factory interface {
	// DefaultModel returns the default LLM model.
	DefaultModel() (llms.Model, error)
	// ModelByType returns an LLM model by its provider type, e.g.
	// OPENAI, AZURE, AZURE_AD.
	ModelByType(providerType string) (llms.Model, error)
	// ModelByName returns an LLM model from the named provider.
	ModelByName(name string, preferredModels ...string) (llms.Model, error)
	// AgentModel returns the model configured for the role,
	// "agent", "reasoning" or "formatter". Unknown roles fall back
	// to the default model.
	AgentModel(role string) (llms.Model, error)
}

// Load returns the factory backed by the config at the location.
func Load(location string) (Factory, error) {
	cfg, err := LoadConfig(location)
	if err != nil {
		return nil, err
	}
	return New(cfg), nil
}

type factory struct {
	cfg *Config

	defaultProvider *ProviderConfig
	byType          map[string]llms.Model
	byName          map[string]llms.Model
	lock            sync.Mutex
}

// New creates a new LLM factory.
func New(cfg *Config) Factory {
	f := &factory{
		cfg:    cfg,
		byType: make(map[string]llms.Model),
		byName: make(map[string]llms.Model),
	}

	if cfg.DefaultProvider != "" {
		for _, provider := range cfg.Providers {
			if provider.Name == cfg.DefaultProvider {
				f.defaultProvider = provider
				break
			}
		}
	}
	if f.defaultProvider == nil && len(cfg.Providers) > 0 {
		f.defaultProvider = cfg.Providers[0]
	}
	return f
}

// CreateLLM creates a model from the provider config.
func CreateLLM(cfg *ProviderConfig, preferredModels ...string) (llms.Model, error) {
	provType := strings.ToUpper(cfg.OpenAI.APIType)
	switch provType {
	case "", "OPENAI", "OPEN_AI":
		return newOpenAI(cfg, preferredModels...)
	case "AZURE", "AZURE_AD":
		return newAzure(cfg, preferredModels...)
	}
	return nil, errors.Newf("unsupported provider type: %s", provType)
}

func newOpenAI(cfg *ProviderConfig, preferredModels ...string) (llms.Model, error) {
	opts := []openai.Option{
		openai.WithProvider(openai.ProviderOpenAI),
		openai.WithModel(cfg.FindModel(preferredModels...)),
	}
	if cfg.Token != "" {
		opts = append(opts, openai.WithToken(cfg.Token))
	}
	if cfg.OpenAI.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.OpenAI.BaseURL))
	}
	if cfg.OpenAI.OrgID != "" {
		opts = append(opts, openai.WithOrganization(cfg.OpenAI.OrgID))
	}
	return openai.New(opts...)
}

func newAzure(cfg *ProviderConfig, preferredModels ...string) (llms.Model, error) {
	opts := []openai.Option{
		openai.WithAPIVersion(cfg.OpenAI.APIVersion),
		openai.WithModel(cfg.FindModel(preferredModels...)),
	}
	if cfg.Token != "" {
		opts = append(opts, openai.WithToken(cfg.Token))
	}
	if strings.EqualFold(cfg.OpenAI.APIType, "AZURE_AD") {
		opts = append(opts, openai.WithProvider(openai.ProviderAzureAD))
	} else {
		opts = append(opts, openai.WithProvider(openai.ProviderAzure))
	}
	if cfg.OpenAI.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.OpenAI.BaseURL))
	}
	return openai.New(opts...)
}

func (f *factory) DefaultModel() (llms.Model, error) {
	if f.defaultProvider == nil {
		return nil, errors.New("no providers configured")
	}
	return f.ModelByName(f.defaultProvider.Name)
}

func (f *factory) ModelByType(providerType string) (llms.Model, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	if model, ok := f.byType[providerType]; ok {
		return model, nil
	}

	for _, cfg := range f.cfg.Providers {
		if strings.EqualFold(cfg.OpenAI.APIType, providerType) {
			model, err := NewLLM(cfg)
			if err != nil {
				return nil, err
			}
			logger.KV(xlog.DEBUG,
				"status", "created_llm",
				"type", cfg.OpenAI.APIType,
				"version", cfg.OpenAI.APIVersion,
				"name", cfg.Name)

			f.byType[providerType] = model
			return model, nil
		}
	}
	return nil, errors.Newf("provider not found for type: %s", providerType)
}

func (f *factory) ModelByName(name string, preferredModels ...string) (llms.Model, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	cacheKey := name + "/" + strings.Join(preferredModels, ",")
	if model, ok := f.byName[cacheKey]; ok {
		return model, nil
	}

	for _, cfg := range f.cfg.Providers {
		if cfg.Name == name {
			model, err := NewLLM(cfg, preferredModels...)
			if err != nil {
				return nil, err
			}
			logger.KV(xlog.DEBUG,
				"status", "created_llm",
				"type", cfg.OpenAI.APIType,
				"version", cfg.OpenAI.APIVersion,
				"name", cfg.Name,
				"model", model.GetName())

			f.byName[cacheKey] = model
			return model, nil
		}
	}
	return nil, errors.Newf("provider not found for name: %s", name)
}

func (f *factory) AgentModel(role string) (llms.Model, error) {
	if f.defaultProvider == nil {
		return nil, errors.New("no providers configured")
	}
	preferred := f.cfg.AgentModels[role]
	return f.ModelByName(f.defaultProvider.Name, preferred...)
}

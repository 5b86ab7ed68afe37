// Package llmfactory builds the LLM models of the agent from a YAML
// configuration, so no provider settings live in globals.
package llmfactory

import (
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/configloader"
	"github.com/go-playground/validator/v10"
)

// Config describes the configured providers and the model roles the
// agent uses.
type Config struct {
	// Providers specifies the list of providers to use.
	Providers []*ProviderConfig `json:"providers" yaml:"providers" validate:"required,dive,required"`
	// DefaultProvider specifies the default provider to use.
	// When empty the first provider is used.
	DefaultProvider string `json:"default_provider,omitempty" yaml:"default_provider,omitempty"`
	// AgentModels maps a model role to preferred model names.
	// Known roles are "agent", "reasoning" and "formatter".
	AgentModels map[string][]string `json:"agent_models,omitempty" yaml:"agent_models,omitempty"`
}

// ProviderConfig for an OpenAI compatible provider.
type ProviderConfig struct {
	Name            string       `json:"name" yaml:"name" validate:"required"`
	Token           string       `json:"token,omitempty" yaml:"token,omitempty"`
	DefaultModel    string       `json:"default_model,omitempty" yaml:"default_model,omitempty"`
	AvailableModels []string     `json:"available_models,omitempty" yaml:"available_models,omitempty"`
	OpenAI          OpenAIConfig `json:"open_ai" yaml:"open_ai"`
}

// OpenAIConfig specifies options config.
type OpenAIConfig struct {
	BaseURL    string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	APIVersion string `json:"api_version,omitempty" yaml:"api_version,omitempty"`
	// APIType specifies the type of API to use:
	// OPENAI|AZURE|AZURE_AD
	APIType string `json:"api_type,omitempty" yaml:"api_type,omitempty" validate:"omitempty,oneof=OPENAI OPEN_AI AZURE AZURE_AD openai open_ai azure azure_ad"`
	// OrgID specifies which organization's quota and billing should be used when making API requests.
	OrgID string `json:"org_id,omitempty" yaml:"org_id,omitempty"`
}

// FindModel returns the first preferred model the provider offers,
// or the provider's default model.
func (c *ProviderConfig) FindModel(models ...string) string {
	for _, model := range models {
		if slices.Contains(c.AvailableModels, model) {
			return model
		}
	}
	return c.DefaultModel
}

// LoadConfig loads and validates the config from a file. Environment
// variables in the file are expanded, so tokens can stay out of it.
func LoadConfig(file string) (*Config, error) {
	cfg := new(Config)
	if file == "" {
		return cfg, nil
	}

	err := configloader.UnmarshalAndExpand(file, cfg)
	if err != nil {
		return nil, err
	}
	err = validator.New().Struct(cfg)
	if err != nil {
		return nil, errors.WithMessagef(err, "invalid configuration: %s", file)
	}
	return cfg, nil
}

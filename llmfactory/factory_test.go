package llmfactory_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/effective-security/gaia-agent/llmfactory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const configYAML = `
providers:
  - name: openai
    token: sk-test
    default_model: gpt-4.1-mini
    available_models:
      - gpt-4.1-mini
      - o4-mini
    open_ai:
      api_type: OPENAI
  - name: azure
    token: azure-key
    default_model: gpt-4.1-mini
    open_ai:
      api_type: AZURE
      api_version: 2025-01-01-preview
      base_url: https://example.openai.azure.com
default_provider: openai
agent_models:
  agent:
    - gpt-4.1-mini
  reasoning:
    - o4-mini
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "llm.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	f, err := llmfactory.Load(writeConfig(t, configYAML))
	require.NoError(t, err)

	model, err := f.DefaultModel()
	require.NoError(t, err)
	assert.Equal(t, "gpt-4.1-mini", model.GetName())

	// same provider and preference returns the cached instance
	again, err := f.DefaultModel()
	require.NoError(t, err)
	assert.Same(t, model, again)
}

func TestAgentModel(t *testing.T) {
	f, err := llmfactory.Load(writeConfig(t, configYAML))
	require.NoError(t, err)

	reasoning, err := f.AgentModel("reasoning")
	require.NoError(t, err)
	assert.Equal(t, "o4-mini", reasoning.GetName())

	// unknown roles fall back to the provider default
	fallback, err := f.AgentModel("unknown")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4.1-mini", fallback.GetName())
}

func TestModelByType(t *testing.T) {
	f, err := llmfactory.Load(writeConfig(t, configYAML))
	require.NoError(t, err)

	model, err := f.ModelByType("AZURE")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4.1-mini", model.GetName())

	_, err = f.ModelByType("ANTHROPIC")
	assert.Error(t, err)
}

func TestModelByName_NotFound(t *testing.T) {
	f, err := llmfactory.Load(writeConfig(t, configYAML))
	require.NoError(t, err)

	_, err = f.ModelByName("bedrock")
	assert.EqualError(t, err, "provider not found for name: bedrock")
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := writeConfig(t, `
providers:
  - token: sk-test
`)
	_, err := llmfactory.LoadConfig(path)
	assert.Error(t, err)
}

func TestCreateLLM_UnsupportedType(t *testing.T) {
	_, err := llmfactory.CreateLLM(&llmfactory.ProviderConfig{
		Name:   "p",
		Token:  "t",
		OpenAI: llmfactory.OpenAIConfig{APIType: "BEDROCK"},
	})
	assert.EqualError(t, err, "unsupported provider type: BEDROCK")
}

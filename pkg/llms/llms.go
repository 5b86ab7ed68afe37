package llms

import (
	"context"
)

// ProviderType is the type of provider.
type ProviderType string

const (
	// ProviderOpenAI is the type of provider.
	ProviderOpenAI ProviderType = "OPENAI"
	// ProviderAzure is the type of provider.
	ProviderAzure ProviderType = "AZURE"
	// ProviderAzureAD is the type of provider.
	ProviderAzureAD ProviderType = "AZURE_AD"
)

// Model is an interface chat models implement.
type Model interface {
	// GetName returns the model name used for requests.
	GetName() string
	// GetProviderType returns the type of provider.
	GetProviderType() ProviderType
	// GenerateContent asks the model to generate content from a sequence of
	// messages. Tool definitions and per-call parameters are passed as options.
	GenerateContent(ctx context.Context, messages []Message, options ...CallOption) (*ContentResponse, error)
}

// Capability is a bitmask indicating supported features of an LLM provider.
type Capability uint64

const (
	// CapabilityText is basic text or chat generation.
	CapabilityText Capability = 1 << iota

	// CapabilityFunctionCalling is function/tool calling.
	CapabilityFunctionCalling
	// CapabilityMultiToolCalling allows several tool calls in one response.
	CapabilityMultiToolCalling

	// CapabilityVision allows image parts in messages.
	CapabilityVision

	// CapabilitySystemPrompt is system prompt support.
	CapabilitySystemPrompt

	// CapabilityReasoningEffort is the reasoning effort request parameter.
	CapabilityReasoningEffort
)

var providerCapabilities = map[ProviderType]Capability{
	ProviderOpenAI: CapabilityText |
		CapabilityFunctionCalling |
		CapabilityMultiToolCalling |
		CapabilityVision |
		CapabilitySystemPrompt |
		CapabilityReasoningEffort,

	ProviderAzure: CapabilityText |
		CapabilityFunctionCalling |
		CapabilityMultiToolCalling |
		CapabilityVision |
		CapabilitySystemPrompt |
		CapabilityReasoningEffort,

	ProviderAzureAD: CapabilityText |
		CapabilityFunctionCalling |
		CapabilityMultiToolCalling |
		CapabilityVision |
		CapabilitySystemPrompt |
		CapabilityReasoningEffort,
}

// ProviderCapabilities returns the capability mask of the provider.
func ProviderCapabilities(pt ProviderType) Capability {
	return providerCapabilities[pt]
}

// Supports reports whether the provider supports the given capability.
func (p ProviderType) Supports(cap Capability) bool {
	return ProviderCapabilities(p)&cap != 0
}

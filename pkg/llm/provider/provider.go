// Package provider builds an llm.Client for the configured chat provider.
package provider

import (
	"fmt"

	"github.com/papercomputeco/advisor/pkg/llm"
	"github.com/papercomputeco/advisor/pkg/llm/provider/anthropic"
	"github.com/papercomputeco/advisor/pkg/llm/provider/ollama"
	"github.com/papercomputeco/advisor/pkg/llm/provider/openai"
)

// Opts selects and configures a chat provider.
type Opts struct {
	ProviderType string

	// Model is the default model, or the deployment name for Azure.
	Model string

	APIKey string

	// TargetURL is the Azure endpoint, an OpenAI-compatible base URL, the
	// Ollama server or an Anthropic base URL, depending on ProviderType.
	TargetURL  string
	APIVersion string
}

// New creates an llm.Client for o.ProviderType.
func New(o Opts) (llm.Client, error) {
	switch o.ProviderType {
	case Azure:
		if o.TargetURL == "" {
			return nil, fmt.Errorf("azure chat provider requires an endpoint")
		}
		return openai.New(openai.Config{
			APIKey:        o.APIKey,
			Model:         o.Model,
			AzureEndpoint: o.TargetURL,
			APIVersion:    o.APIVersion,
		})
	case OpenAI:
		return openai.New(openai.Config{
			APIKey:  o.APIKey,
			Model:   o.Model,
			BaseURL: o.TargetURL,
		})
	case Ollama:
		return ollama.New(ollama.Config{
			BaseURL: o.TargetURL,
			Model:   o.Model,
		}), nil
	case Anthropic:
		return anthropic.New(anthropic.Config{
			APIKey:  o.APIKey,
			BaseURL: o.TargetURL,
			Model:   o.Model,
		})
	default:
		return nil, fmt.Errorf("unknown provider type: %q (supported: %v)", o.ProviderType, SupportedProviders())
	}
}

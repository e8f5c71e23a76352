package provider

// Supported provider type constants
const (
	Azure     = "azure"
	OpenAI    = "openai"
	Ollama    = "ollama"
	Anthropic = "anthropic"
)

// SupportedProviders returns the list of all supported provider type names.
func SupportedProviders() []string {
	return []string{Azure, OpenAI, Ollama, Anthropic}
}

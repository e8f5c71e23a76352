package llm

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"strings"
)

// Pricing is the price in USD per one million tokens.
type Pricing struct {
	Input  float64 `json:"input"`
	Output float64 `json:"output"`
}

type PricingTable map[string]Pricing

func DefaultPricing() PricingTable {
	return PricingTable{
		"gpt-4o":            {Input: 2.50, Output: 10.00},
		"gpt-4o-mini":       {Input: 0.15, Output: 0.60},
		"gpt-4.1":           {Input: 2.00, Output: 8.00},
		"gpt-4.1-mini":      {Input: 0.40, Output: 1.60},
		"gpt-4.1-nano":      {Input: 0.10, Output: 0.40},
		"gpt-35-turbo":      {Input: 0.50, Output: 1.50},
		"gpt-3.5-turbo":     {Input: 0.50, Output: 1.50},
		"o3-mini":           {Input: 1.10, Output: 4.40},
		"o4-mini":           {Input: 1.10, Output: 4.40},
		"claude-sonnet-4.5": {Input: 3.00, Output: 15.00},
		"claude-sonnet-4":   {Input: 3.00, Output: 15.00},
		"claude-haiku-4.5":  {Input: 1.00, Output: 5.00},
		"claude-3.5-haiku":  {Input: 0.80, Output: 4.00},
	}
}

// LoadPricing returns DefaultPricing overlaid with the JSON object in path.
// Azure deployments with custom names can be priced this way.
func LoadPricing(path string) (PricingTable, error) {
	pricing := DefaultPricing()
	if path == "" {
		return pricing, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pricing file: %w", err)
	}

	var overrides map[string]Pricing
	if err := json.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse pricing file: %w", err)
	}

	maps.Copy(pricing, overrides)

	return pricing, nil
}

// PricingForModel looks a model up by its normalized name first, then verbatim.
func PricingForModel(pricing PricingTable, model string) (Pricing, bool) {
	if price, ok := pricing[normalizeModel(model)]; ok {
		return price, true
	}
	price, ok := pricing[model]
	return price, ok
}

// CostForUsage prices usage for model. Unknown models cost nothing.
func CostForUsage(pricing PricingTable, model string, usage Usage) float64 {
	price, ok := PricingForModel(pricing, model)
	if !ok {
		return 0
	}
	input := float64(usage.PromptTokens) / 1_000_000.0 * price.Input
	output := float64(usage.CompletionTokens) / 1_000_000.0 * price.Output
	return input + output
}

func normalizeModel(model string) string {
	normalized := strings.ToLower(strings.TrimSpace(model))
	if normalized == "" {
		return normalized
	}

	// Strip Anthropic-style date suffix: -YYYYMMDD
	if idx := strings.LastIndex(normalized, "-"); idx != -1 {
		suffix := normalized[idx+1:]
		if len(suffix) == 8 && isDigits(suffix) {
			normalized = normalized[:idx]
		}
	}

	normalized = stripOpenAIDateSuffix(normalized)
	normalized = strings.TrimSuffix(normalized, "-latest")

	normalized = strings.ReplaceAll(normalized, "-4-5", "-4.5")
	normalized = strings.ReplaceAll(normalized, "-4-1", "-4.1")
	normalized = strings.ReplaceAll(normalized, "-3-5", "-3.5")
	return normalized
}

// stripOpenAIDateSuffix removes a trailing -YYYY-MM-DD date suffix.
func stripOpenAIDateSuffix(model string) string {
	if len(model) < 12 {
		return model
	}

	suffix := model[len(model)-11:]
	if suffix[0] != '-' {
		return model
	}
	date := suffix[1:]
	if isDigits(date[0:4]) && date[4] == '-' && isDigits(date[5:7]) && date[7] == '-' && isDigits(date[8:10]) {
		return model[:len(model)-11]
	}
	return model
}

func isDigits(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

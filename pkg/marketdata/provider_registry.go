package marketdata

import (
	"fmt"
	"sort"

	"github.com/rxtech-lab/argo-dataset/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-dataset/pkg/utils"
)

// ProviderInfo contains metadata about a market data provider.
type ProviderInfo struct {
	Name         string `json:"name"`
	DisplayName  string `json:"displayName"`
	Description  string `json:"description"`
	RequiresAuth bool   `json:"requiresAuth"`
	// EnvKey is the environment variable holding the credential, if any.
	EnvKey string `json:"envKey,omitempty"`
}

// providerRegistry holds metadata about all supported providers.
var providerRegistry = map[provider.ProviderType]ProviderInfo{
	provider.ProviderYahoo: {
		Name:         string(provider.ProviderYahoo),
		DisplayName:  "Yahoo Finance",
		Description:  "Daily OHLCV history for stocks and indexes; closing prices are used",
		RequiresAuth: false,
	},
	provider.ProviderFRED: {
		Name:         string(provider.ProviderFRED),
		DisplayName:  "FRED",
		Description:  "Federal Reserve Economic Data: treasury rates, corporate yields, commodity prices",
		RequiresAuth: false,
		EnvKey:       EnvFredApiKey,
	},
	provider.ProviderPolygon: {
		Name:         string(provider.ProviderPolygon),
		DisplayName:  "Polygon.io",
		Description:  "US stock market data provider with historical daily aggregates",
		RequiresAuth: true,
		EnvKey:       EnvPolygonApiKey,
	},
}

// GetSupportedProviders returns a sorted list of all supported provider names.
func GetSupportedProviders() []string {
	providers := make([]string, 0, len(providerRegistry))
	for providerType := range providerRegistry {
		providers = append(providers, string(providerType))
	}

	sort.Strings(providers)

	return providers
}

// GetProviderInfo returns metadata for a specific provider.
func GetProviderInfo(providerName string) (ProviderInfo, error) {
	info, exists := providerRegistry[provider.ProviderType(providerName)]
	if !exists {
		return ProviderInfo{}, fmt.Errorf("unsupported provider: %s", providerName)
	}

	return info, nil
}

// GetDatasetConfigSchema returns the JSON schema of the dataset configuration.
func GetDatasetConfigSchema() (string, error) {
	//nolint:exhaustruct // Empty struct is intentional for schema generation
	return utils.GetSchemaFromConfig(DatasetConfig{})
}

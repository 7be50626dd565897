package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rxtech-lab/argo-dataset/internal/types"
	"github.com/rxtech-lab/argo-dataset/pkg/errors"
)

// ProviderType defines the type of market data provider.
type ProviderType string

const (
	ProviderYahoo   ProviderType = "yahoo"
	ProviderFRED    ProviderType = "fred"
	ProviderPolygon ProviderType = "polygon"
)

type OnDownloadProgress = func(current float64, total float64, message string)

type Provider interface {
	// Name returns the provider type, used in logs and errors.
	Name() ProviderType
	// Fetch downloads one daily series for the given symbol and inclusive date range.
	// The returned series is named after the symbol.
	// example:
	// Fetch(ctx, "DGS10", time.Date(2011, 10, 15, 0, 0, 0, 0, time.UTC), time.Date(2021, 10, 15, 0, 0, 0, 0, time.UTC))
	Fetch(ctx context.Context, symbol string, startDate time.Time, endDate time.Time) (types.Series, error)
}

// BarProvider is implemented by providers that return full OHLCV bars.
// Their Fetch projects the bars onto the closing price.
type BarProvider interface {
	Provider
	FetchBars(ctx context.Context, symbol string, startDate time.Time, endDate time.Time) ([]types.MarketData, error)
}

// Config carries credentials and endpoint overrides used to build providers.
// Empty base URLs select the public endpoints.
type Config struct {
	FredApiKey     string
	PolygonApiKey  string
	YahooBaseURL   string
	FredBaseURL    string
	FredApiBaseURL string
}

// NewMarketDataProvider creates a new market data provider based on the provider type.
func NewMarketDataProvider(providerType ProviderType, config Config) (Provider, error) {
	switch providerType {
	case ProviderYahoo:
		return NewYahooClient(config.YahooBaseURL), nil
	case ProviderFRED:
		return NewFredClient(FredOptions{
			ApiKey:     config.FredApiKey,
			GraphURL:   config.FredBaseURL,
			ApiBaseURL: config.FredApiBaseURL,
		}), nil
	case ProviderPolygon:
		return NewPolygonClient(config.PolygonApiKey)
	default:
		return nil, fmt.Errorf("unsupported market data provider: %s", providerType)
	}
}

// validateRequest rejects a fetch with no symbol or an inverted date range
// before any request is sent.
func validateRequest(symbol string, startDate time.Time, endDate time.Time) error {
	if strings.TrimSpace(symbol) == "" {
		return errors.New(errors.ErrCodeMissingParameter, "symbol is required")
	}

	if types.Date(endDate).Before(types.Date(startDate)) {
		return errors.Newf(errors.ErrCodeInvalidParameter, "end date %s is before start date %s",
			endDate.Format(types.DateLayout), startDate.Format(types.DateLayout))
	}

	return nil
}

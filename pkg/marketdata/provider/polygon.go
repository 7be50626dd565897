package provider

import (
	"context"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-dataset/internal/types"
	"github.com/rxtech-lab/argo-dataset/pkg/errors"
)

// PolygonAggsIterator is the subset of the Polygon aggregates iterator we use.
type PolygonAggsIterator interface {
	Next() bool
	Item() models.Agg
	Err() error
}

// PolygonAPIClient is the subset of the Polygon REST client we use.
type PolygonAPIClient interface {
	ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator
}

// polygonAPIAdapter narrows the concrete iterator type returned by the SDK.
type polygonAPIAdapter struct {
	client *polygon.Client
}

func (a *polygonAPIAdapter) ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator {
	return a.client.ListAggs(ctx, params, options...)
}

type PolygonClient struct {
	apiClient PolygonAPIClient
	location  *time.Location
}

func NewPolygonClient(apiKey string) (Provider, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "apiKey is required")
	}

	return NewPolygonClientWithAPI(&polygonAPIAdapter{client: polygon.New(apiKey)}), nil
}

// NewPolygonClientWithAPI creates a client around any PolygonAPIClient implementation.
func NewPolygonClientWithAPI(api PolygonAPIClient) *PolygonClient {
	return &PolygonClient{
		apiClient: api,
		location:  newYork(),
	}
}

func (c *PolygonClient) Name() ProviderType {
	return ProviderPolygon
}

// Fetch returns daily closes of symbol. Index tickers use Polygon's "I:" prefix (e.g. I:SPX).
func (c *PolygonClient) Fetch(ctx context.Context, symbol string, startDate time.Time, endDate time.Time) (types.Series, error) {
	bars, err := c.FetchBars(ctx, symbol, startDate, endDate)
	if err != nil {
		return types.Series{}, err
	}

	return types.CloseSeries(symbol, bars).Between(startDate, endDate), nil
}

// FetchBars returns daily aggregates. Polygon stamps daily bars at midnight New York
// time, so bar times are converted to that zone before taking the date.
func (c *PolygonClient) FetchBars(ctx context.Context, symbol string, startDate time.Time, endDate time.Time) ([]types.MarketData, error) {
	if err := validateRequest(symbol, startDate, endDate); err != nil {
		return nil, err
	}

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     symbol,
		Multiplier: 1,
		Timespan:   models.Day,
		From:       models.Millis(types.Date(startDate)),
		To:         models.Millis(types.Date(endDate)),
	}.WithLimit(50000)

	it := c.apiClient.ListAggs(ctx, params)

	var bars []types.MarketData

	for it.Next() {
		agg := it.Item()
		bars = append(bars, types.MarketData{
			Id:     "",
			Symbol: symbol,
			Time:   time.Time(agg.Timestamp).In(c.location),
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
			Volume: agg.Volume,
		})
	}

	if it.Err() != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, it.Err(), "error iterating polygon aggregates for %s", symbol)
	}

	return bars, nil
}

func newYork() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.FixedZone("EST", -5*60*60)
	}

	return loc
}

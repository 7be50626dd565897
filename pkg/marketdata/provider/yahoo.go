package provider

import (
	"context"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rxtech-lab/argo-dataset/internal/types"
	"github.com/rxtech-lab/argo-dataset/pkg/errors"
)

const defaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooClient downloads daily bars from the Yahoo Finance chart API.
type YahooClient struct {
	http *resty.Client
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol    string `json:"symbol"`
				GmtOffset int64  `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// NewYahooClient creates a Yahoo client. An empty baseURL selects the public API.
func NewYahooClient(baseURL string) *YahooClient {
	if baseURL == "" {
		baseURL = defaultYahooBaseURL
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("User-Agent", "Mozilla/5.0").
		SetHeader("Accept", "application/json")

	return &YahooClient{http: client}
}

func (c *YahooClient) Name() ProviderType {
	return ProviderYahoo
}

// Fetch returns the daily closing prices of symbol.
func (c *YahooClient) Fetch(ctx context.Context, symbol string, startDate time.Time, endDate time.Time) (types.Series, error) {
	bars, err := c.FetchBars(ctx, symbol, startDate, endDate)
	if err != nil {
		return types.Series{}, err
	}

	return types.CloseSeries(symbol, bars).Between(startDate, endDate), nil
}

// FetchBars returns daily OHLCV bars. Bars whose close is null (halted or not yet
// settled sessions) are skipped. Bar times are expressed in the exchange's offset
// so their calendar date is the trading day.
func (c *YahooClient) FetchBars(ctx context.Context, symbol string, startDate time.Time, endDate time.Time) ([]types.MarketData, error) {
	if err := validateRequest(symbol, startDate, endDate); err != nil {
		return nil, err
	}

	var chart yahooChart

	// period2 is exclusive
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("symbol", symbol).
		SetQueryParams(map[string]string{
			"period1":  strconv.FormatInt(types.Date(startDate).Unix(), 10),
			"period2":  strconv.FormatInt(types.Date(endDate).AddDate(0, 0, 1).Unix(), 10),
			"interval": "1d",
			"events":   "history",
		}).
		SetResult(&chart).
		SetError(&chart).
		Get("/v8/finance/chart/{symbol}")
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "yahoo fetch %s", symbol)
	}

	if chart.Chart.Error != nil {
		return nil, errors.Newf(errors.ErrCodeMarketDataFetchFailed, "yahoo api error for %s: %s", symbol, chart.Chart.Error.Description)
	}

	if resp.IsError() {
		return nil, errors.Newf(errors.ErrCodeMarketDataFetchFailed, "yahoo: status %d for %s, body: %s", resp.StatusCode(), symbol, resp.String())
	}

	if len(chart.Chart.Result) == 0 {
		return nil, errors.Newf(errors.ErrCodeDataNotFound, "yahoo: no data returned for %s", symbol)
	}

	result := chart.Chart.Result[0]
	if len(result.Timestamp) == 0 {
		return []types.MarketData{}, nil
	}

	if len(result.Indicators.Quote) == 0 {
		return nil, errors.Newf(errors.ErrCodeMarketDataParseFailed, "yahoo: no quote block for %s", symbol)
	}

	quote := result.Indicators.Quote[0]
	if len(quote.Close) != len(result.Timestamp) {
		return nil, errors.Newf(errors.ErrCodeMarketDataParseFailed,
			"yahoo: %d timestamps but %d closes for %s", len(result.Timestamp), len(quote.Close), symbol)
	}

	zone := time.FixedZone(symbol, int(result.Meta.GmtOffset))
	bars := make([]types.MarketData, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		if quote.Close[i] == nil {
			continue
		}

		bars = append(bars, types.MarketData{
			Id:     "",
			Symbol: symbol,
			Time:   time.Unix(ts, 0).In(zone),
			Open:   valueAt(quote.Open, i),
			High:   valueAt(quote.High, i),
			Low:    valueAt(quote.Low, i),
			Close:  *quote.Close[i],
			Volume: valueAt(quote.Volume, i),
		})
	}

	return bars, nil
}

func valueAt(values []*float64, i int) float64 {
	if i >= len(values) || values[i] == nil {
		return 0
	}

	return *values[i]
}

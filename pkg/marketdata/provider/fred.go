package provider

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-dataset/internal/types"
	"github.com/rxtech-lab/argo-dataset/pkg/errors"
)

const (
	defaultFredGraphURL = "https://fred.stlouisfed.org"
	defaultFredApiURL   = "https://api.stlouisfed.org"
	// fredMissing is how FRED marks a date without a value
	fredMissing = "."
)

// FredOptions configures the FRED client.
type FredOptions struct {
	// ApiKey switches the client to the JSON observations API. Without it the
	// public graph CSV download is used, which needs no key.
	ApiKey     string
	GraphURL   string
	ApiBaseURL string
}

// FredClient downloads series from Federal Reserve Economic Data.
type FredClient struct {
	apiKey string
	graph  *resty.Client
	api    *resty.Client
}

type fredObservations struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

func NewFredClient(opts FredOptions) *FredClient {
	if opts.GraphURL == "" {
		opts.GraphURL = defaultFredGraphURL
	}

	if opts.ApiBaseURL == "" {
		opts.ApiBaseURL = defaultFredApiURL
	}

	return &FredClient{
		apiKey: opts.ApiKey,
		graph:  resty.New().SetBaseURL(opts.GraphURL),
		api:    resty.New().SetBaseURL(opts.ApiBaseURL).SetHeader("Accept", "application/json"),
	}
}

func (c *FredClient) Name() ProviderType {
	return ProviderFRED
}

// Fetch returns the series identified by symbol (a FRED series ID such as DGS10).
// Dates FRED reports without a value are kept as absent observations.
func (c *FredClient) Fetch(ctx context.Context, symbol string, startDate time.Time, endDate time.Time) (types.Series, error) {
	if err := validateRequest(symbol, startDate, endDate); err != nil {
		return types.Series{}, err
	}

	var (
		observations []types.Observation
		err          error
	)

	if c.apiKey != "" {
		observations, err = c.fetchAPI(ctx, symbol, startDate, endDate)
	} else {
		observations, err = c.fetchGraph(ctx, symbol, startDate, endDate)
	}

	if err != nil {
		return types.Series{}, err
	}

	return types.NewSeries(symbol, observations).Between(startDate, endDate), nil
}

func (c *FredClient) fetchGraph(ctx context.Context, symbol string, startDate time.Time, endDate time.Time) ([]types.Observation, error) {
	resp, err := c.graph.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"id":   symbol,
			"cosd": startDate.Format(types.DateLayout),
			"coed": endDate.Format(types.DateLayout),
		}).
		Get("/graph/fredgraph.csv")
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "fred fetch %s", symbol)
	}

	if resp.IsError() {
		return nil, errors.Newf(errors.ErrCodeMarketDataFetchFailed, "fred: status %d for %s", resp.StatusCode(), symbol)
	}

	return parseFredCSV(symbol, bytes.NewReader(resp.Body()))
}

func (c *FredClient) fetchAPI(ctx context.Context, symbol string, startDate time.Time, endDate time.Time) ([]types.Observation, error) {
	var body fredObservations

	resp, err := c.api.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"series_id":         symbol,
			"api_key":           c.apiKey,
			"file_type":         "json",
			"observation_start": startDate.Format(types.DateLayout),
			"observation_end":   endDate.Format(types.DateLayout),
		}).
		SetResult(&body).
		SetError(&body).
		Get("/fred/series/observations")
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "fred fetch %s", symbol)
	}

	if resp.IsError() {
		if body.ErrorMessage != "" {
			return nil, errors.Newf(errors.ErrCodeMarketDataFetchFailed, "fred api error for %s: %s", symbol, body.ErrorMessage)
		}

		return nil, errors.Newf(errors.ErrCodeMarketDataFetchFailed, "fred: status %d for %s", resp.StatusCode(), symbol)
	}

	observations := make([]types.Observation, 0, len(body.Observations))

	for _, raw := range body.Observations {
		obs, err := parseFredObservation(raw.Date, raw.Value)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "fred: bad observation for %s", symbol)
		}

		observations = append(observations, obs)
	}

	return observations, nil
}

// parseFredCSV reads the two-column graph download: a date column followed by the
// series column. The header names vary ("DATE" or "observation_date").
func parseFredCSV(symbol string, r io.Reader) ([]types.Observation, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "fred: cannot read header for %s", symbol)
	}

	if !strings.EqualFold(strings.TrimSpace(header[1]), symbol) {
		return nil, errors.Newf(errors.ErrCodeMarketDataParseFailed, "fred: expected column %s, got %s", symbol, header[1])
	}

	var observations []types.Observation

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "fred: cannot read row for %s", symbol)
		}

		obs, err := parseFredObservation(record[0], record[1])
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "fred: bad row for %s", symbol)
		}

		observations = append(observations, obs)
	}

	return observations, nil
}

func parseFredObservation(date string, value string) (types.Observation, error) {
	day, err := time.Parse(types.DateLayout, strings.TrimSpace(date))
	if err != nil {
		return types.Observation{}, err
	}

	value = strings.TrimSpace(value)
	if value == "" || value == fredMissing {
		return types.Observation{Date: day, Value: optional.None[float64]()}, nil
	}

	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return types.Observation{}, err
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return types.Observation{}, fmt.Errorf("non-finite value %q on %s", value, date)
	}

	return types.Observation{Date: day, Value: optional.Some(v)}, nil
}

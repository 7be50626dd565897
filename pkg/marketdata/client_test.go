package marketdata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-dataset/internal/frame"
	"github.com/rxtech-lab/argo-dataset/internal/types"
	"github.com/rxtech-lab/argo-dataset/mocks"
	"github.com/rxtech-lab/argo-dataset/pkg/errors"
	"github.com/rxtech-lab/argo-dataset/pkg/marketdata/provider"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

// ClientTestSuite is a test suite for the Client implementation
type ClientTestSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	equities *mocks.MockProvider
	rates    *mocks.MockProvider
	tempDir  string
	progress []string
	client   *Client
	start    time.Time
	end      time.Time
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func (suite *ClientTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.equities = mocks.NewMockProvider(suite.ctrl)
	suite.rates = mocks.NewMockProvider(suite.ctrl)
	suite.tempDir = suite.T().TempDir()
	suite.progress = nil
	suite.start = day(11)
	suite.end = day(15)

	suite.client = NewClientWithProviders(map[provider.ProviderType]provider.Provider{
		provider.ProviderYahoo: suite.equities,
		provider.ProviderFRED:  suite.rates,
	}, nil, func(current float64, total float64, message string) {
		suite.progress = append(suite.progress, message)
	})
}

func (suite *ClientTestSuite) TearDownTest() {
	suite.ctrl.Finish()
}

func day(d int) time.Time {
	return time.Date(2021, 10, d, 0, 0, 0, 0, time.UTC)
}

// values builds a series from day->value pairs; nil is an absent value.
func values(name string, points map[int]*float64) types.Series {
	observations := make([]types.Observation, 0, len(points))
	for d, v := range points {
		cell := optional.None[float64]()
		if v != nil {
			cell = optional.Some(*v)
		}

		observations = append(observations, types.Observation{Date: day(d), Value: cell})
	}

	return types.NewSeries(name, observations)
}

func v(f float64) *float64 {
	return &f
}

func (suite *ClientTestSuite) config() DatasetConfig {
	return DatasetConfig{
		StartDate: "2021-10-11",
		EndDate:   "2021-10-15",
		Anchor:    "SP500",
		Output:    filepath.Join(suite.tempDir, "data.csv"),
		Format:    WriterCSV,
		Precision: nil,
		Groups: []GroupConfig{
			{
				Name:     "equities",
				Provider: provider.ProviderYahoo,
				Series: []SeriesConfig{
					{Symbol: "^GSPC", Column: "SP500"},
					{Symbol: "GE"},
				},
			},
			{
				Name:     "rates",
				Provider: provider.ProviderFRED,
				Series: []SeriesConfig{
					{Symbol: "DGS10"},
					{Symbol: "DCOILWTICO"},
				},
			},
		},
	}
}

// expectDefaultSeries wires the four series used by most tests. The 11th is a
// bond market holiday, the 13th has no oil quote.
func (suite *ClientTestSuite) expectDefaultSeries() {
	gomock.InOrder(
		suite.equities.EXPECT().
			Fetch(gomock.Any(), "^GSPC", suite.start, suite.end).
			Return(values("^GSPC", map[int]*float64{11: v(4361.19), 12: v(4350.65), 13: v(4363.80), 14: v(4438.26), 15: v(4471.37)}), nil),
		suite.equities.EXPECT().
			Fetch(gomock.Any(), "GE", suite.start, suite.end).
			Return(values("GE", map[int]*float64{11: v(104.5), 12: v(103.9), 13: v(102.8), 14: v(104.1), 15: v(105.7)}), nil),
		suite.rates.EXPECT().
			Fetch(gomock.Any(), "DGS10", suite.start, suite.end).
			Return(values("DGS10", map[int]*float64{11: nil, 12: v(1.58), 13: v(1.55), 14: v(1.52), 15: v(1.59)}), nil),
		suite.rates.EXPECT().
			Fetch(gomock.Any(), "DCOILWTICO", suite.start, suite.end).
			Return(values("DCOILWTICO", map[int]*float64{11: v(80.52), 12: v(80.64), 13: nil, 14: v(81.31), 15: v(82.28)}), nil),
	)
}

func (suite *ClientTestSuite) TestCollect() {
	suite.expectDefaultSeries()

	result, err := suite.client.Collect(context.Background(), suite.config())
	suite.Require().NoError(err)

	suite.NotEmpty(result.RunID)
	suite.Equal([]string{"SP500", "GE", "DGS10", "DCOILWTICO"}, result.Frame.Columns())
	suite.Equal(5, result.Frame.Len())

	oil, err := result.Frame.Value(2, "DCOILWTICO")
	suite.Require().NoError(err)
	suite.Equal(80.64, oil.Unwrap(), "oil gap on the 13th is filled from the 12th")

	rate, err := result.Frame.Value(0, "DGS10")
	suite.Require().NoError(err)
	suite.True(rate.IsNone(), "nothing precedes the first row")

	suite.Equal(1, countFor(result.MissingBefore, "DCOILWTICO"))
	suite.Equal(0, countFor(result.MissingAfter, "DCOILWTICO"))
	suite.Equal(1, countFor(result.MissingAfter, "DGS10"))
	suite.Empty(result.OutputPath)
}

func (suite *ClientTestSuite) TestCollectDropsNonTradingDays() {
	gomock.InOrder(
		suite.equities.EXPECT().
			Fetch(gomock.Any(), "^GSPC", suite.start, suite.end).
			Return(values("^GSPC", map[int]*float64{12: v(4350.65), 14: v(4438.26)}), nil),
		suite.equities.EXPECT().
			Fetch(gomock.Any(), "GE", suite.start, suite.end).
			Return(values("GE", map[int]*float64{12: v(103.9), 13: v(102.8), 14: v(104.1)}), nil),
		suite.rates.EXPECT().
			Fetch(gomock.Any(), "DGS10", suite.start, suite.end).
			Return(values("DGS10", map[int]*float64{11: v(1.61), 13: v(1.55)}), nil),
		suite.rates.EXPECT().
			Fetch(gomock.Any(), "DCOILWTICO", suite.start, suite.end).
			Return(values("DCOILWTICO", map[int]*float64{}), nil),
	)

	result, err := suite.client.Collect(context.Background(), suite.config())
	suite.Require().NoError(err)

	suite.Equal([]time.Time{day(12), day(14)}, result.Frame.Dates())

	// the 13th was dropped before filling, so its rate is not carried into the 14th
	rate, err := result.Frame.Value(1, "DGS10")
	suite.Require().NoError(err)
	suite.True(rate.IsNone())

	suite.Equal(2, countFor(result.MissingAfter, "DCOILWTICO"))
}

func (suite *ClientTestSuite) TestCollectReportsProgress() {
	suite.expectDefaultSeries()

	_, err := suite.client.Collect(context.Background(), suite.config())
	suite.Require().NoError(err)

	suite.Equal([]string{
		"Fetching ^GSPC from yahoo",
		"Fetching GE from yahoo",
		"Fetching DGS10 from fred",
		"Fetching DCOILWTICO from fred",
		"Aligning series",
	}, suite.progress)
}

func (suite *ClientTestSuite) TestCollectFetchError() {
	suite.equities.EXPECT().
		Fetch(gomock.Any(), "^GSPC", suite.start, suite.end).
		Return(types.Series{}, fmt.Errorf("connection reset"))

	_, err := suite.client.Collect(context.Background(), suite.config())
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataFetchFailed))
	suite.Contains(err.Error(), "^GSPC")
}

func (suite *ClientTestSuite) TestCollectInvalidConfig() {
	cfg := suite.config()
	cfg.Anchor = "VIX"

	_, err := suite.client.Collect(context.Background(), cfg)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeColumnNotFound))
}

func (suite *ClientTestSuite) TestCollectCancelled() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := suite.client.Collect(ctx, suite.config())
	suite.ErrorIs(err, context.Canceled)
}

func (suite *ClientTestSuite) TestCollectUnknownProviderCredentials() {
	cfg := suite.config()
	cfg.Groups = append(cfg.Groups, GroupConfig{
		Name:     "polygon",
		Provider: provider.ProviderPolygon,
		Series:   []SeriesConfig{{Symbol: "SPY"}},
	})

	suite.expectDefaultSeries()

	// no polygon provider was injected and the config carries no API key
	_, err := suite.client.Collect(context.Background(), cfg)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidProvider))
}

func (suite *ClientTestSuite) TestRunWritesCSV() {
	suite.expectDefaultSeries()

	cfg := suite.config()
	precision := int32(2)
	cfg.Precision = &precision

	result, err := suite.client.Run(context.Background(), cfg)
	suite.Require().NoError(err)
	suite.Equal(cfg.Output, result.OutputPath)

	content, err := os.ReadFile(result.OutputPath)
	suite.Require().NoError(err)

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	suite.Len(lines, 6)
	suite.Equal("Date,SP500,GE,DGS10,DCOILWTICO", lines[0])
	suite.Equal("2021-10-11,4361.19,104.50,,80.52", lines[1])
	suite.Equal("2021-10-13,4363.80,102.80,1.55,80.64", lines[3])
}

func (suite *ClientTestSuite) TestRunWritesParquet() {
	suite.expectDefaultSeries()

	cfg := suite.config()
	cfg.Format = WriterParquet
	cfg.Output = filepath.Join(suite.tempDir, "out", "data.parquet")

	result, err := suite.client.Run(context.Background(), cfg)
	suite.Require().NoError(err)

	info, err := os.Stat(result.OutputPath)
	suite.Require().NoError(err)
	suite.Positive(info.Size())
}

func (suite *ClientTestSuite) TestCollectGeneratedWeek() {
	gen := mocks.NewDataGenerator(42)
	base := mocks.DefaultConfig()
	base.StartDate = suite.start
	base.Days = 5

	bars := gen.GenerateBars(base)

	rateConfig := base
	rateConfig.InitialValue = 1.5
	rateConfig.MissingRate = 0.5

	suite.equities.EXPECT().Fetch(gomock.Any(), "^GSPC", suite.start, suite.end).Return(types.CloseSeries("^GSPC", bars), nil)
	suite.equities.EXPECT().Fetch(gomock.Any(), "GE", suite.start, suite.end).Return(gen.GenerateSeries(base), nil)
	suite.rates.EXPECT().Fetch(gomock.Any(), "DGS10", suite.start, suite.end).Return(gen.GenerateSeries(rateConfig), nil)
	suite.rates.EXPECT().Fetch(gomock.Any(), "DCOILWTICO", suite.start, suite.end).Return(gen.GenerateSeries(rateConfig), nil)

	result, err := suite.client.Collect(context.Background(), suite.config())
	suite.Require().NoError(err)

	// every row is an anchor trading day and the anchor is never filled
	suite.Equal(len(bars), result.Frame.Len())
	suite.Equal(0, countFor(result.MissingAfter, "SP500"))

	for i, after := range result.MissingAfter {
		suite.LessOrEqual(after.Count, result.MissingBefore[i].Count)
	}
}

func (suite *ClientTestSuite) TestNewDatasetWriter() {
	cfg := suite.config()

	w, err := NewDatasetWriter(cfg)
	suite.Require().NoError(err)
	suite.Equal(cfg.Output, w.GetOutputPath())

	cfg.Format = "xlsx"
	_, err = NewDatasetWriter(cfg)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidWriter))
}

func (suite *ClientTestSuite) TestClientConfigFromEnv() {
	suite.T().Setenv(EnvFredApiKey, "fred-key")
	suite.T().Setenv(EnvPolygonApiKey, "polygon-key")

	suite.T().Setenv(EnvYahooBaseURL, "http://localhost:8081")
	suite.T().Setenv(EnvFredBaseURL, "http://localhost:8082")
	suite.T().Setenv(EnvFredApiBaseURL, "")

	config := ClientConfigFromEnv()
	suite.Equal("fred-key", config.FredApiKey)
	suite.Equal("polygon-key", config.PolygonApiKey)
	suite.Equal("http://localhost:8081", config.YahooBaseURL)
	suite.Equal("http://localhost:8082", config.FredBaseURL)
	suite.Empty(config.FredApiBaseURL)
}

func countFor(counts []frame.ColumnCount, column string) int {
	for _, c := range counts {
		if c.Column == column {
			return c.Count
		}
	}

	return -1
}

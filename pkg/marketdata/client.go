package marketdata

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-dataset/internal/frame"
	"github.com/rxtech-lab/argo-dataset/internal/logger"
	"github.com/rxtech-lab/argo-dataset/pkg/errors"
	"github.com/rxtech-lab/argo-dataset/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-dataset/pkg/marketdata/writer"
	"go.uber.org/zap"
)

// Environment variables holding provider credentials and endpoint overrides.
const (
	EnvFredApiKey     = "FRED_API_KEY"
	EnvPolygonApiKey  = "POLYGON_API_KEY"
	EnvYahooBaseURL   = "YAHOO_BASE_URL"
	EnvFredBaseURL    = "FRED_BASE_URL"
	EnvFredApiBaseURL = "FRED_API_BASE_URL"
)

// ClientConfig holds the configuration for the market data client.
type ClientConfig struct {
	provider.Config
}

// ClientConfigFromEnv reads provider credentials and endpoint overrides from the environment.
// Unset base URLs select the public endpoints.
func ClientConfigFromEnv() ClientConfig {
	return ClientConfig{
		Config: provider.Config{
			FredApiKey:     os.Getenv(EnvFredApiKey),
			PolygonApiKey:  os.Getenv(EnvPolygonApiKey),
			YahooBaseURL:   os.Getenv(EnvYahooBaseURL),
			FredBaseURL:    os.Getenv(EnvFredBaseURL),
			FredApiBaseURL: os.Getenv(EnvFredApiBaseURL),
		},
	}
}

// Result is the outcome of one collection run.
type Result struct {
	RunID string
	// Frame is the aligned, forward-filled dataset.
	Frame *frame.Frame
	// MissingBefore counts absent cells per column after the anchor filter and before filling.
	MissingBefore []frame.ColumnCount
	// MissingAfter counts absent cells per column after filling.
	MissingAfter []frame.ColumnCount
	// OutputPath is set by Run once the dataset has been written.
	OutputPath string
}

// Client downloads the configured series, aligns them and writes the dataset.
type Client struct {
	providers  map[provider.ProviderType]provider.Provider
	config     ClientConfig
	logger     *logger.Logger
	onProgress provider.OnDownloadProgress
}

// NewClient creates a client that builds providers on first use.
func NewClient(config ClientConfig, log *logger.Logger, onProgress provider.OnDownloadProgress) *Client {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Client{
		providers:  make(map[provider.ProviderType]provider.Provider),
		config:     config,
		logger:     log,
		onProgress: onProgress,
	}
}

// NewClientWithProviders creates a client around already constructed providers.
func NewClientWithProviders(providers map[provider.ProviderType]provider.Provider, log *logger.Logger, onProgress provider.OnDownloadProgress) *Client {
	client := NewClient(ClientConfig{}, log, onProgress) //nolint:exhaustruct

	for providerType, p := range providers {
		client.providers[providerType] = p
	}

	return client
}

// Collect fetches every configured series, joins each group, joins the groups,
// keeps the anchor's trading days and forward fills the gaps.
func (c *Client) Collect(ctx context.Context, cfg DatasetConfig) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}

	start, end, err := cfg.Range()
	if err != nil {
		return Result{}, err
	}

	runID := uuid.NewString()
	log := c.logger.WithFields(zap.String("run_id", runID))

	log.Info("Collecting dataset",
		zap.String("start", cfg.StartDate),
		zap.String("end", cfg.EndDate),
		zap.Int("series", cfg.SeriesCount()),
	)
	log.Debug("Dataset config", zap.Stringer("config", cfg))

	total := float64(cfg.SeriesCount())
	fetched := 0
	groups := make([][]*frame.Frame, 0, len(cfg.Groups))

	for _, group := range cfg.Groups {
		p, err := c.provider(group.Provider)
		if err != nil {
			return Result{}, errors.Wrapf(errors.ErrCodeInvalidProvider, err, "group %s", group.Name)
		}

		members := make([]*frame.Frame, 0, len(group.Series))

		for _, s := range group.Series {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}

			c.progress(float64(fetched), total, fmt.Sprintf("Fetching %s from %s", s.Symbol, group.Provider))

			series, err := p.Fetch(ctx, s.Symbol, start, end)
			if err != nil {
				log.Error("Failed to fetch series",
					zap.String("provider", string(group.Provider)),
					zap.String("symbol", s.Symbol),
					zap.Error(err),
				)

				return Result{}, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to fetch %s from %s", s.Symbol, group.Provider)
			}

			fetched++

			if series.Valid() == 0 {
				log.Warn("Series has no values in range",
					zap.String("provider", string(group.Provider)),
					zap.String("symbol", s.Symbol),
				)
			}

			log.Debug("Fetched series",
				zap.String("symbol", s.Symbol),
				zap.Int("observations", series.Len()),
				zap.Int("valid", series.Valid()),
			)

			member := frame.FromSeries(series.Renamed(s.Symbol))
			if s.ColumnName() != s.Symbol {
				member, err = member.Rename(s.Symbol, s.ColumnName())
				if err != nil {
					return Result{}, err
				}
			}

			members = append(members, member)
		}

		groups = append(groups, members)
	}

	c.progress(total, total, "Aligning series")

	aligned, err := frame.Align(cfg.Anchor, groups...)
	if err != nil {
		return Result{}, err
	}

	if aligned.Frame.Len() == 0 {
		log.Warn("Dataset has no rows", zap.String("anchor", cfg.Anchor))
	}

	log.Info("Dataset aligned",
		zap.Int("rows", aligned.Frame.Len()),
		zap.Int("columns", len(aligned.Frame.Columns())),
	)

	return Result{
		RunID:         runID,
		Frame:         aligned.Frame,
		MissingBefore: aligned.MissingBefore,
		MissingAfter:  aligned.MissingAfter,
		OutputPath:    "",
	}, nil
}

// Run collects the dataset and writes it to the configured output.
func (c *Client) Run(ctx context.Context, cfg DatasetConfig) (Result, error) {
	result, err := c.Collect(ctx, cfg)
	if err != nil {
		return result, err
	}

	datasetWriter, err := NewDatasetWriter(cfg)
	if err != nil {
		return result, err
	}

	outputPath, err := writer.WriteFrame(datasetWriter, result.Frame)
	if err != nil {
		return result, errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to write %s", cfg.Output)
	}

	result.OutputPath = outputPath

	c.logger.Info("Dataset written",
		zap.String("run_id", result.RunID),
		zap.String("path", outputPath),
		zap.String("format", string(cfg.Format)),
	)

	return result, nil
}

// NewDatasetWriter returns the writer selected by the config's format.
func NewDatasetWriter(cfg DatasetConfig) (writer.DatasetWriter, error) {
	switch cfg.Format {
	case WriterCSV:
		precision := optional.None[int32]()
		if cfg.Precision != nil {
			precision = optional.Some(*cfg.Precision)
		}

		return writer.NewCSVWriter(cfg.Output, precision), nil
	case WriterParquet:
		return writer.NewDuckDBWriter(cfg.Output), nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidWriter, "unsupported writer type: %s", cfg.Format)
	}
}

// provider returns the cached provider of the given type, creating it if needed.
func (c *Client) provider(providerType provider.ProviderType) (provider.Provider, error) {
	if p, ok := c.providers[providerType]; ok {
		return p, nil
	}

	p, err := provider.NewMarketDataProvider(providerType, c.config.Config)
	if err != nil {
		return nil, err
	}

	c.providers[providerType] = p

	return p, nil
}

func (c *Client) progress(current float64, total float64, message string) {
	if c.onProgress != nil {
		c.onProgress(current, total, message)
	}
}

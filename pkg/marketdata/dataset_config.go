package marketdata

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-dataset/internal/types"
	"github.com/rxtech-lab/argo-dataset/internal/version"
	"github.com/rxtech-lab/argo-dataset/pkg/errors"
	"github.com/rxtech-lab/argo-dataset/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-dataset/pkg/marketdata/writer"
	"gopkg.in/yaml.v3"
)

// WriterType defines the output format of the dataset.
type WriterType string

const (
	WriterCSV     WriterType = "csv"
	WriterParquet WriterType = "parquet"
)

// SeriesConfig names one series to download and the column it becomes.
type SeriesConfig struct {
	Symbol string `yaml:"symbol" json:"symbol" jsonschema:"title=Symbol,description=Provider symbol or series ID (e.g. ^GSPC or DGS10),required" validate:"required"`
	Column string `yaml:"column,omitempty" json:"column,omitempty" jsonschema:"title=Column,description=Output column name. Defaults to the symbol"`
}

// ColumnName returns the output column of the series.
func (s SeriesConfig) ColumnName() string {
	if s.Column != "" {
		return s.Column
	}

	return s.Symbol
}

// GroupConfig is a set of series fetched from one provider and joined together
// before being merged with the other groups.
type GroupConfig struct {
	Name     string                `yaml:"name" json:"name" jsonschema:"title=Name,required" validate:"required"`
	Provider provider.ProviderType `yaml:"provider" json:"provider" jsonschema:"title=Provider,required,enum=yahoo,enum=fred,enum=polygon" validate:"required,oneof=yahoo fred polygon"`
	Series   []SeriesConfig        `yaml:"series" json:"series" jsonschema:"title=Series,required" validate:"required,min=1,dive"`
}

// DatasetConfig describes one collection run.
type DatasetConfig struct {
	Version   string        `yaml:"version,omitempty" json:"version,omitempty" jsonschema:"title=Version,description=Oldest collect version able to run this config"`
	StartDate string        `yaml:"start" json:"start" jsonschema:"title=Start Date,description=First calendar date (inclusive),format=date,required" validate:"required,datetime=2006-01-02"`
	EndDate   string        `yaml:"end" json:"end" jsonschema:"title=End Date,description=Last calendar date (inclusive),format=date,required" validate:"required,datetime=2006-01-02"`
	Anchor    string        `yaml:"anchor" json:"anchor" jsonschema:"title=Anchor,description=Column whose trading days define the output rows,required" validate:"required"`
	Output    string        `yaml:"output" json:"output" jsonschema:"title=Output,description=Output file path,required" validate:"required"`
	Format    WriterType    `yaml:"format" json:"format" jsonschema:"title=Format,enum=csv,enum=parquet,required" validate:"required,oneof=csv parquet"`
	Precision *int32        `yaml:"precision,omitempty" json:"precision,omitempty" jsonschema:"title=Precision,description=Decimal places for CSV values. Omit for exact values" validate:"omitempty,min=0,max=16"`
	Groups    []GroupConfig `yaml:"groups" json:"groups" jsonschema:"title=Groups,required" validate:"required,min=1,dive"`
}

// DefaultDatasetConfig returns the stock, index, rate and oil dataset for
// 2011-10-15 through 2021-10-15.
func DefaultDatasetConfig() DatasetConfig {
	return DatasetConfig{
		Version:   "",
		StartDate: "2011-10-15",
		EndDate:   "2021-10-15",
		Anchor:    "SP500",
		Output:    "data.csv",
		Format:    WriterCSV,
		Precision: nil,
		Groups: []GroupConfig{
			{
				Name:     "equities",
				Provider: provider.ProviderYahoo,
				Series: []SeriesConfig{
					{Symbol: "^GSPC", Column: "SP500"},
					{Symbol: "GE", Column: "GE"},
					{Symbol: "BAC", Column: "BAC"},
					{Symbol: "XOM", Column: "XOM"},
				},
			},
			{
				Name:     "rates",
				Provider: provider.ProviderFRED,
				Series: []SeriesConfig{
					// Treasury constant maturity rates
					{Symbol: "DGS3MO"},
					{Symbol: "DGS1"},
					{Symbol: "DGS5"},
					{Symbol: "DGS10"},
					// Moody's seasoned corporate bond yields
					{Symbol: "DAAA"},
					{Symbol: "DBAA"},
					// WTI crude oil spot, Cushing OK
					{Symbol: "DCOILWTICO"},
				},
			},
		},
	}
}

// LoadDatasetConfig reads a YAML file on top of the defaults; keys missing from the
// file keep their default value.
func LoadDatasetConfig(path string) (DatasetConfig, error) {
	config := DefaultDatasetConfig()

	content, err := os.ReadFile(path)
	if err != nil {
		return config, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config %s", path)
	}

	if err := yaml.Unmarshal(content, &config); err != nil {
		return config, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to parse config %s", path)
	}

	return config, nil
}

// Validate checks field constraints, the date range and the column layout.
func (c *DatasetConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid dataset config", err)
	}

	if err := version.CheckConfigCompatibility(version.GetVersion(), c.Version); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "incompatible dataset config", err)
	}

	start, end, err := c.Range()
	if err != nil {
		return err
	}

	if !end.After(start) {
		return errors.Newf(errors.ErrCodeInvalidDateRange, "end date %s must be after start date %s", c.EndDate, c.StartDate)
	}

	seen := make(map[string]bool)

	for _, column := range c.Columns() {
		if strings.EqualFold(column, writer.DateColumn) {
			return errors.NewColumnError(errors.ErrCodeDuplicateColumn, column, "name is reserved for the date column")
		}

		if seen[column] {
			return errors.NewColumnError(errors.ErrCodeDuplicateColumn, column, "column is produced by more than one series")
		}

		seen[column] = true
	}

	if !seen[c.Anchor] {
		return errors.NewColumnError(errors.ErrCodeColumnNotFound, c.Anchor, "anchor is not one of the configured columns")
	}

	return nil
}

// Range parses the start and end dates.
func (c *DatasetConfig) Range() (time.Time, time.Time, error) {
	start, err := time.Parse(types.DateLayout, c.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, errors.Wrap(errors.ErrCodeInvalidDateRange, "invalid start date, expected YYYY-MM-DD", err)
	}

	end, err := time.Parse(types.DateLayout, c.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, errors.Wrap(errors.ErrCodeInvalidDateRange, "invalid end date, expected YYYY-MM-DD", err)
	}

	return start, end, nil
}

// Columns returns the output columns in group order.
func (c *DatasetConfig) Columns() []string {
	var columns []string

	for _, group := range c.Groups {
		for _, series := range group.Series {
			columns = append(columns, series.ColumnName())
		}
	}

	return columns
}

// SeriesCount returns the number of series the run will download.
func (c *DatasetConfig) SeriesCount() int {
	count := 0
	for _, group := range c.Groups {
		count += len(group.Series)
	}

	return count
}

// String renders the config as YAML, used for debug logging.
func (c DatasetConfig) String() string {
	out, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("dataset %s..%s", c.StartDate, c.EndDate)
	}

	return string(out)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rxtech-lab/argo-dataset/internal/logger"
	"github.com/rxtech-lab/argo-dataset/internal/types"
	"github.com/rxtech-lab/argo-dataset/internal/version"
	"github.com/rxtech-lab/argo-dataset/pkg/marketdata"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// runAction downloads every configured series, aligns them and writes the dataset.
func runAction(out io.Writer) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := datasetConfig(cmd)
		if err != nil {
			return err
		}

		level := zapcore.InfoLevel
		if cmd.Bool("verbose") {
			level = zapcore.DebugLevel
		}

		log, err := logger.NewLoggerWithLevel(level)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}

		defer func() {
			_ = log.Sync()
		}()

		progress := newProgress(os.Stderr)
		client := marketdata.NewClient(marketdata.ClientConfigFromEnv(), log.Named("collect"), progress.Update)

		result, err := client.Run(ctx, cfg)
		progress.Finish()

		if err != nil {
			log.Error("Collection failed", zap.Error(err))

			return err
		}

		fmt.Fprintln(out, TitleStyle.Render(fmt.Sprintf("Wrote %d rows to %s", result.Frame.Len(), result.OutputPath)))
		fmt.Fprintln(out, RenderMissingTable(result.MissingBefore, result.MissingAfter))

		return nil
	}
}

// configAction prints the effective dataset config after flags are applied.
func configAction(out io.Writer) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := datasetConfig(cmd)
		if err != nil {
			return err
		}

		if err := cfg.Validate(); err != nil {
			return err
		}

		fmt.Fprint(out, cfg.String())

		return nil
	}
}

// schemaAction prints the JSON schema of the dataset config file.
func schemaAction(out io.Writer) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		schema, err := marketdata.GetDatasetConfigSchema()
		if err != nil {
			return fmt.Errorf("failed to generate schema: %w", err)
		}

		fmt.Fprintln(out, schema)

		return nil
	}
}

// providersAction lists the supported providers.
func providersAction(out io.Writer) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		for _, name := range marketdata.GetSupportedProviders() {
			info, err := marketdata.GetProviderInfo(name)
			if err != nil {
				return err
			}

			line := fmt.Sprintf("%-8s %s: %s", info.Name, info.DisplayName, info.Description)
			if info.EnvKey != "" {
				line += HelpStyle.Render(fmt.Sprintf(" (%s)", info.EnvKey))
			}

			fmt.Fprintln(out, line)
		}

		return nil
	}
}

// datasetConfig loads the config file, or the defaults, and applies flag overrides.
func datasetConfig(cmd *cli.Command) (marketdata.DatasetConfig, error) {
	cfg := marketdata.DefaultDatasetConfig()

	if path := cmd.String("config"); path != "" {
		loaded, err := marketdata.LoadDatasetConfig(path)
		if err != nil {
			return cfg, err
		}

		cfg = loaded
	}

	if cmd.IsSet("start") {
		cfg.StartDate = cmd.Timestamp("start").Format(types.DateLayout)
	}

	if cmd.IsSet("end") {
		cfg.EndDate = cmd.Timestamp("end").Format(types.DateLayout)
	}

	if cmd.IsSet("output") {
		cfg.Output = cmd.String("output")
	}

	if cmd.IsSet("format") {
		cfg.Format = marketdata.WriterType(cmd.String("format"))
	}

	if cmd.IsSet("precision") {
		precision := int32(cmd.Int("precision"))
		cfg.Precision = &precision
	}

	return cfg, nil
}

func newApp(out io.Writer) *cli.Command {
	dateLayouts := cli.TimestampConfig{
		Layouts:  []string{types.DateLayout},
		Timezone: time.UTC,
	}

	return &cli.Command{
		Name:    "collect",
		Version: version.GetVersion(),
		Usage:   "Build a daily dataset of equity closes, treasury and corporate yields and oil prices",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML dataset config. Defaults to the built-in dataset",
			},
			&cli.TimestampFlag{
				Name:    "start",
				Aliases: []string{"s"},
				Usage:   "Start date in `YYYY-MM-DD` format",
				Config:  dateLayouts,
			},
			&cli.TimestampFlag{
				Name:    "end",
				Aliases: []string{"e"},
				Usage:   "End date in `YYYY-MM-DD` format",
				Config:  dateLayouts,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   fmt.Sprintf("Output format (%s or %s)", marketdata.WriterCSV, marketdata.WriterParquet),
			},
			&cli.IntFlag{
				Name:    "precision",
				Aliases: []string{"p"},
				Usage:   "Decimal places for CSV values",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Action: runAction(out),
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Download, align and write the dataset",
				Action: runAction(out),
			},
			{
				Name:   "config",
				Usage:  "Print the effective dataset config",
				Action: configAction(out),
			},
			{
				Name:   "schema",
				Usage:  "Print the JSON schema of the dataset config",
				Action: schemaAction(out),
			},
			{
				Name:   "providers",
				Usage:  "List supported data providers",
				Action: providersAction(out),
			},
		},
	}
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render(fmt.Sprintf("failed to load .env: %v", err)))
		os.Exit(1)
	}

	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render(err.Error()))
		os.Exit(1)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"shipdash/internal/config"
	"shipdash/internal/dataset"
	"shipdash/internal/infrastructure"
	"shipdash/internal/services"
)

// rootOptions are the flags shared by every subcommand
type rootOptions struct {
	file      string
	alignment string
	colorMode string
	verbose   bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "shipreport",
		Short: "Shipbuilder share price correlation and prediction reports",
		Long: `shipreport reads the same price snapshot as the dashboard and prints its views.

Commands:
  entities     - List the companies in the snapshot
  correlation  - Print the correlation matrix as a markdown table
  predict      - Print one company's stitched prediction series
  predictions  - Summarise the prediction of every company
  export       - Write a view to a CSV or XLSX file

Without --file the data file is taken from the dashboard configuration
(config.yaml or SHIPDASH_DATA_FILE).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch opts.colorMode {
			case "auto", "always", "never":
				return nil
			}
			return fmt.Errorf("invalid --color %q (want auto, always or never)", opts.colorMode)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.file, "file", "f", "", "price data file (.csv or .xlsx)")
	flags.StringVar(&opts.alignment, "align", "", "correlation date alignment: listwise or pairwise")
	flags.StringVar(&opts.colorMode, "color", "auto", "colour output: auto, always or never")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log derivations to stderr")

	cmd.AddCommand(
		newEntitiesCmd(opts),
		newCorrelationCmd(opts),
		newPredictCmd(opts),
		newPredictionsCmd(opts),
		newExportCmd(opts),
		newVersionCmd(),
	)

	return cmd
}

// palette returns the colouring for the command's output
func (o *rootOptions) palette() palette {
	switch o.colorMode {
	case "always":
		return palette{enabled: true}
	case "never":
		return palette{enabled: false}
	default:
		return palette{enabled: !color.NoColor}
	}
}

// loadService loads the snapshot and wraps it in a dashboard service. A
// DataUnavailable failure prints the user-facing message to stderr.
func (o *rootOptions) loadService(ctx context.Context, stderr io.Writer) (*services.DashboardService, error) {
	file, alignment, err := o.resolveData()
	if err != nil {
		return nil, err
	}

	table, err := dataset.LoadContext(ctx, file)
	if err != nil {
		var dataErr *dataset.DataUnavailableError
		if errors.As(err, &dataErr) {
			fmt.Fprintln(stderr, o.palette().failure(dataErr.UserMessage()))
		}
		return nil, err
	}

	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := infrastructure.WithComponent(
		slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})), "shipreport")

	return services.NewDashboardServiceWithLogger(table, services.DashboardOptions{
		Source:    file,
		Alignment: alignment,
	}, logger)
}

// resolveData returns the data file and default alignment, falling back to
// the dashboard configuration for whatever the flags leave unset
func (o *rootOptions) resolveData() (string, string, error) {
	if o.file != "" {
		return o.file, o.alignment, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return "", "", fmt.Errorf("no --file given and configuration failed to load: %w", err)
	}

	alignment := o.alignment
	if alignment == "" {
		alignment = cfg.Data.Alignment
	}
	return cfg.Data.File, alignment, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "shipreport version %s\n", config.AppVersion)
			fmt.Fprintln(cmd.OutOrStdout(), config.AppTitle)
		},
	}
}

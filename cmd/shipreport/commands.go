package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"shipdash/internal/exporter"
	"shipdash/internal/services"
	"shipdash/pkg/contracts/domain"
)

func newEntitiesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "entities",
		Short: "List the companies in the snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.loadService(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			view, err := svc.Entities(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			p := opts.palette()
			fmt.Fprintln(out, p.heading(view.Title))
			fmt.Fprintf(out, "%d rows (%d observed, %d predicted) from %s, %s to %s\n\n",
				view.Snapshot.Rows, view.Snapshot.Observed, view.Snapshot.Predicted,
				view.Snapshot.Source, view.Snapshot.From, view.Snapshot.To)

			for _, entity := range view.Entities {
				marker := " "
				if entity == view.Default {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %s\n", marker, entity)
			}
			return nil
		},
	}
}

func newCorrelationCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "correlation",
		Short: "Print the correlation matrix of observed prices",
		Long: `Print the Pearson correlation of every pair of companies as a markdown table.

Cells are blank when a pair has fewer than two aligned dates or a company's
price never moves. Use --align pairwise to align each pair on its own dates.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.loadService(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			view, err := svc.Correlation(cmd.Context(), opts.alignment)
			if err != nil {
				return err
			}

			p := opts.palette()
			m := view.Matrix
			rows := make([][]string, len(m.Entities))
			for i, entity := range m.Entities {
				row := make([]string, 0, len(m.Entities)+1)
				row = append(row, entity)
				for _, v := range m.Values[i] {
					row = append(row, p.coefficient(v))
				}
				rows[i] = row
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, p.heading(fmt.Sprintf("Correlation (%s alignment)", m.Alignment)))
			fmt.Fprintln(out)
			return renderMarkdown(out, append([]string{"Company"}, m.Entities...), rows)
		},
	}
}

func newPredictCmd(opts *rootOptions) *cobra.Command {
	var entity string

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Print one company's stitched prediction series",
		Long: `Print the last observed price of a company followed by every predicted
price, the same line the dashboard draws dotted. Without --entity the first
company in the file is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.loadService(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			if entity == "" {
				entities, err := svc.Entities(cmd.Context())
				if err != nil {
					return err
				}
				entity = entities.Default
			}

			view, err := svc.Prediction(cmd.Context(), entity)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, view.Prediction.Len())
			for i, point := range view.Prediction.Points {
				series := exporter.SeriesPrediction
				if i == 0 {
					series = exporter.SeriesHistory
				}
				rows = append(rows, []string{point.Date.Format(domain.DateLayout), series, formatPrice(point.Price)})
			}

			out := cmd.OutOrStdout()
			p := opts.palette()
			fmt.Fprintln(out, p.heading(view.Entity+" price outlook"))
			fmt.Fprintln(out)
			if err := renderMarkdown(out, []string{"Date", "Series", "Price"}, rows); err != nil {
				return err
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, p.success(summaryLine(view.Summary)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&entity, "entity", "e", "", "company to predict (default: first in file)")
	return cmd
}

// summaryLine is the one-line analysis result under the prediction table
func summaryLine(s domain.PredictionSummary) string {
	if s.FinalPredicted == nil {
		return fmt.Sprintf("%s: last observed %s, no predicted points.", s.Entity, formatPoint(s.LastObserved))
	}

	line := fmt.Sprintf("%s: last observed %s, predicted %s over %d points",
		s.Entity, formatPoint(s.LastObserved), formatPoint(*s.FinalPredicted), s.Horizon)
	if change := formatChange(s.ChangePercent); change != "" {
		line += " (" + change + ")"
	}
	return line + "."
}

func newPredictionsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "predictions",
		Short: "Summarise the prediction of every company",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.loadService(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			overview, err := svc.Predictions(cmd.Context())
			if err != nil {
				return err
			}

			p := opts.palette()
			rows := make([][]string, 0, len(overview.Entries))
			for _, entry := range overview.Entries {
				if entry.View == nil {
					rows = append(rows, []string{entry.Entity, "", "", "", p.failure(entry.Error)})
					continue
				}

				s := entry.View.Summary
				final := ""
				if s.FinalPredicted != nil {
					final = formatPoint(*s.FinalPredicted)
				}
				rows = append(rows, []string{
					entry.Entity,
					formatPoint(s.LastObserved),
					final,
					formatChange(s.ChangePercent),
					"",
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, p.heading("Prediction overview"))
			fmt.Fprintln(out)
			if err := renderMarkdown(out, []string{"Company", "Last observed", "Final predicted", "Change", "Error"}, rows); err != nil {
				return err
			}
			if overview.Failed > 0 {
				fmt.Fprintln(out, p.failure(fmt.Sprintf("%d of %d companies have no prediction", overview.Failed, len(overview.Entries))))
			}
			return nil
		},
	}
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		view   string
		format string
		entity string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a view to a CSV or XLSX file",
		Long: `Write the correlation, prediction or trend view to a file.

The format defaults to the --out extension, or csv when --out is not given.
The file name defaults to the dashboard download name, e.g. prediction_HD.xlsx.

Examples:
  shipreport export --view correlation --format xlsx
  shipreport export --view prediction --entity HD --out reports/hd.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = formatFromPath(out)
			}

			svc, err := opts.loadService(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			table, req, err := svc.ExportTable(cmd.Context(), services.ExportRequest{
				View:      view,
				Format:    format,
				Entity:    entity,
				Alignment: opts.alignment,
			})
			if err != nil {
				return err
			}

			target := out
			if target == "" {
				target = exporter.Filename(req.View, req.Entity, exporter.Format(req.Format))
			}

			if err := exporter.ExportFile(target, exporter.Format(req.Format), table); err != nil {
				return fmt.Errorf("export %s: %w", req.View, err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), opts.palette().success(
				fmt.Sprintf("Wrote %d rows of %s to %s", len(table.Rows), req.View, target)))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&view, "view", "", "view to export: correlation, prediction or trend")
	flags.StringVar(&format, "format", "", "file format: csv or xlsx")
	flags.StringVarP(&entity, "entity", "e", "", "company, required for the prediction view")
	flags.StringVarP(&out, "out", "o", "", "output file")
	_ = cmd.MarkFlagRequired("view")

	return cmd
}

// formatFromPath guesses the export format from a file extension
func formatFromPath(path string) string {
	if ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")); ext != "" {
		return ext
	}
	return string(exporter.FormatCSV)
}

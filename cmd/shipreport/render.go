package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"shipdash/pkg/contracts/domain"
)

// strongCorrelation is the coefficient magnitude printed in bold
const strongCorrelation = 0.7

// palette colours terminal output when enabled
type palette struct {
	enabled bool
}

func (p palette) paint(text string, attrs ...color.Attribute) string {
	c := color.New(attrs...)
	if p.enabled {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.Sprint(text)
}

// coefficient formats a correlation cell: red for positive, blue for
// negative, bold when strong. Undefined cells are blank.
func (p palette) coefficient(v float64) string {
	if domain.IsUndefined(v) {
		return ""
	}

	text := fmt.Sprintf("%.2f", v)
	switch {
	case v >= strongCorrelation:
		return p.paint(text, color.FgRed, color.Bold)
	case v >= 0:
		return p.paint(text, color.FgRed)
	case v <= -strongCorrelation:
		return p.paint(text, color.FgBlue, color.Bold)
	default:
		return p.paint(text, color.FgBlue)
	}
}

func (p palette) success(text string) string {
	return p.paint(text, color.FgGreen)
}

func (p palette) failure(text string) string {
	return p.paint(text, color.FgRed, color.Bold)
}

func (p palette) heading(text string) string {
	return p.paint(text, color.FgCyan, color.Bold)
}

// renderMarkdown writes a markdown table followed by a row count
func renderMarkdown(w io.Writer, headers []string, rows [][]string) error {
	tableString := &strings.Builder{}

	alignment := make([]tw.Align, len(headers))
	for i := range alignment {
		alignment[i] = tw.AlignNone
	}

	table := tablewriter.NewTable(tableString,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(alignment),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)

	table.Header(headers)
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	fmt.Fprintf(tableString, "\n_%d rows_\n", len(rows))
	_, err := io.WriteString(w, tableString.String())
	return err
}

func formatPrice(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func formatPoint(p domain.SeriesPoint) string {
	return fmt.Sprintf("%s on %s", formatPrice(p.Price), p.Date.Format(domain.DateLayout))
}

func formatChange(pct *float64) string {
	if pct == nil {
		return ""
	}
	return fmt.Sprintf("%+.2f%%", *pct)
}

package main

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/fatih/color"

	"shipdash/internal/app"
	"shipdash/internal/dataset"
)

// Embedded dashboard page, script and stylesheet
//
//go:embed web/*
var webFiles embed.FS

func main() {
	os.Exit(run(os.Stderr))
}

func run(stderr io.Writer) int {
	application, err := app.NewApplication(webFS())
	if err != nil {
		return reportStartupError(stderr, err)
	}

	if err := application.Run(); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		return 1
	}
	return 0
}

// webFS returns the embedded web directory, or nil when it is missing
func webFS() fs.FS {
	sub, err := fs.Sub(webFiles, "web")
	if err != nil {
		slog.Warn("Dashboard page embedding failed", slog.String("error", err.Error()))
		return nil
	}
	return sub
}

// reportStartupError prints why the dashboard cannot start and returns the
// exit code. Missing or malformed price data gets the user-facing message.
func reportStartupError(w io.Writer, err error) int {
	slog.Error("Failed to initialize application", slog.String("error", err.Error()))

	var dataErr *dataset.DataUnavailableError
	if errors.As(err, &dataErr) {
		color.New(color.FgRed, color.Bold).Fprintln(w, dataErr.UserMessage())
		if dataErr.Reason != "" || dataErr.Line > 0 {
			fmt.Fprintf(w, "Details: %v\n", dataErr)
		}
		return 1
	}

	color.New(color.FgRed).Fprintf(w, "shipdash failed to start: %v\n", err)
	return 1
}

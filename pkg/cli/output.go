package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"coursys/courselib/pkg/purge"
)

// OutputFormat represents the output format for a purge report.
type OutputFormat string

const (
	// FormatText is a human-readable summary table (default).
	FormatText OutputFormat = "text"
	// FormatJSON is the full report as JSON.
	FormatJSON OutputFormat = "json"
	// FormatCSV is one row per model.
	FormatCSV OutputFormat = "csv"
)

// Formatter renders a purge report.
type Formatter interface {
	FormatTo(w io.Writer, report *purge.Report) error
}

// NewFormatter creates a formatter for the given format. An empty format
// means text.
func NewFormatter(format OutputFormat) (Formatter, error) {
	switch format {
	case FormatText, "":
		return &TextFormatter{}, nil
	case FormatJSON:
		return &JSONFormatter{Indent: true}, nil
	case FormatCSV:
		return &CSVFormatter{}, nil
	default:
		return nil, NewConfigError("purge.report_format", fmt.Sprintf("unknown format %q", format))
	}
}

// TextFormatter renders a summary table followed by totals.
type TextFormatter struct{}

// FormatTo writes the summary to w.
func (f *TextFormatter) FormatTo(w io.Writer, report *purge.Report) error {
	mode := "commit"
	if report.DryRun {
		mode = "dry run"
	}
	elapsed := report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond)
	if _, err := fmt.Fprintf(w, "\nRun %s (%s) finished in %s\n\n", report.RunID, mode, elapsed); err != nil {
		return err
	}

	if len(report.Units) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "MODEL\tSOURCE\tMODE\tELIGIBLE\tDELETED\tSTATE")
		for _, u := range report.Units {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				u.Model, u.Source, u.Mode,
				humanize.Comma(u.Eligible), humanize.Comma(u.Deleted), u.State)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}

	failed := report.Failed()
	_, err := fmt.Fprintf(w, "%s eligible, %s deleted, %d of %d models failed\n",
		humanize.Comma(report.TotalEligible()),
		humanize.Comma(report.TotalDeleted()),
		len(failed), len(report.Units))
	if err != nil {
		return err
	}
	for _, u := range failed {
		if _, err := fmt.Fprintf(w, "  %s: %s\n", u.Model, u.Error); err != nil {
			return err
		}
	}
	return nil
}

// JSONFormatter renders the report as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatTo writes the report to w in JSON format.
func (f *JSONFormatter) FormatTo(w io.Writer, report *purge.Report) error {
	encoder := json.NewEncoder(w)
	if f.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(report)
}

// CSVFormatter renders one row per model.
type CSVFormatter struct{}

var csvHeader = []string{"run_id", "dry_run", "model", "source", "mode", "eligible", "deleted", "state", "error"}

// FormatTo writes the report rows to w in CSV format.
func (f *CSVFormatter) FormatTo(w io.Writer, report *purge.Report) error {
	csvWriter := csv.NewWriter(w)

	if err := csvWriter.Write(csvHeader); err != nil {
		return err
	}
	for _, u := range report.Units {
		row := []string{
			report.RunID,
			strconv.FormatBool(report.DryRun),
			u.Model,
			string(u.Source),
			u.Mode.String(),
			strconv.FormatInt(u.Eligible, 10),
			strconv.FormatInt(u.Deleted, 10),
			string(u.State),
			u.Error,
		}
		if err := csvWriter.Write(row); err != nil {
			return err
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

package main

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
)

// definitionColor highlights definition rows in text output.
var definitionColor = color.New(color.FgGreen, color.Bold)

// formatLocationsText formats CLILocation results as aligned columns with
// definition rows highlighted.
func formatLocationsText(w io.Writer, locs []CLILocation) {
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tKIND\tFILE\tRANGE")
	for _, l := range locs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d:%d-%d:%d\n",
			l.Symbol, l.Kind, l.File, l.StartLine, l.StartCol, l.EndLine, l.EndCol)
	}
	tw.Flush()

	// Color after alignment so escape codes do not skew column widths.
	lines := strings.SplitAfter(buf.String(), "\n")
	for i, line := range lines {
		if i > 0 && i <= len(locs) && locs[i-1].Definition {
			definitionColor.Fprint(w, line)
			continue
		}
		io.WriteString(w, line)
	}
}

// formatFilesText formats CLIFile results as aligned columns.
func formatFilesText(w io.Writer, files []CLIFile) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPATH\tLANGUAGE\tLINES")
	for _, f := range files {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", f.ID, f.Path, f.Language, f.LineCount)
	}
	tw.Flush()
}

// formatTimingsText formats CLITiming results as aligned columns.
func formatTimingsText(w io.Writer, timings []CLITiming) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tLANGUAGE\tBYTES\tMS\tOCCURRENCES")
	for _, t := range timings {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.3f\t%d\n", t.File, t.Language, t.Size, t.DurationMS, t.Occurrences)
	}
	tw.Flush()
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case []CLILocation:
		formatLocationsText(w, v)
	case []CLIFile:
		formatFilesText(w, v)
	case []CLITiming:
		formatTimingsText(w, v)
	case string:
		io.WriteString(w, v)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}

	if result.TotalCount != nil {
		count := *result.TotalCount
		shown := resultLen(result.Results)
		if shown < count {
			fmt.Fprintf(w, "\nShowing %d of %d results\n", shown, count)
		}
	}
	return nil
}

// resultLen returns the length of a result slice, or 1 for a single value.
func resultLen(v any) int {
	switch r := v.(type) {
	case []CLILocation:
		return len(r)
	case []CLIFile:
		return len(r)
	case []CLITiming:
		return len(r)
	case nil:
		return 0
	default:
		return 1
	}
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}

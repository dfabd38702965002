package main

import (
	"time"

	"github.com/jward/localnav"
)

// CLIResult is the top-level JSON envelope for all commands that print results.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLILocation is a JSON-friendly occurrence.
type CLILocation struct {
	File       string `json:"file"`
	Symbol     string `json:"symbol"`
	Kind       string `json:"kind"`
	Definition bool   `json:"definition"`
	StartLine  int    `json:"start_line"`
	StartCol   int    `json:"start_col"`
	EndLine    int    `json:"end_line"`
	EndCol     int    `json:"end_col"`
}

// CLIFile is a JSON-friendly file representation.
type CLIFile struct {
	ID          int64  `json:"id"`
	Path        string `json:"path"`
	Language    string `json:"language"`
	LineCount   int    `json:"line_count"`
	LastIndexed string `json:"last_indexed"`
}

// CLITiming is one row of the perf report.
type CLITiming struct {
	File        string  `json:"file"`
	Language    string  `json:"language"`
	Size        int     `json:"size"`
	DurationMS  float64 `json:"duration_ms"`
	Occurrences int     `json:"occurrences"`
}

func locationsToCLI(locs []localnav.Location) []CLILocation {
	out := make([]CLILocation, 0, len(locs))
	for _, l := range locs {
		out = append(out, CLILocation{
			File:       l.File,
			Symbol:     l.Symbol,
			Kind:       l.Kind,
			Definition: l.Definition,
			StartLine:  l.StartLine,
			StartCol:   l.StartCol,
			EndLine:    l.EndLine,
			EndCol:     l.EndCol,
		})
	}
	return out
}

func filesToCLI(files []*localnav.File) []CLIFile {
	out := make([]CLIFile, 0, len(files))
	for _, f := range files {
		out = append(out, CLIFile{
			ID:          f.ID,
			Path:        f.Path,
			Language:    f.Language,
			LineCount:   f.LineCount,
			LastIndexed: f.LastIndexed.UTC().Format(time.RFC3339),
		})
	}
	return out
}

func timingsToCLI(timings []localnav.FileTiming) []CLITiming {
	out := make([]CLITiming, 0, len(timings))
	for _, t := range timings {
		out = append(out, CLITiming{
			File:        t.Path,
			Language:    t.Language,
			Size:        t.Size,
			DurationMS:  float64(t.Duration.Microseconds()) / 1000,
			Occurrences: t.Occurrences,
		})
	}
	return out
}

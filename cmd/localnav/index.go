package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/localnav"
	"github.com/jward/localnav/internal/config"
)

var (
	flagForce     bool
	flagLanguages string
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a directory for local navigation",
	Long:  "Parses source files with tree-sitter, resolves local bindings with the locals queries, and writes the occurrences to the SQLite database. Unchanged files are skipped.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&flagForce, "force", false, "re-resolve every file even when unchanged")
	indexCmd.Flags().StringVar(&flagLanguages, "languages", "", "comma-separated language filter (e.g. go,javascript)")
}

func runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()

	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return err
	}
	repoRoot := findRepoRoot(targetDir)
	dbPath := resolveDBPath(repoRoot, flagDB, projectConfig)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err)
	}

	opts := engineOptions(projectConfig, flagLanguages)
	opts = append(opts, localnav.WithForce(flagForce))

	engine, err := localnav.New(dbPath, opts...)
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}
	defer engine.Close()

	ctx, stop := notifyContext(cmd)
	defer stop()

	if err := engine.IndexDirectory(ctx, targetDir); err != nil {
		return fmt.Errorf("indexing: %w", err)
	}

	files, occs, err := engine.Store().Counts()
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Indexed %s in %s (%d files, %d occurrences)\n",
		targetDir, time.Since(start).Round(time.Millisecond), files, occs)
	fmt.Fprintf(os.Stderr, "Database: %s\n", dbPath)
	return nil
}

// engineOptions maps the project configuration onto Engine options. A
// non-empty languages flag overrides the configured languages.
func engineOptions(cfg config.Config, languages string) []localnav.Option {
	langs := cfg.Languages
	if languages != "" {
		langs = splitList(languages)
	}
	return []localnav.Option{
		localnav.WithLanguages(langs...),
		localnav.WithParallel(cfg.Parallel),
		localnav.WithWorkers(cfg.Workers),
		localnav.WithSkipDirs(cfg.SkipDirs...),
	}
}

// splitList splits a comma-separated flag value, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// notifyContext is the context shared by long-running commands.
func notifyContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt)
}

package main

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jward/localnav/internal/config"
)

var (
	flagDB      string
	flagFormat  string
	flagConfig  string
	flagVerbose bool
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

// projectConfig is loaded before every command runs.
var projectConfig = config.Default()

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "localnav",
	Short:         "Scope-aware local variable navigation",
	Long:          "localnav resolves local bindings with tree-sitter locals queries and stores the occurrences in a SQLite index for go-to-definition and find-references.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := validateFormat(flagFormat); err != nil {
			return err
		}
		return setup()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default: db from "+config.FileName+", relative to repo root)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "configuration file (default: nearest "+config.FileName+")")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(scipCmd)
	rootCmd.AddCommand(perfCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(runCmd)
}

// setup loads the project configuration and applies its log level.
func setup() error {
	cfg, err := loadConfig(flagConfig)
	if err != nil {
		return err
	}
	projectConfig = cfg

	lvl, err := cfg.Level()
	if err != nil {
		return err
	}
	if flagVerbose {
		lvl = log.DebugLevel
	}
	log.SetLevel(lvl)
	return nil
}

// loadConfig reads path when given, otherwise the nearest config file above
// the working directory.
func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return config.Config{}, fmt.Errorf("getting cwd: %w", err)
	}
	return config.Discover(cwd)
}

// resolveTargetDir returns the absolute path of the directory to operate on.
func resolveTargetDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

// findRepoRoot walks up from startDir looking for a .git directory.
// Returns the directory containing .git, or startDir if not found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}

// resolveDBPath returns the database path from --db, else the configured db.
// Relative paths are anchored at repoRoot.
func resolveDBPath(repoRoot, flagValue string, cfg config.Config) string {
	p := flagValue
	if p == "" {
		p = cfg.DB
	}
	if p == "" {
		p = config.Default().DB
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(repoRoot, p)
}

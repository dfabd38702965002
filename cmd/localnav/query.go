package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jward/localnav"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the local navigation index",
	Long:  "Run queries against an indexed directory. All line and column numbers are 0-based.",
}

var flagLanguage string

func init() {
	filesCmd.Flags().StringVar(&flagLanguage, "language", "", "only list files of this language")

	queryCmd.AddCommand(definitionCmd)
	queryCmd.AddCommand(referencesCmd)
	queryCmd.AddCommand(occurrencesCmd)
	queryCmd.AddCommand(filesCmd)
}

var definitionCmd = &cobra.Command{
	Use:   "definition <file> <line> <col>",
	Short: "Find the definition of the local at a position",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPositionQuery("definition", args, (*localnav.QueryBuilder).DefinitionAt)
	},
}

var referencesCmd = &cobra.Command{
	Use:   "references <file> <line> <col>",
	Short: "Find every reference to the local at a position",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPositionQuery("references", args, (*localnav.QueryBuilder).ReferencesAt)
	},
}

var occurrencesCmd = &cobra.Command{
	Use:   "occurrences <file>",
	Short: "List the local occurrences of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		const command = "occurrences"
		engine, err := openEngine()
		if err != nil {
			return outputError(command, err)
		}
		defer engine.Close()

		file, err := resolveFilePath(args[0])
		if err != nil {
			return outputError(command, err)
		}
		locs, err := engine.Query().Occurrences(file)
		if err != nil {
			return outputError(command, err)
		}
		results := locationsToCLI(locs)
		total := len(results)
		return outputResult(CLIResult{Command: command, Results: results, TotalCount: &total})
	},
}

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List indexed files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		const command = "files"
		engine, err := openEngine()
		if err != nil {
			return outputError(command, err)
		}
		defer engine.Close()

		var files []*localnav.File
		if flagLanguage != "" {
			files, err = engine.Store().FilesByLanguage(flagLanguage)
		} else {
			files, err = engine.Query().Files()
		}
		if err != nil {
			return outputError(command, err)
		}
		results := filesToCLI(files)
		total := len(results)
		return outputResult(CLIResult{Command: command, Results: results, TotalCount: &total})
	},
}

type positionQuery func(q *localnav.QueryBuilder, file string, line, col int) ([]localnav.Location, error)

// runPositionQuery handles the <file> <line> <col> commands.
func runPositionQuery(command string, args []string, query positionQuery) error {
	file, err := resolveFilePath(args[0])
	if err != nil {
		return outputError(command, err)
	}
	line, err := parseIntArg(args[1], "line")
	if err != nil {
		return outputError(command, err)
	}
	col, err := parseIntArg(args[2], "col")
	if err != nil {
		return outputError(command, err)
	}

	engine, err := openEngine()
	if err != nil {
		return outputError(command, err)
	}
	defer engine.Close()

	locs, err := query(engine.Query(), file, line, col)
	if err != nil {
		return outputError(command, err)
	}
	results := locationsToCLI(locs)
	total := len(results)
	return outputResult(CLIResult{Command: command, Results: results, TotalCount: &total})
}

// --- Helpers ---

// openEngine opens the Engine over an existing database from --db or the
// project configuration.
func openEngine() (*localnav.Engine, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting cwd: %w", err)
	}
	dbPath := resolveDBPath(findRepoRoot(cwd), flagDB, projectConfig)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database not found: %s (run 'localnav index' first)", dbPath)
	}
	return localnav.New(dbPath, engineOptions(projectConfig, "")...)
}

// resolveFilePath converts a file argument to an absolute path.
// If the path is already absolute, it's returned as-is.
// Otherwise, it's resolved relative to the current working directory.
func resolveFilePath(file string) (string, error) {
	if filepath.IsAbs(file) {
		return file, nil
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", fmt.Errorf("resolving file path %q: %w", file, err)
	}
	return abs, nil
}

// parseIntArg parses a positional argument as an integer with a clear error.
func parseIntArg(value, name string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be a non-negative integer", name, value)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid %s %q: must be non-negative", name, value)
	}
	return n, nil
}

// outputResult marshals a CLIResult to stdout in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(os.Stdout, result)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	result := CLIResult{
		Command: command,
		Error:   err.Error(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
	return err
}

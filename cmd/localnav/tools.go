package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jward/localnav"
	"github.com/jward/localnav/internal/runtime"
)

var (
	flagOutput string
	flagTop    int
)

var scipCmd = &cobra.Command{
	Use:   "scip [path]",
	Short: "Export the index as a SCIP file",
	Long:  "Writes every indexed file under path as a SCIP document. Local symbols keep their \"local N\" names.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSCIP,
}

var perfCmd = &cobra.Command{
	Use:   "perf [path]",
	Short: "Time local resolution per file",
	Long:  "Parses and resolves every supported file under path without touching the index and reports the slowest files.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPerf,
}

var dumpCmd = &cobra.Command{
	Use:   "dump <file>",
	Short: "Print the scope tree of a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

var runCmd = &cobra.Command{
	Use:   "run <script.risor>",
	Short: "Run a Risor script against the index",
	Args:  cobra.ExactArgs(1),
	RunE:  runScript,
}

func init() {
	scipCmd.Flags().StringVarP(&flagOutput, "output", "o", "index.scip", "output file, - for stdout")
	perfCmd.Flags().IntVar(&flagTop, "top", 10, "number of files to report, 0 for all")
}

func runSCIP(cmd *cobra.Command, args []string) error {
	root, err := resolveTargetDir(args)
	if err != nil {
		return err
	}
	engine, err := openEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	if flagOutput == "-" {
		return engine.WriteSCIP(os.Stdout, root)
	}
	f, err := os.Create(flagOutput)
	if err != nil {
		return fmt.Errorf("creating %s: %w", flagOutput, err)
	}
	if err := engine.WriteSCIP(f, root); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Wrote %s\n", flagOutput)
	return nil
}

func runPerf(cmd *cobra.Command, args []string) error {
	const command = "perf"
	root, err := resolveTargetDir(args)
	if err != nil {
		return outputError(command, err)
	}

	// Profiling never writes to the index, so a throwaway database is enough.
	tmp, err := os.MkdirTemp("", "localnav-perf-")
	if err != nil {
		return outputError(command, err)
	}
	defer os.RemoveAll(tmp)

	engine, err := localnav.New(filepath.Join(tmp, "perf.db"), engineOptions(projectConfig, "")...)
	if err != nil {
		return outputError(command, err)
	}
	defer engine.Close()

	ctx, stop := notifyContext(cmd)
	defer stop()

	paths, err := engine.ListFiles(root)
	if err != nil {
		return outputError(command, err)
	}
	timings, err := engine.Profile(ctx, paths)
	if err != nil {
		return outputError(command, err)
	}
	total := len(timings)
	if flagTop > 0 && len(timings) > flagTop {
		timings = timings[:flagTop]
	}
	return outputResult(CLIResult{Command: command, Results: timingsToCLI(timings), TotalCount: &total})
}

func runDump(cmd *cobra.Command, args []string) error {
	const command = "dump"
	file, err := resolveFilePath(args[0])
	if err != nil {
		return outputError(command, err)
	}
	var buf bytes.Buffer
	if err := runtime.DumpFile(cmd.Context(), runtime.DefaultConfigs(), file, &buf); err != nil {
		return outputError(command, err)
	}
	return outputResult(CLIResult{Command: command, Results: buf.String()})
}

func runScript(cmd *cobra.Command, args []string) error {
	script, err := resolveFilePath(args[0])
	if err != nil {
		return err
	}
	engine, err := openEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx, stop := notifyContext(cmd)
	defer stop()

	return engine.RunScript(ctx, script, map[string]any{"script_path": script})
}


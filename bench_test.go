package localnav

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/jward/localnav/internal/runtime"
)

// benchGoSource is a realistic ~100-line Go file with functions, structs,
// interfaces, and method calls for exercising the full resolution pipeline.
const benchGoSource = `package bench

import (
	"fmt"
	"strings"
)

// Logger defines a logging interface.
type Logger interface {
	Log(msg string)
	Logf(format string, args ...interface{})
}

// Config holds application configuration.
type Config struct {
	Name    string
	Debug   bool
	MaxRetry int
	Tags    []string
}

// Validate checks the config for correctness.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if c.MaxRetry < 0 {
		return fmt.Errorf("max_retry must be non-negative")
	}
	return nil
}

// String returns a human-readable representation.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Name: %s, Debug: %v}", c.Name, c.Debug)
}

// HasTag reports whether the config includes the given tag.
func (c *Config) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// StdoutLogger implements Logger by writing to stdout.
type StdoutLogger struct {
	Prefix string
}

// Log writes a plain message.
func (l *StdoutLogger) Log(msg string) {
	fmt.Printf("[%s] %s\n", l.Prefix, msg)
}

// Logf writes a formatted message.
func (l *StdoutLogger) Logf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.Log(msg)
}

// NewApp creates and returns an initialized App.
func NewApp(cfg *Config, log Logger) *App {
	return &App{config: cfg, logger: log}
}

// App is the main application struct.
type App struct {
	config *Config
	logger Logger
}

// Run starts the application.
func (a *App) Run() error {
	if err := a.config.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	a.logger.Logf("starting %s", a.config.Name)
	a.process()
	return nil
}

// process does the main work.
func (a *App) process() {
	tags := strings.Join(a.config.Tags, ", ")
	a.logger.Logf("processing with tags: %s", tags)
}

// BuildGreeting constructs a greeting string.
func BuildGreeting(name string) string {
	return fmt.Sprintf("Hello, %s!", name)
}

// CountWords returns the number of words in s.
func CountWords(s string) int {
	return len(strings.Fields(s))
}
`

// setupBenchEngine creates an Engine and a Go source file, returning the
// engine and the file path. Caller must close the engine.
func setupBenchEngine(b *testing.B, opts ...Option) (*Engine, string) {
	b.Helper()
	dir := b.TempDir()
	e, err := New(filepath.Join(dir, "bench.db"), opts...)
	if err != nil {
		b.Fatal(err)
	}

	srcPath := filepath.Join(dir, "bench.go")
	if err := os.WriteFile(srcPath, []byte(benchGoSource), 0644); err != nil {
		e.Close()
		b.Fatal(err)
	}
	return e, srcPath
}

// BenchmarkResolveSource_Go measures parse plus local resolution of a
// realistic Go source file, without storage.
func BenchmarkResolveSource_Go(b *testing.B) {
	cfg, err := runtime.ConfigForLanguage("go")
	if err != nil {
		b.Fatal(err)
	}
	src := []byte(benchGoSource)
	ctx := context.Background()

	b.SetBytes(int64(len(src)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := runtime.ResolveSource(ctx, cfg, src); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkIndexFiles_Go measures indexing one file, including the SQLite
// writes.
func BenchmarkIndexFiles_Go(b *testing.B) {
	ctx := context.Background()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		e, srcPath := setupBenchEngine(b, WithParallel(false))
		b.StartTimer()

		if err := e.IndexFiles(ctx, []string{srcPath}); err != nil {
			e.Close()
			b.Fatal(err)
		}

		b.StopTimer()
		e.Close()
		b.StartTimer()
	}
}

// BenchmarkIndexFiles_Parallel measures the parallel pipeline over many
// copies of the benchmark file.
func BenchmarkIndexFiles_Parallel(b *testing.B) {
	ctx := context.Background()
	const files = 32
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		dir := b.TempDir()
		e, err := New(filepath.Join(dir, "bench.db"))
		if err != nil {
			b.Fatal(err)
		}
		paths := make([]string, files)
		for j := range paths {
			paths[j] = filepath.Join(dir, fmt.Sprintf("f%02d.go", j))
			if err := os.WriteFile(paths[j], []byte(benchGoSource), 0644); err != nil {
				e.Close()
				b.Fatal(err)
			}
		}
		b.StartTimer()

		if err := e.IndexFiles(ctx, paths); err != nil {
			e.Close()
			b.Fatal(err)
		}

		b.StopTimer()
		e.Close()
		b.StartTimer()
	}
}

// BenchmarkQueryDefinitionAt measures the query path only.
func BenchmarkQueryDefinitionAt(b *testing.B) {
	e, srcPath := setupBenchEngine(b)
	defer e.Close()
	ctx := context.Background()

	if err := e.IndexFiles(ctx, []string{srcPath}); err != nil {
		b.Fatal(err)
	}
	q := e.Query()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := q.DefinitionAt(srcPath, 73, 35); err != nil {
			b.Fatal(err)
		}
	}
}

package localnav

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jward/localnav/internal/runtime"
)

// FileTiming is the parse and resolve time of one file.
type FileTiming struct {
	Path        string
	Language    string
	Size        int
	Duration    time.Duration
	Occurrences int
}

// Profile parses and resolves each supported file in paths without touching
// the index and returns the timings slowest first. Files that cannot be read
// or resolved are logged and skipped.
func (e *Engine) Profile(ctx context.Context, paths []string) ([]FileTiming, error) {
	var timings []FileTiming
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lang, ok := runtime.LanguageForFile(path)
		if !ok || (e.languages != nil && !e.languages[lang]) {
			continue
		}
		cfg, err := e.configs.For(lang)
		if err != nil {
			return nil, fmt.Errorf("profile: %w", err)
		}

		start := time.Now()
		src, err := os.ReadFile(path)
		if err != nil {
			log.WithError(err).WithField("path", path).Warn("skipping")
			continue
		}
		occs, err := runtime.ResolveSource(ctx, cfg, src)
		if err != nil {
			log.WithError(err).WithField("path", path).Warn("skipping")
			continue
		}
		timings = append(timings, FileTiming{
			Path:        path,
			Language:    lang,
			Size:        len(src),
			Duration:    time.Since(start),
			Occurrences: len(occs),
		})
	}
	slices.SortStableFunc(timings, func(a, b FileTiming) int {
		return cmp.Compare(b.Duration, a.Duration)
	})
	return timings, nil
}

// ListFiles returns the absolute paths of the supported files under root,
// discovered the way IndexDirectory does.
func (e *Engine) ListFiles(root string) ([]string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("localnav: %w", err)
	}
	paths, err := e.gitListFiles(abs)
	if err != nil {
		log.WithError(err).Debug("git listing unavailable, walking directory")
		return e.walkListFiles(abs)
	}
	return paths, nil
}

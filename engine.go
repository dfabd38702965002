package localnav

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"fortio.org/safecast"
	log "github.com/sirupsen/logrus"

	"github.com/jward/localnav/internal/locals"
	"github.com/jward/localnav/internal/runtime"
	"github.com/jward/localnav/internal/store"
)

const queriesHashKey = "queries_hash"

// Engine orchestrates the localnav pipeline: file discovery, change
// detection, local binding resolution and query access.
type Engine struct {
	store     *store.Store
	configs   *runtime.Configs
	languages map[string]bool // nil means all languages
	skipDirs  map[string]bool

	// useParallel enables the parallel resolution pipeline.
	useParallel bool
	workers     int
	force       bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLanguages restricts which languages the Engine will process.
func WithLanguages(languages ...string) Option {
	return func(e *Engine) {
		if len(languages) == 0 {
			e.languages = nil
			return
		}
		e.languages = make(map[string]bool, len(languages))
		for _, lang := range languages {
			e.languages[lang] = true
		}
	}
}

// WithParallel controls parallel resolution. When true (default), IndexFiles
// resolves files on a bounded worker pool and commits their batches from a
// single goroutine. Set to false for serial mode.
func WithParallel(parallel bool) Option {
	return func(e *Engine) {
		e.useParallel = parallel
	}
}

// WithWorkers bounds the parallel pipeline. Zero or less means one worker
// per CPU.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// WithSkipDirs adds directory names skipped by the filesystem walk.
func WithSkipDirs(names ...string) Option {
	return func(e *Engine) {
		for _, name := range names {
			e.skipDirs[name] = true
		}
	}
}

// WithQueriesFS loads locals queries from fsys instead of the built-in set.
func WithQueriesFS(fsys fs.FS) Option {
	return func(e *Engine) {
		e.configs = runtime.NewConfigs(fsys)
	}
}

// WithForce re-resolves every file even when its content is unchanged.
func WithForce(force bool) Option {
	return func(e *Engine) {
		e.force = force
	}
}

// New creates an Engine backed by a SQLite database at dbPath.
func New(dbPath string, opts ...Option) (*Engine, error) {
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("localnav: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("localnav: migrate: %w", err)
	}

	e := &Engine{
		store:       s,
		configs:     runtime.DefaultConfigs(),
		skipDirs:    map[string]bool{"node_modules": true, "vendor": true, "__pycache__": true},
		useParallel: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store returns the underlying Store for direct access.
func (e *Engine) Store() *Store {
	return e.store
}

// Query returns a new QueryBuilder wrapping the Store.
func (e *Engine) Query() *QueryBuilder {
	return &QueryBuilder{store: e.store}
}

// RunScript runs a Risor script against the index. Imports resolve relative
// to the script's directory.
func (e *Engine) RunScript(ctx context.Context, path string, extraGlobals map[string]any) error {
	rt := runtime.NewRuntime(e.store, filepath.Dir(path), runtime.WithConfigs(e.configs))
	return rt.RunScript(ctx, filepath.Base(path), extraGlobals)
}

// QueriesChanged reports whether the locals queries differ from the ones
// the database was built with. True on first run.
func (e *Engine) QueriesChanged() (bool, error) {
	current, err := e.configs.Hash()
	if err != nil {
		return false, fmt.Errorf("hash queries: %w", err)
	}
	stored, err := e.store.GetMetadata(queriesHashKey)
	if err != nil {
		return false, err
	}
	return stored != current, nil
}

func (e *Engine) storeQueriesHash() error {
	current, err := e.configs.Hash()
	if err != nil {
		return fmt.Errorf("hash queries: %w", err)
	}
	return e.store.SetMetadata(queriesHashKey, current)
}

// workItem holds everything a resolution worker needs for one file.
type workItem struct {
	path    string
	lang    string
	fileID  int64
	content []byte
	batch   *store.BatchedStore
}

// IndexFiles indexes the given file paths.
//
// For each file:
//  1. Detect language from extension, skip unsupported or filtered-out ones
//  2. Skip unchanged files (same content hash) unless the queries changed
//  3. Delete stale data, insert the file record
//  4. Resolve local bindings and store the occurrences
//
// A file that fails to resolve is left out of the index entirely; the others
// are still committed and the failures are reported together.
func (e *Engine) IndexFiles(ctx context.Context, paths []string) error {
	if err := e.invalidateOnQueryChange(); err != nil {
		return fmt.Errorf("localnav: %w", err)
	}

	start := time.Now()
	var indexed int
	var err error
	if e.useParallel {
		indexed, err = e.indexFilesParallel(ctx, paths)
	} else {
		indexed, err = e.indexFilesSerial(ctx, paths)
	}
	log.WithFields(log.Fields{
		"files":    len(paths),
		"indexed":  indexed,
		"parallel": e.useParallel,
		"elapsed":  time.Since(start),
	}).Info("index complete")
	return err
}

// invalidateOnQueryChange clears every stored file hash when the queries
// differ from the recorded ones, then records the current queries. A file
// this run does not reach keeps a blank hash until it is next indexed.
func (e *Engine) invalidateOnQueryChange() error {
	changed, err := e.QueriesChanged()
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	log.Debug("locals queries changed, re-resolving every file")
	if err := e.store.ClearFileHashes(); err != nil {
		return err
	}
	return e.storeQueriesHash()
}

func (e *Engine) indexFilesSerial(ctx context.Context, paths []string) (int, error) {
	var errs []error
	indexed := 0
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return indexed, err
		}
		item, skip, err := e.prepareFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("index %s: %w", path, err))
			continue
		}
		if skip {
			continue
		}
		if err := e.resolveFile(ctx, item, e.store); err != nil {
			e.dropFile(item)
			errs = append(errs, fmt.Errorf("index %s: %w", path, err))
			continue
		}
		indexed++
	}
	if len(errs) > 0 {
		return indexed, fmt.Errorf("indexing had %d error(s): %w", len(errs), errs[0])
	}
	return indexed, nil
}

// prepareFile does the serial work for a single file: hash check, cleanup
// and the file record. skip=true means the file is unchanged or unsupported.
func (e *Engine) prepareFile(path string) (workItem, bool, error) {
	lang, ok := runtime.LanguageForFile(path)
	if !ok {
		return workItem{}, true, nil
	}
	if e.languages != nil && !e.languages[lang] {
		return workItem{}, true, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return workItem{}, false, fmt.Errorf("read file: %w", err)
	}
	hash := fmt.Sprintf("%x", sha256.Sum256(content))

	existing, err := e.store.FileByPath(path)
	if err != nil {
		return workItem{}, false, fmt.Errorf("lookup file: %w", err)
	}
	if existing != nil && existing.Hash == hash && !e.force {
		log.WithField("path", path).Debug("unchanged, skipping")
		return workItem{}, true, nil
	}
	if existing != nil {
		if err := e.store.DeleteFileData(existing.ID); err != nil {
			return workItem{}, false, fmt.Errorf("delete old data: %w", err)
		}
	}

	fileID, err := e.store.InsertFile(&store.File{
		Path:        path,
		Language:    lang,
		Hash:        hash,
		LineCount:   bytes.Count(content, []byte{'\n'}) + 1,
		LastIndexed: time.Now(),
	})
	if err != nil {
		return workItem{}, false, fmt.Errorf("insert file: %w", err)
	}
	return workItem{path: path, lang: lang, fileID: fileID, content: content}, false, nil
}

// resolveFile resolves one file and writes its occurrences to ds.
func (e *Engine) resolveFile(ctx context.Context, item workItem, ds store.DataStore) error {
	cfg, err := e.configs.For(item.lang)
	if err != nil {
		return err
	}
	start := time.Now()
	occs, err := runtime.ResolveSource(ctx, cfg, item.content)
	if err != nil {
		return err
	}
	for _, occ := range occs {
		stored, err := toStoredOccurrence(item.fileID, occ)
		if err != nil {
			return err
		}
		if _, err := ds.InsertOccurrence(stored); err != nil {
			return fmt.Errorf("insert occurrence: %w", err)
		}
	}
	log.WithFields(log.Fields{
		"path":        item.path,
		"occurrences": len(occs),
		"elapsed":     time.Since(start),
	}).Debug("resolved file")
	return nil
}

// dropFile removes the record of a file that failed to resolve so the next
// run retries it.
func (e *Engine) dropFile(item workItem) {
	if err := e.store.DeleteFileData(item.fileID); err != nil {
		log.WithError(err).WithField("path", item.path).Warn("could not remove failed file")
	}
}

func toStoredOccurrence(fileID int64, occ locals.Occurrence) (*store.Occurrence, error) {
	var pos [4]int
	for i, v := range []uint32{occ.Range.Start.Row, occ.Range.Start.Column, occ.Range.End.Row, occ.Range.End.Column} {
		n, err := safecast.Conv[int](v)
		if err != nil {
			return nil, fmt.Errorf("occurrence position: %w", err)
		}
		pos[i] = n
	}
	return &store.Occurrence{
		FileID:    fileID,
		Symbol:    occ.Symbol(),
		Roles:     int(occ.Role),
		Kind:      occ.Kind,
		StartLine: pos[0],
		StartCol:  pos[1],
		EndLine:   pos[2],
		EndCol:    pos[3],
	}, nil
}

// IndexDirectory walks root and indexes all files with supported extensions.
// If root is inside a git repository, uses git ls-files to respect
// .gitignore. Falls back to a filesystem walk that skips hidden directories
// and the configured skip dirs. Indexed files under root that no longer
// exist are removed.
func (e *Engine) IndexDirectory(ctx context.Context, root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("localnav: %w", err)
	}
	paths, err := e.ListFiles(abs)
	if err != nil {
		return err
	}
	if err := e.pruneMissing(abs, paths); err != nil {
		return err
	}
	return e.IndexFiles(ctx, paths)
}

// gitListFiles uses git ls-files to discover tracked and untracked (but not
// ignored) files under root, filtered to supported languages.
func (e *Engine) gitListFiles(root string) ([]string, error) {
	cmd := exec.Command("git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-files: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	var paths []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		absPath := filepath.Join(root, line)
		if _, ok := runtime.LanguageForFile(absPath); !ok {
			continue
		}
		// --cached still lists tracked files deleted from the worktree.
		if _, err := os.Stat(absPath); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		paths = append(paths, absPath)
	}
	return paths, nil
}

// walkListFiles discovers files by walking the filesystem.
func (e *Engine) walkListFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || e.skipDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := runtime.LanguageForFile(path); ok {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}
	return paths, nil
}

// pruneMissing deletes indexed files under root that are not in present.
func (e *Engine) pruneMissing(root string, present []string) error {
	files, err := e.store.Files()
	if err != nil {
		return fmt.Errorf("localnav: list files: %w", err)
	}
	keep := make(map[string]bool, len(present))
	for _, p := range present {
		keep[p] = true
	}
	prefix := root + string(filepath.Separator)
	var gone []int64
	for _, f := range files {
		if strings.HasPrefix(f.Path, prefix) && !keep[f.Path] {
			gone = append(gone, f.ID)
		}
	}
	if len(gone) == 0 {
		return nil
	}
	log.WithField("files", len(gone)).Debug("removing deleted files from index")
	if err := e.store.DeleteFiles(gone); err != nil {
		return fmt.Errorf("localnav: prune: %w", err)
	}
	return nil
}

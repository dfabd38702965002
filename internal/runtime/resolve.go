package runtime

import (
	"context"
	"fmt"
	"io"
	"os"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/localnav/internal/locals"
)

// ResolveSource parses src with the configuration's grammar and resolves its
// local bindings.
func ResolveSource(ctx context.Context, cfg *LocalConfiguration, src []byte) ([]locals.Occurrence, error) {
	var occs []locals.Occurrence
	err := withScopeTree(ctx, cfg, src, func(t *locals.Tree) error {
		occs = t.Occurrences()
		return nil
	})
	return occs, err
}

// ResolveFile reads path, picks its language by extension and resolves it.
func ResolveFile(ctx context.Context, configs *Configs, path string) (string, []locals.Occurrence, error) {
	cfg, src, err := loadFile(configs, path)
	if err != nil {
		return "", nil, err
	}
	occs, err := ResolveSource(ctx, cfg, src)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg.Language, occs, nil
}

// DumpFile writes the scope tree of path to w.
func DumpFile(ctx context.Context, configs *Configs, path string, w io.Writer) error {
	cfg, src, err := loadFile(configs, path)
	if err != nil {
		return err
	}
	err = withScopeTree(ctx, cfg, src, func(t *locals.Tree) error {
		return t.Dump(w)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func loadFile(configs *Configs, path string) (*LocalConfiguration, []byte, error) {
	lang, ok := LanguageForFile(path)
	if !ok {
		return nil, nil, fmt.Errorf("%s: %w", path, ErrUnsupportedLanguage)
	}
	cfg, err := configs.For(lang)
	if err != nil {
		return nil, nil, err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return cfg, src, nil
}

// withScopeTree parses src and hands the built scope tree to fn. The syntax
// tree, and with it every node the scope tree refers to, is released when
// fn returns.
func withScopeTree(ctx context.Context, cfg *LocalConfiguration, src []byte, fn func(*locals.Tree) error) error {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(cfg.Grammar)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	defer tree.Close()

	captures := CollectCaptures(cfg, tree.RootNode(), src)
	scopes, err := locals.Build(src, captures)
	if err != nil {
		return err
	}
	return fn(scopes)
}

package localnav

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"fortio.org/safecast"
	"github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/proto"

	"github.com/jward/localnav/internal/locals"
	"github.com/jward/localnav/internal/store"
)

// Version is reported as the tool version in exported indexes.
const Version = "0.1.0"

// symbolKinds maps capture kinds to SCIP symbol kinds. Unlisted kinds are
// exported without a kind.
var symbolKinds = map[string]scip.SymbolInformation_Kind{
	"var":       scip.SymbolInformation_Variable,
	"let":       scip.SymbolInformation_Variable,
	"const":     scip.SymbolInformation_Constant,
	"parameter": scip.SymbolInformation_Parameter,
	"function":  scip.SymbolInformation_Function,
}

// BuildSCIP assembles a SCIP index with one document per indexed file under
// projectRoot. Document paths are relative to projectRoot.
func (e *Engine) BuildSCIP(projectRoot string) (*scip.Index, error) {
	root, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("scip: %w", err)
	}
	files, err := e.store.Files()
	if err != nil {
		return nil, fmt.Errorf("scip: %w", err)
	}

	index := &scip.Index{
		Metadata: &scip.Metadata{
			Version:              scip.ProtocolVersion_UnspecifiedProtocolVersion,
			ToolInfo:             &scip.ToolInfo{Name: "localnav", Version: Version},
			ProjectRoot:          "file://" + filepath.ToSlash(root),
			TextDocumentEncoding: scip.TextEncoding_UTF8,
		},
	}
	for _, f := range files {
		abs, err := filepath.Abs(f.Path)
		if err != nil {
			return nil, fmt.Errorf("scip: %w", err)
		}
		rel, err := filepath.Rel(root, abs)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		doc, err := e.scipDocument(f, filepath.ToSlash(rel))
		if err != nil {
			return nil, fmt.Errorf("scip: %s: %w", f.Path, err)
		}
		index.Documents = append(index.Documents, doc)
	}
	return index, nil
}

// WriteSCIP writes the SCIP index of projectRoot to w in protobuf form.
func (e *Engine) WriteSCIP(w io.Writer, projectRoot string) error {
	index, err := e.BuildSCIP(projectRoot)
	if err != nil {
		return err
	}
	data, err := proto.Marshal(index)
	if err != nil {
		return fmt.Errorf("scip: marshal: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("scip: write: %w", err)
	}
	return nil
}

func (e *Engine) scipDocument(f *store.File, relPath string) (*scip.Document, error) {
	occs, err := e.store.OccurrencesByFile(f.ID)
	if err != nil {
		return nil, err
	}
	doc := &scip.Document{Language: f.Language, RelativePath: relPath}
	for _, o := range occs {
		rng, err := locals.CompactRange(o.StartLine, o.StartCol, o.EndLine, o.EndCol)
		if err != nil {
			return nil, fmt.Errorf("%s: range: %w", relPath, err)
		}
		roles, err := safecast.Conv[int32](o.Roles)
		if err != nil {
			return nil, err
		}
		doc.Occurrences = append(doc.Occurrences, &scip.Occurrence{
			Range:       rng,
			Symbol:      o.Symbol,
			SymbolRoles: roles,
		})
		if o.IsDefinition() {
			doc.Symbols = append(doc.Symbols, &scip.SymbolInformation{
				Symbol: o.Symbol,
				Kind:   symbolKinds[o.Kind],
			})
		}
	}
	return doc, nil
}

// Package scipfacts converts an on-disk SCIP index into file-level
// adjacency facts: a file depends on every file that defines a symbol it
// references. This lets SCIP-indexed repositories feed the dependency
// graph without a language-specific import parser.
package scipfacts

import (
	"fmt"
	"os"
	"sort"

	scippb "github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/proto"

	"insight/internal/depgraph"
	"insight/internal/errors"
)

// Load reads a SCIP index from path and converts it to adjacency facts.
func Load(path string) ([]depgraph.Fact, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.New(
			errors.IndexMissing,
			fmt.Sprintf("SCIP index not found at %s", path),
			err,
		)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(
			errors.InternalError,
			fmt.Sprintf("failed to read SCIP index from %s", path),
			err,
		)
	}

	var index scippb.Index
	if err := proto.Unmarshal(data, &index); err != nil {
		return nil, errors.New(
			errors.FactsInvalid,
			fmt.Sprintf("failed to parse SCIP index from %s", path),
			err,
		)
	}

	return FromIndex(&index), nil
}

// FromIndex converts an in-memory SCIP index to adjacency facts, one per
// document, ordered by path. Self-dependencies from local references are
// dropped; a file does not depend on itself.
func FromIndex(index *scippb.Index) []depgraph.Fact {
	if index == nil {
		return nil
	}

	// First pass: map each symbol to the file that defines it.
	definedIn := make(map[string]string)
	for _, doc := range index.Documents {
		for _, occ := range doc.Occurrences {
			if occ.SymbolRoles&int32(scippb.SymbolRole_Definition) != 0 {
				definedIn[occ.Symbol] = doc.RelativePath
			}
		}
	}

	// Second pass: every reference to a symbol defined elsewhere is a
	// file-level dependency edge.
	deps := make(map[string]map[string]struct{}, len(index.Documents))
	for _, doc := range index.Documents {
		if _, ok := deps[doc.RelativePath]; !ok {
			deps[doc.RelativePath] = make(map[string]struct{})
		}
		for _, occ := range doc.Occurrences {
			if occ.SymbolRoles&int32(scippb.SymbolRole_Definition) != 0 {
				continue
			}
			target, ok := definedIn[occ.Symbol]
			if !ok || target == doc.RelativePath {
				continue
			}
			deps[doc.RelativePath][target] = struct{}{}
		}
	}

	paths := make([]string, 0, len(deps))
	for path := range deps {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	facts := make([]depgraph.Fact, 0, len(paths))
	for _, path := range paths {
		targets := make([]string, 0, len(deps[path]))
		for target := range deps[path] {
			targets = append(targets, target)
		}
		sort.Strings(targets)

		facts = append(facts, depgraph.Fact{
			Node:      path,
			Kind:      depgraph.FileNode,
			DependsOn: targets,
		})
	}
	return facts
}

package depgraph

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"insight/internal/errors"
)

// LoadFacts reads adjacency facts from a JSON or YAML file. The format is
// picked by extension; anything that is not .yaml/.yml is parsed as JSON.
func LoadFacts(path string) ([]Fact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.FactsInvalid,
			fmt.Sprintf("failed to read adjacency facts from %s", path), err)
	}

	var facts []Fact
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		err = yaml.Unmarshal(data, &facts)
	} else {
		err = json.Unmarshal(data, &facts)
	}
	if err != nil {
		return nil, errors.New(errors.FactsInvalid,
			fmt.Sprintf("failed to parse adjacency facts from %s", path), err)
	}

	if err := ValidateFacts(facts); err != nil {
		return nil, err
	}

	return facts, nil
}

// ValidateFacts rejects facts that cannot name a node. Unknown targets are
// fine (they auto-register); an empty node ID is not.
func ValidateFacts(facts []Fact) error {
	for i, f := range facts {
		if f.Node == "" {
			return errors.New(errors.FactsInvalid,
				fmt.Sprintf("fact %d has an empty node id", i), nil)
		}
		if f.Kind != "" && f.Kind != FileNode && f.Kind != PackageNode {
			return errors.New(errors.FactsInvalid,
				fmt.Sprintf("fact %d has unknown node kind %q", i, f.Kind), nil)
		}
	}
	return nil
}

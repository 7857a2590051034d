package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// SchemeProfile describes one disbursement scheme for display on the
// public surface. The registry, not this catalog, is authoritative for
// which scheme an identity may claim.
type SchemeProfile struct {
	Name        string `yaml:"name" json:"name"`
	Amount      int64  `yaml:"amount" json:"amount"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// SchemeCatalog is the parsed scheme profile file.
type SchemeCatalog struct {
	Schemes []SchemeProfile `yaml:"schemes" json:"schemes"`
}

// LoadSchemes parses a scheme catalog YAML, sorted by name.
func LoadSchemes(path string) (*SchemeCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scheme catalog: %w", err)
	}

	var catalog SchemeCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parse scheme catalog: %w", err)
	}

	for i, s := range catalog.Schemes {
		if s.Name == "" {
			return nil, fmt.Errorf("scheme catalog entry %d: missing name", i+1)
		}
		if s.Amount <= 0 {
			return nil, fmt.Errorf("scheme %q: amount must be positive", s.Name)
		}
	}

	sort.Slice(catalog.Schemes, func(i, j int) bool {
		return catalog.Schemes[i].Name < catalog.Schemes[j].Name
	})
	return &catalog, nil
}

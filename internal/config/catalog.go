package config

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"regdash/domain/regression"
	"regdash/internal/errors"
)

// catalogFile is the on-disk shape of VARIABLE_CATALOG
type catalogFile struct {
	Variables []regression.Variable `yaml:"variables"`
}

// LoadCatalog returns the variable catalog. An empty path means the built-in
// sample set.
func LoadCatalog(path string) (regression.Catalog, error) {
	if path == "" {
		return regression.DefaultCatalog(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ConfigInvalid(fmt.Sprintf("read variable catalog %s: %v", path, err))
	}
	catalog, err := ParseCatalog(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "variable catalog %s", path)
	}
	log.Printf("[Config] loaded %d variables from %s", len(catalog), path)
	return catalog, nil
}

// ParseCatalog decodes and validates a YAML catalog document
func ParseCatalog(raw []byte) (regression.Catalog, error) {
	var doc catalogFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.ConfigInvalid(fmt.Sprintf("invalid catalog YAML: %v", err))
	}
	catalog := regression.Catalog(doc.Variables)
	if err := catalog.Validate(); err != nil {
		return nil, errors.ConfigInvalid(err.Error())
	}
	return catalog, nil
}

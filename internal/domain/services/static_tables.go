package services

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// StaticTables is the on-disk shape of the deployable table overrides.
type StaticTables struct {
	Revalidation map[string]RevalidationRule `yaml:"revalidation"`
	Folders      map[string]string           `yaml:"folders"`
}

// LoadStaticTables builds both tables. An empty path yields the built-in defaults;
// a section missing from the file keeps its default.
func LoadStaticTables(filename string) (*RevalidationTable, *FolderMapping, error) {
	if filename == "" {
		return DefaultRevalidationTable(), DefaultFolderMapping(), nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read static tables %s: %w", filename, err)
	}

	var tables StaticTables
	if err := yaml.Unmarshal(data, &tables); err != nil {
		return nil, nil, fmt.Errorf("failed to parse static tables %s: %w", filename, err)
	}

	revalidation := DefaultRevalidationTable()
	if len(tables.Revalidation) > 0 {
		if revalidation, err = NewRevalidationTable(tables.Revalidation); err != nil {
			return nil, nil, err
		}
	}

	folders := DefaultFolderMapping()
	if len(tables.Folders) > 0 {
		if folders, err = NewFolderMapping(tables.Folders); err != nil {
			return nil, nil, err
		}
	}

	return revalidation, folders, nil
}

package services

import (
	"fmt"
	"path"
	"sort"
	"strings"
)

// FolderMapping maps legacy storage folder names to their canonical replacement.
// Immutable after construction.
type FolderMapping struct {
	targets map[string]string
}

// NewFolderMapping validates and freezes a legacy -> canonical mapping.
func NewFolderMapping(pairs map[string]string) (*FolderMapping, error) {
	targets := make(map[string]string, len(pairs))
	for legacy, canonical := range pairs {
		if err := validateFolderName(legacy); err != nil {
			return nil, fmt.Errorf("legacy folder: %w", err)
		}
		if err := validateFolderName(canonical); err != nil {
			return nil, fmt.Errorf("canonical folder for %s: %w", legacy, err)
		}
		targets[legacy] = canonical
	}
	return &FolderMapping{targets: targets}, nil
}

// DefaultFolderMapping returns the mapping shipped with the service.
func DefaultFolderMapping() *FolderMapping {
	mapping, err := NewFolderMapping(map[string]string{
		"images":         "media",
		"uploads":        "media",
		"misc":           "media",
		"product-images": "products",
		"project-images": "projects",
		"category-icons": "categories",
	})
	if err != nil {
		panic(err)
	}
	return mapping
}

func validateFolderName(name string) error {
	if name == "" || strings.TrimSpace(name) != name {
		return fmt.Errorf("invalid folder name %q", name)
	}
	if strings.Contains(name, "/") || name == "." || name == ".." {
		return fmt.Errorf("folder name %q must be a single path segment", name)
	}
	return nil
}

// LegacyFolders returns the legacy names in sorted order.
func (m *FolderMapping) LegacyFolders() []string {
	folders := make([]string, 0, len(m.targets))
	for legacy := range m.targets {
		folders = append(folders, legacy)
	}
	sort.Strings(folders)
	return folders
}

// Target returns the canonical folder for legacy.
func (m *FolderMapping) Target(legacy string) (string, bool) {
	canonical, ok := m.targets[legacy]
	return canonical, ok
}

// CanonicalFolders returns the distinct canonical names in sorted order.
func (m *FolderMapping) CanonicalFolders() []string {
	seen := make(map[string]bool)
	var folders []string
	for _, canonical := range m.targets {
		if !seen[canonical] {
			seen[canonical] = true
			folders = append(folders, canonical)
		}
	}
	sort.Strings(folders)
	return folders
}

// RelocateKey rewrites the top-level folder of key to folder. The second result is false
// when the key already lives under folder.
func RelocateKey(key, folder string) (string, bool) {
	key = strings.TrimPrefix(key, "/")
	head, rest, found := strings.Cut(key, "/")
	if !found {
		return path.Join(folder, key), true
	}
	if head == folder {
		return key, false
	}
	return path.Join(folder, rest), true
}

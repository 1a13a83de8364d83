// Package services holds pure domain logic: the static revalidation and folder tables,
// and the rules that decide which stored values are image references.
package services

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Content type labels accepted by the revalidation dispatcher.
const (
	ContentTypeContent           = "content"
	ContentTypeProducts          = "products"
	ContentTypeProjects          = "projects"
	ContentTypeCategories        = "categories"
	ContentTypeProjectCategories = "project-categories"
	ContentTypeMedia             = "media"
)

// KnownContentTypes lists every label a table may define.
var KnownContentTypes = []string{
	ContentTypeContent,
	ContentTypeProducts,
	ContentTypeProjects,
	ContentTypeCategories,
	ContentTypeProjectCategories,
	ContentTypeMedia,
}

// ErrUnknownContentType is returned when a label is not defined in the table.
var ErrUnknownContentType = errors.New("unknown content type")

// RevalidationRule names what must be invalidated after a mutation of one content type.
type RevalidationRule struct {
	Paths            []string `yaml:"paths" json:"paths"`
	Tags             []string `yaml:"tags" json:"tags"`
	RevalidateLayout bool     `yaml:"revalidateLayout" json:"revalidateLayout"`
}

// RevalidationTable is the immutable content type -> rule mapping. It is built once at
// startup and shared read-only; lookups hand out copies.
type RevalidationTable struct {
	rules map[string]RevalidationRule
}

// NewRevalidationTable validates and freezes rules.
func NewRevalidationTable(rules map[string]RevalidationRule) (*RevalidationTable, error) {
	frozen := make(map[string]RevalidationRule, len(rules))
	for contentType, rule := range rules {
		if !slices.Contains(KnownContentTypes, contentType) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownContentType, contentType)
		}
		for _, p := range rule.Paths {
			if !strings.HasPrefix(p, "/") {
				return nil, fmt.Errorf("content type %s: path %q must start with /", contentType, p)
			}
		}
		for _, tag := range rule.Tags {
			if strings.TrimSpace(tag) == "" {
				return nil, fmt.Errorf("content type %s: empty tag", contentType)
			}
		}
		frozen[contentType] = RevalidationRule{
			Paths:            slices.Clone(rule.Paths),
			Tags:             slices.Clone(rule.Tags),
			RevalidateLayout: rule.RevalidateLayout,
		}
	}
	return &RevalidationTable{rules: frozen}, nil
}

// DefaultRevalidationTable returns the table shipped with the service.
func DefaultRevalidationTable() *RevalidationTable {
	table, err := NewRevalidationTable(defaultRevalidationRules())
	if err != nil {
		panic(err)
	}
	return table
}

func defaultRevalidationRules() map[string]RevalidationRule {
	return map[string]RevalidationRule{
		ContentTypeContent: {
			Paths:            []string{"/", "/about", "/services", "/contact"},
			Tags:             []string{"content"},
			RevalidateLayout: true,
		},
		ContentTypeProducts: {
			Paths: []string{"/products", "/"},
			Tags:  []string{"products"},
		},
		ContentTypeProjects: {
			Paths: []string{"/projects", "/"},
			Tags:  []string{"projects"},
		},
		ContentTypeCategories: {
			Paths: []string{"/products", "/services"},
			Tags:  []string{"categories", "products"},
		},
		ContentTypeProjectCategories: {
			Paths: []string{"/projects"},
			Tags:  []string{"project-categories", "projects"},
		},
		ContentTypeMedia: {
			Paths:            []string{"/"},
			Tags:             []string{"media", "content"},
			RevalidateLayout: true,
		},
	}
}

// Lookup returns a copy of the rule for contentType.
func (t *RevalidationTable) Lookup(contentType string) (RevalidationRule, error) {
	rule, ok := t.rules[contentType]
	if !ok {
		return RevalidationRule{}, fmt.Errorf("%w: %q", ErrUnknownContentType, contentType)
	}
	return RevalidationRule{
		Paths:            slices.Clone(rule.Paths),
		Tags:             slices.Clone(rule.Tags),
		RevalidateLayout: rule.RevalidateLayout,
	}, nil
}

// ContentTypes returns the defined labels in sorted order.
func (t *RevalidationTable) ContentTypes() []string {
	types := make([]string, 0, len(t.rules))
	for contentType := range t.rules {
		types = append(types, contentType)
	}
	sort.Strings(types)
	return types
}

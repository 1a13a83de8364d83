// Package types defines render cache data structures
package types

import (
	"sync"
	"time"
)

// PageEntry is one rendered payload cached under a render path.
type PageEntry struct {
	Path        string    `json:"path"`
	Body        []byte    `json:"-"`
	Tags        []string  `json:"tags"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// PageCache holds rendered pages plus the tag -> dependent paths index.
// Generation counts invalidations and only ever grows.
type PageCache struct {
	Pages      map[string]*PageEntry
	Tags       map[string][]string
	Generation uint64
	Mu         sync.RWMutex
}

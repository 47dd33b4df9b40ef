// Package catalog looks up languages in an external classification catalog
// (Glottolog or a compatible dump), keyed by glottocode.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Entry is the catalog metadata for one glottocode.
type Entry struct {
	// Macroareas in catalog order. Only the first is used.
	Macroareas []string

	ISOCode   *string
	Latitude  *float64
	Longitude *float64
}

// Catalog is a bulk lookup service. Keys missing from the catalog are simply
// absent from the returned map.
type Catalog interface {
	Lookup(ctx context.Context, keys []string) (map[string]Entry, error)
}

// LookupInconsistencyError reports keys that were queried but not returned.
type LookupInconsistencyError struct {
	Missing []string
}

func (e *LookupInconsistencyError) Error() string {
	return fmt.Sprintf("catalog returned no entry for %d key(s): %s",
		len(e.Missing), strings.Join(e.Missing, ", "))
}

// Enrich performs a single bulk lookup for the distinct keys and checks that
// every key came back. A key missing from the response is fatal.
func Enrich(ctx context.Context, cat Catalog, keys []string) (map[string]Entry, error) {
	distinct := dedupe(keys)
	if len(distinct) == 0 {
		return map[string]Entry{}, nil
	}

	entries, err := cat.Lookup(ctx, distinct)
	if err != nil {
		return nil, fmt.Errorf("catalog lookup: %w", err)
	}

	var missing []string
	for _, k := range distinct {
		if _, ok := entries[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return nil, &LookupInconsistencyError{Missing: missing}
	}

	return entries, nil
}

func dedupe(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Memory is a Catalog backed by a map.
type Memory map[string]Entry

// Lookup implements Catalog.
func (m Memory) Lookup(_ context.Context, keys []string) (map[string]Entry, error) {
	out := make(map[string]Entry, len(keys))
	for _, k := range keys {
		if e, ok := m[k]; ok {
			out[k] = e
		}
	}
	return out, nil
}

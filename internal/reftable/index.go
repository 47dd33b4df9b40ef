// =============================================================================
// Structure Dataset Builder - Reference Index Builder
// =============================================================================
//
// This module turns the reference tables into the lookup indices used by the
// pipeline:
//
//   ParameterTable : ordered parameters; their IDs fix value emission order
//   CodeIndex      : (Parameter_ID, Old_Name) -> Code
//   LanguageIndex  : language ID -> catalog key and citation list
//
// Lookups on these indices never fail. A missing entry is an absence, not an
// error.
//
// =============================================================================

package reftable

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ginjaninja78/structure-dataset/internal/types"
)

// Reference table column names.
const (
	ColumnID          = "ID"
	ColumnName        = "Name"
	ColumnParameterID = "Parameter_ID"
	ColumnOldName     = "Old_Name"
	ColumnGlottocode  = "Glottocode"
	ColumnSource      = "Source"
)

// glottocodePattern is the catalog key format: four lowercase letters
// followed by four digits.
var glottocodePattern = regexp.MustCompile(`^[a-z]{4}[0-9]{4}$`)

// IsValidGlottocode reports whether key has the catalog key format.
func IsValidGlottocode(key string) bool {
	return glottocodePattern.MatchString(key)
}

// =============================================================================
// PARAMETERS
// =============================================================================

// ParameterTable is the ordered list of parameters.
type ParameterTable struct {
	Columns    []string
	Parameters []types.Parameter
}

// NewParameterTable builds a ParameterTable from generic records.
func NewParameterTable(t *RecordTable) (*ParameterTable, error) {
	if err := t.requireColumns("parameter", ColumnID); err != nil {
		return nil, err
	}

	pt := &ParameterTable{Columns: t.Columns}
	for _, r := range t.Records {
		id := r.Get(ColumnID)
		if id == "" {
			continue
		}
		pt.Parameters = append(pt.Parameters, types.Parameter{ID: id, Record: r})
	}
	return pt, nil
}

// ParamIDs returns the parameter IDs in table order.
func (pt *ParameterTable) ParamIDs() []string {
	ids := make([]string, len(pt.Parameters))
	for i, p := range pt.Parameters {
		ids[i] = p.ID
	}
	return ids
}

// =============================================================================
// CODES
// =============================================================================

type codeKey struct {
	parameterID string
	oldName     string
}

// CodeIndex resolves raw cell text to codes.
type CodeIndex struct {
	Columns []string
	Codes   []types.Code

	byKey map[codeKey]int
}

// NewCodeIndex builds a CodeIndex from generic records. If two codes share
// a (Parameter_ID, Old_Name) key the later one replaces the earlier one in
// place, so Codes holds exactly one code per key.
func NewCodeIndex(t *RecordTable) (*CodeIndex, error) {
	if err := t.requireColumns("code", ColumnID, ColumnParameterID, ColumnOldName); err != nil {
		return nil, err
	}

	ci := &CodeIndex{Columns: t.Columns, byKey: make(map[codeKey]int)}
	for _, r := range t.Records {
		code := types.Code{
			ID:          r.Get(ColumnID),
			ParameterID: r.Get(ColumnParameterID),
			OldName:     r.Get(ColumnOldName),
			Name:        r.Get(ColumnName),
			Record:      r,
		}
		if code.ID == "" {
			continue
		}
		key := codeKey{code.ParameterID, code.OldName}
		if i, dup := ci.byKey[key]; dup {
			ci.Codes[i] = code
			continue
		}
		ci.Codes = append(ci.Codes, code)
		ci.byKey[key] = len(ci.Codes) - 1
	}
	return ci, nil
}

// Resolve looks up the code for a parameter's raw cell text.
// It never fails; ok is false when nothing matches.
func (ci *CodeIndex) Resolve(parameterID, text string) (code types.Code, ok bool) {
	i, ok := ci.byKey[codeKey{parameterID, text}]
	if !ok {
		return types.Code{}, false
	}
	return ci.Codes[i], true
}

// CodeID returns the code ID for a parameter's raw cell text, or "" when
// nothing matches.
func (ci *CodeIndex) CodeID(parameterID, text string) string {
	code, _ := ci.Resolve(parameterID, text)
	return code.ID
}

// =============================================================================
// LANGUAGE MAPPING
// =============================================================================

// MappingEntry is the curated metadata for one language ID.
type MappingEntry struct {
	// Glottocode is the catalog key, or "" if the mapping had none or it
	// failed the format check.
	Glottocode string

	// Sources is the trimmed, non-empty citation list.
	Sources []string
}

// LanguageIndex maps language IDs to their curated metadata.
type LanguageIndex struct {
	entries map[string]MappingEntry

	// Dropped lists IDs whose glottocode failed the format check.
	Dropped []string
}

// NewLanguageIndex builds a LanguageIndex from generic records. Glottocodes
// that are not four lowercase letters and four digits are silently dropped.
func NewLanguageIndex(t *RecordTable) (*LanguageIndex, error) {
	if err := t.requireColumns("language", ColumnID); err != nil {
		return nil, err
	}

	li := &LanguageIndex{entries: make(map[string]MappingEntry, len(t.Records))}
	for _, r := range t.Records {
		id := r.Get(ColumnID)
		if id == "" {
			continue
		}

		entry := MappingEntry{Sources: SplitSources(r.Get(ColumnSource))}
		if key := r.Get(ColumnGlottocode); IsValidGlottocode(key) {
			entry.Glottocode = key
		} else if key != "" {
			li.Dropped = append(li.Dropped, id)
		}
		li.entries[id] = entry
	}
	return li, nil
}

// Entry returns the mapping entry for a language ID.
func (li *LanguageIndex) Entry(id string) (MappingEntry, bool) {
	e, ok := li.entries[id]
	return e, ok
}

// Key returns the validated catalog key for a language ID.
func (li *LanguageIndex) Key(id string) (string, bool) {
	e, ok := li.entries[id]
	if !ok || e.Glottocode == "" {
		return "", false
	}
	return e.Glottocode, true
}

// Keys returns the distinct catalog keys, sorted.
func (li *LanguageIndex) Keys() []string {
	seen := make(map[string]bool)
	var keys []string
	for _, e := range li.entries {
		if e.Glottocode != "" && !seen[e.Glottocode] {
			seen[e.Glottocode] = true
			keys = append(keys, e.Glottocode)
		}
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of mapped language IDs.
func (li *LanguageIndex) Len() int {
	return len(li.entries)
}

// SplitSources splits a ";"-delimited citation list into trimmed, non-empty
// items.
func SplitSources(s string) []string {
	var out []string
	for _, src := range strings.Split(s, ";") {
		if trimmed := strings.TrimSpace(src); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// =============================================================================
// LOADING
// =============================================================================

// Paths locates the three reference tables.
type Paths struct {
	Parameters string
	Codes      string
	Languages  string
}

// Indices bundles the loaded reference indices.
type Indices struct {
	Parameters *ParameterTable
	Codes      *CodeIndex
	Languages  *LanguageIndex
}

// Load reads all three reference tables and builds their indices.
func Load(paths Paths) (*Indices, error) {
	paramRecords, err := ReadRecordsFile(paths.Parameters)
	if err != nil {
		return nil, err
	}
	params, err := NewParameterTable(paramRecords)
	if err != nil {
		return nil, err
	}

	codeRecords, err := ReadRecordsFile(paths.Codes)
	if err != nil {
		return nil, err
	}
	codes, err := NewCodeIndex(codeRecords)
	if err != nil {
		return nil, err
	}

	langRecords, err := ReadRecordsFile(paths.Languages)
	if err != nil {
		return nil, err
	}
	langs, err := NewLanguageIndex(langRecords)
	if err != nil {
		return nil, err
	}

	return &Indices{Parameters: params, Codes: codes, Languages: langs}, nil
}

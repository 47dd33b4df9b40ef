package converter

import (
	"strconv"

	"github.com/ginjaninja78/structure-dataset/internal/catalog"
	"github.com/ginjaninja78/structure-dataset/internal/reftable"
	"github.com/ginjaninja78/structure-dataset/internal/types"
)

// BuildLanguage merges one raw row with its catalog metadata.
//
// PARAMETERS:
//   - row: The raw survey row.
//   - entries: Catalog entries by glottocode, as returned by catalog.Enrich.
//   - index: The curated language mapping.
//
// RETURNS:
//   - The language record.
//   - A *catalog.LookupInconsistencyError if the row maps to a key that has
//     no entry in entries.
//
// COORDINATES:
//
//	Raw Lat/Lon win over catalog coordinates. Either source is used only when
//	it has both values.
func BuildLanguage(row types.RawRow, entries map[string]catalog.Entry, index *reftable.LanguageIndex) (types.Language, error) {
	lang := types.Language{
		ID:   row.ID(),
		Name: row.Name(),
	}

	lat, hasLat := row.Cell(types.ColumnLat)
	lon, hasLon := row.Cell(types.ColumnLon)
	rawCoordinates := hasLat && hasLon
	if rawCoordinates {
		lang.Latitude = types.Ptr(lat)
		lang.Longitude = types.Ptr(lon)
	}

	mapping, ok := index.Entry(lang.ID)
	if !ok {
		return lang, nil
	}
	if len(mapping.Sources) > 0 {
		lang.Source = append([]string(nil), mapping.Sources...)
	}

	key, ok := index.Key(lang.ID)
	if !ok {
		return lang, nil
	}
	entry, ok := entries[key]
	if !ok {
		return types.Language{}, &catalog.LookupInconsistencyError{Missing: []string{key}}
	}

	lang.Glottocode = types.Ptr(key)
	if len(entry.Macroareas) > 0 {
		lang.Macroarea = types.Ptr(entry.Macroareas[0])
	}
	if entry.ISOCode != nil {
		lang.ISO639P3code = types.Ptr(*entry.ISOCode)
	}
	if !rawCoordinates && entry.Latitude != nil && entry.Longitude != nil {
		lang.Latitude = types.Ptr(formatCoordinate(*entry.Latitude))
		lang.Longitude = types.Ptr(formatCoordinate(*entry.Longitude))
	}

	return lang, nil
}

// formatCoordinate renders a catalog coordinate with the shortest
// representation that round-trips.
func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

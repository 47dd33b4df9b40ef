package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ginjaninja78/structure-dataset/pkg/utils"
)

// Columns of a Glottolog languages_and_dialects_geo.csv dump.
const (
	geoColumnGlottocode = "glottocode"
	geoColumnISOCodes   = "isocodes"
	geoColumnMacroarea  = "macroarea"
	geoColumnLatitude   = "latitude"
	geoColumnLongitude  = "longitude"
)

// GeoFile is a Catalog backed by a Glottolog geo dump:
//
//	glottocode,name,isocodes,level,macroarea,latitude,longitude
//
// Empty fields are absent. Multiple macroareas are separated by semicolons
// (names such as "North America" contain spaces). Multiple ISO codes are
// separated by spaces or semicolons; only the first is kept.
type GeoFile struct {
	entries map[string]Entry
}

// OpenGeoFile loads a geo dump from path.
func OpenGeoFile(path string) (*GeoFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	g, err := ReadGeoFile(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// ReadGeoFile loads a geo dump from r.
func ReadGeoFile(r io.Reader) (*GeoFile, error) {
	reader := csv.NewReader(utils.NewUTF8Reader(r))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("catalog file is empty")
		}
		return nil, fmt.Errorf("failed to read catalog header: %w", err)
	}

	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := pos[geoColumnGlottocode]; !ok {
		return nil, fmt.Errorf("catalog file has no %q column", geoColumnGlottocode)
	}

	get := func(row []string, column string) string {
		i, ok := pos[column]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	g := &GeoFile{entries: make(map[string]Entry)}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog: %w", err)
		}

		key := get(row, geoColumnGlottocode)
		if key == "" {
			continue
		}

		line, _ := reader.FieldPos(0)
		entry := Entry{Macroareas: splitMacroareas(get(row, geoColumnMacroarea))}
		if isos := splitCodes(get(row, geoColumnISOCodes)); len(isos) > 0 {
			entry.ISOCode = &isos[0]
		}
		if entry.Latitude, err = parseCoordinate(get(row, geoColumnLatitude)); err != nil {
			return nil, fmt.Errorf("line %d: latitude: %w", line, err)
		}
		if entry.Longitude, err = parseCoordinate(get(row, geoColumnLongitude)); err != nil {
			return nil, fmt.Errorf("line %d: longitude: %w", line, err)
		}

		g.entries[key] = entry
	}

	return g, nil
}

// Lookup implements Catalog.
func (g *GeoFile) Lookup(ctx context.Context, keys []string) (map[string]Entry, error) {
	return Memory(g.entries).Lookup(ctx, keys)
}

// Len returns the number of catalog entries.
func (g *GeoFile) Len() int {
	return len(g.entries)
}

func splitMacroareas(s string) []string {
	var out []string
	for _, m := range strings.Split(s, ";") {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
}

func splitCodes(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ';'
	})
}

func parseCoordinate(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

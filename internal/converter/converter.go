// =============================================================================
// Structure Dataset Builder - Converter Module
// =============================================================================
//
// This module contains the core conversion logic. It orchestrates one batch
// run, from the raw survey table to an in-memory dataset.
//
// CONVERSION PIPELINE:
//   1. Parse the raw survey table
//   2. Load the reference tables and build their indices
//   3. Look up every mapped glottocode in the catalog, once
//   4. Build one language record per raw row
//   5. Build the sparse value table
//   6. Validate the assembled dataset
//
// Any error aborts the run. No partial dataset is returned.
//
// CONCURRENCY:
//   A run is single-threaded. The context is only passed to the catalog.
//
// =============================================================================

package converter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ginjaninja78/structure-dataset/internal/catalog"
	"github.com/ginjaninja78/structure-dataset/internal/rawtable"
	"github.com/ginjaninja78/structure-dataset/internal/reftable"
	"github.com/ginjaninja78/structure-dataset/internal/types"
	"github.com/ginjaninja78/structure-dataset/internal/validation"
)

// =============================================================================
// INPUTS AND STATS
// =============================================================================

// Inputs locates the files of one run.
type Inputs struct {
	// DatasetID names the dataset in assembler metadata.
	DatasetID string

	// RawTable is the path of the semicolon-delimited survey table.
	RawTable string

	// References locates the parameter, code and language mapping tables.
	References reftable.Paths

	// SourcesFile is an optional bibliography passed through to assemblers.
	SourcesFile string
}

// Stats contains statistics about one run.
type Stats struct {
	// Rows is the number of raw data rows read.
	Rows int

	// Languages is the number of language records built.
	Languages int

	// Enriched is the number of languages that received catalog metadata.
	Enriched int

	// Unmapped is the number of languages with no mapping entry.
	Unmapped int

	// DroppedKeys is the number of mapping entries whose glottocode failed
	// the format check.
	DroppedKeys int

	// Values is the number of value rows emitted.
	Values int

	// Unresolved is the number of values whose text matched no code.
	Unresolved int

	// Duration is the time taken by the run.
	Duration time.Duration
}

// ValidationFailedError is returned when the assembled dataset breaks an
// integrity rule.
type ValidationFailedError struct {
	Errors []*validation.ValidationError
}

func (e *ValidationFailedError) Error() string {
	return "dataset failed validation: " + validation.FormatErrors(e.Errors)
}

// =============================================================================
// PIPELINE
// =============================================================================

// Pipeline runs the conversion. It holds no per-run state and can be reused.
type Pipeline struct {
	catalog catalog.Catalog
	opts    Options
	logger  *slog.Logger
}

// New creates a Pipeline.
//
// PARAMETERS:
//   - cat: The catalog used for enrichment.
//   - opts: Value builder options.
//   - logger: Destination for progress logs. nil means slog.Default().
func New(cat catalog.Catalog, opts Options, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{catalog: cat, opts: opts, logger: logger}
}

// Run reads the input files and builds the dataset.
func (p *Pipeline) Run(ctx context.Context, in Inputs) (*types.Dataset, Stats, error) {
	startTime := time.Now()

	// =========================================================================
	// STEP 1: PARSE RAW TABLE
	// =========================================================================

	p.logger.Info("Processing raw table", "path", in.RawTable)

	raw, err := rawtable.ReadFile(in.RawTable)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("failed to read raw table: %w", err)
	}

	p.logger.Debug("Parsed raw table", "rows", len(raw.Rows), "columns", len(raw.Headers))

	// =========================================================================
	// STEP 2: LOAD REFERENCE TABLES
	// =========================================================================

	refs, err := reftable.Load(in.References)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("failed to load reference tables: %w", err)
	}

	p.logger.Debug("Loaded reference tables",
		"parameters", len(refs.Parameters.Parameters),
		"codes", len(refs.Codes.Codes),
		"mapped_languages", refs.Languages.Len(),
	)

	dataset, stats, err := p.Build(ctx, raw, refs)
	if err != nil {
		return nil, Stats{}, err
	}

	dataset.ID = in.DatasetID
	dataset.SourcesFile = in.SourcesFile
	stats.Duration = time.Since(startTime)

	p.logger.Info("Built dataset",
		"languages", stats.Languages,
		"enriched", stats.Enriched,
		"values", stats.Values,
		"unresolved", stats.Unresolved,
		"duration", stats.Duration,
	)

	return dataset, stats, nil
}

// Build runs the pipeline on tables that are already loaded.
func (p *Pipeline) Build(ctx context.Context, raw *rawtable.Table, refs *reftable.Indices) (*types.Dataset, Stats, error) {
	stats := Stats{
		Rows:        len(raw.Rows),
		DroppedKeys: len(refs.Languages.Dropped),
	}
	if stats.DroppedKeys > 0 {
		p.logger.Debug("Dropped malformed glottocodes", "ids", refs.Languages.Dropped)
	}

	// =========================================================================
	// STEP 3: CATALOG ENRICHMENT
	// =========================================================================
	// One bulk lookup for every key the mapping references, before any
	// per-row work.

	keys := refs.Languages.Keys()
	entries, err := catalog.Enrich(ctx, p.catalog, keys)
	if err != nil {
		return nil, Stats{}, err
	}

	p.logger.Debug("Catalog lookup complete", "keys", len(keys))

	// =========================================================================
	// STEP 4: BUILD LANGUAGES
	// =========================================================================

	languages := make([]types.Language, 0, len(raw.Rows))
	seen := make(map[string]int, len(raw.Rows))
	for _, row := range raw.Rows {
		if first, dup := seen[row.ID()]; dup {
			return nil, Stats{}, &rawtable.FormatError{
				Line: row.Line,
				Msg:  fmt.Sprintf("duplicate language ID %q (first seen on line %d)", row.ID(), first),
			}
		}
		seen[row.ID()] = row.Line

		lang, err := BuildLanguage(row, entries, refs.Languages)
		if err != nil {
			return nil, Stats{}, fmt.Errorf("line %d: %w", row.Line, err)
		}
		if lang.Glottocode != nil {
			stats.Enriched++
		}
		if _, ok := refs.Languages.Entry(lang.ID); !ok {
			stats.Unmapped++
		}
		languages = append(languages, lang)
	}
	stats.Languages = len(languages)

	if stats.Unmapped > 0 {
		p.logger.Debug("Languages without a mapping entry", "count", stats.Unmapped)
	}

	// =========================================================================
	// STEP 5: BUILD VALUES
	// =========================================================================

	values := BuildValues(raw.Rows, refs.Parameters.ParamIDs(), refs.Codes, p.opts)
	stats.Values = len(values)
	for _, v := range values {
		if v.CodeID == "" {
			stats.Unresolved++
		}
	}

	if stats.Unresolved > 0 {
		p.logger.Debug("Values with no matching code", "count", stats.Unresolved)
	}

	dataset := &types.Dataset{
		Languages:        languages,
		Parameters:       refs.Parameters.Parameters,
		Codes:            refs.Codes.Codes,
		Values:           values,
		ParameterColumns: refs.Parameters.Columns,
		CodeColumns:      refs.Codes.Columns,
	}

	// =========================================================================
	// STEP 6: VALIDATE
	// =========================================================================

	result := validation.NewValidator(dataset).ValidateAll()
	if !result.IsValid {
		errs := result.Fatal()
		for _, ve := range errs {
			p.logger.Warn("Validation error", "error", ve.Error())
		}
		p.logger.Error("Dataset failed validation", "errors", result.ErrorCount, "warnings", result.WarningCount)
		return nil, Stats{}, &ValidationFailedError{Errors: errs}
	}
	p.logger.Debug("Dataset validated", "warnings", result.WarningCount)

	return dataset, stats, nil
}

package service

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/joeblew999/plat-map/internal/feature"
)

// ErrNoFeatures is returned when an upload parses but every row or feature
// was rejected by validation.
var ErrNoFeatures = errors.New("no valid features")

// ImportObserver is told about every import attempt.
type ImportObserver interface {
	ObserveImport(format feature.Format, skipped int, err error)
}

// Import describes one upload.
type Import struct {
	Name    string
	Format  feature.Format
	Data    []byte
	Columns feature.Columns
}

// ImportResult is the outcome of a successful upload.
type ImportResult struct {
	LayerID  string
	Features int
	Warnings []feature.Warning
	Columns  feature.Columns
}

// Importer parses uploads and adds them to the store as one atomic update.
type Importer struct {
	parser   *feature.Parser
	store    *Store
	observer ImportObserver
}

// NewImporter creates an importer. observer may be nil.
func NewImporter(parser *feature.Parser, store *Store, observer ImportObserver) *Importer {
	return &Importer{parser: parser, store: store, observer: observer}
}

// Import parses in and adds a layer named in.Name. An empty format is
// detected from the name. Format errors and empty results leave the store
// untouched.
func (i *Importer) Import(in Import) (ImportResult, error) {
	format := in.Format
	if format == "" {
		f, err := feature.DetectFormat(in.Name)
		if err != nil {
			i.observe(format, 0, err)
			return ImportResult{}, fmt.Errorf("%s: %w", in.Name, err)
		}
		format = f
	}

	res, err := i.parser.Parse(format, in.Data, in.Columns)
	if err != nil {
		log.Warn().Err(err).Str("file", in.Name).Str("format", string(format)).Msg("upload rejected")
		i.observe(format, 0, err)
		return ImportResult{}, fmt.Errorf("%s: %w", in.Name, err)
	}
	for _, w := range res.Warnings {
		log.Debug().Str("file", in.Name).Int("row", w.Row).Str("reason", w.Reason).Msg("row skipped")
	}
	if len(res.Features) == 0 {
		i.observe(format, res.Skipped(), ErrNoFeatures)
		return ImportResult{Warnings: res.Warnings, Columns: res.Columns}, fmt.Errorf("%s: %w (%d skipped)", in.Name, ErrNoFeatures, res.Skipped())
	}

	id := i.store.AddLayer(in.Name, res.Features)
	i.observe(format, res.Skipped(), nil)
	log.Info().Str("layer", id).Str("file", in.Name).Int("features", len(res.Features)).
		Int("skipped", res.Skipped()).Msg("layer added")

	return ImportResult{
		LayerID:  id,
		Features: len(res.Features),
		Warnings: res.Warnings,
		Columns:  res.Columns,
	}, nil
}

func (i *Importer) observe(format feature.Format, skipped int, err error) {
	if i.observer != nil {
		i.observer.ObserveImport(format, skipped, err)
	}
}

// Package feed polls upstream RSS/Atom sources and pushes their items to the
// deal ingest endpoint.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"dealflow/internal/models"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	defaultSourceKind = "rss"
	defaultCategory   = string(models.CategoryWholesale)
)

// fetchableKinds are the source kinds the fetcher knows how to read.
var fetchableKinds = map[string]bool{
	"rss":  true,
	"atom": true,
	"feed": true,
}

// Fetchable reports whether the fetcher can read s.
func Fetchable(s models.DealSource) bool {
	return fetchableKinds[strings.ToLower(strings.TrimSpace(s.Source))]
}

// LoadSourcesFromJSON decodes a JSON list of source objects. Entries that are not
// objects or have no url are dropped.
func LoadSourcesFromJSON(raw string) ([]models.DealSource, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var items []any
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("parse DEAL_SOURCES_JSON: %w", err)
	}

	sources := make([]models.DealSource, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}

		var s models.DealSource
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &s,
			TagName:          "mapstructure",
			WeaklyTypedInput: true,
		})
		if err != nil {
			return nil, err
		}
		if err := decoder.Decode(m); err != nil {
			continue
		}
		sources = append(sources, s)
	}

	return normalizeSources(sources), nil
}

type sourcesFile struct {
	Sources []models.DealSource `yaml:"sources"`
}

// LoadSourcesFromFile reads a YAML file with a top-level "sources" list.
func LoadSourcesFromFile(path string) ([]models.DealSource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	var f sourcesFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse sources file: %w", err)
	}

	return normalizeSources(f.Sources), nil
}

func normalizeSources(in []models.DealSource) []models.DealSource {
	out := make([]models.DealSource, 0, len(in))
	for _, s := range in {
		s.URL = strings.TrimSpace(s.URL)
		if s.URL == "" {
			continue
		}
		if s.Source = strings.TrimSpace(s.Source); s.Source == "" {
			s.Source = defaultSourceKind
		}
		if s.Category = strings.TrimSpace(s.Category); s.Category == "" {
			s.Category = defaultCategory
		}
		out = append(out, s)
	}
	return out
}

// SourceLister is satisfied by repository.SourceRepository.
type SourceLister interface {
	ListEnabled(ctx context.Context) ([]models.DealSource, error)
}

// SourceResolver picks the first non-empty source list: the database, then the
// YAML file, then the JSON environment value.
type SourceResolver struct {
	db       SourceLister
	filePath string
	rawJSON  string
	logger   *zap.Logger
}

func NewSourceResolver(db SourceLister, filePath, rawJSON string, logger *zap.Logger) *SourceResolver {
	return &SourceResolver{db: db, filePath: filePath, rawJSON: rawJSON, logger: logger}
}

func (r *SourceResolver) Sources(ctx context.Context) ([]models.DealSource, error) {
	if r.db != nil {
		sources, err := r.db.ListEnabled(ctx)
		if err != nil {
			r.logger.Warn("Failed to load deal sources from database", zap.Error(err))
		} else if sources = normalizeSources(sources); len(sources) > 0 {
			return sources, nil
		}
	}

	if r.filePath != "" {
		sources, err := LoadSourcesFromFile(r.filePath)
		if err != nil {
			return nil, err
		}
		if len(sources) > 0 {
			return sources, nil
		}
	}

	return LoadSourcesFromJSON(r.rawJSON)
}

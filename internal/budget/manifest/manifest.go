// Package manifest builds the catalog file the front end uses to discover
// available entities and fiscal years.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/civistat/budget_pipeline/internal/budget/config"
	"github.com/civistat/budget_pipeline/internal/budget/types"
)

// EntityEntry is one entity in the manifest.
type EntityEntry struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	EntityType          string   `json:"entity_type"`
	Status              string   `json:"status"`
	DefaultYear         string   `json:"default_year"`
	AvailableYears      []string `json:"available_years"`
	PropertyTaxSharePct float64  `json:"property_tax_share_pct"`
	Color               string   `json:"color"`
}

// Manifest lists every entity with generated documents.
type Manifest struct {
	Entities        []EntityEntry `json:"entities"`
	LastUpdated     string        `json:"last_updated"`
	PipelineVersion string        `json:"pipeline_version"`
}

// Build scans outputDir for each configured entity's fy*.json documents.
// Entities without any generated year are omitted.
func Build(cfg *config.File, outputDir string) (*Manifest, error) {
	m := &Manifest{
		Entities:        []EntityEntry{},
		LastUpdated:     time.Now().UTC().Format(time.RFC3339),
		PipelineVersion: types.PipelineVersion,
	}

	for _, id := range cfg.EntityIDs() {
		entity := cfg.Entities[id]
		years, err := availableYears(filepath.Join(outputDir, id))
		if err != nil {
			return nil, err
		}
		if len(years) == 0 {
			continue
		}

		defaultYear := entity.DefaultYear
		if defaultYear == "" {
			defaultYear = years[len(years)-1]
		}

		m.Entities = append(m.Entities, EntityEntry{
			ID:                  id,
			Name:                entity.Name,
			EntityType:          entity.EntityType,
			Status:              entity.Status,
			DefaultYear:         defaultYear,
			AvailableYears:      years,
			PropertyTaxSharePct: entity.PropertyTaxSharePct,
			Color:               entity.Color,
		})
	}

	return m, nil
}

func availableYears(entityDir string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(entityDir, "fy*.json"))
	if err != nil {
		return nil, err
	}
	years := make([]string, 0, len(paths))
	for _, path := range paths {
		years = append(years, strings.TrimSuffix(filepath.Base(path), ".json"))
	}
	sort.Strings(years)
	return years, nil
}

// Write persists the manifest as indented JSON.
func Write(m *Manifest, path string) error {
	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	raw = append(raw, '\n')
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write manifest %s: %w", path, err)
	}
	return nil
}

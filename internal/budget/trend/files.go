package trend

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/civistat/budget_pipeline/internal/budget/types"
	"github.com/civistat/budget_pipeline/internal/logger"
)

const component = "TrendEnricher"

// LoadEntityYears reads every fy*.json document in an entity's output
// directory, keyed by fiscal year token.
func LoadEntityYears(entityDir string) (map[string]*types.BudgetDocument, error) {
	paths, err := filepath.Glob(filepath.Join(entityDir, "fy*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	docs := make(map[string]*types.BudgetDocument, len(paths))
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		var doc types.BudgetDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		year := strings.TrimSuffix(filepath.Base(path), ".json")
		docs[year] = &doc
	}
	return docs, nil
}

// EnrichDir loads all of an entity's year documents, injects trend arrays and
// rewrites each file in place. Returns the number of files rewritten. A
// directory with no year documents is a no-op, not an error.
func EnrichDir(entityDir string, log *logger.Logger) (int, error) {
	docs, err := LoadEntityYears(entityDir)
	if err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		log.Info(component, "No year documents found: dir=%s", entityDir)
		return 0, nil
	}

	Enrich(docs)

	for year, doc := range docs {
		path := filepath.Join(entityDir, year+".json")
		if err := WriteDocument(path, doc); err != nil {
			return 0, err
		}
	}
	log.Info(component, "Enriched year documents: dir=%s files=%d", entityDir, len(docs))
	return len(docs), nil
}

// WriteDocument persists a budget document as indented JSON.
func WriteDocument(path string, doc *types.BudgetDocument) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	raw = append(raw, '\n')
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

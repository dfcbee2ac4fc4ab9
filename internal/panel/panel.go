package panel

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joescharf/quorum/internal/models"
)

// ReviewerProfile describes one specialist on the review panel.
// Profiles are immutable and loaded once per process.
type ReviewerProfile struct {
	ID          string                 `yaml:"id"`
	Category    models.FindingCategory `yaml:"category"`
	Extensions  []string               `yaml:"extensions"`
	Temperature float64                `yaml:"temperature"`
}

// Relevant reports whether this reviewer has anything to say about the
// given files. An empty extension list means the reviewer looks at
// everything.
func (p *ReviewerProfile) Relevant(files []string) bool {
	if len(p.Extensions) == 0 {
		return true
	}
	for _, f := range files {
		ext := strings.TrimPrefix(filepath.Ext(f), ".")
		for _, want := range p.Extensions {
			if strings.EqualFold(ext, strings.TrimPrefix(want, ".")) {
				return true
			}
		}
	}
	return false
}

// Panel is the fixed, ordered set of reviewer profiles used for every
// review. Its length is the n used by the scorer.
type Panel []ReviewerProfile

// ByID returns the profile with the given reviewer id, or nil.
func (p Panel) ByID(id string) *ReviewerProfile {
	for i := range p {
		if p[i].ID == id {
			return &p[i]
		}
	}
	return nil
}

// Category returns the category of the given reviewer, or "" if the
// reviewer is not on the panel.
func (p Panel) Category(id string) models.FindingCategory {
	if prof := p.ByID(id); prof != nil {
		return prof.Category
	}
	return ""
}

// Default returns the built-in five-reviewer panel. The engine never
// assumes this size; a configured panel may be any length.
func Default() Panel {
	return Panel{
		{ID: "security", Category: models.CategorySecurity, Temperature: 0.2},
		{ID: "correctness", Category: models.CategoryCorrectness, Temperature: 0.2},
		{ID: "performance", Category: models.CategoryPerformance, Temperature: 0.3},
		{ID: "maintainability", Category: models.CategoryMaintainability, Temperature: 0.5},
		{ID: "reliability", Category: models.CategoryReliability, Temperature: 0.2},
	}
}

// Load reads a panel definition from a YAML file. An empty path
// returns the default panel.
func Load(path string) (Panel, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read panel file: %w", err)
	}

	var doc struct {
		Reviewers []ReviewerProfile `yaml:"reviewers"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse panel file: %w", err)
	}

	p := Panel(doc.Reviewers)
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("panel file %s: %w", path, err)
	}
	return p, nil
}

var knownCategories = map[models.FindingCategory]bool{
	models.CategorySecurity:        true,
	models.CategoryCorrectness:     true,
	models.CategoryPerformance:     true,
	models.CategoryMaintainability: true,
	models.CategoryReliability:     true,
}

// Validate checks panel invariants: at least one reviewer, unique
// non-empty ids, known categories, temperature in [0,1].
func (p Panel) Validate() error {
	if len(p) == 0 {
		return fmt.Errorf("panel has no reviewers")
	}
	seen := make(map[string]bool, len(p))
	for i, prof := range p {
		if strings.TrimSpace(prof.ID) == "" {
			return fmt.Errorf("reviewer %d has an empty id", i)
		}
		if seen[prof.ID] {
			return fmt.Errorf("duplicate reviewer id: %s", prof.ID)
		}
		seen[prof.ID] = true
		if !knownCategories[prof.Category] {
			return fmt.Errorf("reviewer %s has unknown category %q", prof.ID, prof.Category)
		}
		if prof.Temperature < 0 || prof.Temperature > 1 {
			return fmt.Errorf("reviewer %s temperature %.2f out of range [0,1]", prof.ID, prof.Temperature)
		}
	}
	return nil
}

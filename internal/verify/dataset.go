package verify

import (
	"github.com/verigraph/verigraph/internal/embedding"
	"github.com/verigraph/verigraph/internal/graph"
)

// Seeds for the sample entities. The query vector reuses querySeed, so
// the entity embedded with it is the expected top match by construction.
const (
	querySeed = 42

	seedArrhythmia  = 42
	seedBetaBlocker = 43
	seedAFib        = 44
)

// Dataset is the fixed scenario one run loads and verifies.
type Dataset struct {
	Entities []graph.Entity
	Links    []graph.Link

	// QuerySeed produces the search vector; ExpectedTopHit is the name
	// of the entity that embedding belongs to.
	QuerySeed      int64
	ExpectedTopHit string
}

// ExpectedCounts returns the totals the consistency check asserts. All
// sample entities carry embeddings, so Embedded equals Entities.
func (d Dataset) ExpectedCounts() graph.Counts {
	return graph.Counts{
		Entities:      int64(len(d.Entities)),
		Relationships: int64(len(d.Links)),
		Embedded:      int64(len(d.Entities)),
	}
}

// SampleDataset builds the fixed health-domain scenario: three entities
// with deterministic embeddings and three typed relationships.
func SampleDataset(gen *embedding.Generator) Dataset {
	entities := []graph.Entity{
		{
			Kind:        "Symptom",
			Name:        "Arrhythmia",
			Description: "Irregular heartbeat characterized by abnormal heart rhythm patterns",
			Embedding:   gen.Generate(seedArrhythmia),
			Properties: map[string]any{
				"severity":   "high",
				"category":   "cardiovascular",
				"icd10_code": "I49.9",
			},
		},
		{
			Kind:        "Drug",
			Name:        "Beta-Blocker",
			Description: "Medication that reduces heart rate and blood pressure by blocking adrenaline effects",
			Embedding:   gen.Generate(seedBetaBlocker),
			Properties: map[string]any{
				"drug_class":     "cardiovascular",
				"administration": "oral",
				"fda_approved":   true,
			},
		},
		{
			Kind:        "Diagnosis",
			Name:        "Atrial Fibrillation",
			Description: "Specific type of arrhythmia involving rapid, irregular atrial contractions",
			Embedding:   gen.Generate(seedAFib),
			Properties: map[string]any{
				"condition_type": "chronic",
				"prevalence":     "common",
				"risk_level":     "moderate",
			},
		},
	}

	links := []graph.Link{
		{Source: "Arrhythmia", Type: "TREATED_BY", Target: "Beta-Blocker"},
		{Source: "Arrhythmia", Type: "MANIFESTS_AS", Target: "Atrial Fibrillation"},
		{Source: "Atrial Fibrillation", Type: "TREATED_BY", Target: "Beta-Blocker"},
	}

	return Dataset{
		Entities:       entities,
		Links:          links,
		QuerySeed:      querySeed,
		ExpectedTopHit: "Arrhythmia",
	}
}

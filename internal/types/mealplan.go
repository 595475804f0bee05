package types

import (
	"time"

	"github.com/pantryplan/backend/internal/model"
)

// Candidate is a recipe annotated with a similarity score in [0,1]
// relative to the current query (1 = identical). Every search tier
// produces candidates; the compliance filter and diversity selector
// consume them.
type Candidate struct {
	Recipe     model.Recipe `json:"recipe"`
	Similarity float64      `json:"similarity"`
}

// MealPlanDay is a single calendar day with one dinner slot.
type MealPlanDay struct {
	Date   time.Time     `json:"date"`
	Recipe *model.Recipe `json:"recipe"`
}

// MealPlan is the assembled plan returned to the caller. CorpusCount and
// GeneratedCount report how the recipes were sourced; len(Days) is the
// achieved count, which after the single top-up round may be below the
// requested count.
type MealPlan struct {
	Days           []MealPlanDay `json:"days"`
	RequestedCount int           `json:"requested_count"`
	CorpusCount    int           `json:"corpus_count"`
	GeneratedCount int           `json:"generated_count"`
}

package service

import (
	"strings"

	"github.com/pantryplan/backend/internal/types"
)

// Default thresholds for the diversity selector. A candidate is rejected
// when either ratio against any already-selected candidate meets its
// threshold.
const (
	DefaultTitleSimilarityThreshold   = 0.6
	DefaultIngredientOverlapThreshold = 0.7
)

// Short filler words that carry no signal in a recipe title.
var titleStopwords = map[string]struct{}{
	"the": {}, "and": {}, "with": {}, "for": {}, "from": {},
}

// SelectDiverse greedily re-ranks candidates, dropping near-duplicates by
// title word overlap and ingredient-set overlap. Input order (similarity
// descending) is the preference order. If the greedy pass accepts fewer
// than targetCount, the remaining candidates backfill best-first regardless
// of overlap: diversity is a soft preference, a full plan is not.
func SelectDiverse(candidates []types.Candidate, targetCount int, titleThreshold, ingredientThreshold float64) []types.Candidate {
	if targetCount <= 0 || len(candidates) == 0 {
		return nil
	}

	selected := make([]types.Candidate, 0, targetCount)
	var rejected []types.Candidate

	for _, candidate := range candidates {
		if len(selected) >= targetCount {
			break
		}
		if tooSimilar(candidate, selected, titleThreshold, ingredientThreshold) {
			rejected = append(rejected, candidate)
			continue
		}
		selected = append(selected, candidate)
	}

	for _, candidate := range rejected {
		if len(selected) >= targetCount {
			break
		}
		selected = append(selected, candidate)
	}

	return selected
}

func tooSimilar(candidate types.Candidate, selected []types.Candidate, titleThreshold, ingredientThreshold float64) bool {
	for i := range selected {
		if titleOverlap(candidate.Recipe.Title, selected[i].Recipe.Title) >= titleThreshold {
			return true
		}
		if ingredientOverlap(&candidate, &selected[i]) >= ingredientThreshold {
			return true
		}
	}
	return false
}

// titleOverlap is |shared significant words| / min(significant word counts).
func titleOverlap(a, b string) float64 {
	wordsA := significantWords(a)
	wordsB := significantWords(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	common := 0
	for word := range wordsA {
		if _, ok := wordsB[word]; ok {
			common++
		}
	}

	smaller := len(wordsA)
	if len(wordsB) < smaller {
		smaller = len(wordsB)
	}
	return float64(common) / float64(smaller)
}

// ingredientOverlap is |shared canonical ids| / min(set sizes).
func ingredientOverlap(a, b *types.Candidate) float64 {
	setA := a.Recipe.IngredientIDSet()
	setB := b.Recipe.IngredientIDSet()
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	common := 0
	for id := range setA {
		if _, ok := setB[id]; ok {
			common++
		}
	}

	smaller := len(setA)
	if len(setB) < smaller {
		smaller = len(setB)
	}
	return float64(common) / float64(smaller)
}

func significantWords(title string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(title))
	set := make(map[string]struct{}, len(words))
	for _, word := range words {
		word = strings.Trim(word, ",.;:()")
		if len(word) <= 2 {
			continue
		}
		if _, stop := titleStopwords[word]; stop {
			continue
		}
		set[word] = struct{}{}
	}
	return set
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pantryplan/backend/internal/model"
	"github.com/pantryplan/backend/internal/types"
)

// Over-fetch factor for the vector tier: filtering and diversity selection
// need headroom above the corpus target.
const searchOverFetchFactor = 3

// Recency windows tried in order until the excluded fraction of the corpus
// drops to half or less. A small corpus under heavy repeat use must not
// starve itself of candidates.
var recencyWindows = []int{14, 7, 3, 1}

// MealPlanRequest is the input to one orchestrator run.
type MealPlanRequest struct {
	UserID      uuid.UUID
	Count       int
	StartDate   time.Time
	Preferences types.PreferenceBundle
	Inventory   []string
}

// MealPlanService assembles meal plans from corpus retrieval and generative
// fallback: vector search, tag fallback, random fallback, compliance
// filtering, diversity selection, gap generation, final dedup and calendar
// layout.
type MealPlanService struct {
	searcher Searcher
	embedder Embedder
	genAI    Generator
	usage    UsageLog
	store    RecipeStore
	logger   *zap.Logger
}

// NewMealPlanService creates a new MealPlanService instance
func NewMealPlanService(searcher Searcher, embedder Embedder, genAI Generator, usage UsageLog, store RecipeStore, logger *zap.Logger) *MealPlanService {
	return &MealPlanService{
		searcher: searcher,
		embedder: embedder,
		genAI:    genAI,
		usage:    usage,
		store:    store,
		logger:   logger,
	}
}

// SplitTargets computes how many recipes come from the corpus versus the
// generator: an explicit 50/50 policy bounding generation cost while
// guaranteeing variety, capped by the corpus size. The two targets always
// sum to n.
func SplitTargets(n int, corpusSize int64) (fromCorpus, fromGenerator int) {
	fromCorpus = n / 2
	if int64(fromCorpus) > corpusSize {
		fromCorpus = int(corpusSize)
	}
	return fromCorpus, n - fromCorpus
}

// GenerateMealPlan runs the full retrieval and assembly pipeline for one
// request. The plan always reaches the requested count unless the
// generation backend fails, in which case the whole run fails.
func (s *MealPlanService) GenerateMealPlan(ctx context.Context, req MealPlanRequest) (*types.MealPlan, error) {
	if req.Count <= 0 {
		return nil, fmt.Errorf("requested recipe count must be positive")
	}

	corpusSize, err := s.searcher.CountRecipes(ctx)
	if err != nil {
		return nil, err
	}

	excludeIDs, err := s.recentExclusions(ctx, req.UserID, corpusSize)
	if err != nil {
		return nil, err
	}

	targetFromCorpus, targetFromGenerator := SplitTargets(req.Count, corpusSize)
	s.logger.Info("meal plan targets",
		zap.Int("requested", req.Count),
		zap.Int64("corpus_size", corpusSize),
		zap.Int("target_from_corpus", targetFromCorpus),
		zap.Int("target_from_generator", targetFromGenerator),
		zap.Int("excluded_recent", len(excludeIDs)))

	corpusPicks, err := s.retrieveFromCorpus(ctx, req, targetFromCorpus, excludeIDs)
	if err != nil {
		return nil, err
	}

	// The corpus may come up short; the generator absorbs the difference so
	// a thin corpus is never fatal.
	planned := make([]model.Recipe, 0, req.Count)
	seenTitles := make(map[string]struct{}, req.Count)
	for _, candidate := range corpusPicks {
		recipe := candidate.Recipe
		planned = append(planned, recipe)
		seenTitles[recipe.NormalizedTitle()] = struct{}{}
	}
	corpusCount := len(planned)

	var generated []model.Recipe
	gap := req.Count - len(planned)
	if gap > 0 {
		generated, err = s.generateGap(ctx, req, gap, seenTitles)
		if err != nil {
			return nil, err
		}
		planned = append(planned, generated...)
	}

	// One top-up round only: dedup against the whole plan may have dropped
	// generated duplicates, and the caller receives the true achieved count
	// if the corpus and backend genuinely cannot fill the request.
	if remaining := req.Count - len(planned); remaining > 0 && gap > 0 {
		s.logger.Info("issuing top-up generation request", zap.Int("remaining", remaining))
		topUp, err := s.generateGap(ctx, req, remaining, seenTitles)
		if err != nil {
			return nil, err
		}
		generated = append(generated, topUp...)
		planned = append(planned, topUp...)
	}

	if len(generated) > 0 {
		if err := s.persistGenerated(ctx, generated); err != nil {
			return nil, err
		}
	}

	plan := buildCalendar(planned, req.StartDate, req.Count)
	plan.CorpusCount = corpusCount
	plan.GeneratedCount = len(planned) - corpusCount

	usedIDs := make([]uuid.UUID, 0, len(planned))
	for _, recipe := range planned {
		usedIDs = append(usedIDs, recipe.ID)
	}
	if err := s.usage.RecordUsage(ctx, req.UserID, usedIDs); err != nil {
		return nil, err
	}

	s.logger.Info("meal plan assembled",
		zap.Int("achieved", len(plan.Days)),
		zap.Int("from_corpus", plan.CorpusCount),
		zap.Int("from_generator", plan.GeneratedCount))

	return plan, nil
}

// recentExclusions fetches recipe ids recently served to the requester,
// shrinking the lookback window stepwise while the exclusion would cover
// more than half the corpus.
func (s *MealPlanService) recentExclusions(ctx context.Context, userID uuid.UUID, corpusSize int64) ([]uuid.UUID, error) {
	if corpusSize == 0 {
		return nil, nil
	}

	var ids []uuid.UUID
	for _, days := range recencyWindows {
		var err error
		ids, err = s.usage.RecentlyUsed(ctx, userID, days)
		if err != nil {
			return nil, err
		}
		if int64(len(ids))*2 <= corpusSize {
			return ids, nil
		}
		s.logger.Debug("recency window excludes too much of the corpus, shrinking",
			zap.Int("window_days", days),
			zap.Int("excluded", len(ids)),
			zap.Int64("corpus_size", corpusSize))
	}
	// Accept whatever remains at the 1-day window.
	return ids, nil
}

// retrieveFromCorpus runs the search tiers in order, applies the compliance
// filter when needed and selects a diverse subset.
func (s *MealPlanService) retrieveFromCorpus(ctx context.Context, req MealPlanRequest, target int, excludeIDs []uuid.UUID) ([]types.Candidate, error) {
	if target <= 0 {
		return nil, nil
	}

	limit := target * searchOverFetchFactor

	vector, err := s.embedder.EmbedPreferences(ctx, req.Preferences)
	if err != nil {
		return nil, err
	}

	filters := SearchFilters{MaxMinutes: req.Preferences.MaxMinutes, ExcludeIDs: excludeIDs}
	candidates, err := s.searcher.QueryByVector(ctx, vector, limit, filters)
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		if cuisines := req.Preferences.PreferredCuisines(); len(cuisines) > 0 {
			candidates, err = s.searcher.SearchByCuisineTags(ctx, cuisines, excludeIDs, limit)
			if err != nil {
				return nil, err
			}
			if len(candidates) > 0 {
				s.logger.Info("vector search empty, tag fallback used", zap.Int("candidates", len(candidates)))
			}
		}
	}

	if len(candidates) == 0 {
		candidates, err = s.searcher.RandomSample(ctx, limit, excludeIDs)
		if err != nil {
			return nil, err
		}
		if len(candidates) > 0 {
			s.logger.Info("falling back to random sampling", zap.Int("candidates", len(candidates)))
		}
	}

	if HasRestrictions(req.Preferences) {
		before := len(candidates)
		compliant := candidates[:0:0]
		for _, candidate := range candidates {
			if IsCompliant(&candidate.Recipe, req.Preferences) {
				compliant = append(compliant, candidate)
			}
		}
		candidates = compliant
		s.logger.Info("compliance filter applied",
			zap.Int("before", before),
			zap.Int("after", len(candidates)))
	}

	return SelectDiverse(candidates, target, DefaultTitleSimilarityThreshold, DefaultIngredientOverlapThreshold), nil
}

// generateGap asks the generator for exactly gap recipes, then drops any
// whose normalized title is already in the plan. seenTitles is extended
// with the accepted recipes.
func (s *MealPlanService) generateGap(ctx context.Context, req MealPlanRequest, gap int, seenTitles map[string]struct{}) ([]model.Recipe, error) {
	avoid := make([]string, 0, len(seenTitles))
	for title := range seenTitles {
		avoid = append(avoid, title)
	}

	results, err := s.genAI.GenerateRecipes(ctx, req.Preferences, req.Inventory, gap, avoid)
	if err != nil {
		return nil, err
	}

	accepted := make([]model.Recipe, 0, len(results))
	for _, gen := range results {
		recipe := generatedToRecipe(gen, req.UserID)
		key := recipe.NormalizedTitle()
		if _, dup := seenTitles[key]; dup {
			continue
		}
		seenTitles[key] = struct{}{}
		accepted = append(accepted, recipe)
		if len(accepted) == gap {
			break
		}
	}
	return accepted, nil
}

// persistGenerated stores the plan's generated recipes so future plans can
// retrieve them from the corpus. Embeddings are backfilled asynchronously.
func (s *MealPlanService) persistGenerated(ctx context.Context, generated []model.Recipe) error {
	rows := make([]*model.Recipe, 0, len(generated))
	for i := range generated {
		rows = append(rows, &generated[i])
	}
	if err := s.store.CreateRecipes(ctx, rows); err != nil {
		return fmt.Errorf("failed to persist generated recipes: %w", err)
	}
	return nil
}

func generatedToRecipe(gen GeneratedRecipe, userID uuid.UUID) model.Recipe {
	recipe := model.Recipe{
		ID:          uuid.New(),
		Title:       gen.Title,
		Description: gen.Description,
		Cuisine:     gen.Cuisine,
		Tags:        gen.Tags,
		Ingredients: gen.Ingredients,
		Source:      model.SourceMealPlan,
		UserID:      userID,
	}
	if gen.Servings > 0 {
		servings := gen.Servings
		recipe.Servings = &servings
	}
	if gen.TotalMinutes > 0 {
		minutes := gen.TotalMinutes
		recipe.TotalMinutes = &minutes
	}
	for i, text := range gen.Steps {
		recipe.Steps = append(recipe.Steps, model.Step{Number: i + 1, Text: text})
	}
	return recipe
}

// buildCalendar lays the recipes one per day from the start date. The day
// axis is a presentation of the recipe sequence, not an independent
// constraint: the effective end date is start + (len(recipes) - 1) days.
func buildCalendar(recipes []model.Recipe, start time.Time, requested int) *types.MealPlan {
	days := make([]types.MealPlanDay, 0, len(recipes))
	for i := range recipes {
		recipe := recipes[i]
		days = append(days, types.MealPlanDay{
			Date:   start.AddDate(0, 0, i),
			Recipe: &recipe,
		})
	}
	return &types.MealPlan{
		Days:           days,
		RequestedCount: requested,
	}
}

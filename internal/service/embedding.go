package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pantryplan/backend/config"
	"github.com/pantryplan/backend/internal/model"
	"github.com/pantryplan/backend/internal/types"
)

const embeddingCacheTTL = 24 * time.Hour

// EmbeddingService turns free text into fixed-length dense vectors via an
// OpenAI-compatible embeddings endpoint. Computed vectors for query text are
// cached in Redis keyed by a hash of the input, since identical text must map
// to the same vector anyway.
type EmbeddingService struct {
	client *http.Client
	apiURL string
	apiKey string
	model  string
	dims   int
	redis  *redis.Client
	logger *zap.Logger
}

// NewEmbeddingService creates a new EmbeddingService instance. The Redis
// client is optional; without it every call hits the backend.
func NewEmbeddingService(cfg config.EmbeddingConfig, redisClient *redis.Client, logger *zap.Logger) *EmbeddingService {
	return &EmbeddingService{
		client: &http.Client{Timeout: 30 * time.Second},
		apiURL: cfg.APIURL,
		apiKey: cfg.APIKey,
		model:  cfg.Model,
		dims:   cfg.Dimensions,
		redis:  redisClient,
		logger: logger,
	}
}

// Dimensions returns the fixed vector dimensionality.
func (s *EmbeddingService) Dimensions() int {
	return s.dims
}

// Embed returns the embedding vector for the given text.
// Returns ErrEmptyInput if the text is blank after trimming.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyInput
	}

	cacheKey := s.cacheKey(text)
	if s.redis != nil {
		if data, err := s.redis.Get(ctx, cacheKey).Bytes(); err == nil {
			var vec []float32
			if err := json.Unmarshal(data, &vec); err == nil && len(vec) == s.dims {
				return vec, nil
			}
		}
	}

	vec, err := s.fetchEmbedding(ctx, text)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if data, err := json.Marshal(vec); err == nil {
			if err := s.redis.Set(ctx, cacheKey, data, embeddingCacheTTL).Err(); err != nil {
				s.logger.Warn("failed to cache embedding", zap.Error(err))
			}
		}
	}

	return vec, nil
}

// EmbedRecipe embeds the recipe's combined title, description, tags and
// ingredient names. Richer text improves recall for later queries.
func (s *EmbeddingService) EmbedRecipe(ctx context.Context, recipe *model.Recipe) ([]float32, error) {
	return s.Embed(ctx, BuildRecipeText(recipe))
}

// EmbedPreferences embeds a recipe-shaped rendering of the preference bundle.
func (s *EmbeddingService) EmbedPreferences(ctx context.Context, bundle types.PreferenceBundle) ([]float32, error) {
	return s.Embed(ctx, BuildPreferenceText(bundle))
}

func (s *EmbeddingService) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("embedding:%s:%s", s.model, hex.EncodeToString(sum[:]))
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (s *EmbeddingService) fetchEmbedding(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embeddingRequest{Model: s.model, Input: []string{text}})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call embedding backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedding backend returned status %d: %s", resp.StatusCode, string(data))
	}

	var parsed embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}
	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("embedding backend returned no data")
	}

	vec := parsed.Data[0].Embedding
	if len(vec) != s.dims {
		return nil, fmt.Errorf("embedding backend returned %d dimensions, expected %d", len(vec), s.dims)
	}

	return vec, nil
}

// BuildRecipeText concatenates the recipe's title, description, tags and
// ingredient names, in that priority order, into one embeddable string.
func BuildRecipeText(recipe *model.Recipe) string {
	parts := []string{recipe.Title}
	if recipe.Description != "" {
		parts = append(parts, recipe.Description)
	}
	if len(recipe.Tags) > 0 {
		parts = append(parts, strings.Join(recipe.Tags, " "))
	}
	if len(recipe.Ingredients) > 0 {
		names := make([]string, 0, len(recipe.Ingredients))
		for _, ing := range recipe.Ingredients {
			names = append(names, ing.Name)
		}
		parts = append(parts, strings.Join(names, " "))
	}
	return strings.Join(parts, " ")
}

// BuildPreferenceText renders the bundle as recipe-shaped text, because the
// target corpus is recipe text and matching must occur in its language.
// Allergies and exclusions are deliberately omitted: they degrade the
// semantic match and are enforced by the compliance filter instead.
func BuildPreferenceText(bundle types.PreferenceBundle) string {
	var phrases []string

	for _, c := range bundle.Cuisines {
		cuisine := strings.ToLower(strings.TrimSpace(c.Cuisine))
		if cuisine == "" {
			continue
		}
		switch c.Level {
		case types.AffinityLove:
			phrases = append(phrases, cuisine+" recipe", cuisine+" dish")
		case types.AffinityLike:
			phrases = append(phrases, cuisine+" meal")
		}
	}

	if note := strings.TrimSpace(bundle.Note); note != "" {
		phrases = append(phrases, note)
	}

	diet := strings.ToLower(strings.TrimSpace(bundle.DietStyle))
	if diet != "" && diet != types.DefaultDietStyle {
		phrases = append(phrases, diet+" recipe")
	}

	if bundle.MaxMinutes > 0 && bundle.MaxMinutes <= 45 {
		phrases = append(phrases, "quick dinner recipe", "easy meal")
	}

	if len(phrases) == 0 {
		return "dinner recipe meal"
	}

	return strings.Join(phrases, " ")
}

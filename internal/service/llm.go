package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pantryplan/backend/config"
	"github.com/pantryplan/backend/internal/model"
	"github.com/pantryplan/backend/internal/types"
)

// GeneratedRecipe is the structured recipe shape the generation backend
// must return. Anything that cannot be parsed into this shape is a
// generation failure, not a silently-empty success.
type GeneratedRecipe struct {
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	Servings     int                `json:"servings"`
	TotalMinutes int                `json:"total_minutes"`
	Cuisine      string             `json:"cuisine"`
	Tags         []string           `json:"tags"`
	Ingredients  []model.Ingredient `json:"ingredients"`
	Steps        []string           `json:"steps"`
}

// LLMService calls a chat-completions API in JSON mode to synthesize
// recipes when the corpus cannot fill a plan's quota.
type LLMService struct {
	client *http.Client
	apiURL string
	apiKey string
	model  string
	logger *zap.Logger
}

// NewLLMService creates a new LLMService instance
func NewLLMService(cfg config.LLMConfig, logger *zap.Logger) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("LLM API key must be set")
	}
	return &LLMService{
		client: &http.Client{Timeout: 120 * time.Second},
		apiURL: cfg.APIURL,
		apiKey: cfg.APIKey,
		model:  cfg.Model,
		logger: logger,
	}, nil
}

// chatMessage represents a message in the chat
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest represents a request to the chat-completions API
type chatRequest struct {
	Model            string            `json:"model"`
	Messages         []chatMessage     `json:"messages"`
	ResponseFormat   map[string]string `json:"response_format"`
	Temperature      float64           `json:"temperature"`
	TopP             float64           `json:"top_p"`
	FrequencyPenalty float64           `json:"frequency_penalty"`
	PresencePenalty  float64           `json:"presence_penalty"`
}

const generateSystemPrompt = `You are a professional chef planning dinners. Respond only with JSON of the form:
{
    "recipes": [
        {
            "title": "Recipe title",
            "description": "One or two sentence description",
            "servings": 4,
            "total_minutes": 45,
            "cuisine": "Italian",
            "tags": ["weeknight", "pasta"],
            "ingredients": [
                {"name": "spaghetti", "quantity": "400", "unit": "g"},
                {"name": "olive oil", "quantity": "2", "unit": "tbsp", "note": "extra virgin"}
            ],
            "steps": ["Boil the pasta.", "Toss with the sauce."]
        }
    ]
}

Every recipe must have a non-empty title and at least one ingredient.
servings and total_minutes must be numbers, not strings.`

// GenerateRecipes asks the backend for exactly count recipes matching the
// bundle. avoidTitles carries titles already in the plan so the backend is
// told what not to repeat. Returns ErrGenerationFailed when the response is
// empty or cannot be parsed as the expected shape.
func (s *LLMService) GenerateRecipes(ctx context.Context, bundle types.PreferenceBundle, inventory []string, count int, avoidTitles []string) ([]GeneratedRecipe, error) {
	if count <= 0 {
		return nil, nil
	}

	reqBody := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: generateSystemPrompt},
			{Role: "user", Content: buildGenerationPrompt(bundle, inventory, count, avoidTitles)},
		},
		ResponseFormat:   map[string]string{"type": "json_object"},
		Temperature:      0.9,
		TopP:             0.9,
		FrequencyPenalty: 0.5,
		PresencePenalty:  0.5,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call generation API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generation API returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: undecodable API response: %v", ErrGenerationFailed, err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in API response", ErrGenerationFailed)
	}

	var wrapper struct {
		Recipes []GeneratedRecipe `json:"recipes"`
	}
	content := parsed.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), &wrapper); err != nil {
		return nil, fmt.Errorf("%w: malformed recipe payload: %v", ErrGenerationFailed, err)
	}
	if len(wrapper.Recipes) == 0 {
		return nil, fmt.Errorf("%w: empty recipe list", ErrGenerationFailed)
	}

	valid := make([]GeneratedRecipe, 0, len(wrapper.Recipes))
	for _, recipe := range wrapper.Recipes {
		if strings.TrimSpace(recipe.Title) == "" || len(recipe.Ingredients) == 0 {
			s.logger.Warn("discarding generated recipe with missing title or ingredients",
				zap.String("title", recipe.Title))
			continue
		}
		valid = append(valid, recipe)
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("%w: no usable recipes in response", ErrGenerationFailed)
	}

	return valid, nil
}

func buildGenerationPrompt(bundle types.PreferenceBundle, inventory []string, count int, avoidTitles []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Generate %d distinct dinner recipes.", count)

	diet := strings.TrimSpace(bundle.DietStyle)
	if diet != "" && !strings.EqualFold(diet, types.DefaultDietStyle) {
		fmt.Fprintf(&sb, " Every recipe must be %s.", diet)
	}
	if len(bundle.Allergies) > 0 {
		fmt.Fprintf(&sb, " Strictly avoid these allergens: %s.", strings.Join(bundle.Allergies, ", "))
	}
	if len(bundle.Exclusions) > 0 {
		fmt.Fprintf(&sb, " Do not use: %s.", strings.Join(bundle.Exclusions, ", "))
	}
	if cuisines := bundle.PreferredCuisines(); len(cuisines) > 0 {
		fmt.Fprintf(&sb, " Favor these cuisines: %s.", strings.Join(cuisines, ", "))
	}
	if bundle.MaxMinutes > 0 {
		fmt.Fprintf(&sb, " Each recipe must take at most %d minutes in total.", bundle.MaxMinutes)
	}
	if bundle.HouseholdSize > 0 {
		fmt.Fprintf(&sb, " Portion for %d people.", bundle.HouseholdSize)
	}
	if skill := strings.TrimSpace(bundle.SkillLevel); skill != "" {
		fmt.Fprintf(&sb, " Match a %s cooking skill level.", skill)
	}
	if note := strings.TrimSpace(bundle.Note); note != "" {
		fmt.Fprintf(&sb, " Additional wishes: %s.", note)
	}
	if len(inventory) > 0 {
		fmt.Fprintf(&sb, " Prefer using ingredients already on hand: %s.", strings.Join(inventory, ", "))
	}
	if len(avoidTitles) > 0 {
		fmt.Fprintf(&sb, " The plan already contains these recipes, do not repeat them: %s.", strings.Join(avoidTitles, "; "))
	}

	return sb.String()
}

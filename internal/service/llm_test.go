package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pantryplan/backend/config"
	"github.com/pantryplan/backend/internal/types"
)

func newTestLLMService(t *testing.T, handler http.HandlerFunc) *LLMService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewLLMService(config.LLMConfig{
		APIKey: "test-key",
		APIURL: server.URL,
		Model:  "test-model",
	}, zap.NewNop())
	require.NoError(t, err)
	return svc
}

func chatResponse(t *testing.T, content interface{}) []byte {
	t.Helper()
	payload, err := json.Marshal(content)
	require.NoError(t, err)
	body, err := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": string(payload)}},
		},
	})
	require.NoError(t, err)
	return body
}

func TestNewLLMService(t *testing.T) {
	t.Run("fails without an API key", func(t *testing.T) {
		svc, err := NewLLMService(config.LLMConfig{}, zap.NewNop())
		assert.Error(t, err)
		assert.Nil(t, svc)
	})

	t.Run("succeeds with an API key", func(t *testing.T) {
		svc, err := NewLLMService(config.LLMConfig{APIKey: "key"}, zap.NewNop())
		require.NoError(t, err)
		assert.NotNil(t, svc)
	})
}

func TestLLMService_GenerateRecipes(t *testing.T) {
	bundle := types.PreferenceBundle{DietStyle: "vegetarian", MaxMinutes: 40}

	t.Run("parses a well-formed response", func(t *testing.T) {
		svc := newTestLLMService(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

			var req chatRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "test-model", req.Model)
			assert.Equal(t, "json_object", req.ResponseFormat["type"])
			require.Len(t, req.Messages, 2)
			assert.Contains(t, req.Messages[1].Content, "Generate 2 distinct dinner recipes")
			assert.Contains(t, req.Messages[1].Content, "vegetarian")

			w.Write(chatResponse(t, map[string]interface{}{
				"recipes": []map[string]interface{}{
					{
						"title":         "Lentil Shepherd's Pie",
						"description":   "A hearty meatless classic.",
						"servings":      4,
						"total_minutes": 40,
						"cuisine":       "British",
						"tags":          []string{"comfort"},
						"ingredients":   []map[string]string{{"name": "lentils", "quantity": "200", "unit": "g"}},
						"steps":         []string{"Cook the lentils.", "Top with mash and bake."},
					},
					{
						"title":       "Halloumi Skewers",
						"ingredients": []map[string]string{{"name": "halloumi"}},
					},
				},
			}))
		})

		recipes, err := svc.GenerateRecipes(context.Background(), bundle, nil, 2, nil)
		require.NoError(t, err)
		require.Len(t, recipes, 2)
		assert.Equal(t, "Lentil Shepherd's Pie", recipes[0].Title)
		assert.Equal(t, 4, recipes[0].Servings)
		assert.Equal(t, "lentils", recipes[0].Ingredients[0].Name)
	})

	t.Run("discards recipes missing a title or ingredients", func(t *testing.T) {
		svc := newTestLLMService(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write(chatResponse(t, map[string]interface{}{
				"recipes": []map[string]interface{}{
					{"title": "  ", "ingredients": []map[string]string{{"name": "rice"}}},
					{"title": "No Ingredients Curry"},
					{"title": "Good Soup", "ingredients": []map[string]string{{"name": "beans"}}},
				},
			}))
		})

		recipes, err := svc.GenerateRecipes(context.Background(), bundle, nil, 3, nil)
		require.NoError(t, err)
		require.Len(t, recipes, 1)
		assert.Equal(t, "Good Soup", recipes[0].Title)
	})

	t.Run("empty choices is a generation failure", func(t *testing.T) {
		svc := newTestLLMService(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"choices": []}`))
		})

		_, err := svc.GenerateRecipes(context.Background(), bundle, nil, 1, nil)
		assert.ErrorIs(t, err, ErrGenerationFailed)
	})

	t.Run("malformed content is a generation failure", func(t *testing.T) {
		svc := newTestLLMService(t, func(w http.ResponseWriter, r *http.Request) {
			body, err := json.Marshal(map[string]interface{}{
				"choices": []map[string]interface{}{
					{"message": map[string]string{"content": "here are your recipes!"}},
				},
			})
			require.NoError(t, err)
			w.Write(body)
		})

		_, err := svc.GenerateRecipes(context.Background(), bundle, nil, 1, nil)
		assert.ErrorIs(t, err, ErrGenerationFailed)
	})

	t.Run("empty recipe list is a generation failure", func(t *testing.T) {
		svc := newTestLLMService(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write(chatResponse(t, map[string]interface{}{"recipes": []interface{}{}}))
		})

		_, err := svc.GenerateRecipes(context.Background(), bundle, nil, 1, nil)
		assert.ErrorIs(t, err, ErrGenerationFailed)
	})

	t.Run("non-200 status is an error but not a parse failure", func(t *testing.T) {
		svc := newTestLLMService(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		})

		_, err := svc.GenerateRecipes(context.Background(), bundle, nil, 1, nil)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrGenerationFailed)
	})

	t.Run("zero count short-circuits", func(t *testing.T) {
		svc := newTestLLMService(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("backend should not be called for zero count")
		})

		recipes, err := svc.GenerateRecipes(context.Background(), bundle, nil, 0, nil)
		require.NoError(t, err)
		assert.Nil(t, recipes)
	})
}

func TestBuildGenerationPrompt(t *testing.T) {
	prompt := buildGenerationPrompt(types.PreferenceBundle{
		DietStyle:     "vegan",
		Allergies:     []string{"peanut"},
		Exclusions:    []string{"cilantro"},
		Cuisines:      []types.CuisineAffinity{{Cuisine: "Mexican", Level: types.AffinityLove}},
		MaxMinutes:    45,
		HouseholdSize: 3,
		SkillLevel:    "beginner",
		Note:          "spicy please",
	}, []string{"black beans", "rice"}, 4, []string{"beef tacos"})

	assert.Contains(t, prompt, "Generate 4 distinct dinner recipes")
	assert.Contains(t, prompt, "must be vegan")
	assert.Contains(t, prompt, "peanut")
	assert.Contains(t, prompt, "cilantro")
	assert.Contains(t, prompt, "mexican")
	assert.Contains(t, prompt, "at most 45 minutes")
	assert.Contains(t, prompt, "3 people")
	assert.Contains(t, prompt, "beginner")
	assert.Contains(t, prompt, "spicy please")
	assert.Contains(t, prompt, "black beans, rice")
	assert.Contains(t, prompt, "beef tacos")
}

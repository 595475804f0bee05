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
	"github.com/pantryplan/backend/internal/model"
	"github.com/pantryplan/backend/internal/types"
)

func TestBuildPreferenceText(t *testing.T) {
	t.Run("loved cuisines yield two phrases, liked one", func(t *testing.T) {
		text := BuildPreferenceText(types.PreferenceBundle{
			Cuisines: []types.CuisineAffinity{
				{Cuisine: "Italian", Level: types.AffinityLove},
				{Cuisine: "Thai", Level: types.AffinityLike},
				{Cuisine: "German", Level: types.AffinityDislike},
			},
		})
		assert.Equal(t, "italian recipe italian dish thai meal", text)
	})

	t.Run("free-text note is included verbatim", func(t *testing.T) {
		text := BuildPreferenceText(types.PreferenceBundle{Note: "cozy soups for winter"})
		assert.Equal(t, "cozy soups for winter", text)
	})

	t.Run("non-default diet style adds a phrase", func(t *testing.T) {
		text := BuildPreferenceText(types.PreferenceBundle{DietStyle: "vegan"})
		assert.Equal(t, "vegan recipe", text)

		text = BuildPreferenceText(types.PreferenceBundle{DietStyle: "Omnivore", Note: "anything"})
		assert.Equal(t, "anything", text)
	})

	t.Run("tight time bound adds quick phrases", func(t *testing.T) {
		text := BuildPreferenceText(types.PreferenceBundle{MaxMinutes: 30})
		assert.Equal(t, "quick dinner recipe easy meal", text)

		text = BuildPreferenceText(types.PreferenceBundle{MaxMinutes: 90})
		assert.Equal(t, "dinner recipe meal", text)
	})

	t.Run("empty bundle falls back to a generic query", func(t *testing.T) {
		assert.Equal(t, "dinner recipe meal", BuildPreferenceText(types.PreferenceBundle{}))
	})

	t.Run("allergies and exclusions never leak into the query", func(t *testing.T) {
		text := BuildPreferenceText(types.PreferenceBundle{
			Allergies:  []string{"peanut"},
			Exclusions: []string{"cilantro"},
			Note:       "fresh salads",
		})
		assert.Equal(t, "fresh salads", text)
	})
}

func TestBuildRecipeText(t *testing.T) {
	recipe := &model.Recipe{
		Title:       "Shakshuka",
		Description: "Eggs poached in spiced tomato sauce",
		Tags:        model.StringArray{"breakfast", "vegetarian"},
		Ingredients: model.IngredientList{{Name: "eggs"}, {Name: "tomatoes"}},
	}
	assert.Equal(t,
		"Shakshuka Eggs poached in spiced tomato sauce breakfast vegetarian eggs tomatoes",
		BuildRecipeText(recipe))

	bare := &model.Recipe{Title: "Toast"}
	assert.Equal(t, "Toast", BuildRecipeText(bare))
}

func newTestEmbeddingService(t *testing.T, handler http.HandlerFunc, dims int) *EmbeddingService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewEmbeddingService(config.EmbeddingConfig{
		APIURL:     server.URL,
		Model:      "test-model",
		Dimensions: dims,
	}, nil, zap.NewNop())
}

func TestEmbeddingService_Embed(t *testing.T) {
	t.Run("returns the backend vector", func(t *testing.T) {
		svc := newTestEmbeddingService(t, func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Model string   `json:"model"`
				Input []string `json:"input"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "test-model", req.Model)
			assert.Equal(t, []string{"pasta dinner"}, req.Input)

			json.NewEncoder(w).Encode(map[string]interface{}{
				"data": []map[string]interface{}{{"embedding": []float32{0.1, 0.2, 0.3}}},
			})
		}, 3)

		vec, err := svc.Embed(context.Background(), "pasta dinner")
		require.NoError(t, err)
		assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	})

	t.Run("blank input returns ErrEmptyInput without calling the backend", func(t *testing.T) {
		svc := newTestEmbeddingService(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("backend should not be called for blank input")
		}, 3)

		_, err := svc.Embed(context.Background(), "   ")
		assert.ErrorIs(t, err, ErrEmptyInput)
	})

	t.Run("dimension mismatch is an error", func(t *testing.T) {
		svc := newTestEmbeddingService(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"data": []map[string]interface{}{{"embedding": []float32{0.1, 0.2}}},
			})
		}, 3)

		_, err := svc.Embed(context.Background(), "pasta")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dimensions")
	})

	t.Run("backend error status is surfaced", func(t *testing.T) {
		svc := newTestEmbeddingService(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
		}, 3)

		_, err := svc.Embed(context.Background(), "pasta")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "503")
	})
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pantryplan/backend/internal/model"
	"github.com/pantryplan/backend/internal/types"
)

type fakeRecipeProvider struct {
	recipes    []model.Recipe
	byID       map[uuid.UUID]*model.Recipe
	created    *model.Recipe
	err        error
	lastSearch string
	lastLimit  int
}

func (f *fakeRecipeProvider) CreateRecipe(ctx context.Context, recipe *model.Recipe) (*model.Recipe, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = recipe
	return recipe, nil
}

func (f *fakeRecipeProvider) GetRecipe(ctx context.Context, id uuid.UUID) (*model.Recipe, error) {
	if recipe, ok := f.byID[id]; ok {
		return recipe, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRecipeProvider) ListRecipes(ctx context.Context, search string, limit int) ([]model.Recipe, error) {
	f.lastSearch = search
	f.lastLimit = limit
	return f.recipes, f.err
}

func newRecipeRouter(provider *fakeRecipeProvider, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewRecipeHandler(provider, zap.NewNop())
	handler.RegisterRoutes(router.Group("/api/v1"), testUserMiddleware(userID))
	return router
}

func TestRecipeHandler_ListRecipes(t *testing.T) {
	provider := &fakeRecipeProvider{recipes: []model.Recipe{{Title: "Beef Tacos"}}}
	router := newRecipeRouter(provider, uuid.New())

	t.Run("defaults the limit and passes the query through", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/recipes?q=tacos", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "tacos", provider.lastSearch)
		assert.Equal(t, 50, provider.lastLimit)
	})

	t.Run("rejects out-of-range limits", func(t *testing.T) {
		for _, limit := range []string{"0", "201", "abc"} {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/recipes?limit="+limit, nil))
			assert.Equal(t, http.StatusBadRequest, w.Code, "limit=%s", limit)
		}
	})
}

func TestRecipeHandler_GetRecipe(t *testing.T) {
	known := &model.Recipe{ID: uuid.New(), Title: "Pad Thai"}
	provider := &fakeRecipeProvider{byID: map[uuid.UUID]*model.Recipe{known.ID: known}}
	router := newRecipeRouter(provider, uuid.New())

	t.Run("returns the recipe", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/recipes/"+known.ID.String(), nil))

		require.Equal(t, http.StatusOK, w.Code)
		var got model.Recipe
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "Pad Thai", got.Title)
	})

	t.Run("unknown id is a 404", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/recipes/"+uuid.NewString(), nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed id is a 400", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/recipes/not-a-uuid", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRecipeHandler_CreateRecipe(t *testing.T) {
	userID := uuid.New()

	createBody := func(t *testing.T, body interface{}) *httptest.ResponseRecorder {
		t.Helper()
		provider := &fakeRecipeProvider{}
		router := newRecipeRouter(provider, userID)

		data, err := json.Marshal(body)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/recipes", bytes.NewReader(data))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("creates a manual recipe owned by the requester", func(t *testing.T) {
		provider := &fakeRecipeProvider{}
		router := newRecipeRouter(provider, userID)

		body, err := json.Marshal(types.CreateRecipeRequest{
			Title:       "Shakshuka",
			Cuisine:     "Middle Eastern",
			Tags:        []string{"breakfast"},
			Ingredients: []types.IngredientBody{{Name: "eggs", Quantity: "4"}},
			Steps:       []string{"Simmer the sauce.", "Poach the eggs."},
		})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/recipes", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code)
		require.NotNil(t, provider.created)
		assert.Equal(t, model.SourceManual, provider.created.Source)
		assert.Equal(t, userID, provider.created.UserID)
		require.Len(t, provider.created.Steps, 2)
		assert.Equal(t, 1, provider.created.Steps[0].Number)
	})

	t.Run("title and ingredients are required", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, createBody(t, gin.H{"title": "No Ingredients"}).Code)
		assert.Equal(t, http.StatusBadRequest, createBody(t, gin.H{
			"ingredients": []gin.H{{"name": "eggs"}},
		}).Code)
	})
}

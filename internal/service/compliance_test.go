package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pantryplan/backend/internal/model"
	"github.com/pantryplan/backend/internal/types"
)

func recipeWithIngredients(title string, names ...string) *model.Recipe {
	recipe := &model.Recipe{Title: title}
	for _, name := range names {
		recipe.Ingredients = append(recipe.Ingredients, model.Ingredient{Name: name})
	}
	return recipe
}

func TestHasRestrictions(t *testing.T) {
	t.Run("omnivore with nothing else is unrestricted", func(t *testing.T) {
		assert.False(t, HasRestrictions(types.PreferenceBundle{DietStyle: "omnivore"}))
		assert.False(t, HasRestrictions(types.PreferenceBundle{}))
		assert.False(t, HasRestrictions(types.PreferenceBundle{DietStyle: "Omnivore"}))
	})

	t.Run("non-default diet style restricts", func(t *testing.T) {
		assert.True(t, HasRestrictions(types.PreferenceBundle{DietStyle: "vegan"}))
		assert.True(t, HasRestrictions(types.PreferenceBundle{DietStyle: "keto"}))
	})

	t.Run("allergies and exclusions restrict", func(t *testing.T) {
		assert.True(t, HasRestrictions(types.PreferenceBundle{Allergies: []string{"peanut"}}))
		assert.True(t, HasRestrictions(types.PreferenceBundle{Exclusions: []string{"cilantro"}}))
	})
}

func TestIsCompliant_DietStyles(t *testing.T) {
	t.Run("vegan rejects all animal products", func(t *testing.T) {
		bundle := types.PreferenceBundle{DietStyle: "vegan"}

		assert.False(t, IsCompliant(recipeWithIngredients("Stir Fry", "chicken breast", "broccoli"), bundle))
		assert.False(t, IsCompliant(recipeWithIngredients("Chowder", "cod fillet", "potato"), bundle))
		assert.False(t, IsCompliant(recipeWithIngredients("Alfredo", "pasta", "parmesan cheese"), bundle))
		assert.False(t, IsCompliant(recipeWithIngredients("Fried Rice", "rice", "egg"), bundle))
		assert.False(t, IsCompliant(recipeWithIngredients("Granola", "oats", "honey"), bundle))
		assert.True(t, IsCompliant(recipeWithIngredients("Chili", "black beans", "tomato", "onion"), bundle))
	})

	t.Run("vegan rejects milk by substring match", func(t *testing.T) {
		bundle := types.PreferenceBundle{DietStyle: "vegan"}

		assert.False(t, IsCompliant(recipeWithIngredients("Pancakes", "flour", "whole milk"), bundle))
		assert.False(t, IsCompliant(recipeWithIngredients("Curry", "tofu", "Coconut Milk"), bundle))
	})

	t.Run("vegetarian rejects meat and fish but allows dairy and eggs", func(t *testing.T) {
		bundle := types.PreferenceBundle{DietStyle: "vegetarian"}

		assert.False(t, IsCompliant(recipeWithIngredients("Bolognese", "ground meat", "tomato"), bundle))
		assert.False(t, IsCompliant(recipeWithIngredients("Poke Bowl", "salmon", "rice"), bundle))
		assert.True(t, IsCompliant(recipeWithIngredients("Omelette", "egg", "cheddar cheese", "butter"), bundle))
	})

	t.Run("pescatarian rejects only meat", func(t *testing.T) {
		bundle := types.PreferenceBundle{DietStyle: "pescatarian"}

		assert.False(t, IsCompliant(recipeWithIngredients("Carbonara", "bacon", "egg", "pasta"), bundle))
		assert.True(t, IsCompliant(recipeWithIngredients("Grilled Salmon", "salmon", "lemon"), bundle))
	})

	t.Run("diet match is case-insensitive substring over names and notes", func(t *testing.T) {
		bundle := types.PreferenceBundle{DietStyle: "vegetarian"}

		recipe := &model.Recipe{
			Title: "Green Curry",
			Ingredients: model.IngredientList{
				{Name: "curry paste", Note: "contains Shrimp"},
				{Name: "coconut milk"},
			},
		}
		assert.False(t, IsCompliant(recipe, bundle))
	})

	t.Run("unlisted diet styles impose no hard constraint", func(t *testing.T) {
		bundle := types.PreferenceBundle{DietStyle: "keto"}
		assert.True(t, IsCompliant(recipeWithIngredients("Pasta Bake", "pasta", "cheese", "bacon"), bundle))
	})
}

func TestIsCompliant_AllergiesAndExclusions(t *testing.T) {
	t.Run("allergy match on ingredient name", func(t *testing.T) {
		bundle := types.PreferenceBundle{Allergies: []string{"Peanut"}}
		assert.False(t, IsCompliant(recipeWithIngredients("Satay", "peanut butter", "chicken"), bundle))
		assert.True(t, IsCompliant(recipeWithIngredients("Satay", "almond butter", "chicken"), bundle))
	})

	t.Run("allergy match on ingredient note", func(t *testing.T) {
		bundle := types.PreferenceBundle{Allergies: []string{"gluten"}}
		recipe := &model.Recipe{
			Title:       "Noodle Soup",
			Ingredients: model.IngredientList{{Name: "soy sauce", Note: "contains gluten"}},
		}
		assert.False(t, IsCompliant(recipe, bundle))
	})

	t.Run("exclusion matches ingredients and title or description", func(t *testing.T) {
		bundle := types.PreferenceBundle{Exclusions: []string{"mushroom"}}

		assert.False(t, IsCompliant(recipeWithIngredients("Risotto", "mushroom", "rice"), bundle))

		byTitle := &model.Recipe{Title: "Mushroom Stroganoff", Ingredients: model.IngredientList{{Name: "pasta"}}}
		assert.False(t, IsCompliant(byTitle, bundle))

		byDescription := &model.Recipe{
			Title:       "Stroganoff",
			Description: "A creamy mushroom sauce over noodles",
			Ingredients: model.IngredientList{{Name: "pasta"}},
		}
		assert.False(t, IsCompliant(byDescription, bundle))

		clean := &model.Recipe{Title: "Stroganoff", Ingredients: model.IngredientList{{Name: "pasta"}}}
		assert.True(t, IsCompliant(clean, bundle))
	})

	t.Run("blank entries are ignored", func(t *testing.T) {
		bundle := types.PreferenceBundle{Allergies: []string{" "}, Exclusions: []string{""}}
		assert.True(t, IsCompliant(recipeWithIngredients("Anything", "flour"), bundle))
	})
}

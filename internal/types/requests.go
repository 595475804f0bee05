package types

// GenerateMealPlanRequest is the body of POST /api/v1/meal-plans.
type GenerateMealPlanRequest struct {
	Count       int              `json:"count" binding:"required,min=1,max=31"`
	StartDate   string           `json:"start_date"`
	Preferences PreferenceBundle `json:"preferences"`
	Inventory   []string         `json:"inventory"`
}

// CreateRecipeRequest is the body of POST /api/v1/recipes.
type CreateRecipeRequest struct {
	Title        string           `json:"title" binding:"required"`
	Description  string           `json:"description"`
	Servings     *int             `json:"servings"`
	TotalMinutes *int             `json:"total_minutes"`
	Cuisine      string           `json:"cuisine"`
	Tags         []string         `json:"tags"`
	Ingredients  []IngredientBody `json:"ingredients" binding:"required,min=1"`
	Steps        []string         `json:"steps"`
}

// IngredientBody is an ingredient line as submitted over the API.
type IngredientBody struct {
	Name     string `json:"name" binding:"required"`
	Quantity string `json:"quantity"`
	Unit     string `json:"unit"`
	Note     string `json:"note"`
}

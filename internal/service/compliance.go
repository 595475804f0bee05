package service

import (
	"strings"

	"github.com/pantryplan/backend/internal/model"
	"github.com/pantryplan/backend/internal/types"
)

// Ingredient keyword groups used by the diet-style rules. Matching is
// case-insensitive substring matching over ingredient names and notes.
var (
	meatKeywords = []string{
		"beef", "pork", "chicken", "turkey", "lamb", "veal", "duck",
		"bacon", "ham", "sausage", "prosciutto", "salami", "chorizo",
		"venison", "steak", "meatball", "ground meat", "gelatin", "lard",
	}
	fishKeywords = []string{
		"fish", "salmon", "tuna", "cod", "trout", "halibut", "anchovy",
		"sardine", "mackerel", "shrimp", "prawn", "crab", "lobster",
		"scallop", "clam", "mussel", "oyster", "squid", "octopus",
	}
	dairyKeywords = []string{
		"milk", "cheese", "butter", "cream", "yogurt", "ghee", "whey",
		"parmesan", "mozzarella", "cheddar", "ricotta", "mascarpone",
	}
	eggKeywords   = []string{"egg"}
	honeyKeywords = []string{"honey"}
)

// HasRestrictions reports whether the bundle imposes any hard dietary
// constraint. Used upstream to skip filtering entirely when it is free.
func HasRestrictions(bundle types.PreferenceBundle) bool {
	diet := strings.TrimSpace(bundle.DietStyle)
	if diet != "" && !strings.EqualFold(diet, types.DefaultDietStyle) {
		return true
	}
	return len(bundle.Allergies) > 0 || len(bundle.Exclusions) > 0
}

// IsCompliant reports whether the recipe satisfies the bundle's diet style,
// allergies and exclusions. Pure and synchronous: no I/O, no hidden state.
func IsCompliant(recipe *model.Recipe, bundle types.PreferenceBundle) bool {
	ingredientText := ingredientText(recipe)

	switch strings.ToLower(strings.TrimSpace(bundle.DietStyle)) {
	case "vegan":
		if containsAny(ingredientText, meatKeywords) ||
			containsAny(ingredientText, fishKeywords) ||
			containsAny(ingredientText, dairyKeywords) ||
			containsAny(ingredientText, eggKeywords) ||
			containsAny(ingredientText, honeyKeywords) {
			return false
		}
	case "vegetarian":
		if containsAny(ingredientText, meatKeywords) || containsAny(ingredientText, fishKeywords) {
			return false
		}
	case "pescatarian":
		if containsAny(ingredientText, meatKeywords) {
			return false
		}
		// Other diet styles impose no hard constraint here; they only guide
		// the generation prompt.
	}

	for _, allergy := range bundle.Allergies {
		needle := strings.ToLower(strings.TrimSpace(allergy))
		if needle != "" && strings.Contains(ingredientText, needle) {
			return false
		}
	}

	titleText := strings.ToLower(recipe.Title + " " + recipe.Description)
	for _, exclusion := range bundle.Exclusions {
		needle := strings.ToLower(strings.TrimSpace(exclusion))
		if needle == "" {
			continue
		}
		if strings.Contains(ingredientText, needle) || strings.Contains(titleText, needle) {
			return false
		}
	}

	return true
}

func ingredientText(recipe *model.Recipe) string {
	var sb strings.Builder
	for _, ing := range recipe.Ingredients {
		sb.WriteString(strings.ToLower(ing.Name))
		sb.WriteString(" ")
		if ing.Note != "" {
			sb.WriteString(strings.ToLower(ing.Note))
			sb.WriteString(" ")
		}
	}
	return sb.String()
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

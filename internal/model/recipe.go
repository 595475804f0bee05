package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// IngredientSchemaVersion is the current schema version written to the
// ingredients JSONB column.
const IngredientSchemaVersion = 1

// RecipeSource marks where a recipe came from.
type RecipeSource string

const (
	SourceManual    RecipeSource = "manual"
	SourceURLImport RecipeSource = "url_import"
	SourceGenerated RecipeSource = "generated"
	SourceMealPlan  RecipeSource = "meal_plan"
)

// Ingredient is a single ingredient line within a recipe.
type Ingredient struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity,omitempty"`
	Unit     string `json:"unit,omitempty"`
	Note     string `json:"note,omitempty"`
}

// CanonicalID returns the normalized identifier used for ingredient
// overlap comparisons across recipes.
func (i Ingredient) CanonicalID() string {
	name := strings.ToLower(strings.TrimSpace(i.Name))
	return strings.Join(strings.Fields(name), "_")
}

// Step is a single instruction step within a recipe.
type Step struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// ingredientsEnvelope versions the JSONB payload so the stored shape can
// evolve without re-writing existing rows.
type ingredientsEnvelope struct {
	SchemaVersion int          `json:"schema_version"`
	Items         []Ingredient `json:"items"`
}

// IngredientList is a typed JSONB column of ingredients.
type IngredientList []Ingredient

// Value implements the driver.Valuer interface
func (l IngredientList) Value() (driver.Value, error) {
	for _, ing := range l {
		if strings.TrimSpace(ing.Name) == "" {
			return nil, fmt.Errorf("ingredient name must not be empty")
		}
	}
	return json.Marshal(ingredientsEnvelope{
		SchemaVersion: IngredientSchemaVersion,
		Items:         l,
	})
}

// Scan implements the sql.Scanner interface
func (l *IngredientList) Scan(value interface{}) error {
	if value == nil {
		*l = IngredientList{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported ingredients column type %T", value)
	}

	var env ingredientsEnvelope
	if err := json.Unmarshal(bytes, &env); err == nil && env.SchemaVersion > 0 {
		*l = env.Items
		return nil
	}

	// Legacy rows store a bare array.
	var items []Ingredient
	if err := json.Unmarshal(bytes, &items); err != nil {
		return fmt.Errorf("failed to decode ingredients: %w", err)
	}
	*l = items
	return nil
}

// StepList is a typed JSONB column of instruction steps.
type StepList []Step

// Value implements the driver.Valuer interface
func (l StepList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	return json.Marshal(l)
}

// Scan implements the sql.Scanner interface
func (l *StepList) Scan(value interface{}) error {
	if value == nil {
		*l = StepList{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported steps column type %T", value)
	}

	return json.Unmarshal(bytes, l)
}

// StringArray is a typed JSONB column of strings, used for tags.
type StringArray []string

// Value implements the driver.Valuer interface
func (a StringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	return json.Marshal(a)
}

// Scan implements the sql.Scanner interface
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported tags column type %T", value)
	}

	return json.Unmarshal(bytes, a)
}

// Recipe is the persisted culinary unit of retrieval and generation.
// The retrieval pipeline treats recipes as read-only; the embedding is
// attached asynchronously after creation.
type Recipe struct {
	ID           uuid.UUID        `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	DeletedAt    gorm.DeletedAt   `gorm:"index" json:"-"`
	Title        string           `gorm:"size:255;not null" json:"title"`
	Description  string           `gorm:"type:text" json:"description"`
	Servings     *int             `json:"servings,omitempty"`
	TotalMinutes *int             `json:"total_minutes,omitempty"`
	Cuisine      string           `gorm:"size:50" json:"cuisine"`
	Tags         StringArray      `gorm:"type:jsonb;not null;default:'[]'" json:"tags"`
	Ingredients  IngredientList   `gorm:"type:jsonb;not null;default:'[]'" json:"ingredients"`
	Steps        StepList         `gorm:"type:jsonb;not null;default:'[]'" json:"steps"`
	Source       RecipeSource     `gorm:"size:20;not null;default:'manual'" json:"source"`
	Embedding    *pgvector.Vector `gorm:"type:vector(384)" json:"-"`
	EmbedVersion *int             `gorm:"column:embedding_version" json:"-"`
	UserID       uuid.UUID        `gorm:"type:uuid" json:"user_id"`
}

// NormalizedTitle returns the case-insensitive, whitespace-trimmed form
// used as the dedup key within a finalized plan.
func (r *Recipe) NormalizedTitle() string {
	return strings.ToLower(strings.TrimSpace(r.Title))
}

// IngredientIDSet returns the set of canonical ingredient ids.
func (r *Recipe) IngredientIDSet() map[string]struct{} {
	set := make(map[string]struct{}, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		set[ing.CanonicalID()] = struct{}{}
	}
	return set
}

package types

import "strings"

// AffinityLevel expresses how strongly a user feels about a cuisine.
type AffinityLevel string

const (
	AffinityLove    AffinityLevel = "LOVE"
	AffinityLike    AffinityLevel = "LIKE"
	AffinityNeutral AffinityLevel = "NEUTRAL"
	AffinityDislike AffinityLevel = "DISLIKE"
	AffinityAvoid   AffinityLevel = "AVOID"
)

// CuisineAffinity pairs a cuisine with the user's level of interest in it.
type CuisineAffinity struct {
	Cuisine string        `json:"cuisine"`
	Level   AffinityLevel `json:"level"`
}

// DefaultDietStyle is the diet style that imposes no constraint.
const DefaultDietStyle = "omnivore"

// PreferenceBundle is the request-scoped set of dietary, cuisine and time
// constraints that drives both embedding and compliance filtering. It is
// never persisted by the planning core.
type PreferenceBundle struct {
	DietStyle     string            `json:"diet_style"`
	Allergies     []string          `json:"allergies"`
	Exclusions    []string          `json:"exclusions"`
	Cuisines      []CuisineAffinity `json:"cuisines"`
	HouseholdSize int               `json:"household_size"`
	MaxMinutes    int               `json:"max_minutes"`
	SkillLevel    string            `json:"skill_level"`
	Note          string            `json:"note"`
}

// PreferredCuisines returns the loved and liked cuisines, lowercased.
func (b PreferenceBundle) PreferredCuisines() []string {
	var out []string
	for _, c := range b.Cuisines {
		if c.Level == AffinityLove || c.Level == AffinityLike {
			name := strings.ToLower(strings.TrimSpace(c.Cuisine))
			if name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}

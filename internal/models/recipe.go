package models

import "time"

// MissingIngredientLookup is a purchase link for an ingredient the user lacks.
// EstimatedDeliveryMinutes is display filler, not a logistics estimate.
type MissingIngredientLookup struct {
	Ingredient               string `json:"ingredient"`
	SearchURL                string `json:"search_url"`
	EstimatedDeliveryMinutes int    `json:"estimated_delivery_minutes"`
}

// RecipeResult is the outcome of one recipe query.
type RecipeResult struct {
	Query       string                    `json:"query"`
	RawMarkdown string                    `json:"recipe"`
	Ingredients []string                  `json:"ingredients"`
	Missing     []string                  `json:"missing_ingredients"`
	Lookups     []MissingIngredientLookup `json:"lookups"`
	VideoURL    string                    `json:"video_url"`
	VideoID     string                    `json:"video_id"`
	Sequence    uint64                    `json:"sequence"`
	Stale       bool                      `json:"stale,omitempty"`
	GeneratedAt time.Time                 `json:"generated_at"`
}

package recipe

import (
	"math/rand/v2"
	"net/url"
	"strings"

	"fridgefriend/internal/models"
)

// PantryStaples are assumed to be in every kitchen and never reported missing.
var PantryStaples = []string{
	"salt", "sugar", "pepper", "oil", "water", "flour", "baking powder", "baking soda",
	"vinegar", "soy sauce", "ketchup", "mustard", "honey", "butter", "garlic", "onion",
	"ginger", "chili powder", "turmeric", "cumin", "coriander", "paprika", "oregano",
	"basil", "thyme", "rosemary", "cinnamon", "nutmeg", "vanilla extract", "lemon juice",
	"lime juice", "rice", "pasta", "bread", "milk", "eggs", "cheese", "yogurt",
}

const (
	lookupBaseURL       = "https://www.google.com/search?q="
	lookupSuffix        = " buy online india"
	minDeliveryMinutes  = 10
	deliveryMinuteRange = 21
)

// Matcher reports whether candidate covers the recipe ingredient.
type Matcher func(ingredient, candidate string) bool

// DefaultMatcher is a case-insensitive substring test in both directions,
// so "egg" and "eggs" match each other. It errs towards treating things as
// present.
func DefaultMatcher(ingredient, candidate string) bool {
	a := strings.ToLower(strings.TrimSpace(ingredient))
	b := strings.ToLower(strings.TrimSpace(candidate))
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// FindMissingIngredients returns parsed ingredients matched by neither a
// staple nor an inventory item name, deduplicated in first-seen order.
// A nil match uses DefaultMatcher.
func FindMissingIngredients(parsed []string, inventory []models.InventoryItem, staples []string, match Matcher) []string {
	if match == nil {
		match = DefaultMatcher
	}
	seen := make(map[string]struct{})
	missing := make([]string, 0)
	for _, ingredient := range parsed {
		if strings.TrimSpace(ingredient) == "" {
			continue
		}
		if _, dup := seen[ingredient]; dup {
			continue
		}
		if matchesAny(ingredient, staples, match) || matchesInventory(ingredient, inventory, match) {
			continue
		}
		seen[ingredient] = struct{}{}
		missing = append(missing, ingredient)
	}
	return missing
}

func matchesAny(ingredient string, candidates []string, match Matcher) bool {
	for _, c := range candidates {
		if match(ingredient, c) {
			return true
		}
	}
	return false
}

func matchesInventory(ingredient string, inventory []models.InventoryItem, match Matcher) bool {
	for _, item := range inventory {
		if match(ingredient, item.Name) {
			return true
		}
	}
	return false
}

// BuildLookupLinks builds a search link per missing ingredient. Delivery
// minutes are display-only filler drawn from [10, 30]; a nil rnd uses the
// global source.
func BuildLookupLinks(missing []string, rnd *rand.Rand) []models.MissingIngredientLookup {
	links := make([]models.MissingIngredientLookup, 0, len(missing))
	for _, ingredient := range missing {
		var n int
		if rnd != nil {
			n = rnd.IntN(deliveryMinuteRange)
		} else {
			n = rand.IntN(deliveryMinuteRange)
		}
		links = append(links, models.MissingIngredientLookup{
			Ingredient:               ingredient,
			SearchURL:                lookupBaseURL + url.QueryEscape(ingredient+lookupSuffix),
			EstimatedDeliveryMinutes: minDeliveryMinutes + n,
		})
	}
	return links
}

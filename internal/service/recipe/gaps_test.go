package recipe

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fridgefriend/internal/models"
)

func TestFindMissingIngredients(t *testing.T) {
	inv := []models.InventoryItem{{Name: "Tomatoes"}}
	got := FindMissingIngredients([]string{"salt", "tomatoes", "basil"}, inv, []string{"salt", "oil"}, nil)
	assert.Equal(t, []string{"basil"}, got)
}

func TestFindMissingIngredientsDeduplicatesAndSkipsBlank(t *testing.T) {
	got := FindMissingIngredients([]string{"saffron", "", "  ", "saffron", "leek"}, nil, nil, nil)
	assert.Equal(t, []string{"saffron", "leek"}, got)
}

func TestDefaultMatcherIsBidirectional(t *testing.T) {
	assert.True(t, DefaultMatcher("egg", "Eggs"))
	assert.True(t, DefaultMatcher("large eggs", "eggs"))
	assert.True(t, DefaultMatcher(" Chicken Breast ", "chicken breast"))
	assert.False(t, DefaultMatcher("basil", "tomatoes"))
}

func TestFindMissingIngredientsUsesCustomMatcher(t *testing.T) {
	exact := func(a, b string) bool { return strings.EqualFold(a, b) }
	inv := []models.InventoryItem{{Name: "Eggs"}}
	got := FindMissingIngredients([]string{"egg", "eggs"}, inv, nil, exact)
	assert.Equal(t, []string{"egg"}, got)
}

func TestBuildLookupLinks(t *testing.T) {
	links := BuildLookupLinks([]string{"soy sauce", "paneer"}, rand.New(rand.NewPCG(1, 2)))
	require.Len(t, links, 2)
	assert.Equal(t, "soy sauce", links[0].Ingredient)
	assert.Equal(t, "https://www.google.com/search?q=soy+sauce+buy+online+india", links[0].SearchURL)
	for _, l := range links {
		assert.GreaterOrEqual(t, l.EstimatedDeliveryMinutes, 10)
		assert.LessOrEqual(t, l.EstimatedDeliveryMinutes, 30)
	}

	again := BuildLookupLinks([]string{"soy sauce", "paneer"}, rand.New(rand.NewPCG(1, 2)))
	assert.Equal(t, links, again)
	assert.Empty(t, BuildLookupLinks(nil, nil))
}

func TestBuildLookupLinksStaysInRange(t *testing.T) {
	many := make([]string, 500)
	for i := range many {
		many[i] = "x"
	}
	for _, l := range BuildLookupLinks(many, nil) {
		assert.True(t, l.EstimatedDeliveryMinutes >= 10 && l.EstimatedDeliveryMinutes <= 30)
	}
}

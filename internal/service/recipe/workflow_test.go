package recipe

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fridgefriend/internal/inventory"
	"fridgefriend/internal/models"
	"fridgefriend/internal/service/ai"
)

type fakeInventory struct {
	items []models.InventoryItem
	err   error
}

func (f *fakeInventory) FetchInventory(context.Context, int64) ([]models.InventoryItem, error) {
	return f.items, f.err
}

// fakeGenerator answers recipe prompts with recipe and video prompts with video.
type fakeGenerator struct {
	mu       sync.Mutex
	recipe   string
	video    string
	err      error
	videoErr error
	prompts  []string
}

func (f *fakeGenerator) Generate(ctx context.Context, p string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, p)
	f.mu.Unlock()

	if strings.Contains(p, "YouTube URL") {
		if f.videoErr != nil {
			return "", f.videoErr
		}
		return f.video, nil
	}
	if f.err != nil {
		return "", f.err
	}
	return f.recipe, nil
}

func (f *fakeGenerator) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

const stirFry = "# Chicken Stir Fry\n## Ingredients\n- chicken breast\n- bell peppers\n- soy sauce\n## Instructions\n1. Cook."

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestWorkflow(inv InventoryReader, gen Generator) *Workflow {
	return NewWorkflow(inv, gen, nil,
		WithRand(rand.New(rand.NewPCG(7, 7))),
		WithClock(func() time.Time { return fixedNow }))
}

func TestRunChickenStirFry(t *testing.T) {
	inv := &fakeInventory{items: []models.InventoryItem{{Name: "Chicken Breast"}, {Name: "Bell Peppers"}}}
	gen := &fakeGenerator{recipe: stirFry, video: " https://youtu.be/dQw4w9WgXcQ\n"}
	w := newTestWorkflow(inv, gen)

	res, err := w.Run(context.Background(), 1, "chicken stir fry")
	require.NoError(t, err)

	calls := gen.calls()
	require.Len(t, calls, 2)
	assert.Contains(t, calls[0], "Chicken Breast, Bell Peppers")
	assert.Contains(t, calls[1], "chicken stir fry")

	assert.Equal(t, []string{"chicken breast", "bell peppers", "soy sauce"}, res.Ingredients)
	assert.Empty(t, res.Missing)
	assert.Empty(t, res.Lookups)
	assert.Equal(t, "https://youtu.be/dQw4w9WgXcQ", res.VideoURL)
	assert.Equal(t, "dQw4w9WgXcQ", res.VideoID)
	assert.False(t, res.Stale)

	latest, ok := w.Latest(context.Background(), 1)
	require.True(t, ok)
	assert.Same(t, res, latest)
}

func TestRunReportsMissingWithLinks(t *testing.T) {
	gen := &fakeGenerator{recipe: "- paneer\n- salt\n## Instructions", video: "banana"}
	w := newTestWorkflow(&fakeInventory{}, gen)

	res, err := w.Run(context.Background(), 1, "paneer tikka")
	require.NoError(t, err)
	assert.Equal(t, []string{"paneer"}, res.Missing)
	require.Len(t, res.Lookups, 1)
	assert.Contains(t, res.Lookups[0].SearchURL, "paneer+buy+online+india")
	assert.Equal(t, "banana", res.VideoID)
}

func TestRunIsIdempotent(t *testing.T) {
	inv := &fakeInventory{items: []models.InventoryItem{{Name: "Tomatoes"}}}
	run := func() *models.RecipeResult {
		gen := &fakeGenerator{recipe: "- tomatoes\n- saffron\n- leek\n## Instructions", video: "https://youtu.be/dQw4w9WgXcQ"}
		res, err := newTestWorkflow(inv, gen).Run(context.Background(), 3, "soup")
		require.NoError(t, err)
		return res
	}
	assert.Equal(t, run(), run())
}

func TestRunRejectsBlankQuery(t *testing.T) {
	gen := &fakeGenerator{}
	_, err := newTestWorkflow(&fakeInventory{}, gen).Run(context.Background(), 1, "   ")
	assert.ErrorIs(t, err, ErrEmptyQuery)
	assert.Empty(t, gen.calls())
}

func TestRunGenerationFailureSkipsVideo(t *testing.T) {
	cause := &ai.GenerationError{Provider: "gemini", Err: errors.New("boom")}
	gen := &fakeGenerator{err: cause}
	w := newTestWorkflow(&fakeInventory{}, gen)

	res, err := w.Run(context.Background(), 1, "pasta")
	assert.Nil(t, res)
	var genErr *ai.GenerationError
	assert.ErrorAs(t, err, &genErr)
	assert.Len(t, gen.calls(), 1)
	_, ok := w.Latest(context.Background(), 1)
	assert.False(t, ok)
}

func TestRunVideoFailureFailsQuery(t *testing.T) {
	gen := &fakeGenerator{recipe: stirFry, videoErr: &ai.GenerationError{Provider: "gemini", Err: errors.New("quota")}}
	w := newTestWorkflow(&fakeInventory{}, gen)
	_, err := w.Run(context.Background(), 1, "pasta")
	assert.Error(t, err)
	_, ok := w.Latest(context.Background(), 1)
	assert.False(t, ok)
}

func TestRunDegradesOnInventoryErrors(t *testing.T) {
	for _, invErr := range []error{inventory.ErrAuth, fmt.Errorf("%w: disk", inventory.ErrDataAccess)} {
		gen := &fakeGenerator{recipe: "- tomatoes\n## Instructions", video: ""}
		w := newTestWorkflow(&fakeInventory{items: []models.InventoryItem{{Name: "Tomatoes"}}, err: invErr}, gen)
		res, err := w.Run(context.Background(), 1, "salad")
		require.NoError(t, err)
		assert.Equal(t, []string{"tomatoes"}, res.Missing)
		assert.Equal(t, "", res.VideoID)
	}
}

// routedGenerator holds the recipe call for "first" until release is closed.
type routedGenerator struct {
	release chan struct{}
	started chan struct{}
}

func (g *routedGenerator) Generate(_ context.Context, p string) (string, error) {
	switch {
	case strings.Contains(p, "YouTube URL"):
		return "", nil
	case strings.Contains(p, "make: first."):
		close(g.started)
		<-g.release
		return "- first\n## Instructions", nil
	default:
		return "- second\n## Instructions", nil
	}
}

func TestLatestQueryWins(t *testing.T) {
	gen := &routedGenerator{release: make(chan struct{}), started: make(chan struct{})}
	w := newTestWorkflow(&fakeInventory{}, gen)

	type outcome struct {
		res *models.RecipeResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := w.Run(context.Background(), 9, "first")
		done <- outcome{res, err}
	}()
	<-gen.started

	second, err := w.Run(context.Background(), 9, "second")
	require.NoError(t, err)
	assert.False(t, second.Stale)

	close(gen.release)
	first := <-done
	require.NoError(t, first.err)
	assert.True(t, first.res.Stale)
	assert.Equal(t, []string{"first"}, first.res.Ingredients)
	assert.Less(t, first.res.Sequence, second.Sequence)

	latest, ok := w.Latest(context.Background(), 9)
	require.True(t, ok)
	assert.Equal(t, "second", latest.Query)
}

func TestInventoryChangeMidQueryMarksResultStale(t *testing.T) {
	gen := &routedGenerator{release: make(chan struct{}), started: make(chan struct{})}
	inv := &fakeInventory{}
	w := newTestWorkflow(inv, gen)

	done := make(chan *models.RecipeResult, 1)
	go func() {
		res, err := w.Run(context.Background(), 5, "first")
		assert.NoError(t, err)
		done <- res
	}()
	<-gen.started

	inv.items = []models.InventoryItem{{Name: "First"}}
	w.InvalidateUser(context.Background(), 5)
	close(gen.release)

	res := <-done
	require.NotNil(t, res)
	assert.True(t, res.Stale)
	assert.Equal(t, []string{"first"}, res.Missing)

	_, ok := w.Latest(context.Background(), 5)
	assert.False(t, ok)

	fresh, err := w.Run(context.Background(), 5, "second")
	require.NoError(t, err)
	assert.False(t, fresh.Stale)
	latest, ok := w.Latest(context.Background(), 5)
	require.True(t, ok)
	assert.Equal(t, fresh.Sequence, latest.Sequence)
}

func TestWorkflowUsesConfiguredMatcherAndStaples(t *testing.T) {
	gen := &fakeGenerator{
		recipe: "# Toast\n- Sourdough\n- sea salt\n- jam\n## Instructions\n1. Toast.",
		video:  "",
	}
	exact := func(ingredient, candidate string) bool {
		return strings.EqualFold(strings.TrimSpace(ingredient), strings.TrimSpace(candidate))
	}
	w := NewWorkflow(&fakeInventory{items: []models.InventoryItem{{Name: "Sourdough Bread"}}}, gen, nil,
		WithMatcher(exact),
		WithStaples([]string{"jam"}),
		WithRand(rand.New(rand.NewPCG(1, 2))))

	res, err := w.Run(context.Background(), 3, "toast")
	require.NoError(t, err)
	// Exact matching rejects "sourdough" against "Sourdough Bread", and "sea salt"
	// is not in the custom staples list.
	assert.Equal(t, []string{"sourdough", "sea salt"}, res.Missing)
	require.Len(t, res.Lookups, 2)
	assert.Equal(t, "sourdough", res.Lookups[0].Ingredient)
}

func TestInvalidateUserDropsLatest(t *testing.T) {
	gen := &fakeGenerator{recipe: stirFry, video: ""}
	w := newTestWorkflow(&fakeInventory{}, gen)
	_, err := w.Run(context.Background(), 4, "stir fry")
	require.NoError(t, err)

	w.InvalidateUser(context.Background(), 4)
	_, ok := w.Latest(context.Background(), 4)
	assert.False(t, ok)
}

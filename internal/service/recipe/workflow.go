package recipe

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"fridgefriend/internal/inventory"
	"fridgefriend/internal/models"
	"fridgefriend/internal/redis"
	"fridgefriend/internal/service/prompt"
)

// ErrEmptyQuery rejects blank dish requests before any generation call.
var ErrEmptyQuery = errors.New("recipe query is empty")

// Generator produces text for a prompt in a single round trip.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// InventoryReader supplies the user's current items.
type InventoryReader interface {
	FetchInventory(ctx context.Context, userID int64) ([]models.InventoryItem, error)
}

// Workflow runs recipe queries. Each query is tagged with a per-user
// sequence number and only the newest query's result is kept as latest.
type Workflow struct {
	inventory InventoryReader
	gen       Generator
	staples   []string
	match     Matcher
	now       func() time.Time
	log       *zap.Logger

	rndMu sync.Mutex
	rnd   *rand.Rand

	state *userState
	cache *resultCache
}

type Option func(*Workflow)

// WithMatcher swaps the ingredient comparison used for gap detection.
func WithMatcher(m Matcher) Option {
	return func(w *Workflow) {
		if m != nil {
			w.match = m
		}
	}
}

// WithStaples replaces the pantry staples assumed to be at hand.
func WithStaples(staples []string) Option {
	return func(w *Workflow) { w.staples = staples }
}

// WithRand fixes the source of the cosmetic delivery estimates.
func WithRand(rnd *rand.Rand) Option {
	return func(w *Workflow) { w.rnd = rnd }
}

func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

// WithCache mirrors latest results into Redis. A nil client is ignored.
func WithCache(client *redis.Client) Option {
	return func(w *Workflow) { w.cache.client = client }
}

func NewWorkflow(inv InventoryReader, gen Generator, log *zap.Logger, opts ...Option) *Workflow {
	if log == nil {
		log = zap.NewNop()
	}
	w := &Workflow{
		inventory: inv,
		gen:       gen,
		staples:   PantryStaples,
		match:     DefaultMatcher,
		now:       time.Now,
		log:       log,
		state:     newUserState(),
		cache:     newResultCache(nil, log),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run generates a recipe for query, works out what the user lacks and asks
// for a tutorial video. A failed generation call fails the whole query and
// leaves no partial result. If a newer query was issued for the same user
// while this one ran, the result is returned with Stale set and is not
// recorded as latest.
func (w *Workflow) Run(ctx context.Context, userID int64, query string) (*models.RecipeResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	seq := w.state.next(userID)
	w.cache.drop(ctx, userID)
	logger := w.log.With(zap.Int64("user_id", userID), zap.Uint64("seq", seq))

	items := loadInventory(ctx, w.inventory, userID, logger)

	raw, err := w.gen.Generate(ctx, prompt.BuildRecipePrompt(query, items))
	if err != nil {
		logger.Warn("recipe generation failed", zap.Error(err))
		return nil, err
	}

	ingredients := ParseIngredients(raw)
	missing := FindMissingIngredients(ingredients, items, w.staples, w.match)
	lookups := w.buildLinks(missing)

	videoURL, err := w.gen.Generate(ctx, prompt.BuildVideoPrompt(query))
	if err != nil {
		logger.Warn("video generation failed", zap.Error(err))
		return nil, err
	}
	videoURL = strings.TrimSpace(videoURL)

	res := &models.RecipeResult{
		Query:       query,
		RawMarkdown: raw,
		Ingredients: ingredients,
		Missing:     missing,
		Lookups:     lookups,
		VideoURL:    videoURL,
		VideoID:     ExtractVideoID(videoURL),
		Sequence:    seq,
		GeneratedAt: w.now(),
	}

	if !w.state.publish(userID, res) {
		res.Stale = true
		logger.Info("discarding stale recipe result", zap.Uint64("latest_seq", w.state.current(userID)))
		return res, nil
	}
	w.cache.store(ctx, userID, res)
	logger.Info("recipe generated",
		zap.Int("ingredients", len(ingredients)),
		zap.Int("missing", len(missing)))
	return res, nil
}

// Latest returns the most recent published result for userID, checking
// this process first and Redis second.
func (w *Workflow) Latest(ctx context.Context, userID int64) (*models.RecipeResult, bool) {
	if res := w.state.get(userID); res != nil {
		return res, true
	}
	return w.cache.load(ctx, userID)
}

// InvalidateUser forgets userID's latest result everywhere and marks queries
// in flight as stale. Register it as an inventory change hook.
func (w *Workflow) InvalidateUser(ctx context.Context, userID int64) {
	w.state.invalidate(userID)
	w.cache.drop(ctx, userID)
	w.cache.publishInvalidation(ctx, userID)
}

// Listen applies invalidations published by other instances until ctx ends.
func (w *Workflow) Listen(ctx context.Context) {
	w.cache.startListener(ctx, func(userID int64) {
		w.log.Debug("recipe result invalidated", zap.Int64("user_id", userID))
		w.state.invalidate(userID)
	})
}

func (w *Workflow) buildLinks(missing []string) []models.MissingIngredientLookup {
	if w.rnd == nil {
		return BuildLookupLinks(missing, nil)
	}
	w.rndMu.Lock()
	defer w.rndMu.Unlock()
	return BuildLookupLinks(missing, w.rnd)
}

// loadInventory reads the user's items, treating any failure as an empty
// fridge. Missing sessions are silent; backend failures are logged.
func loadInventory(ctx context.Context, reader InventoryReader, userID int64, log *zap.Logger) []models.InventoryItem {
	items, err := reader.FetchInventory(ctx, userID)
	switch {
	case err == nil:
		return items
	case errors.Is(err, inventory.ErrAuth):
		return nil
	default:
		log.Warn("inventory unavailable, continuing with empty inventory", zap.Error(err))
		return nil
	}
}

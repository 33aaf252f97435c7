package inventory

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fridgefriend/internal/config"
	"fridgefriend/internal/models"
	"fridgefriend/internal/storage"
)

var fixedNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func TestFetchInventoryOrdersAndAnnotates(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()
	userID := insertUser(t, db, "alice")
	other := insertUser(t, db, "bob")
	store := NewStore(db, false, nil, WithClock(clock))
	ctx := context.Background()

	_, err := store.AddItem(ctx, userID, models.InventoryItem{Name: "Tomatoes", Quantity: 4, Unit: "pieces", ExpiryDate: fixedNow.AddDate(0, 0, 8)})
	require.NoError(t, err)
	_, err = store.AddItem(ctx, userID, models.InventoryItem{Name: "Milk", Quantity: 1, ExpiryDate: fixedNow.AddDate(0, 0, -1)})
	require.NoError(t, err)
	_, err = store.AddItem(ctx, userID, models.InventoryItem{Name: "Chicken Breast", Quantity: 500, ExpiryDate: fixedNow})
	require.NoError(t, err)
	_, err = store.AddItem(ctx, other, models.InventoryItem{Name: "Caviar", ExpiryDate: fixedNow})
	require.NoError(t, err)

	items, err := store.FetchInventory(ctx, userID)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "Milk", items[0].Name)
	assert.Equal(t, -1, items[0].RemainingDays)
	assert.Equal(t, models.StatusExpired, items[0].Status)

	assert.Equal(t, "Chicken Breast", items[1].Name)
	assert.Equal(t, 0, items[1].RemainingDays)
	assert.Equal(t, models.StatusExpiringToday, items[1].Status)

	assert.Equal(t, "Tomatoes", items[2].Name)
	assert.Equal(t, 8, items[2].RemainingDays)
	assert.Equal(t, models.StatusFresh, items[2].Status)
}

func TestFetchInventoryErrors(t *testing.T) {
	db := openTestDB(t)
	store := NewStore(db, false, nil)

	_, err := store.FetchInventory(context.Background(), 0)
	assert.ErrorIs(t, err, ErrAuth)

	db.Close()
	_, err = store.FetchInventory(context.Background(), 1)
	assert.ErrorIs(t, err, ErrDataAccess)
}

func TestAddItemValidation(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()
	userID := insertUser(t, db, "carol")
	store := NewStore(db, false, nil)
	ctx := context.Background()

	_, err := store.AddItem(ctx, userID, models.InventoryItem{Name: "  ", ExpiryDate: fixedNow})
	assert.ErrorIs(t, err, ErrInvalidItem)
	_, err = store.AddItem(ctx, userID, models.InventoryItem{Name: "Eggs"})
	assert.ErrorIs(t, err, ErrInvalidItem)
	_, err = store.AddItem(ctx, userID, models.InventoryItem{Name: "Eggs", Quantity: -1, ExpiryDate: fixedNow})
	assert.ErrorIs(t, err, ErrInvalidItem)
}

func TestDeleteItemNotifiesListeners(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()
	userID := insertUser(t, db, "dave")
	store := NewStore(db, false, nil)
	ctx := context.Background()

	var changed []int64
	store.OnChange(func(_ context.Context, id int64) { changed = append(changed, id) })

	item, err := store.AddItem(ctx, userID, models.InventoryItem{Name: "Eggs", ExpiryDate: fixedNow})
	require.NoError(t, err)
	require.NoError(t, store.DeleteItem(ctx, userID, item.ID))
	assert.ErrorIs(t, store.DeleteItem(ctx, userID, item.ID), sql.ErrNoRows)
	assert.Equal(t, []int64{userID, userID}, changed)
}

func TestDemoModeServesFixedInventory(t *testing.T) {
	store := NewStore(nil, true, nil, WithClock(clock))
	items, err := store.FetchInventory(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, items, len(demoProducts))

	assert.Equal(t, "Chicken Breast", items[0].Name)
	assert.Equal(t, 2, items[0].RemainingDays)
	assert.Equal(t, models.StatusExpiringSoon, items[0].Status)
	last := items[len(items)-1]
	assert.Equal(t, "Cheddar Cheese", last.Name)
	assert.Equal(t, models.StatusFresh, last.Status)
	for _, it := range items {
		assert.Equal(t, int64(42), it.UserID)
	}

	_, err = store.AddItem(context.Background(), 42, models.InventoryItem{Name: "x", ExpiryDate: fixedNow})
	assert.ErrorIs(t, err, ErrDemoReadOnly)
	assert.ErrorIs(t, store.DeleteItem(context.Background(), 42, 1), ErrDemoReadOnly)
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	cfg := &config.Config{
		Databases: map[string]config.DatabaseConfig{"sqlite3": {DSN: ":memory:"}},
	}
	db, err := storage.Open("sqlite3", cfg)
	require.NoError(t, err)
	require.NoError(t, storage.Migrate(db, "sqlite3"))
	return db
}

func insertUser(t *testing.T, db *sql.DB, name string) int64 {
	t.Helper()
	res, err := db.Exec(`INSERT INTO users (username, password_hash, created_at) VALUES (?, '', ?)`, name, time.Now().UTC())
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

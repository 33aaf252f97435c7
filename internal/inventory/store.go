// Package inventory reads and writes a user's perishable items and derives
// their freshness.
package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"fridgefriend/internal/models"
)

var (
	// ErrAuth means there is no authenticated user to read inventory for.
	ErrAuth = errors.New("no authenticated session")
	// ErrDataAccess wraps any persistence failure.
	ErrDataAccess = errors.New("inventory data access failed")
	// ErrDemoReadOnly is returned for writes while demo mode is on.
	ErrDemoReadOnly = errors.New("inventory is read-only in demo mode")
	ErrInvalidItem  = errors.New("invalid inventory item")
)

// ChangeFunc is notified after a user's inventory was modified.
type ChangeFunc func(ctx context.Context, userID int64)

// Store serves inventory from the products table, or from the fixed demo set
// when constructed in demo mode.
type Store struct {
	db   *sql.DB
	demo bool
	log  *zap.Logger
	now  func() time.Time

	mu        sync.RWMutex
	listeners []ChangeFunc
}

type Option func(*Store)

// WithClock overrides the time source used for freshness calculations.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(db *sql.DB, demo bool, log *zap.Logger, opts ...Option) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{db: db, demo: demo, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DemoMode reports whether the store serves demo data.
func (s *Store) DemoMode() bool { return s.demo }

// OnChange registers fn to run after AddItem or DeleteItem succeed.
func (s *Store) OnChange(fn ChangeFunc) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// FetchInventory returns the user's items ordered by expiry date, soonest
// first, each annotated with remaining days and status. It makes a single
// attempt against the database.
func (s *Store) FetchInventory(ctx context.Context, userID int64) ([]models.InventoryItem, error) {
	if userID <= 0 {
		return nil, ErrAuth
	}
	now := s.now()
	if s.demo {
		return demoItems(userID, now), nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, product_name, quantity, unit, category, storage_location, expiry_date, created_at
		 FROM products WHERE user_id = ? ORDER BY expiry_date ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: query products: %w", ErrDataAccess, err)
	}
	defer rows.Close()

	items := make([]models.InventoryItem, 0)
	for rows.Next() {
		var it models.InventoryItem
		if err := rows.Scan(&it.ID, &it.UserID, &it.Name, &it.Quantity, &it.Unit,
			&it.Category, &it.StorageLocation, &it.ExpiryDate, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan product: %w", ErrDataAccess, err)
		}
		it.Annotate(now)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate products: %w", ErrDataAccess, err)
	}
	return items, nil
}

// AddItem stores a new product for the user.
func (s *Store) AddItem(ctx context.Context, userID int64, item models.InventoryItem) (*models.InventoryItem, error) {
	if userID <= 0 {
		return nil, ErrAuth
	}
	if s.demo {
		return nil, ErrDemoReadOnly
	}
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return nil, fmt.Errorf("%w: product name is required", ErrInvalidItem)
	}
	if item.ExpiryDate.IsZero() {
		return nil, fmt.Errorf("%w: expiry date is required", ErrInvalidItem)
	}
	if item.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity cannot be negative", ErrInvalidItem)
	}
	expiry := item.ExpiryDate
	item.ExpiryDate = time.Date(expiry.Year(), expiry.Month(), expiry.Day(), 0, 0, 0, 0, time.UTC)
	item.UserID = userID
	item.CreatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO products (user_id, product_name, quantity, unit, category, storage_location, expiry_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, item.Name, item.Quantity, strings.TrimSpace(item.Unit), strings.TrimSpace(item.Category),
		strings.TrimSpace(item.StorageLocation), item.ExpiryDate, item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: insert product: %w", ErrDataAccess, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("%w: product id: %w", ErrDataAccess, err)
	}
	item.ID = id
	item.Annotate(s.now())
	s.notify(ctx, userID)
	return &item, nil
}

// DeleteItem removes one of the user's products. It returns sql.ErrNoRows
// when the item does not exist or belongs to someone else.
func (s *Store) DeleteItem(ctx context.Context, userID, itemID int64) error {
	if userID <= 0 {
		return ErrAuth
	}
	if s.demo {
		return ErrDemoReadOnly
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = ? AND user_id = ?`, itemID, userID)
	if err != nil {
		return fmt.Errorf("%w: delete product: %w", ErrDataAccess, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected: %w", ErrDataAccess, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	s.notify(ctx, userID)
	return nil
}

func (s *Store) notify(ctx context.Context, userID int64) {
	s.mu.RLock()
	listeners := append([]ChangeFunc(nil), s.listeners...)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn(ctx, userID)
	}
}

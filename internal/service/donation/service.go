// Package donation records food donations to communities and the credits
// they earn.
package donation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"fridgefriend/internal/models"
	"fridgefriend/internal/storage"
)

// KgPerCredit is how much donated food earns one community credit.
const KgPerCredit = 5

// Categories lists the accepted food categories.
var Categories = []string{"Vegetarian", "Non-Vegetarian", "Vegan", "Dessert", "Other"}

var (
	ErrInvalidCategory   = errors.New("invalid food category")
	ErrInvalidQuantity   = errors.New("quantity must be a positive number of kilograms")
	ErrInvalidCommunity  = errors.New("invalid community")
	ErrCommunityNotFound = errors.New("community not found")
	ErrCommunityExists   = errors.New("community already exists")
	ErrUnknownLocation   = errors.New("unknown donation location")
)

// Request is a single donation submitted by a user.
type Request struct {
	CommunityID int64
	Category    string
	QuantityKg  float64
	Location    string
}

type Service struct {
	db  *sql.DB
	log *zap.Logger
	now func() time.Time
}

func NewService(db *sql.DB, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{db: db, log: log, now: time.Now}
}

// CreditsFor returns the whole credits earned by donating kg kilograms.
func CreditsFor(kg float64) int64 {
	if kg <= 0 || math.IsNaN(kg) || math.IsInf(kg, 0) {
		return 0
	}
	return int64(math.Floor(kg / KgPerCredit))
}

// ListCommunities returns every community with its running totals.
func (s *Service) ListCommunities(ctx context.Context) ([]models.Community, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, credits, food_saved_kg FROM communities ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list communities: %w", err)
	}
	defer rows.Close()

	communities := make([]models.Community, 0)
	for rows.Next() {
		var c models.Community
		if err := rows.Scan(&c.ID, &c.Name, &c.Credits, &c.FoodSavedKg); err != nil {
			return nil, fmt.Errorf("scan community: %w", err)
		}
		communities = append(communities, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate communities: %w", err)
	}
	return communities, nil
}

// CreateCommunity registers a community with zero totals.
func (s *Service) CreateCommunity(ctx context.Context, name string) (*models.Community, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidCommunity
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO communities (name) VALUES (?)`, name)
	if err != nil {
		if storage.IsUniqueViolation(err) {
			return nil, ErrCommunityExists
		}
		return nil, fmt.Errorf("create community: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("community id: %w", err)
	}
	return &models.Community{ID: id, Name: name}, nil
}

// Donate adds the donation to the community's totals and records it, in
// one transaction.
func (s *Service) Donate(ctx context.Context, userID int64, req Request) (*models.Donation, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	credits := CreditsFor(req.QuantityKg)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin donation tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE communities SET credits = credits + ?, food_saved_kg = food_saved_kg + ? WHERE id = ?`,
		credits, req.QuantityKg, req.CommunityID)
	if err != nil {
		return nil, fmt.Errorf("update community totals: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, ErrCommunityNotFound
	}

	now := s.now().UTC()
	res, err = tx.ExecContext(ctx,
		`INSERT INTO donations (user_id, community_id, category, quantity_kg, credits, location_name, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, req.CommunityID, req.Category, req.QuantityKg, credits, req.Location, now)
	if err != nil {
		return nil, fmt.Errorf("insert donation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("donation id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit donation: %w", err)
	}

	s.log.Info("donation recorded",
		zap.Int64("user_id", userID),
		zap.Int64("community_id", req.CommunityID),
		zap.Float64("quantity_kg", req.QuantityKg),
		zap.Int64("credits", credits))

	return &models.Donation{
		ID:           id,
		UserID:       userID,
		CommunityID:  req.CommunityID,
		Category:     req.Category,
		QuantityKg:   req.QuantityKg,
		Credits:      credits,
		LocationName: req.Location,
		CreatedAt:    now,
	}, nil
}

func validateRequest(req Request) error {
	if req.CommunityID <= 0 {
		return ErrInvalidCommunity
	}
	if !slices.Contains(Categories, req.Category) {
		return ErrInvalidCategory
	}
	if req.QuantityKg <= 0 || math.IsNaN(req.QuantityKg) || math.IsInf(req.QuantityKg, 0) {
		return ErrInvalidQuantity
	}
	if req.Location != "" {
		if _, ok := FindLocation(req.Location); !ok {
			return ErrUnknownLocation
		}
	}
	return nil
}

package models

import "time"

type Community struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Credits     int64   `json:"credits"`
	FoodSavedKg float64 `json:"food_saved_kg"`
}

type Donation struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	CommunityID  int64     `json:"community_id"`
	Category     string    `json:"category"`
	QuantityKg   float64   `json:"quantity_kg"`
	Credits      int64     `json:"credits"`
	LocationName string    `json:"location,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Location is a partner organisation shown on the donation map.
type Location struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Capacity int     `json:"capacity,omitempty"`
	Surplus  int     `json:"surplus,omitempty"`
	Needs    int     `json:"needs,omitempty"`
}

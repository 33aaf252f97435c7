package inventory

import (
	"slices"
	"time"

	"fridgefriend/internal/models"
)

type demoProduct struct {
	name     string
	quantity float64
	unit     string
	days     int
	category string
	location string
}

// Expiry is relative to the day the data is served.
var demoProducts = []demoProduct{
	{"Fresh Carrots", 2, "kg", 7, "Vegetables", "Fridge Drawer"},
	{"Organic Milk", 1, "liter", 5, "Dairy", "Main Shelf"},
	{"Chicken Breast", 500, "grams", 2, "Meat", "Freezer"},
	{"Greek Yogurt", 2, "cups", 10, "Dairy", "Main Shelf"},
	{"Tomatoes", 4, "pieces", 3, "Vegetables", "Counter"},
	{"Eggs", 12, "pieces", 15, "Dairy", "Door Shelf"},
	{"Bell Peppers", 3, "pieces", 8, "Vegetables", "Fridge Drawer"},
	{"Cheddar Cheese", 300, "grams", 20, "Dairy", "Main Shelf"},
}

func demoItems(userID int64, now time.Time) []models.InventoryItem {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	items := make([]models.InventoryItem, 0, len(demoProducts))
	for i, p := range demoProducts {
		it := models.InventoryItem{
			ID:              int64(i + 1),
			UserID:          userID,
			Name:            p.name,
			Quantity:        p.quantity,
			Unit:            p.unit,
			Category:        p.category,
			StorageLocation: p.location,
			ExpiryDate:      today.AddDate(0, 0, p.days),
			CreatedAt:       today,
		}
		it.Annotate(now)
		items = append(items, it)
	}
	sortByExpiry(items)
	return items
}

func sortByExpiry(items []models.InventoryItem) {
	slices.SortStableFunc(items, func(a, b models.InventoryItem) int {
		return a.ExpiryDate.Compare(b.ExpiryDate)
	})
}

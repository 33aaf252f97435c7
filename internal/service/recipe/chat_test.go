package recipe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fridgefriend/internal/inventory"
	"fridgefriend/internal/models"
)

type fakeChatter struct {
	system, user string
	reply        string
	err          error
}

func (f *fakeChatter) Chat(_ context.Context, system, user string) (string, error) {
	f.system, f.user = system, user
	return f.reply, f.err
}

func TestAssistantIncludesInventory(t *testing.T) {
	item := models.InventoryItem{Name: "Organic Milk", Quantity: 1, ExpiryDate: time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), RemainingDays: 2}
	model := &fakeChatter{reply: " Drink the milk first. "}
	a := NewAssistant(&fakeInventory{items: []models.InventoryItem{item}}, model, nil)

	reply, err := a.Chat(context.Background(), 1, "what expires soon?")
	require.NoError(t, err)
	assert.Equal(t, "Drink the milk first.", reply.Reply)
	assert.Equal(t, "what expires soon?", model.user)
	assert.Contains(t, model.system, `"name": "Organic Milk"`)
	assert.Contains(t, model.system, "May 03, 2024")
}

func TestAssistantFallsBackWithoutInventory(t *testing.T) {
	model := &fakeChatter{reply: "ok"}
	a := NewAssistant(&fakeInventory{err: inventory.ErrDataAccess}, model, nil)
	_, err := a.Chat(context.Background(), 1, "hi")
	require.NoError(t, err)
	assert.Contains(t, model.system, "loading the user's fridge data")

	a = NewAssistant(&fakeInventory{err: inventory.ErrAuth}, model, nil)
	_, err = a.Chat(context.Background(), 1, "hi")
	require.NoError(t, err)
	assert.Contains(t, model.system, "no products in their fridge")
}

func TestAssistantErrors(t *testing.T) {
	a := NewAssistant(&fakeInventory{}, &fakeChatter{err: errors.New("down")}, nil)
	_, err := a.Chat(context.Background(), 1, " ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	_, err = a.Chat(context.Background(), 1, "hello")
	assert.EqualError(t, err, "down")
}

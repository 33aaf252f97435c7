package recipe

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"fridgefriend/internal/inventory"
	"fridgefriend/internal/models"
	"fridgefriend/internal/service/prompt"
)

var ErrEmptyMessage = errors.New("chat message is empty")

// Chatter answers a user message under a system context.
type Chatter interface {
	Chat(ctx context.Context, system, user string) (string, error)
}

// Assistant answers one-off questions about the user's fridge. Nothing is
// remembered between messages.
type Assistant struct {
	inventory InventoryReader
	model     Chatter
	log       *zap.Logger
}

func NewAssistant(inv InventoryReader, model Chatter, log *zap.Logger) *Assistant {
	if log == nil {
		log = zap.NewNop()
	}
	return &Assistant{inventory: inv, model: model, log: log}
}

// Chat replies to message with the user's inventory as context. When the
// inventory cannot be read the assistant falls back to general advice.
func (a *Assistant) Chat(ctx context.Context, userID int64, message string) (*models.ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	items, err := a.inventory.FetchInventory(ctx, userID)
	loaded := err == nil || errors.Is(err, inventory.ErrAuth)
	if err != nil && loaded {
		items = nil
	}
	if !loaded {
		a.log.Warn("chat without inventory context", zap.Int64("user_id", userID), zap.Error(err))
	}

	reply, err := a.model.Chat(ctx, prompt.BuildChatContext(items, loaded), message)
	if err != nil {
		a.log.Warn("chat generation failed", zap.Int64("user_id", userID), zap.Error(err))
		return nil, err
	}
	return &models.ChatReply{Reply: strings.TrimSpace(reply)}, nil
}

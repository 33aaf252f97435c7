// Package ai sends prompts to the configured chat model and returns plain text.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"fridgefriend/internal/config"
	"fridgefriend/internal/models"
)

// GenerationError reports any failure of a generation round trip. Transport,
// quota and malformed-response failures are not distinguished.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation via %s failed: %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Client performs single, uncached, unretried generation calls.
type Client struct {
	chatModel model.BaseChatModel
	provider  string
	timeout   time.Duration
	log       *zap.Logger
}

// NewClient builds the chat model for the configured provider.
func NewClient(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Client, error) {
	provider, provCfg := cfg.Provider()
	if provCfg.APIKey == "" {
		return nil, fmt.Errorf("api key for provider %s not configured", provider)
	}

	var (
		chatModel model.BaseChatModel
		err       error
	)
	switch provider {
	case "gemini":
		var client *genai.Client
		client, err = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  provCfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		chatModel, err = gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  provCfg.Model,
		})
	case "openai":
		chatModel, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: provCfg.BaseURL,
			Model:   provCfg.Model,
			APIKey:  provCfg.APIKey,
		})
	case "claude":
		var baseURL *string
		if provCfg.BaseURL != "" {
			baseURL = &provCfg.BaseURL
		}
		chatModel, err = claude.NewChatModel(ctx, &claude.Config{
			APIKey:    provCfg.APIKey,
			Model:     provCfg.Model,
			BaseURL:   baseURL,
			MaxTokens: 3000,
		})
	default:
		return nil, fmt.Errorf("invalid provider: %s", provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s chat model: %w", provider, err)
	}

	timeout := time.Duration(cfg.Generation.TimeoutSeconds) * time.Second
	return NewClientWithModel(provider, chatModel, timeout, log), nil
}

// NewClientWithModel wraps an existing chat model. A zero timeout leaves calls unbounded.
func NewClientWithModel(provider string, chatModel model.BaseChatModel, timeout time.Duration, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{chatModel: chatModel, provider: provider, timeout: timeout, log: log}
}

// Generate sends prompt as a single user message and returns the reply text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.Complete(ctx, []models.Message{{Role: models.RoleUser, Content: prompt}})
}

// Complete sends the messages as one request; there is no history beyond them.
func (c *Client) Complete(ctx context.Context, messages []models.Message) (string, error) {
	if len(messages) == 0 {
		return "", &GenerationError{Provider: c.provider, Err: errors.New("empty prompt")}
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.chatModel.Generate(ctx, convertMessages(messages))
	if err != nil {
		c.log.Warn("generation failed",
			zap.String("provider", c.provider),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", &GenerationError{Provider: c.provider, Err: err}
	}
	if resp == nil {
		return "", &GenerationError{Provider: c.provider, Err: errors.New("empty response")}
	}
	c.log.Debug("generation completed",
		zap.String("provider", c.provider),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("chars", len(resp.Content)))
	return resp.Content, nil
}

func convertMessages(messages []models.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(messages))
	for _, msg := range messages {
		var role schema.RoleType
		switch msg.Role {
		case models.RoleAssistant:
			role = schema.Assistant
		case models.RoleSystem:
			role = schema.System
		default:
			role = schema.User
		}
		out = append(out, &schema.Message{Role: role, Content: msg.Content})
	}
	return out
}

// Chat sends a system context followed by the user's message.
func (c *Client) Chat(ctx context.Context, system, user string) (string, error) {
	return c.Complete(ctx, []models.Message{
		{Role: models.RoleSystem, Content: system},
		{Role: models.RoleUser, Content: user},
	})
}

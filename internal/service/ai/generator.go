package ai

import (
	"context"
	"fmt"
	"log"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/lumenchat/backend/internal/config"
)

// Generator produces a lazy, finite, non-restartable sequence of text
// fragments for a user message. The sequence may fail at any point; callers
// own recovery.
type Generator interface {
	Stream(ctx context.Context, userText string) (*schema.StreamReader[*schema.Message], error)
}

// Service drives the configured chat model through an eino chain.
type Service struct {
	chatModel model.ChatModel
	cfg       config.AIConfig
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewService creates the generator backing the stream relay.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		chatModel: chatModel,
		cfg:       cfg,
		chain:     runnable,
	}, nil
}

// Stream implements Generator. The returned reader yields message fragments
// until io.EOF or an upstream failure.
func (s *Service) Stream(ctx context.Context, userText string) (*schema.StreamReader[*schema.Message], error) {
	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		// The reader outlives this call; tie cancellation to context exhaustion.
		go func() {
			<-ctx.Done()
			cancel()
		}()
	}

	input := map[string]any{
		"system": formatSystemPrompt,
		"query":  userText,
	}

	stream, err := s.chain.Stream(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to stream chat chain output: %w", err)
	}

	log.Printf("[ai] stream opened model=%s", s.cfg.Model)
	return stream, nil
}

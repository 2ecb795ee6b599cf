package ai

import (
	"context"
	"fmt"
	"log"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/empathicai21/Empathic-AI-Research/internal/config"
	"github.com/empathicai21/Empathic-AI-Research/internal/model/study"
)

// Service drives the chat-model provider through a compiled eino chain:
// system prompt + full history placeholder + current user message.
type Service struct {
	chatModel model.ChatModel
	cfg       config.AIConfig
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewService creates the provider-facing AI service.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return newServiceWithModel(ctx, chatModel, cfg)
}

// NewServiceWithModel wires an existing chat model, used by the CLI harness
// and tests so they do not reach into provider credentials themselves.
func NewServiceWithModel(ctx context.Context, chatModel model.ChatModel, cfg config.AIConfig) (*Service, error) {
	return newServiceWithModel(ctx, chatModel, cfg)
}

func newServiceWithModel(ctx context.Context, chatModel model.ChatModel, cfg config.AIConfig) (*Service, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
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

// StreamingEnabled indicates whether incremental output is configured.
func (s *Service) StreamingEnabled() bool {
	return s.cfg.StreamResponse
}

// Generate produces a complete reply for one turn.
func (s *Service) Generate(ctx context.Context, sessionID, systemPrompt string, history []study.Turn, userMessage string) (*schema.Message, error) {
	input := chainInput(systemPrompt, history, userMessage)

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to run AI chain: %w", err)
	}

	log.Printf("[ai] generated response for session=%s, length=%d", sessionID, len(response.Content))
	return response, nil
}

// Stream produces a reply as incremental fragments.
func (s *Service) Stream(ctx context.Context, systemPrompt string, history []study.Turn, userMessage string) (*schema.StreamReader[*schema.Message], error) {
	input := chainInput(systemPrompt, history, userMessage)

	stream, err := s.chain.Stream(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to stream AI chain output: %w", err)
	}

	return stream, nil
}

// chainInput maps a turn onto the chain variables. The entire history is
// sent, no sliding window: conversations are capped at a handful of turns
// and resending everything keeps replies coherent and non-repetitive.
func chainInput(systemPrompt string, history []study.Turn, userMessage string) map[string]any {
	messages := make([]*schema.Message, 0, len(history))
	for _, turn := range history {
		switch turn.Role {
		case study.RoleUser:
			messages = append(messages, schema.UserMessage(turn.Content))
		case study.RoleAssistant:
			messages = append(messages, schema.AssistantMessage(turn.Content, nil))
		}
	}

	return map[string]any{
		"system":  systemPrompt,
		"history": messages,
		"query":   userMessage,
	}
}

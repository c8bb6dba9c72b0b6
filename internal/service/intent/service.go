// Package intent classifies chat queries into routing categories, with a
// language model when one is configured and keyword heuristics otherwise.
package intent

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
)

// Classifier is what the chatbot router depends on.
type Classifier interface {
	Classify(ctx context.Context, query string) Intent
}

// Service 使用大模型分类意图，并在必要时回退到启发式规则。
type Service struct {
	classifier compose.Runnable[map[string]any, *schema.Message]
	logger     zerolog.Logger
}

// NewService creates the classifier. A nil chatModel selects heuristic-only mode.
func NewService(ctx context.Context, chatModel model.ChatModel, logger zerolog.Logger) (*Service, error) {
	svc := &Service{logger: logger}
	if chatModel == nil {
		return svc, nil
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(classifierSystemPrompt),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile intent classifier chain: %w", err)
	}

	svc.classifier = runnable
	return svc, nil
}

// LLMEnabled reports whether classification goes through the model.
func (s *Service) LLMEnabled() bool {
	return s != nil && s.classifier != nil
}

// Classify returns the intent of query. It never fails: model errors fall back
// to the heuristic, and an unscored heuristic result to DataLookup.
func (s *Service) Classify(ctx context.Context, query string) Intent {
	if !s.LLMEnabled() {
		return Heuristic(query).Intent
	}

	msg, err := s.classifier.Invoke(ctx, map[string]any{"query": query})
	if err != nil {
		s.logger.Warn().Err(err).Msg("intent classifier invoke failed, use fallback")
		return s.fallback(query)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return s.fallback(query)
	}

	return Parse(msg.Content)
}

func (s *Service) fallback(query string) Intent {
	if score := Heuristic(query); score.Score > 0 {
		return score.Intent
	}
	return DataLookup
}

const classifierSystemPrompt = "You are a helpful assistant for a financial chatbot. Your task is to classify the user's intent into one of the following categories:\n" +
	"- DATA_LOOKUP: simple lookups, counts, finding values, filtering data (e.g., 'count holdings for X', 'show trades for Y').\n" +
	"- AGGREGATION: summing values, averages, min/max finding.\n" +
	"- COMPARISON: comparing two funds, portfolios, or securities.\n" +
	"- EXPLANATION: asking 'why', 'how', or for general explanations of the data.\n" +
	"- OUT_OF_SCOPE: questions unrelated to financial data, holdings, or trades.\n\n" +
	"Return ONLY the category name. Do not add any punctuation or extra text."

// Package ai answers free-form portfolio questions with a retrieval-augmented
// eino chain over an Ark chat model.
package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/holdings-chat/internal/service/retrieval"
)

// NotInitialized is returned by Query when the index holds no documents.
const NotInitialized = "RAG system not initialized properly (no data)."

// Service encapsulates the retrieval-augmented answer chain.
type Service struct {
	chain     compose.Runnable[map[string]any, *schema.Message]
	retriever retrieval.Searcher
	topK      int
	logger    zerolog.Logger
}

// NewService creates the answer service. A nil chatModel puts it in demo mode.
func NewService(ctx context.Context, chatModel model.ChatModel, retriever retrieval.Searcher, topK int, logger zerolog.Logger) (*Service, error) {
	if topK <= 0 {
		topK = retrieval.DefaultTopK
	}
	svc := &Service{retriever: retriever, topK: topK, logger: logger}
	if chatModel == nil {
		logger.Warn().Msg("no chat model configured, answering in demo mode")
		return svc, nil
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(ragSystemPrompt),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile rag chain: %w", err)
	}

	svc.chain = runnable
	return svc, nil
}

// DemoMode reports whether no model is configured.
func (s *Service) DemoMode() bool {
	return s.chain == nil
}

// Query retrieves context for query and answers it. Failures are reported in
// the returned text, never as an error.
func (s *Service) Query(ctx context.Context, query, additional string) string {
	if s.DemoMode() {
		return DemoReply(query)
	}
	if s.retriever == nil || s.retriever.Len() == 0 {
		return NotInitialized
	}

	docs, err := s.retriever.Search(ctx, query, s.topK)
	if err != nil {
		s.logger.Error().Err(err).Msg("retrieval failed")
		return fmt.Sprintf("Error during RAG query: %v", err)
	}

	msg, err := s.Answer(ctx, query, docs, additional)
	if err != nil {
		s.logger.Error().Err(err).Msg("rag chain failed")
		return fmt.Sprintf("Error during RAG query: %v", err)
	}
	return msg.Content
}

// Answer runs the chain with docs stuffed into the system prompt.
func (s *Service) Answer(ctx context.Context, query string, docs []retrieval.Document, additional string) (*schema.Message, error) {
	if s.DemoMode() {
		return nil, fmt.Errorf("chat model not configured")
	}

	response, err := s.chain.Invoke(ctx, buildChainInput(query, docs, additional))
	if err != nil {
		return nil, fmt.Errorf("failed to run AI chain: %w", err)
	}

	s.logger.Info().Int("documents", len(docs)).Int("length", len(response.Content)).Msg("generated rag response")
	return response, nil
}

// DemoReply is the canned answer given when no model is configured.
func DemoReply(query string) string {
	return fmt.Sprintf("Demo Mode: This would normally analyze your query '%s' against the financial data. "+
		"To get real responses, please configure a valid Ark API key in the .env file.", query)
}

func buildChainInput(query string, docs []retrieval.Document, additional string) map[string]any {
	contents := make([]string, 0, len(docs))
	for _, d := range docs {
		contents = append(contents, d.Content)
	}
	return map[string]any{
		"context":            strings.Join(contents, "\n\n"),
		"additional_context": additional,
		"query":              query,
	}
}

const ragSystemPrompt = "You are a financial assistant chatbot. Use the following pieces of retrieved context to answer the question. " +
	"If you don't know the answer, say that you don't know. Use three sentences maximum and keep the answer concise." +
	"\n\n{context}\n\nAdditional Context from Data Analysis:\n{additional_context}"

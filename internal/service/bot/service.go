// Package bot routes chat queries to the deterministic engine or the
// retrieval-augmented model according to their intent.
package bot

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/holdings-chat/internal/service/intent"
)

// OutOfScopeReply answers queries unrelated to holdings and trades.
const OutOfScopeReply = "I'm sorry, I can only answer questions related to your financial holdings and trades."

// Engine answers rule-based questions. ok is false when no rule applied.
type Engine interface {
	Answer(query string) (reply string, ok bool)
}

// Answerer answers free-form questions with retrieved context.
type Answerer interface {
	Query(ctx context.Context, query, additional string) string
}

// Service is the chatbot behind POST /api/chat.
type Service struct {
	classifier intent.Classifier
	engine     Engine
	rag        Answerer
	logger     zerolog.Logger
}

// NewService wires the router.
func NewService(classifier intent.Classifier, engine Engine, rag Answerer, logger zerolog.Logger) *Service {
	return &Service{
		classifier: classifier,
		engine:     engine,
		rag:        rag,
		logger:     logger,
	}
}

// ProcessQuery classifies query and returns the reply text.
func (s *Service) ProcessQuery(ctx context.Context, query string) string {
	query = strings.TrimSpace(query)
	detected := s.classifier.Classify(ctx, query)
	s.logger.Info().Str("query", query).Str("intent", string(detected)).Msg("query classified")

	switch detected {
	case intent.DataLookup, intent.Aggregation:
		if reply, ok := s.engine.Answer(query); ok {
			return reply
		}
		return s.rag.Query(ctx, query, "")
	case intent.Comparison, intent.Explanation:
		// 规则引擎的结果作为补充上下文交给模型。
		additional, _ := s.engine.Answer(query)
		return s.rag.Query(ctx, query, additional)
	case intent.OutOfScope:
		return OutOfScopeReply
	default:
		return s.rag.Query(ctx, query, "")
	}
}

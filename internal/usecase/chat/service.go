// Package chat implements the single-turn chat orchestrator: validate the
// message, retrieve similar posts, compose a prompt, generate a reply.
package chat

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/voclabs/vocd/internal/domain"
	"github.com/voclabs/vocd/internal/metrics"
)

// state tracks a chat turn through its lifecycle for logging. A turn moves
// received -> embedding_query -> retrieving -> generating -> responded, with
// failed reachable from any non-terminal state.
type state string

const (
	stateRetrieving state = "retrieving"
	stateGenerating state = "generating"
	stateResponded  state = "responded"
	stateFailed     state = "failed"
)

// Config holds the prompt composition parameters.
type Config struct {
	// ContextPosts is the number of retrieved matches included in the prompt.
	ContextPosts int
	// BodyCap truncates each context post body to this many runes.
	BodyCap int
}

// Service orchestrates one chat turn. It holds no per-conversation state;
// multi-turn coherence is the caller's responsibility.
type Service struct {
	retriever Retriever
	generator Generator
	cfg       Config
	logger    *zap.Logger
}

// New creates a chat service.
func New(retriever Retriever, generator Generator, cfg Config, logger *zap.Logger) *Service {
	return &Service{retriever: retriever, generator: generator, cfg: cfg, logger: logger}
}

// Respond produces a reply to one user message. An empty message fails with
// ErrValidation. Retrieval failure is non-fatal: generation proceeds without
// context. Generation failure yields a generic user-safe reply; the cause is
// logged server-side only.
func (s *Service) Respond(ctx context.Context, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		metrics.ChatTurnsTotal.WithLabelValues("rejected").Inc()
		return "", fmt.Errorf("empty message: %w", domain.ErrValidation)
	}

	if isGreeting(message) {
		metrics.ChatTurnsTotal.WithLabelValues("greeting").Inc()
		return greetingResponse, nil
	}

	matches, err := s.retriever.Search(ctx, message)
	if err != nil {
		// Non-fatal: answer without context rather than fail the turn.
		s.logger.Warn("Retrieval failed, generating without context",
			zap.String("state", string(stateRetrieving)), zap.Error(err))
		matches = nil
	}

	userPrompt := buildUserPrompt(message, matches, s.cfg.ContextPosts, s.cfg.BodyCap)

	reply, err := s.generator.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		s.logger.Error("Generation failed",
			zap.String("state", string(stateFailed)),
			zap.String("from", string(stateGenerating)),
			zap.Int("context_posts", len(matches)),
			zap.Error(err))
		metrics.ChatTurnsTotal.WithLabelValues(string(stateFailed)).Inc()
		return failureResponse, nil
	}

	s.logger.Debug("Chat turn completed",
		zap.String("state", string(stateResponded)),
		zap.Int("context_posts", len(matches)))
	metrics.ChatTurnsTotal.WithLabelValues(string(stateResponded)).Inc()

	return strings.TrimSpace(reply), nil
}

// internal/chatbot/handler.go
package chatbot

import (
	"context"
	"encoding/json"
	"net/http"

	"cryptoreed-server/internal/common/logger"
	"cryptoreed-server/internal/common/metrics"
	"cryptoreed-server/internal/models"
)

// CompletionClient produces model answers for general questions.
type CompletionClient interface {
	Complete(ctx context.Context, conv models.Conversation) (string, error)
	ListModels(ctx context.Context) ([]string, error)
}

// RecommendationSource supplies the current recommendation list.
type RecommendationSource interface {
	Recommend(ctx context.Context) ([]models.Recommendation, error)
}

// Handler answers chat requests. Recommendation intents are served from
// the recommendation source, everything else goes to the completion client.
type Handler struct {
	config     Config
	router     *IntentRouter
	source     RecommendationSource
	completion CompletionClient
	logger     logger.Logger
}

func NewHandler(cfg Config, source RecommendationSource, completion CompletionClient, log logger.Logger) *Handler {
	return &Handler{
		config:     cfg,
		router:     NewIntentRouter(cfg.TriggerPhrases),
		source:     source,
		completion: completion,
		logger:     log,
	}
}

type chatRequest struct {
	Messages []models.ChatMessage `json:"messages"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// ServeChat always answers 200 with a reply, even when both the
// recommendation source and the model are unreachable.
func (h *Handler) ServeChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// A malformed body is treated as an empty conversation.
		h.logger.Warn("chat request body not parseable", map[string]interface{}{
			"error": err.Error(),
		})
		req.Messages = nil
	}

	reply := h.reply(r.Context(), models.Conversation(req.Messages))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(chatResponse{Reply: reply})
}

func (h *Handler) reply(ctx context.Context, conv models.Conversation) string {
	if h.router.IsRecommendationRequest(conv) {
		recs, err := h.source.Recommend(ctx)
		if err != nil {
			h.logger.WithError(err).Warn("recommendation source unavailable", nil)
			metrics.ChatRepliesTotal.WithLabelValues("fallback").Inc()
			return SourceUnavailableReply
		}
		metrics.ChatRepliesTotal.WithLabelValues("recommendation").Inc()
		return BuildRecommendationReply(recs)
	}

	conv = conv.Normalize(h.config.SystemPrompt)
	answer, err := h.completion.Complete(ctx, conv)
	if err != nil {
		h.logger.WithError(err).Warn("completion request failed", nil)
		metrics.ChatRepliesTotal.WithLabelValues("fallback").Inc()
		return SourceUnavailableReply
	}
	if answer == "" {
		metrics.ChatRepliesTotal.WithLabelValues("fallback").Inc()
		return CannotAnswerReply
	}
	metrics.ChatRepliesTotal.WithLabelValues("general").Inc()
	return answer
}

type modelsResponse struct {
	Models []string `json:"models"`
}

// ServeModels lists the upstream model identifiers. Failures degrade to
// an empty list so the UI never breaks on a provider outage.
func (h *Handler) ServeModels(w http.ResponseWriter, r *http.Request) {
	ids, err := h.completion.ListModels(r.Context())
	if err != nil {
		h.logger.WithError(err).Warn("model listing failed", nil)
		ids = nil
	}
	if ids == nil {
		ids = []string{}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(modelsResponse{Models: ids})
}

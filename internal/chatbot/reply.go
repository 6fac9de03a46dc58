// internal/chatbot/reply.go
package chatbot

import (
	"fmt"
	"strings"

	"cryptoreed-server/internal/models"
)

// Fixed reply sentences. The chat contract never surfaces raw errors;
// every failure degrades to one of these.
const (
	RecommendationReplyTemplate = "Las criptomonedas recomendadas actualmente por CryptoReed son: %s."
	NoRecommendationsReply      = "Por ahora no hay criptomonedas recomendadas disponibles."
	SourceUnavailableReply      = "No pude consultar las recomendaciones en este momento, intenta más tarde."
	CannotAnswerReply           = "Lo siento, no puedo responder eso."
)

// BuildRecommendationReply renders the fixed template over the items.
// An empty sequence is a valid answer, not an error.
func BuildRecommendationReply(recs []models.Recommendation) string {
	if len(recs) == 0 {
		return NoRecommendationsReply
	}
	parts := make([]string, 0, len(recs))
	for _, rec := range recs {
		parts = append(parts, fmt.Sprintf("%s (%s)", rec.Nombre, rec.Symbol))
	}
	return fmt.Sprintf(RecommendationReplyTemplate, strings.Join(parts, ", "))
}

// internal/chatbot/intent.go
package chatbot

import (
	"strings"

	"cryptoreed-server/internal/models"
)

// IntentRouter classifies a chat turn as recommendation-seeking or a
// general question using fixed-phrase substring matching. It is pure:
// no side effects, no failure mode.
type IntentRouter struct {
	phrases []string
}

func NewIntentRouter(phrases []string) *IntentRouter {
	if len(phrases) == 0 {
		phrases = DefaultTriggerPhrases
	}
	stripped := make([]string, 0, len(phrases))
	for _, p := range phrases {
		stripped = append(stripped, stripPhrase(p))
	}
	return &IntentRouter{phrases: stripped}
}

// IsRecommendationRequest reports whether the most recent user-authored
// message contains any catalog phrase. Matching is substring, not
// whole-phrase: a trigger embedded anywhere in unrelated text still
// matches. That permissiveness catches paraphrases and is accepted here,
// false positives included.
func (r *IntentRouter) IsRecommendationRequest(conv models.Conversation) bool {
	content := strings.ToLower(conv.LastUserContent())
	if content == "" {
		return false
	}
	for _, phrase := range r.phrases {
		if strings.Contains(content, phrase) {
			return true
		}
	}
	return false
}

// stripPhrase lowercases a catalog entry and removes the interrogation
// punctuation so "¿Qué crypto recomiendan hoy?" matches the bare words.
func stripPhrase(p string) string {
	p = strings.ToLower(p)
	p = strings.ReplaceAll(p, "¿", "")
	p = strings.ReplaceAll(p, "?", "")
	return p
}

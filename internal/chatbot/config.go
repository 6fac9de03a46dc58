// internal/chatbot/config.go
package chatbot

import "time"

type Config struct {
	SystemPrompt   string
	TriggerPhrases []string
	Timeout        time.Duration
}

// DefaultTriggerPhrases is the fixed catalog of recommendation-seeking
// phrases. Matching is substring containment, so short stems like
// "recomiéndame" intentionally catch paraphrases around them.
var DefaultTriggerPhrases = []string{
	"¿qué crypto recomiendan hoy?",
	"¿qué cripto recomiendan?",
	"¿qué criptomonedas recomiendan?",
	"recomiéndame",
	"qué me recomiendan",
	"cuáles recomiendan",
	"en qué cripto invertir",
	"mejores criptos para invertir",
}

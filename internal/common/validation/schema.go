// internal/common/validation/schema.go
package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// recommendationListSchema is the shape an upstream recommendation payload
// must satisfy to be considered usable: an array of objects each exposing
// at least a display name and a ticker. Everything else is optional relay.
var recommendationListSchema = map[string]interface{}{
	"type": "array",
	"items": map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"nombre", "symbol"},
		"properties": map[string]interface{}{
			"nombre": map[string]interface{}{"type": "string", "minLength": 1},
			"symbol": map[string]interface{}{"type": "string", "minLength": 1},
		},
	},
}

// extractedPayloadSchema covers what a model script's stdout payload must
// look like once located: an array of objects. Field names are up to the
// script; the core only relays them.
var extractedPayloadSchema = map[string]interface{}{
	"type": "array",
	"items": map[string]interface{}{
		"type": "object",
	},
}

type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

func validate(schema map[string]interface{}, doc interface{}) (*ValidationResult, error) {
	schemaLoader := gojsonschema.NewGoLoader(schema)
	documentLoader := gojsonschema.NewGoLoader(doc)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("schema validation error: %w", err)
	}

	if result.Valid() {
		return &ValidationResult{Valid: true}, nil
	}

	errs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		errs = append(errs, e.String())
	}
	return &ValidationResult{Valid: false, Errors: errs}, nil
}

// ValidateRecommendationList checks a decoded recommendation payload.
func ValidateRecommendationList(doc interface{}) (*ValidationResult, error) {
	return validate(recommendationListSchema, doc)
}

// ValidateExtractedPayload checks raw JSON located inside script stdout.
func ValidateExtractedPayload(raw []byte) (*ValidationResult, error) {
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return &ValidationResult{
			Valid:  false,
			Errors: []string{fmt.Sprintf("not valid JSON: %v", err)},
		}, nil
	}
	return validate(extractedPayloadSchema, doc)
}

// Summary joins validation errors into one log-friendly line.
func (r *ValidationResult) Summary() string {
	return strings.Join(r.Errors, "; ")
}

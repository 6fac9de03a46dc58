// internal/artifacts/store.go
package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	apperrors "cryptoreed-server/internal/common/errors"
	"cryptoreed-server/internal/common/logger"
	"cryptoreed-server/internal/models"
)

// Flat-file names under the artifacts directory. They are written by the
// external pipeline; this process only reads them.
const (
	LogFile             = "log.txt"
	RecommendationsFile = "recomendaciones.json"
	PredictedFile       = "predicted.json"
	CryptosFile         = "cryptos.json"
)

// LogPlaceholder is returned when no run log exists yet.
const LogPlaceholder = "⚠️ No hay log disponible."

// Store reads the externally produced flat files. It holds no state
// beyond the directory; every read goes to disk so fresh pipeline output
// is visible immediately.
type Store struct {
	dir    string
	logger logger.Logger
}

func NewStore(dir string, log logger.Logger) *Store {
	return &Store{dir: dir, logger: log}
}

// Log returns the latest pipeline run log. A missing file is reported as
// an artifact-not-found error carrying the placeholder text.
func (s *Store) Log() (string, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, LogFile))
	if err != nil {
		if os.IsNotExist(err) {
			return "", apperrors.NewArtifactNotFoundError(LogPlaceholder, LogFile)
		}
		return "", fmt.Errorf("reading %s: %w", LogFile, err)
	}
	return strings.TrimRight(string(raw), "\n"), nil
}

// Recommendations returns the recommendation list artifact. Absence is
// reported as artifact-not-found; callers decide whether that means 404
// or an empty list.
func (s *Store) Recommendations() ([]models.Recommendation, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, RecommendationsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewArtifactNotFoundError("No hay recomendaciones disponibles", RecommendationsFile)
		}
		return nil, fmt.Errorf("reading %s: %w", RecommendationsFile, err)
	}

	var recs []models.Recommendation
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", RecommendationsFile, err)
	}
	return recs, nil
}

// predictedEntry tolerates both artifact shapes: a bare symbol string or
// an object with a symbol field.
type predictedEntry struct {
	Symbol string
}

func (p *predictedEntry) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		p.Symbol = s
		return nil
	}
	var obj struct {
		Symbol string `json:"symbol"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	p.Symbol = obj.Symbol
	return nil
}

// Predicted returns the symbols the model flagged in its last run.
func (s *Store) Predicted() ([]string, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, PredictedFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewArtifactNotFoundError("No hay predicciones disponibles", PredictedFile)
		}
		return nil, fmt.Errorf("reading %s: %w", PredictedFile, err)
	}

	var entries []predictedEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", PredictedFile, err)
	}

	symbols := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Symbol != "" {
			symbols = append(symbols, e.Symbol)
		}
	}
	return symbols, nil
}

// Cryptos relays the raw market snapshot without reshaping it. The
// payload shape belongs to the pipeline, not to this server.
func (s *Store) Cryptos() (json.RawMessage, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, CryptosFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewArtifactNotFoundError("No hay datos de mercado disponibles", CryptosFile)
		}
		return nil, fmt.Errorf("reading %s: %w", CryptosFile, err)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("decoding %s: invalid JSON", CryptosFile)
	}
	return json.RawMessage(raw), nil
}

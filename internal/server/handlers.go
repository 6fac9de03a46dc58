// internal/server/handlers.go
package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	apperrors "cryptoreed-server/internal/common/errors"
	"cryptoreed-server/pkg/catalog"
)

const defaultTopN = 5

// handleRecomendar relays the external recommendation service for the
// dashboard. Unlike the chat path, callers supply the query parameters
// here and structural mistakes surface as errors.
func (s *Server) handleRecomendar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var missing []string
	for _, name := range []string{"capital", "riesgo", "plazo"} {
		if q.Get(name) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		s.responder.Respond(w, r, apperrors.NewMissingParameterError(strings.Join(missing, ", ")))
		return
	}

	topN := defaultTopN
	if raw := q.Get("top_n"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			topN = n
		}
	}

	recs, err := s.recommender.RecommendQuery(r.Context(), q.Get("capital"), q.Get("riesgo"), q.Get("plazo"), topN)
	if err != nil {
		s.responder.Respond(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"recomendaciones": recs})
}

// handleRun launches an allow-listed script and relays its output. The
// extractor takes a date window; the model scripts take an optional page.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	script := q.Get("script")

	var args []string
	if start := q.Get("start"); start != "" {
		if end := q.Get("end"); end != "" {
			args = []string{start, end}
		} else {
			args = []string{start}
		}
	} else if page := q.Get("page"); page != "" {
		args = []string{page}
	}

	if q.Get("format") == "payload" {
		s.runForPayload(w, r, script, args)
		return
	}

	inv, err := s.runner.Run(r.Context(), script, args)
	if err != nil {
		s.responder.Respond(w, r, err)
		return
	}
	if inv.ExitCode != 0 {
		s.responder.Respond(w, r, apperrors.NewExecutionFailedError(inv.Stderr))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"output": inv.Stdout})
}

func (s *Server) runForPayload(w http.ResponseWriter, r *http.Request, script string, args []string) {
	_, payload, err := s.runner.RunForPayload(r.Context(), script, args)
	if err != nil {
		s.responder.Respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"payload": payload.Raw})
}

// handleScripts lists the runnable scripts for the dashboard.
func (s *Server) handleScripts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalog.Default())
}

// handleLog serves the pipeline run log. A missing log is a 404 that
// still carries the placeholder text so the dashboard can show it as-is.
func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	content, err := s.store.Log()
	if err != nil {
		var std *apperrors.StandardError
		if errors.As(err, &std) && std.Code == apperrors.ErrCodeArtifactNotFound {
			writeJSON(w, http.StatusNotFound, map[string]string{"log": std.Message})
			return
		}
		s.responder.Respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"log": content})
}

func (s *Server) handleDataRecommendations(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.Recommendations()
	if err != nil {
		s.responder.Respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleDataPredicted(w http.ResponseWriter, r *http.Request) {
	symbols, err := s.store.Predicted()
	if err != nil {
		s.responder.Respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, symbols)
}

// handleDataCryptos relays the market snapshot byte for byte.
func (s *Server) handleDataCryptos(w http.ResponseWriter, r *http.Request) {
	raw, err := s.store.Cryptos()
	if err != nil {
		s.responder.Respond(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

// internal/server/handlers_test.go
package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptoreed-server/internal/artifacts"
	"cryptoreed-server/internal/chatbot"
	"cryptoreed-server/internal/common/config"
	"cryptoreed-server/internal/common/logger"
	"cryptoreed-server/internal/models"
	"cryptoreed-server/internal/recommender"
	"cryptoreed-server/internal/runner"
)

type stubCompletion struct{}

func (stubCompletion) Complete(ctx context.Context, conv models.Conversation) (string, error) {
	return "respuesta del modelo.", nil
}

func (stubCompletion) ListModels(ctx context.Context) ([]string, error) {
	return []string{"model-a"}, nil
}

// newTestServer assembles a full server against a recommender stub, a
// temp artifacts directory and a shell-backed script runner.
func newTestServer(t *testing.T, recommenderURL string) (*Server, string, string) {
	t.Helper()

	artifactsDir := t.TempDir()
	scriptsDir := t.TempDir()

	cfg := config.Config{
		App: config.AppConfig{Name: "cryptoreed-server", Version: "test"},
		Recommender: config.RecommenderConfig{
			BaseURL: recommenderURL,
			Source:  recommender.SourceService,
			Timeout: 5000,
			Defaults: config.RecommenderQueryConfig{
				Capital: "1000", Riesgo: "medio", Plazo: "24h", TopN: 3,
			},
		},
		Scripts: config.ScriptsConfig{
			Dir:           scriptsDir,
			Interpreter:   "sh",
			Timeout:       5000,
			MaxConcurrent: 2,
		},
		Artifacts: config.ArtifactsConfig{Dir: artifactsDir},
	}

	log := logger.NewNoOpLogger()
	store := artifacts.NewStore(artifactsDir, log)
	rec := recommender.NewClient(cfg.Recommender, nil, store, log)
	chat := chatbot.NewHandler(
		chatbot.Config{SystemPrompt: config.DefaultSystemPrompt},
		rec, stubCompletion{}, log,
	)
	run := runner.New(cfg.Scripts, log)

	return New(cfg, log, nil, chat, rec, store, run), artifactsDir, scriptsDir
}

func jsonBody(s string) io.Reader {
	return strings.NewReader(s)
}

func doRequest(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, req)
	return rec
}

func TestHandleRecomendar(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5000", r.URL.Query().Get("capital"))
		assert.Equal(t, "alto", r.URL.Query().Get("riesgo"))
		assert.Equal(t, "7d", r.URL.Query().Get("plazo"))
		assert.Equal(t, "2", r.URL.Query().Get("top_n"))
		_, _ = w.Write([]byte(`{"recomendaciones":[{"nombre":"Bitcoin","symbol":"BTC"}]}`))
	}))
	defer upstream.Close()

	s, _, _ := newTestServer(t, upstream.URL)

	rec := doRequest(t, s, http.MethodGet, "/recomendar?capital=5000&riesgo=alto&plazo=7d&top_n=2")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"recomendaciones":[{"nombre":"Bitcoin","symbol":"BTC"}]}`, rec.Body.String())
}

func TestHandleRecomendar_MissingParameters(t *testing.T) {
	s, _, _ := newTestServer(t, "http://unused")

	rec := doRequest(t, s, http.MethodGet, "/recomendar?capital=1000")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Faltan parámetros requeridos"}`, rec.Body.String())
}

func TestHandleRecomendar_UpstreamDown(t *testing.T) {
	s, _, _ := newTestServer(t, "http://127.0.0.1:1")

	rec := doRequest(t, s, http.MethodGet, "/recomendar?capital=1000&riesgo=medio&plazo=24h")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Error interno en la API"}`, rec.Body.String())
}

func TestHandleRun(t *testing.T) {
	s, _, scriptsDir := newTestServer(t, "http://unused")

	t.Run("success relays stdout", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(scriptsDir, "extractor.py"),
			[]byte("echo \"extracted $1..$2\"\n"), 0o755))

		rec := doRequest(t, s, http.MethodGet, "/run?script=extractor&start=2024-01-01&end=2024-02-01")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"output":"extracted 2024-01-01..2024-02-01\n"}`, rec.Body.String())
	})

	t.Run("unknown script is rejected", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/run?script=rm_rf")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"Script inválido"}`, rec.Body.String())
	})

	t.Run("failure relays stderr", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(scriptsDir, "modelo.py"),
			[]byte("echo \"sin datos\" >&2\nexit 1\n"), 0o755))

		rec := doRequest(t, s, http.MethodGet, "/run?script=modelo")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"sin datos"}`, rec.Body.String())
	})

	t.Run("payload format extracts the JSON array", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(scriptsDir, "modelo_general.py"),
			[]byte("echo \"working...\"\necho '[{\"symbol\":\"BTC\"}]'\n"), 0o755))

		rec := doRequest(t, s, http.MethodGet, "/run?script=modelo_general&format=payload")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"payload":[{"symbol":"BTC"}]}`, rec.Body.String())
	})
}

func TestHandleLog(t *testing.T) {
	s, artifactsDir, _ := newTestServer(t, "http://unused")

	t.Run("missing log carries the placeholder", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/log")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"log":"⚠️ No hay log disponible."}`, rec.Body.String())
	})

	t.Run("existing log", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(artifactsDir, "log.txt"),
			[]byte("pipeline ok\n"), 0o644))

		rec := doRequest(t, s, http.MethodGet, "/log")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"log":"pipeline ok"}`, rec.Body.String())
	})
}

func TestDataEndpoints(t *testing.T) {
	s, artifactsDir, _ := newTestServer(t, "http://unused")

	t.Run("recomendaciones", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(artifactsDir, "recomendaciones.json"),
			[]byte(`[{"nombre":"Bitcoin","symbol":"BTC"}]`), 0o644))

		rec := doRequest(t, s, http.MethodGet, "/data/recomendaciones")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[{"nombre":"Bitcoin","symbol":"BTC"}]`, rec.Body.String())
	})

	t.Run("predicted", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(artifactsDir, "predicted.json"),
			[]byte(`["BTC","ETH"]`), 0o644))

		rec := doRequest(t, s, http.MethodGet, "/data/predicted")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `["BTC","ETH"]`, rec.Body.String())
	})

	t.Run("cryptos raw relay", func(t *testing.T) {
		payload := `[{"symbol":"BTC","price":65000}]`
		require.NoError(t, os.WriteFile(filepath.Join(artifactsDir, "cryptos.json"),
			[]byte(payload), 0o644))

		rec := doRequest(t, s, http.MethodGet, "/data/cryptos")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, payload, rec.Body.String())
	})

	t.Run("missing artifacts are 404", func(t *testing.T) {
		s2, _, _ := newTestServer(t, "http://unused")

		for _, target := range []string{"/data/recomendaciones", "/data/predicted", "/data/cryptos"} {
			rec := doRequest(t, s2, http.MethodGet, target)
			assert.Equal(t, http.StatusNotFound, rec.Code, target)
		}
	})
}

func TestChatEndToEnd(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"recomendaciones":[{"nombre":"Bitcoin","symbol":"BTC"},{"nombre":"Ethereum","symbol":"ETH"}]}`))
	}))
	defer upstream.Close()

	s, _, _ := newTestServer(t, upstream.URL)

	req := httptest.NewRequest(http.MethodPost, "/chatbot",
		jsonBody(`{"messages":[{"role":"user","content":"recomiéndame una cripto"}]}`))
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"reply":"Las criptomonedas recomendadas actualmente por CryptoReed son: Bitcoin (BTC), Ethereum (ETH)."}`,
		rec.Body.String())
}

func TestHandleScripts(t *testing.T) {
	s, _, _ := newTestServer(t, "http://unused")

	rec := doRequest(t, s, http.MethodGet, "/scripts")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"extractor"`)
	assert.Contains(t, rec.Body.String(), `"modelo_general"`)
}

func TestHealthz(t *testing.T) {
	s, _, _ := newTestServer(t, "http://unused")

	rec := doRequest(t, s, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","service":"cryptoreed-server","version":"test"}`, rec.Body.String())
}

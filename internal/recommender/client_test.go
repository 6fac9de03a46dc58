// internal/recommender/client_test.go
package recommender

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptoreed-server/internal/artifacts"
	"cryptoreed-server/internal/common/config"
	"cryptoreed-server/internal/common/database"
	apperrors "cryptoreed-server/internal/common/errors"
	"cryptoreed-server/internal/common/logger"
	"cryptoreed-server/internal/models"
)

func serviceConfig(baseURL string) config.RecommenderConfig {
	return config.RecommenderConfig{
		BaseURL:  baseURL,
		Source:   SourceService,
		Timeout:  5000,
		CacheTTL: 60000,
		Defaults: config.RecommenderQueryConfig{
			Capital: "1000",
			Riesgo:  "medio",
			Plazo:   "24h",
			TopN:    3,
		},
	}
}

func TestClient_Recommend_Service(t *testing.T) {
	var gotQuery atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/recomendar", r.URL.Path)
		gotQuery.Store(r.URL.RawQuery)
		_, _ = w.Write([]byte(`{"recomendaciones":[{"nombre":"Bitcoin","symbol":"BTC"},{"nombre":"Ethereum","symbol":"ETH"}]}`))
	}))
	defer server.Close()

	client := NewClient(serviceConfig(server.URL), nil, nil, logger.NewNoOpLogger())

	recs, err := client.Recommend(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Bitcoin", recs[0].Nombre)
	assert.Equal(t, "capital=1000&riesgo=medio&plazo=24h&top_n=3", gotQuery.Load())
}

func TestClient_RecommendQuery_BareArrayResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"nombre":"Solana","symbol":"SOL"}]`))
	}))
	defer server.Close()

	client := NewClient(serviceConfig(server.URL), nil, nil, logger.NewNoOpLogger())

	recs, err := client.RecommendQuery(context.Background(), "500", "alto", "7d", 5)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "SOL", recs[0].Symbol)
}

func TestClient_Recommend_SourceFailures(t *testing.T) {
	t.Run("unreachable", func(t *testing.T) {
		client := NewClient(serviceConfig("http://127.0.0.1:1"), nil, nil, logger.NewNoOpLogger())

		_, err := client.Recommend(context.Background())
		var std *apperrors.StandardError
		require.ErrorAs(t, err, &std)
		assert.Equal(t, apperrors.ErrCodeRecommenderFailed, std.Code)
	})

	t.Run("upstream 500", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := NewClient(serviceConfig(server.URL), nil, nil, logger.NewNoOpLogger())
		_, err := client.Recommend(context.Background())
		assert.Error(t, err)
	})

	t.Run("schema violation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"recomendaciones":[{"nombre":"","symbol":""}]}`))
		}))
		defer server.Close()

		client := NewClient(serviceConfig(server.URL), nil, nil, logger.NewNoOpLogger())
		_, err := client.Recommend(context.Background())
		assert.Error(t, err)
	})
}

func TestClient_Recommend_Cache(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := database.NewRedisFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	defer cache.Close()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"recomendaciones":[{"nombre":"Bitcoin","symbol":"BTC"}]}`))
	}))
	defer server.Close()

	client := NewClient(serviceConfig(server.URL), cache, nil, logger.NewNoOpLogger())

	first, err := client.Recommend(context.Background())
	require.NoError(t, err)
	second, err := client.Recommend(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load(), "second call must be served from cache")
	assert.True(t, mr.Exists("recommendations:1000:medio:24h:3"))
}

func TestClient_Recommend_CacheDownDegradesToDirect(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := database.NewRedisFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	mr.Close()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"recomendaciones":[{"nombre":"Bitcoin","symbol":"BTC"}]}`))
	}))
	defer server.Close()

	client := NewClient(serviceConfig(server.URL), cache, nil, logger.NewNoOpLogger())

	recs, err := client.Recommend(context.Background())
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestClient_Recommend_ArtifactSourceMissingFile(t *testing.T) {
	cfg := serviceConfig("http://unused")
	cfg.Source = SourceArtifact
	store := artifacts.NewStore(t.TempDir(), logger.NewNoOpLogger())
	client := NewClient(cfg, nil, store, logger.NewNoOpLogger())

	recs, err := client.Recommend(context.Background())
	require.NoError(t, err, "a missing artifact is an empty list for the chat path")
	assert.Empty(t, recs)
}

func TestClient_Recommend_ArtifactSource(t *testing.T) {
	dir := t.TempDir()
	content := `[{"nombre":"Bitcoin","symbol":"BTC"},{"nombre":"Ethereum","symbol":"ETH"},{"nombre":"Solana","symbol":"SOL"},{"nombre":"Cardano","symbol":"ADA"}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "recomendaciones.json"), []byte(content), 0o644))

	cfg := serviceConfig("http://unused")
	cfg.Source = SourceArtifact
	store := artifacts.NewStore(dir, logger.NewNoOpLogger())
	client := NewClient(cfg, nil, store, logger.NewNoOpLogger())

	recs, err := client.Recommend(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 3, "artifact list is capped at the default top_n")
	assert.Equal(t, []models.Recommendation{
		{Nombre: "Bitcoin", Symbol: "BTC"},
		{Nombre: "Ethereum", Symbol: "ETH"},
		{Nombre: "Solana", Symbol: "SOL"},
	}, recs)
}

// internal/recommender/client.go
package recommender

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"cryptoreed-server/internal/artifacts"
	"cryptoreed-server/internal/common/config"
	"cryptoreed-server/internal/common/database"
	apperrors "cryptoreed-server/internal/common/errors"
	httpclient "cryptoreed-server/internal/common/http"
	"cryptoreed-server/internal/common/logger"
	"cryptoreed-server/internal/common/validation"
	"cryptoreed-server/internal/models"
)

// SourceService and SourceArtifact select where recommendations come from.
const (
	SourceService  = "service"
	SourceArtifact = "artifact"
)

// Client relays recommendation lists from the configured source. In
// service mode it queries the external recommender over HTTP, optionally
// through a Redis cache; in artifact mode it reads the pipeline's flat
// file. It never computes recommendations itself.
type Client struct {
	cfg    config.RecommenderConfig
	http   *httpclient.Client
	cache  *database.RedisClient
	store  *artifacts.Store
	logger logger.Logger
}

// NewClient builds a relay client. cache may be nil; the client then
// always goes to the source directly.
func NewClient(cfg config.RecommenderConfig, cache *database.RedisClient, store *artifacts.Store, log logger.Logger) *Client {
	return &Client{
		cfg:    cfg,
		http:   httpclient.NewClient(config.GetDuration(cfg.Timeout)),
		cache:  cache,
		store:  store,
		logger: log,
	}
}

// Recommend returns the current list using the fixed default query. The
// chat path calls this; it never varies the parameters.
func (c *Client) Recommend(ctx context.Context) ([]models.Recommendation, error) {
	d := c.cfg.Defaults
	return c.RecommendQuery(ctx, d.Capital, d.Riesgo, d.Plazo, d.TopN)
}

// RecommendQuery returns the list for explicit query parameters.
func (c *Client) RecommendQuery(ctx context.Context, capital, riesgo, plazo string, topN int) ([]models.Recommendation, error) {
	if c.cfg.Source == SourceArtifact {
		return c.fromArtifact(topN)
	}

	key := cacheKey(capital, riesgo, plazo, topN)
	if recs, ok := c.fromCache(ctx, key); ok {
		return recs, nil
	}

	recs, err := c.fetch(ctx, capital, riesgo, plazo, topN)
	if err != nil {
		return nil, err
	}
	c.toCache(ctx, key, recs)
	return recs, nil
}

func (c *Client) fromArtifact(topN int) ([]models.Recommendation, error) {
	recs, err := c.store.Recommendations()
	if err != nil {
		// A missing artifact means no recommendations yet, not a failure.
		var std *apperrors.StandardError
		if errors.As(err, &std) && std.Code == apperrors.ErrCodeArtifactNotFound {
			return []models.Recommendation{}, nil
		}
		return nil, apperrors.NewRecommenderFailedError(err)
	}
	if topN > 0 && len(recs) > topN {
		recs = recs[:topN]
	}
	return recs, nil
}

func (c *Client) fetch(ctx context.Context, capital, riesgo, plazo string, topN int) ([]models.Recommendation, error) {
	endpoint := fmt.Sprintf(
		"%s/recomendar?capital=%s&riesgo=%s&plazo=%s&top_n=%d",
		strings.TrimRight(c.cfg.BaseURL, "/"),
		url.QueryEscape(capital), url.QueryEscape(riesgo), url.QueryEscape(plazo), topN,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.NewRecommenderFailedError(err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.NewRecommenderFailedError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewRecommenderFailedError(fmt.Errorf("recommender returned status %d", resp.StatusCode))
	}

	recs, err := decodeRecommendations(resp.Body)
	if err != nil {
		return nil, apperrors.NewRecommenderFailedError(err)
	}

	result, err := validation.ValidateRecommendationList(recs)
	if err != nil {
		return nil, apperrors.NewRecommenderFailedError(err)
	}
	if !result.Valid {
		return nil, apperrors.NewRecommenderFailedError(fmt.Errorf("recommender response invalid: %s", result.Summary()))
	}
	return recs, nil
}

// decodeRecommendations accepts both upstream shapes: a bare array and
// an object wrapping it under "recomendaciones".
func decodeRecommendations(r io.Reader) ([]models.Recommendation, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading recommender response: %w", err)
	}

	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var recs []models.Recommendation
		if err := json.Unmarshal(raw, &recs); err != nil {
			return nil, fmt.Errorf("decoding recommender response: %w", err)
		}
		return recs, nil
	}

	var payload struct {
		Recomendaciones []models.Recommendation `json:"recomendaciones"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decoding recommender response: %w", err)
	}
	if payload.Recomendaciones == nil {
		payload.Recomendaciones = []models.Recommendation{}
	}
	return payload.Recomendaciones, nil
}

func cacheKey(capital, riesgo, plazo string, topN int) string {
	return fmt.Sprintf("recommendations:%s:%s:%s:%d", capital, riesgo, plazo, topN)
}

// fromCache reads a cached list. Cache trouble is logged and treated as
// a miss so the source stays authoritative.
func (c *Client) fromCache(ctx context.Context, key string) ([]models.Recommendation, bool) {
	if c.cache == nil {
		return nil, false
	}
	var recs []models.Recommendation
	ok, err := c.cache.GetJSON(ctx, key, &recs)
	if err != nil {
		c.logger.WithError(err).Warn("recommendation cache read failed", map[string]interface{}{"key": key})
		return nil, false
	}
	return recs, ok
}

func (c *Client) toCache(ctx context.Context, key string, recs []models.Recommendation) {
	if c.cache == nil || c.cfg.CacheTTL <= 0 {
		return
	}
	if err := c.cache.SetJSON(ctx, key, recs, config.GetDuration(c.cfg.CacheTTL)); err != nil {
		c.logger.WithError(err).Warn("recommendation cache write failed", map[string]interface{}{"key": key})
	}
}

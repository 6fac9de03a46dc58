// internal/server/server.go
package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cryptoreed-server/internal/artifacts"
	"cryptoreed-server/internal/chatbot"
	"cryptoreed-server/internal/common/config"
	apperrors "cryptoreed-server/internal/common/errors"
	"cryptoreed-server/internal/common/logger"
	"cryptoreed-server/internal/common/observability"
	"cryptoreed-server/internal/recommender"
	"cryptoreed-server/internal/runner"
)

// Server wires the HTTP surface: the chat endpoint, the recommendation
// relay, the artifact reads and the script runner.
type Server struct {
	cfg       config.Config
	logger    logger.Logger
	obs       *observability.Observability
	responder *apperrors.ErrorResponder

	chat        *chatbot.Handler
	recommender *recommender.Client
	store       *artifacts.Store
	runner      *runner.Runner
}

func New(
	cfg config.Config,
	log logger.Logger,
	obs *observability.Observability,
	chat *chatbot.Handler,
	rec *recommender.Client,
	store *artifacts.Store,
	run *runner.Runner,
) *Server {
	return &Server{
		cfg:         cfg,
		logger:      log,
		obs:         obs,
		responder:   apperrors.NewErrorResponder(log),
		chat:        chat,
		recommender: rec,
		store:       store,
		runner:      run,
	}
}

// Routes builds the request multiplexer.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /chatbot", s.route("/chatbot", s.chat.ServeChat))
	mux.HandleFunc("GET /chatbot", s.route("/chatbot", s.chat.ServeModels))

	mux.HandleFunc("GET /recomendar", s.route("/recomendar", s.handleRecomendar))

	mux.HandleFunc("GET /run", s.route("/run", s.handleRun))
	mux.HandleFunc("GET /scripts", s.route("/scripts", s.handleScripts))

	mux.HandleFunc("GET /log", s.route("/log", s.handleLog))
	mux.HandleFunc("GET /data/recomendaciones", s.route("/data/recomendaciones", s.handleDataRecommendations))
	mux.HandleFunc("GET /data/predicted", s.route("/data/predicted", s.handleDataPredicted))
	mux.HandleFunc("GET /data/cryptos", s.route("/data/cryptos", s.handleDataCryptos))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}

func (s *Server) route(name string, h http.HandlerFunc) http.HandlerFunc {
	return instrument(name, s.logger, s.obs, h)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": s.cfg.App.Name,
		"version": s.cfg.App.Version,
	})
}

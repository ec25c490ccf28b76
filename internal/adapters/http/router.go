package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mkravets/product-search-assistant/internal/config"
	"github.com/mkravets/product-search-assistant/internal/core/ports"
	"github.com/mkravets/product-search-assistant/internal/observability/metrics"
)

type Router struct {
	search  ports.SearchService
	queue   ports.ReindexQueue
	metrics *metrics.HTTPServerMetrics
}

func NewRouter(search ports.SearchService, queue ports.ReindexQueue, m *metrics.HTTPServerMetrics) *Router {
	return &Router{
		search:  search,
		queue:   queue,
		metrics: m,
	}
}

func (rt *Router) Handler(cfg config.Config) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/search", rt.searchProducts)
	mux.HandleFunc("/v1/catalog/reindex", rt.requestReindex)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware("api", handler)
	}
	handler = rateLimitMiddleware(handler, cfg.APIRateLimitRPS, cfg.APIRateLimitBurst)
	handler = backpressureMiddleware(handler, cfg.APIMaxInFlight, cfg.APIBackpressureWait)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) searchProducts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "query parameter is required")
		return
	}
	conversationID := strings.TrimSpace(r.URL.Query().Get("conversation_id"))

	start := time.Now()
	result, err := rt.search.Search(r.Context(), query, conversationID)
	if err != nil {
		status, kind := mapErrorToHTTPStatus(err)
		writeError(w, status, kind, err.Error())
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordSearchTurn("api", string(result.Source), len(result.Products), time.Since(start))
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) requestReindex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	requestID := requestIDFromContext(r.Context())
	if requestID == "" {
		requestID = uuid.NewString()
	}

	if err := rt.queue.PublishReindexRequested(r.Context(), requestID); err != nil {
		status, kind := mapErrorToHTTPStatus(err)
		writeError(w, status, kind, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"request_id": requestID})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"kind":    kind,
			"message": message,
		},
	})
}

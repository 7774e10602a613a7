package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/exp/rand"

	"modelserve/ml"
	"modelserve/monitoring"
)

type handlers struct {
	dispatcher   *ml.Dispatcher
	logger       *zap.Logger
	stats        *monitoring.Collector
	history      *History
	randomSource func() rand.Source
}

type predictRequest struct {
	Features []any `json:"features"`
}

type schemaResponse struct {
	NumFeatures int    `json:"n_features"`
	ModelType   string `json:"model_type,omitempty"`
	ModelPath   string `json:"model_path,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

var errMissingFeatures = errors.New(`body must contain a "features" array`)

func registerHandlers(mux *http.ServeMux, h *handlers) {
	mux.HandleFunc("GET /{$}", h.handleHome)
	mux.HandleFunc("GET /schema", h.handleSchema)
	mux.HandleFunc("POST /predict", h.handlePredict)
	mux.HandleFunc("GET /api/health", h.handleHealth)
	mux.HandleFunc("GET /api/stats", h.handleStats)
}

func (h *handlers) handleHome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "OK - Model loaded. n_features=%d", h.dispatcher.Model().NumFeatures())
}

func (h *handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) handleSchema(w http.ResponseWriter, r *http.Request) {
	model := h.dispatcher.Model()
	writeJSON(w, http.StatusOK, schemaResponse{
		NumFeatures: model.NumFeatures(),
		ModelType:   model.Flavor(),
		ModelPath:   model.Path(),
	})
}

func (h *handlers) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.stats.Snapshot())
}

func (h *handlers) handlePredict(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	features, err := decodePredictRequest(r)
	if err != nil {
		h.stats.Record(monitoring.OutcomeBadRequest, time.Since(start))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	prediction, err := h.dispatcher.Dispatch(features)
	switch {
	case err == nil:
		h.stats.Record(monitoring.OutcomeOK, time.Since(start))
		writeJSON(w, http.StatusOK, prediction)
	case ml.IsInputError(err):
		h.stats.Record(monitoring.OutcomeBadRequest, time.Since(start))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		h.stats.Record(monitoring.OutcomeInternalError, time.Since(start))
		h.logger.Error("prediction failed",
			zap.String("request_id", GetRequestID(r.Context())),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// decodePredictRequest keeps numbers as json.Number so the dispatcher sees the
// exact literal. The content type is not checked.
func decodePredictRequest(r *http.Request) ([]any, error) {
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	var req predictRequest
	if err := decoder.Decode(&req); err != nil {
		return nil, err
	}
	if req.Features == nil {
		return nil, errMissingFeatures
	}
	return req.Features, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

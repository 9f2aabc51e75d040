package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/fruteira-pos/terminal/internal/backend"
	"github.com/fruteira-pos/terminal/internal/catalog"
	"github.com/fruteira-pos/terminal/internal/checkout"
	"github.com/fruteira-pos/terminal/internal/sale"
	"github.com/fruteira-pos/terminal/internal/scale"
	"github.com/fruteira-pos/terminal/internal/store"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("failed to encode JSON response", zap.Error(err))
	}
}

// writeError maps a domain error onto a status code. Input and validation
// errors keep their message so the operator sees exactly what to fix.
func writeError(w http.ResponseWriter, err error) {
	if code := sale.Code(err); code != "" {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Code: code})
		return
	}

	var be *backend.Error
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: "EMPTY_CART"})
	case errors.Is(err, checkout.ErrSubmissionInProgress):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: "SUBMISSION_IN_PROGRESS"})
	case errors.Is(err, store.ErrDuplicateSale):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: "DUPLICATE_SALE"})
	case errors.Is(err, backend.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error(), Code: "UNAUTHORIZED"})
	case errors.Is(err, catalog.ErrProductNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error(), Code: "PRODUCT_NOT_FOUND"})
	case errors.Is(err, catalog.ErrCatalogUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error(), Code: "CATALOG_UNAVAILABLE"})
	case errors.Is(err, scale.ErrNoScale):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error(), Code: "NO_SCALE"})
	case errors.As(err, &be):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: be.Message, Code: "BACKEND_REJECTED"})
	case errors.Is(err, backend.ErrSubmissionFailed), errors.Is(err, backend.ErrUnavailable):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: backend.ErrSubmissionFailed.Error(), Code: "SUBMISSION_FAILED"})
	default:
		zap.L().Error("unhandled error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

func lineIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid line index"})
		return 0, false
	}
	return i, true
}

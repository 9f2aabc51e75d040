package handler

import (
	"net/http"

	"github.com/fruteira-pos/terminal/internal/scale"
	"github.com/go-chi/chi/v5"
)

// ScaleHandler exposes the weighing scale to the UI.
type ScaleHandler struct {
	reader scale.Reader
}

// NewScaleHandler creates a new ScaleHandler.
func NewScaleHandler(reader scale.Reader) *ScaleHandler {
	return &ScaleHandler{reader: reader}
}

// RegisterRoutes registers scale endpoints. Expected to be mounted at /scale.
func (h *ScaleHandler) RegisterRoutes(r chi.Router) {
	r.Get("/weight", h.Weight)
}

type weightResponse struct {
	Weight string `json:"weight"`
	Unit   string `json:"unit"`
}

// Weight reads the scale once. The value is meant for the quantity field of a
// by-weight line.
func (h *ScaleHandler) Weight(w http.ResponseWriter, r *http.Request) {
	kg, err := h.reader.Read(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, weightResponse{Weight: kg.StringFixed(3), Unit: "kg"})
}

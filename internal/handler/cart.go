package handler

import (
	"net/http"

	"github.com/fruteira-pos/terminal/internal/checkout"
	"github.com/fruteira-pos/terminal/internal/sale"
	"github.com/go-chi/chi/v5"
)

// CartHandler handles the cart of the sale in progress.
type CartHandler struct {
	wf      *checkout.Workflow
	catalog Catalog
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(wf *checkout.Workflow, catalog Catalog) *CartHandler {
	return &CartHandler{wf: wf, catalog: catalog}
}

// RegisterRoutes registers cart endpoints. Expected to be mounted at /cart.
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.Post("/lines", h.AddLine)
	r.Put("/lines/{index}", h.EditLine)
	r.Delete("/lines/{index}", h.RemoveLine)
}

// --- Request / Response types ---

type addLineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  string `json:"quantity"`
}

// editLineRequest carries the full edit form; nothing is read from elsewhere.
type editLineRequest struct {
	Quantity      string `json:"quantity"`
	UnitPrice     string `json:"unit_price"`
	Justification string `json:"justification"`
}

type lineResponse struct {
	Index             int    `json:"index"`
	ProductID         string `json:"product_id"`
	Name              string `json:"name"`
	Unit              string `json:"unit"`
	Quantity          string `json:"quantity"`
	UnitPrice         string `json:"unit_price"`
	OriginalUnitPrice string `json:"original_unit_price"`
	Subtotal          string `json:"subtotal"`
	Justification     string `json:"justification,omitempty"`
}

type saleResponse struct {
	State     string          `json:"state"`
	Lines     []lineResponse  `json:"lines"`
	Total     string          `json:"total"`
	Payment   paymentResponse `json:"payment"`
	LastError string          `json:"last_error,omitempty"`
}

func toLineResponse(i int, l sale.CartLine) lineResponse {
	return lineResponse{
		Index:             i,
		ProductID:         l.Product.ID,
		Name:              l.Product.Name,
		Unit:              l.Product.Unit(),
		Quantity:          l.Quantity.String(),
		UnitPrice:         money(l.UnitPrice),
		OriginalUnitPrice: money(l.OriginalUnitPrice),
		Subtotal:          money(l.Subtotal()),
		Justification:     l.OverrideJustification,
	}
}

func toSaleResponse(v checkout.View) saleResponse {
	resp := saleResponse{
		State:     v.State,
		Lines:     make([]lineResponse, len(v.Lines)),
		Total:     money(v.Total),
		Payment:   toPaymentResponse(v.Payment),
		LastError: v.LastError,
	}
	for i, l := range v.Lines {
		resp.Lines[i] = toLineResponse(i, l)
	}
	return resp
}

// --- Handlers ---

// Get returns the sale in progress.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toSaleResponse(h.wf.View()))
}

// AddLine appends the selected product with the given quantity.
func (h *CartHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	var req addLineRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		writeError(w, sale.ErrNoProductSelected)
		return
	}
	qty, err := sale.ParseDecimal(req.Quantity)
	if err != nil {
		writeError(w, sale.ErrInvalidQuantity)
		return
	}

	product, err := h.catalog.Lookup(req.ProductID)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, err := h.wf.AddLine(product, qty); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSaleResponse(h.wf.View()))
}

// EditLine changes quantity and unit price of a line.
func (h *CartHandler) EditLine(w http.ResponseWriter, r *http.Request) {
	index, ok := lineIndex(w, r)
	if !ok {
		return
	}
	var req editLineRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	qty, err := sale.ParseDecimal(req.Quantity)
	if err != nil {
		writeError(w, sale.ErrInvalidQuantity)
		return
	}
	price, err := sale.ParseDecimal(req.UnitPrice)
	if err != nil {
		writeError(w, sale.ErrInvalidPrice)
		return
	}

	if _, err := h.wf.EditLine(index, qty, price, req.Justification); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSaleResponse(h.wf.View()))
}

// RemoveLine deletes a line.
func (h *CartHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	index, ok := lineIndex(w, r)
	if !ok {
		return
	}
	if _, err := h.wf.RemoveLine(index); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSaleResponse(h.wf.View()))
}

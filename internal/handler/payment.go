package handler

import (
	"net/http"

	"github.com/fruteira-pos/terminal/internal/checkout"
	"github.com/fruteira-pos/terminal/internal/sale"
	"github.com/go-chi/chi/v5"
)

// PaymentHandler handles the payment selection of the sale in progress.
type PaymentHandler struct {
	wf *checkout.Workflow
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(wf *checkout.Workflow) *PaymentHandler {
	return &PaymentHandler{wf: wf}
}

// RegisterRoutes registers payment endpoints. Expected to be mounted at /payment.
func (h *PaymentHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.Put("/", h.Set)
}

type setPaymentRequest struct {
	Method       string `json:"method"`
	Tendered     string `json:"tendered"`
	Installments *int   `json:"installments"`
}

type paymentResponse struct {
	Method       string   `json:"method"`
	Tendered     string   `json:"tendered"`
	Installments int      `json:"installments"`
	ChangeDue    string   `json:"change_due"`
	Presets      []string `json:"presets,omitempty"`
}

func toPaymentResponse(p sale.PaymentSelection) paymentResponse {
	return paymentResponse{
		Method:       p.Method,
		Tendered:     p.Tendered,
		Installments: p.Installments,
		ChangeDue:    money(p.ChangeDue),
	}
}

type paymentView struct {
	paymentResponse
	Total string `json:"total"`
}

func (h *PaymentHandler) view() paymentView {
	v := h.wf.View()
	resp := paymentView{paymentResponse: toPaymentResponse(v.Payment), Total: money(v.Total)}
	resp.Presets = make([]string, len(checkout.TenderPresets))
	for i, p := range checkout.TenderPresets {
		resp.Presets[i] = money(p)
	}
	return resp
}

// Get returns the payment selection, the change preview and the quick tender presets.
func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.view())
}

// Set replaces the payment selection. The amount is kept as typed and only
// checked strictly at checkout.
func (h *PaymentHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req setPaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	installments := sale.DefaultInstallments
	if req.Installments != nil {
		installments = *req.Installments
	}
	if _, err := h.wf.SetPayment(req.Method, req.Tendered, installments); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view())
}

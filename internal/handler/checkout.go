package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/fruteira-pos/terminal/internal/checkout"
	"github.com/fruteira-pos/terminal/internal/middleware"
	"github.com/fruteira-pos/terminal/internal/receipt"
	"github.com/go-chi/chi/v5"
)

// submitTimeout bounds a submission once it is detached from the request.
// It is longer than backend.DefaultTimeout so the HTTP ledger reports its own
// timeout first.
const submitTimeout = 30 * time.Second

// CheckoutHandler finalizes or cancels the sale in progress.
type CheckoutHandler struct {
	wf *checkout.Workflow
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(wf *checkout.Workflow) *CheckoutHandler {
	return &CheckoutHandler{wf: wf}
}

// RegisterRoutes registers checkout endpoints. Expected to be mounted at /checkout.
func (h *CheckoutHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Finalize)
	r.Post("/cancel", h.Cancel)
}

type finalizeRequest struct {
	Print bool `json:"print"`
}

type receiptResponse struct {
	Filename string `json:"filename"`
	Pages    int    `json:"pages"`
	Text     string `json:"text"`
}

type finalizeResponse struct {
	Reference    string           `json:"reference"`
	SaleID       string           `json:"sale_id,omitempty"`
	Message      string           `json:"message,omitempty"`
	Total        string           `json:"total"`
	Method       string           `json:"method"`
	Tendered     string           `json:"tendered"`
	ChangeDue    string           `json:"change_due"`
	Installments int              `json:"installments,omitempty"`
	Receipt      *receiptResponse `json:"receipt,omitempty"`
	ReceiptError string           `json:"receipt_error,omitempty"`
}

func toFinalizeResponse(res checkout.Result) finalizeResponse {
	tx := res.Transaction
	resp := finalizeResponse{
		Reference:    tx.Reference.String(),
		SaleID:       res.Ack.ID,
		Message:      res.Ack.Message,
		Total:        money(tx.RoundedTotal()),
		Method:       tx.Payment.Method,
		Tendered:     money(tx.Payment.Tendered),
		ChangeDue:    money(tx.Payment.ChangeDue),
		Installments: tx.Payment.Installments,
	}
	if res.Receipt != nil {
		resp.Receipt = toReceiptResponse(*res.Receipt)
	}
	if res.ReceiptError != nil {
		resp.ReceiptError = res.ReceiptError.Error()
	}
	return resp
}

func toReceiptResponse(doc receipt.Document) *receiptResponse {
	return &receiptResponse{
		Filename: doc.Filename,
		Pages:    len(doc.Pages),
		Text:     doc.Text(),
	}
}

// Finalize validates the payment and submits the sale. An empty body means
// no receipt.
func (h *CheckoutHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}

	var req finalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	// A dropped client must not abort a sale the ledger may already hold.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), submitTimeout)
	defer cancel()
	res, err := h.wf.Finalize(ctx, claims.UserID, req.Print)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toFinalizeResponse(res))
}

// Cancel discards the sale in progress.
func (h *CheckoutHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.wf.Cancel(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSaleResponse(h.wf.View()))
}

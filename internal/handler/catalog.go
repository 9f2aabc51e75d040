package handler

import (
	"context"
	"net/http"

	"github.com/fruteira-pos/terminal/internal/sale"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// Catalog defines the catalog methods needed by catalog and cart handlers.
// Satisfied by *catalog.Loader.
type Catalog interface {
	Load(ctx context.Context) error
	Products() ([]sale.Product, error)
	Lookup(id string) (*sale.Product, error)
	Status() (string, error)
}

// CatalogHandler serves the products available for selection.
type CatalogHandler struct {
	catalog Catalog
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalog Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// RegisterRoutes registers the read endpoint. Expected to be mounted at /catalog.
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
}

// RegisterReloadRoutes registers the reload endpoint. Any signed-in operator
// may retry a failed load.
func (h *CatalogHandler) RegisterReloadRoutes(r chi.Router) {
	r.Post("/reload", h.Reload)
}

type productResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Price       string `json:"price"`
	PricingMode string `json:"pricing_mode"`
	Unit        string `json:"unit"`
	ImageRef    string `json:"image_ref,omitempty"`
}

type catalogResponse struct {
	Status   string            `json:"status"`
	Products []productResponse `json:"products"`
}

func toProductResponse(p sale.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Price:       money(p.Price),
		PricingMode: p.PricingMode,
		Unit:        p.Unit(),
		ImageRef:    p.ImageRef,
	}
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// List returns the loaded products in directory order.
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Products()
	if err != nil {
		writeError(w, err)
		return
	}
	status, _ := h.catalog.Status()

	resp := catalogResponse{Status: status, Products: make([]productResponse, len(products))}
	for i, p := range products {
		resp.Products[i] = toProductResponse(p)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Reload fetches the product list again. The catalog stays unavailable when
// the fetch fails.
func (h *CatalogHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Load(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	h.List(w, r)
}

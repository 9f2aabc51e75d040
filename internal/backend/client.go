package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fruteira-pos/terminal/internal/auth"
	"github.com/fruteira-pos/terminal/internal/checkout"
	"github.com/fruteira-pos/terminal/internal/enum"
	"github.com/fruteira-pos/terminal/internal/sale"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultTimeout bounds every backend request.
const DefaultTimeout = 10 * time.Second

var (
	// ErrUnauthorized is returned when the backend rejects the bearer token.
	ErrUnauthorized = errors.New("backend: unauthorized")
	// ErrSubmissionFailed is returned when a sale could not be recorded and the
	// backend gave no message.
	ErrSubmissionFailed = errors.New("sale submission failed")
	// ErrUnavailable is returned when the backend could not be reached or
	// answered with an unreadable body.
	ErrUnavailable = errors.New("backend unavailable")
)

// Error is a backend rejection carrying its human-readable message.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Client talks to the sales REST backend. It satisfies catalog.Directory and
// checkout.Ledger.
type Client struct {
	http   *resty.Client
	token  string
	logger *zap.Logger
	tracer trace.Tracer
}

// Config holds the connection settings of a Client.
type Config struct {
	BaseURL string
	// Token is used when the request context carries no operator token.
	Token   string
	Timeout time.Duration
}

// NewClient creates a Client for the backend at cfg.BaseURL. The /api prefix
// is appended when missing.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if !strings.HasSuffix(base, "/api") {
		base += "/api"
	}

	rc := resty.New().
		SetBaseURL(base).
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetLogger(logger.Sugar())

	return &Client{
		http:   rc,
		token:  cfg.Token,
		logger: logger,
		tracer: otel.Tracer("github.com/fruteira-pos/terminal/internal/backend"),
	}
}

// errorBody is the backend error envelope.
type errorBody struct {
	Erro     string `json:"erro"`
	Detalhes struct {
		Message string `json:"message"`
	} `json:"detalhes"`
}

func (b *errorBody) message() string {
	if b == nil {
		return ""
	}
	if b.Erro != "" {
		return b.Erro
	}
	return b.Detalhes.Message
}

type productDTO struct {
	ID     string          `json:"_id"`
	Nome   string          `json:"nome"`
	Preco  decimal.Decimal `json:"preco"`
	Tipo   string          `json:"tipo"`
	Imagem string          `json:"imagem"`
	Ativo  *bool           `json:"ativo"`
}

type productsResponse struct {
	Dados struct {
		Produtos []productDTO `json:"produtos"`
	} `json:"dados"`
}

// ListProducts fetches the active products in backend order.
func (c *Client) ListProducts(ctx context.Context) ([]sale.Product, error) {
	ctx, span := c.tracer.Start(ctx, "backend.ListProducts", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	var out productsResponse
	resp, err := c.request(ctx).
		SetResult(&out).
		SetError(&errorBody{}).
		Get("/produtos")
	if err := c.check(span, resp, err); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	products := make([]sale.Product, 0, len(out.Dados.Produtos))
	for _, p := range out.Dados.Produtos {
		if p.Ativo != nil && !*p.Ativo {
			continue
		}
		products = append(products, sale.Product{
			ID:          p.ID,
			Name:        p.Nome,
			Price:       p.Preco,
			PricingMode: pricingMode(p.Tipo),
			ImageRef:    p.Imagem,
		})
	}
	span.SetAttributes(attribute.Int("catalog.products", len(products)))
	return products, nil
}

type saleLineDTO struct {
	Nome       string      `json:"nome"`
	Preco      json.Number `json:"preco"`
	Quantidade json.Number `json:"quantidade"`
	ProductID  string      `json:"productId"`
}

type paymentDTO struct {
	Forma     string `json:"forma"`
	ValorPago string `json:"valorPago"`
	Troco     string `json:"troco,omitempty"`
	Parcelas  int    `json:"parcelas,omitempty"`
}

type saleRequest struct {
	Itens     []saleLineDTO `json:"itens"`
	Total     string        `json:"total"`
	Pagamento paymentDTO    `json:"pagamento"`
}

type saleResponse struct {
	Mensagem string `json:"mensagem"`
	Dados    struct {
		ID    string `json:"_id"`
		Venda struct {
			ID string `json:"_id"`
		} `json:"venda"`
	} `json:"dados"`
}

// SubmitSale posts tx to the sales ledger. It never retries.
func (c *Client) SubmitSale(ctx context.Context, tx sale.Transaction) (checkout.Ack, error) {
	ctx, span := c.tracer.Start(ctx, "backend.SubmitSale", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("sale.reference", tx.Reference.String()))

	var out saleResponse
	resp, err := c.request(ctx).
		SetHeader("X-Request-ID", tx.Reference.String()).
		SetBody(newSaleRequest(tx)).
		SetResult(&out).
		SetError(&errorBody{}).
		Post("/vendas")
	if err := c.check(span, resp, err); err != nil {
		var be *Error
		if errors.Is(err, ErrUnauthorized) || errors.As(err, &be) {
			return checkout.Ack{}, err
		}
		return checkout.Ack{}, fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
	}

	ack := checkout.Ack{ID: out.Dados.Venda.ID, Message: out.Mensagem}
	if ack.ID == "" {
		ack.ID = out.Dados.ID
	}
	return ack, nil
}

// newSaleRequest maps tx onto the backend sale payload.
func newSaleRequest(tx sale.Transaction) saleRequest {
	req := saleRequest{
		Itens: make([]saleLineDTO, len(tx.Lines)),
		Total: tx.RoundedTotal().StringFixed(2),
		Pagamento: paymentDTO{
			Forma:     wireMethod(tx.Payment.Method),
			ValorPago: tx.Payment.Tendered.StringFixed(2),
		},
	}
	for i, l := range tx.Lines {
		req.Itens[i] = saleLineDTO{
			Nome:       l.Product.Name,
			Preco:      json.Number(l.UnitPrice.String()),
			Quantidade: json.Number(l.Quantity.String()),
			ProductID:  l.Product.ID,
		}
	}
	if tx.Payment.ChangeDue.IsPositive() {
		req.Pagamento.Troco = tx.Payment.ChangeDue.StringFixed(2)
	}
	if tx.Payment.Method == enum.PaymentMethodCredit {
		req.Pagamento.Parcelas = tx.Payment.Installments
	}
	return req
}

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.http.R().SetContext(ctx)
	token := auth.TokenFromContext(ctx)
	if token == "" {
		token = c.token
	}
	if token != "" {
		req.SetAuthToken(token)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	return req
}

// check turns a resty outcome into an error and records it on span.
func (c *Client) check(span trace.Span, resp *resty.Response, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		c.logger.Warn("backend request failed", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	span.SetAttributes(
		semconv.HTTPMethodKey.String(resp.Request.Method),
		semconv.HTTPStatusCodeKey.Int(resp.StatusCode()),
	)
	if resp.StatusCode() == http.StatusUnauthorized {
		span.SetStatus(codes.Error, "unauthorized")
		return ErrUnauthorized
	}
	if resp.IsError() {
		body, _ := resp.Error().(*errorBody)
		msg := body.message()
		span.SetStatus(codes.Error, msg)
		c.logger.Warn("backend rejected request",
			zap.String("url", resp.Request.URL),
			zap.Int("status", resp.StatusCode()),
			zap.String("message", msg),
		)
		if msg == "" {
			return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode())
		}
		return &Error{Status: resp.StatusCode(), Message: msg}
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode())
	}
	return nil
}

func pricingMode(tipo string) string {
	if tipo == "peso" {
		return enum.PricingByWeight
	}
	return enum.PricingByUnit
}

func wireMethod(method string) string {
	switch method {
	case enum.PaymentMethodCash:
		return "dinheiro"
	case enum.PaymentMethodDebit:
		return "debito"
	case enum.PaymentMethodCredit:
		return "credito"
	}
	return method
}

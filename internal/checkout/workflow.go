package checkout

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fruteira-pos/terminal/internal/enum"
	"github.com/fruteira-pos/terminal/internal/receipt"
	"github.com/fruteira-pos/terminal/internal/sale"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentation = "github.com/fruteira-pos/terminal/internal/checkout"

var (
	// ErrEmptyCart is returned by Finalize and Cancel when the cart has no lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrSubmissionInProgress is returned by every operation while a sale is
	// being submitted.
	ErrSubmissionInProgress = errors.New("a sale is being submitted")
)

// TenderPresets are the quick tender amounts offered for cash payments.
var TenderPresets = []decimal.Decimal{
	decimal.NewFromInt(10),
	decimal.NewFromInt(20),
	decimal.NewFromInt(50),
	decimal.NewFromInt(100),
}

// Ack is the sales ledger acknowledgement of a submitted sale.
type Ack struct {
	ID      string `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
}

// Ledger records finalized sales. Implementations must not retry.
type Ledger interface {
	SubmitSale(ctx context.Context, tx sale.Transaction) (Ack, error)
}

// Publisher pushes workflow events to the customer display.
type Publisher interface {
	Publish(eventType string, payload any)
}

// Options configures a Workflow. Ledger is required.
type Options struct {
	Ledger    Ledger
	Output    receipt.Output
	Receipt   receipt.Options
	Publisher Publisher
	Logger    *zap.Logger
	Clock     func() time.Time
}

// View is a consistent snapshot of the sale in progress.
type View struct {
	Lines     []sale.CartLine       `json:"lines"`
	Total     decimal.Decimal       `json:"total"`
	Payment   sale.PaymentSelection `json:"payment"`
	State     string                `json:"state"`
	LastError string                `json:"last_error,omitempty"`
}

// Result describes a successful finalization.
type Result struct {
	Transaction  sale.Transaction
	Ack          Ack
	Receipt      *receipt.Document
	ReceiptError error
}

// Workflow drives one terminal's sale: cart edits, payment selection,
// finalization and cancellation. It is safe for concurrent use.
type Workflow struct {
	ledger      Ledger
	output      receipt.Output
	receiptOpts receipt.Options
	pub         Publisher
	logger      *zap.Logger
	now         func() time.Time

	tracer    trace.Tracer
	completed metric.Int64Counter
	failed    metric.Int64Counter

	mu      sync.Mutex
	cart    *sale.Cart
	payment sale.PaymentSelection
	state   string
	lastErr error
}

// NewWorkflow creates a Workflow with an empty cart and the default payment.
func NewWorkflow(opts Options) *Workflow {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	meter := otel.Meter(instrumentation)
	completed, err := meter.Int64Counter("pos.sales.completed",
		metric.WithDescription("Sales accepted by the ledger"))
	if err != nil {
		opts.Logger.Warn("create counter", zap.Error(err))
	}
	failed, err := meter.Int64Counter("pos.sales.failed",
		metric.WithDescription("Sale submissions rejected or not delivered"))
	if err != nil {
		opts.Logger.Warn("create counter", zap.Error(err))
	}

	return &Workflow{
		ledger:      opts.Ledger,
		output:      opts.Output,
		receiptOpts: opts.Receipt,
		pub:         opts.Publisher,
		logger:      opts.Logger,
		now:         opts.Clock,
		tracer:      otel.Tracer(instrumentation),
		completed:   completed,
		failed:      failed,
		cart:        sale.NewCart(),
		payment:     sale.DefaultPayment(),
		state:       enum.CheckoutStateIdle,
	}
}

// State returns the finalizer state.
func (w *Workflow) State() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// View returns a snapshot of the cart, payment and state.
func (w *Workflow) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.viewLocked()
}

// AddLine appends product to the cart.
func (w *Workflow) AddLine(product *sale.Product, quantity decimal.Decimal) (sale.CartLine, error) {
	return w.mutateCart(func(c *sale.Cart) (sale.CartLine, error) {
		return c.AddLine(product, quantity)
	})
}

// EditLine changes quantity and price of the line at index.
func (w *Workflow) EditLine(index int, quantity, unitPrice decimal.Decimal, justification string) (sale.CartLine, error) {
	return w.mutateCart(func(c *sale.Cart) (sale.CartLine, error) {
		return c.EditLine(index, quantity, unitPrice, justification)
	})
}

// RemoveLine deletes the line at index.
func (w *Workflow) RemoveLine(index int) (sale.CartLine, error) {
	return w.mutateCart(func(c *sale.Cart) (sale.CartLine, error) {
		return c.RemoveLine(index)
	})
}

func (w *Workflow) mutateCart(fn func(*sale.Cart) (sale.CartLine, error)) (sale.CartLine, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == enum.CheckoutStateSubmitting {
		return sale.CartLine{}, ErrSubmissionInProgress
	}
	line, err := fn(w.cart)
	if err != nil {
		return sale.CartLine{}, err
	}
	w.refreshChangeLocked()
	w.publishLocked(enum.EventCartUpdated)
	return line, nil
}

// SetPayment replaces the payment selection. Tendered is kept as typed; it is
// only checked strictly by Finalize. ChangeDue is refreshed as a preview.
func (w *Workflow) SetPayment(method, tendered string, installments int) (sale.PaymentSelection, error) {
	if !sale.IsValidPaymentMethod(method) {
		return sale.PaymentSelection{}, sale.ErrInvalidPaymentMethod
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == enum.CheckoutStateSubmitting {
		return sale.PaymentSelection{}, ErrSubmissionInProgress
	}
	w.payment.Method = method
	w.payment.Tendered = tendered
	w.payment.Installments = installments
	w.refreshChangeLocked()
	w.publishLocked(enum.EventPaymentUpdated)
	return w.payment, nil
}

// Cancel discards the sale in progress without contacting the ledger.
func (w *Workflow) Cancel() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == enum.CheckoutStateSubmitting {
		return ErrSubmissionInProgress
	}
	if w.cart.IsEmpty() {
		return ErrEmptyCart
	}
	w.resetLocked()
	w.state = enum.CheckoutStateIdle
	w.lastErr = nil
	w.publishLocked(enum.EventSaleCancelled)
	w.logger.Info("sale cancelled")
	return nil
}

// Finalize validates the payment, submits the sale to the ledger and, when
// printReceipt is set, renders and outputs the receipt. On ledger failure the cart
// and payment are kept so the operator can retry.
func (w *Workflow) Finalize(ctx context.Context, operatorID uuid.UUID, printReceipt bool) (Result, error) {
	ctx, span := w.tracer.Start(ctx, "checkout.Finalize")
	defer span.End()

	tx, err := w.begin(operatorID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}
	span.SetAttributes(
		attribute.String("sale.reference", tx.Reference.String()),
		attribute.String("sale.total", tx.RoundedTotal().StringFixed(2)),
		attribute.String("payment.method", tx.Payment.Method),
		attribute.Int("sale.lines", len(tx.Lines)),
	)

	// The lock is not held during the ledger call; every other operation sees
	// Submitting and backs off.
	ack, err := w.ledger.SubmitSale(ctx, tx)
	if err != nil {
		w.fail(ctx, tx, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission failed")
		return Result{}, err
	}

	res := Result{Transaction: tx, Ack: ack}
	if printReceipt {
		doc := receipt.Render(tx, w.receiptOpts)
		res.Receipt = &doc
		if w.output != nil {
			if err := w.output.Write(ctx, doc); err != nil {
				res.ReceiptError = err
				span.AddEvent("receipt output failed")
				w.logger.Warn("receipt output failed",
					zap.String("reference", tx.Reference.String()),
					zap.Error(err),
				)
			}
		}
	}

	w.succeed(ctx, tx)
	return res, nil
}

// begin runs the entry check and validation, then moves to Submitting.
func (w *Workflow) begin(operatorID uuid.UUID) (sale.Transaction, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == enum.CheckoutStateSubmitting {
		return sale.Transaction{}, ErrSubmissionInProgress
	}
	if w.cart.IsEmpty() {
		return sale.Transaction{}, ErrEmptyCart
	}

	w.state = enum.CheckoutStateValidating
	total := w.cart.Total()
	change, err := sale.ValidatePayment(w.payment.Method, w.payment.Tendered, total, w.payment.Installments)
	if err != nil {
		w.state = enum.CheckoutStateIdle
		return sale.Transaction{}, err
	}

	tx, err := sale.NewTransaction(w.cart.Lines(), w.payment, change, operatorID, w.now())
	if err != nil {
		w.state = enum.CheckoutStateIdle
		return sale.Transaction{}, err
	}

	w.state = enum.CheckoutStateSubmitting
	w.lastErr = nil
	return tx, nil
}

func (w *Workflow) fail(ctx context.Context, tx sale.Transaction, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.state = enum.CheckoutStateFailed
	w.lastErr = err
	if w.failed != nil {
		w.failed.Add(ctx, 1, metric.WithAttributes(attribute.String("payment.method", tx.Payment.Method)))
	}
	w.publishEventLocked(enum.EventSaleFailed, map[string]string{
		"reference": tx.Reference.String(),
		"error":     err.Error(),
	})
	w.logger.Error("sale submission failed",
		zap.String("reference", tx.Reference.String()),
		zap.Error(err),
	)
}

func (w *Workflow) succeed(ctx context.Context, tx sale.Transaction) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.resetLocked()
	w.state = enum.CheckoutStateSucceeded
	if w.completed != nil {
		w.completed.Add(ctx, 1, metric.WithAttributes(attribute.String("payment.method", tx.Payment.Method)))
	}
	w.publishEventLocked(enum.EventSaleCompleted, map[string]string{
		"reference": tx.Reference.String(),
		"total":     tx.RoundedTotal().StringFixed(2),
		"change":    tx.Payment.ChangeDue.StringFixed(2),
	})
	w.logger.Info("sale completed",
		zap.String("reference", tx.Reference.String()),
		zap.String("total", tx.RoundedTotal().StringFixed(2)),
		zap.String("method", tx.Payment.Method),
	)
}

func (w *Workflow) resetLocked() {
	w.cart.Clear()
	w.payment = sale.DefaultPayment()
}

func (w *Workflow) refreshChangeLocked() {
	w.payment.ChangeDue = sale.PreviewChange(w.payment.Method, w.payment.Tendered, w.cart.Total())
}

func (w *Workflow) viewLocked() View {
	v := View{
		Lines:   w.cart.Lines(),
		Total:   w.cart.Total(),
		Payment: w.payment,
		State:   w.state,
	}
	if w.lastErr != nil {
		v.LastError = w.lastErr.Error()
	}
	return v
}

func (w *Workflow) publishLocked(eventType string) {
	w.publishEventLocked(eventType, w.viewLocked())
}

func (w *Workflow) publishEventLocked(eventType string, payload any) {
	if w.pub == nil {
		return
	}
	w.pub.Publish(eventType, payload)
}

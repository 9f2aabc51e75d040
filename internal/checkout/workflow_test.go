package checkout_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fruteira-pos/terminal/internal/checkout"
	"github.com/fruteira-pos/terminal/internal/enum"
	"github.com/fruteira-pos/terminal/internal/receipt"
	"github.com/fruteira-pos/terminal/internal/sale"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// mockLedger implements checkout.Ledger with configurable behavior.
type mockLedger struct {
	mu       sync.Mutex
	submitFn func(ctx context.Context, tx sale.Transaction) (checkout.Ack, error)
	received []sale.Transaction
}

func (m *mockLedger) SubmitSale(ctx context.Context, tx sale.Transaction) (checkout.Ack, error) {
	m.mu.Lock()
	m.received = append(m.received, tx)
	fn := m.submitFn
	m.mu.Unlock()
	if fn == nil {
		return checkout.Ack{ID: "v-1"}, nil
	}
	return fn(ctx, tx)
}

func (m *mockLedger) calls() []sale.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sale.Transaction(nil), m.received...)
}

type mockOutput struct {
	err  error
	docs []receipt.Document
}

func (m *mockOutput) Write(ctx context.Context, doc receipt.Document) error {
	m.docs = append(m.docs, doc)
	return m.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(eventType string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func apple() *sale.Product {
	return &sale.Product{ID: "p-apple", Name: "Apple", Price: dec("2.00"), PricingMode: enum.PricingByWeight}
}

func newWorkflow(t *testing.T, ledger checkout.Ledger, out receipt.Output, pub checkout.Publisher) *checkout.Workflow {
	t.Helper()
	opts := checkout.Options{
		Ledger: ledger,
		Logger: zaptest.NewLogger(t),
		Clock:  func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) },
	}
	if out != nil {
		opts.Output = out
	}
	if pub != nil {
		opts.Publisher = pub
	}
	return checkout.NewWorkflow(opts)
}

func TestFinalize_AppleCashSale(t *testing.T) {
	ledger := &mockLedger{}
	pub := &recordingPublisher{}
	w := newWorkflow(t, ledger, nil, pub)
	operator := uuid.New()

	line, err := w.AddLine(apple(), dec("1.5"))
	require.NoError(t, err)
	assert.True(t, dec("3.00").Equal(line.Subtotal()))
	assert.True(t, dec("3.00").Equal(w.View().Total))

	sel, err := w.SetPayment(enum.PaymentMethodCash, "5.00", 1)
	require.NoError(t, err)
	assert.True(t, dec("2.00").Equal(sel.ChangeDue), "preview change %s", sel.ChangeDue)

	res, err := w.Finalize(t.Context(), operator, false)
	require.NoError(t, err)
	assert.Equal(t, "v-1", res.Ack.ID)
	assert.Nil(t, res.Receipt)

	sent := ledger.calls()
	require.Len(t, sent, 1)
	assert.Equal(t, "3.00", sent[0].RoundedTotal().StringFixed(2))
	assert.Equal(t, enum.PaymentMethodCash, sent[0].Payment.Method)
	assert.Equal(t, "2.00", sent[0].Payment.ChangeDue.StringFixed(2))
	assert.Equal(t, operator, sent[0].OperatorID)

	view := w.View()
	assert.Empty(t, view.Lines)
	assert.Equal(t, "0.00", view.Total.StringFixed(2))
	assert.Equal(t, sale.DefaultPayment().Method, view.Payment.Method)
	assert.Empty(t, view.Payment.Tendered)
	assert.Equal(t, 1, view.Payment.Installments)
	assert.Equal(t, enum.CheckoutStateSucceeded, view.State)

	assert.Equal(t, []string{
		enum.EventCartUpdated,
		enum.EventPaymentUpdated,
		enum.EventSaleCompleted,
	}, pub.types())
}

func TestFinalize_EmptyCart(t *testing.T) {
	ledger := &mockLedger{}
	w := newWorkflow(t, ledger, nil, nil)

	_, err := w.Finalize(t.Context(), uuid.Nil, false)
	require.ErrorIs(t, err, checkout.ErrEmptyCart)
	assert.Empty(t, ledger.calls(), "no backend call for an empty cart")
	assert.Equal(t, enum.CheckoutStateIdle, w.State())
}

func TestFinalize_ValidationErrorReturnsToIdle(t *testing.T) {
	ledger := &mockLedger{}
	w := newWorkflow(t, ledger, nil, nil)
	_, err := w.AddLine(apple(), dec("5"))
	require.NoError(t, err)
	_, err = w.SetPayment(enum.PaymentMethodCash, "9.99", 1)
	require.NoError(t, err)

	_, err = w.Finalize(t.Context(), uuid.Nil, false)
	require.ErrorIs(t, err, sale.ErrInsufficientAmount)
	assert.Equal(t, enum.CheckoutStateIdle, w.State())
	assert.Empty(t, ledger.calls())
	assert.Len(t, w.View().Lines, 1)
}

func TestFinalize_LedgerFailurePreservesSale(t *testing.T) {
	rejected := errors.New("estoque insuficiente")
	ledger := &mockLedger{submitFn: func(ctx context.Context, tx sale.Transaction) (checkout.Ack, error) {
		return checkout.Ack{}, rejected
	}}
	pub := &recordingPublisher{}
	w := newWorkflow(t, ledger, nil, pub)

	_, err := w.AddLine(apple(), dec("1.5"))
	require.NoError(t, err)
	_, err = w.SetPayment(enum.PaymentMethodPix, "3.00", 1)
	require.NoError(t, err)

	_, err = w.Finalize(t.Context(), uuid.Nil, true)
	require.ErrorIs(t, err, rejected)

	view := w.View()
	assert.Equal(t, enum.CheckoutStateFailed, view.State)
	assert.Equal(t, "estoque insuficiente", view.LastError)
	assert.Len(t, view.Lines, 1)
	assert.Equal(t, enum.PaymentMethodPix, view.Payment.Method)
	assert.Equal(t, "3.00", view.Payment.Tendered)
	assert.Contains(t, pub.types(), enum.EventSaleFailed)

	// retry succeeds with the same data
	ledger.mu.Lock()
	ledger.submitFn = nil
	ledger.mu.Unlock()

	_, err = w.Finalize(t.Context(), uuid.Nil, false)
	require.NoError(t, err)
	assert.Len(t, ledger.calls(), 2)
	assert.Equal(t, enum.CheckoutStateSucceeded, w.State())
	assert.Empty(t, w.View().LastError)
}

func TestFinalize_ReceiptFailureDoesNotBlockSuccess(t *testing.T) {
	out := &mockOutput{err: errors.New("printer offline")}
	w := newWorkflow(t, &mockLedger{}, out, nil)

	_, err := w.AddLine(apple(), dec("1.5"))
	require.NoError(t, err)
	_, err = w.SetPayment(enum.PaymentMethodCash, "5", 1)
	require.NoError(t, err)

	res, err := w.Finalize(t.Context(), uuid.Nil, true)
	require.NoError(t, err)
	require.NotNil(t, res.Receipt)
	assert.EqualError(t, res.ReceiptError, "printer offline")
	require.Len(t, out.docs, 1)
	assert.Contains(t, out.docs[0].Text(), "Apple")
	assert.Equal(t, enum.CheckoutStateSucceeded, w.State())
	assert.Empty(t, w.View().Lines)
}

func TestWorkflow_SubmittingRejectsEverything(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	ledger := &mockLedger{submitFn: func(ctx context.Context, tx sale.Transaction) (checkout.Ack, error) {
		close(entered)
		<-release
		return checkout.Ack{}, nil
	}}
	w := newWorkflow(t, ledger, nil, nil)
	_, err := w.AddLine(apple(), dec("1"))
	require.NoError(t, err)
	_, err = w.SetPayment(enum.PaymentMethodDebit, "2.00", 1)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := w.Finalize(context.Background(), uuid.Nil, false)
		done <- err
	}()
	<-entered

	assert.Equal(t, enum.CheckoutStateSubmitting, w.State())

	_, err = w.AddLine(apple(), dec("1"))
	assert.ErrorIs(t, err, checkout.ErrSubmissionInProgress)
	_, err = w.EditLine(0, dec("2"), dec("2.00"), "")
	assert.ErrorIs(t, err, checkout.ErrSubmissionInProgress)
	_, err = w.RemoveLine(0)
	assert.ErrorIs(t, err, checkout.ErrSubmissionInProgress)
	_, err = w.SetPayment(enum.PaymentMethodCash, "10", 1)
	assert.ErrorIs(t, err, checkout.ErrSubmissionInProgress)
	assert.ErrorIs(t, w.Cancel(), checkout.ErrSubmissionInProgress)
	_, err = w.Finalize(t.Context(), uuid.Nil, false)
	assert.ErrorIs(t, err, checkout.ErrSubmissionInProgress)

	close(release)
	require.NoError(t, <-done)
	assert.Len(t, ledger.calls(), 1, "single flight")
}

func TestCancel(t *testing.T) {
	ledger := &mockLedger{}
	pub := &recordingPublisher{}
	w := newWorkflow(t, ledger, nil, pub)

	require.ErrorIs(t, w.Cancel(), checkout.ErrEmptyCart)

	_, err := w.AddLine(apple(), dec("1"))
	require.NoError(t, err)
	_, err = w.SetPayment(enum.PaymentMethodCredit, "2", 2)
	require.NoError(t, err)

	require.NoError(t, w.Cancel())
	view := w.View()
	assert.Empty(t, view.Lines)
	assert.Equal(t, sale.DefaultPayment(), view.Payment)
	assert.Empty(t, ledger.calls())
	assert.Equal(t, enum.EventSaleCancelled, pub.types()[len(pub.types())-1])
}

func TestSetPayment_RejectsUnknownMethod(t *testing.T) {
	w := newWorkflow(t, &mockLedger{}, nil, nil)
	_, err := w.SetPayment("cheque", "10", 1)
	require.ErrorIs(t, err, sale.ErrInvalidPaymentMethod)
	assert.Equal(t, enum.PaymentMethodCash, w.View().Payment.Method)
}

func TestSetPayment_PreviewFollowsCart(t *testing.T) {
	w := newWorkflow(t, &mockLedger{}, nil, nil)
	_, err := w.SetPayment(enum.PaymentMethodCash, "10", 1)
	require.NoError(t, err)
	assert.Equal(t, "10.00", w.View().Payment.ChangeDue.StringFixed(2))

	_, err = w.AddLine(apple(), dec("2"))
	require.NoError(t, err)
	assert.Equal(t, "6.00", w.View().Payment.ChangeDue.StringFixed(2))
}

func TestEditLine_JustificationScenario(t *testing.T) {
	w := newWorkflow(t, &mockLedger{}, nil, nil)
	_, err := w.AddLine(apple(), dec("1.5"))
	require.NoError(t, err)

	_, err = w.EditLine(0, dec("1.5"), dec("2.50"), "")
	require.ErrorIs(t, err, sale.ErrMissingJustification)
	assert.True(t, dec("2.00").Equal(w.View().Lines[0].UnitPrice))

	line, err := w.EditLine(0, dec("1.5"), dec("2.50"), "bruised fruit discount reversal")
	require.NoError(t, err)
	assert.Equal(t, "bruised fruit discount reversal", line.OverrideJustification)
	assert.True(t, dec("3.75").Equal(w.View().Total))
}

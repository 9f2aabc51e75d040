package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fruteira-pos/terminal/internal/enum"
	"github.com/fruteira-pos/terminal/internal/sale"
	"github.com/fruteira-pos/terminal/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

// mockTx implements pgx.Tx with only the methods we need.
// The unused methods panic so we catch accidental calls.
type mockTx struct {
	commitErr  error
	committed  bool
	rolledBack bool
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (m *mockTx) Commit(ctx context.Context) error {
	m.committed = m.commitErr == nil
	return m.commitErr
}
func (m *mockTx) Rollback(ctx context.Context) error {
	if !m.committed {
		m.rolledBack = true
	}
	return nil
}
func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (m *mockTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (m *mockTx) Conn() *pgx.Conn { panic("not implemented") }

// mockTxBeginner implements store.TxBeginner.
type mockTxBeginner struct {
	tx  pgx.Tx
	err error
}

func (m *mockTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	return m.tx, m.err
}

// mockSaleWriter implements store.SaleWriter with configurable behavior.
type mockSaleWriter struct {
	createSaleFn     func(ctx context.Context, arg store.CreateSaleParams) error
	createSaleLineFn func(ctx context.Context, arg store.CreateSaleLineParams) error

	sales []store.CreateSaleParams
	lines []store.CreateSaleLineParams
}

func (m *mockSaleWriter) CreateSale(ctx context.Context, arg store.CreateSaleParams) error {
	m.sales = append(m.sales, arg)
	if m.createSaleFn != nil {
		return m.createSaleFn(ctx, arg)
	}
	return nil
}

func (m *mockSaleWriter) CreateSaleLine(ctx context.Context, arg store.CreateSaleLineParams) error {
	m.lines = append(m.lines, arg)
	if m.createSaleLineFn != nil {
		return m.createSaleLineFn(ctx, arg)
	}
	return nil
}

type mockProductLister struct {
	rows []store.ProductRow
	err  error
}

func (m *mockProductLister) ListActiveProducts(ctx context.Context) ([]store.ProductRow, error) {
	return m.rows, m.err
}

// --- Test helpers ---

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func makeNumeric(val string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(val)
	return n
}

func numericEquals(t *testing.T, want string, n pgtype.Numeric) {
	t.Helper()
	v, err := n.Value()
	require.NoError(t, err)
	assert.True(t, dec(want).Equal(dec(v.(string))), "want %s, got %v", want, v)
}

func newTestStore(w *mockSaleWriter) (*store.SaleStore, *mockTx) {
	tx := &mockTx{}
	pool := &mockTxBeginner{tx: tx}
	return store.NewSaleStore(pool, func(db store.DBTX) store.SaleWriter { return w }), tx
}

func creditSale(t *testing.T) sale.Transaction {
	t.Helper()
	cart := sale.NewCart()
	_, err := cart.AddLine(&sale.Product{ID: "apple", Name: "Apple", Price: dec("2.00"), PricingMode: enum.PricingByWeight}, dec("1.5"))
	require.NoError(t, err)
	_, err = cart.AddLine(&sale.Product{ID: "melon", Name: "Melon", Price: dec("12.00"), PricingMode: enum.PricingByUnit}, dec("2"))
	require.NoError(t, err)
	_, err = cart.EditLine(1, dec("2"), dec("11.00"), "small")
	require.NoError(t, err)

	sel := sale.PaymentSelection{Method: enum.PaymentMethodCredit, Tendered: "25.00", Installments: 5}
	tx, err := sale.NewTransaction(cart.Lines(), sel, decimal.Zero, uuid.New(), time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return tx
}

// --- Tests ---

func TestSubmitSale_WritesSaleAndLines(t *testing.T) {
	w := &mockSaleWriter{}
	s, tx := newTestStore(w)
	sl := creditSale(t)

	ack, err := s.SubmitSale(t.Context(), sl)
	require.NoError(t, err)
	assert.Equal(t, sl.Reference.String(), ack.ID)
	assert.True(t, tx.committed)

	require.Len(t, w.sales, 1)
	got := w.sales[0]
	assert.Equal(t, sl.Reference, got.ID)
	assert.Equal(t, enum.PaymentMethodCredit, got.PaymentMethod)
	numericEquals(t, "25.00", got.Total)
	assert.Equal(t, pgtype.Int4{Int32: 5, Valid: true}, got.Installments)
	assert.True(t, got.OperatorID.Valid)

	require.Len(t, w.lines, 2)
	assert.Equal(t, int32(1), w.lines[0].Position)
	assert.False(t, w.lines[0].OverrideJustification.Valid)
	numericEquals(t, "1.5", w.lines[0].Quantity)
	assert.Equal(t, int32(2), w.lines[1].Position)
	assert.Equal(t, pgtype.Text{String: "small", Valid: true}, w.lines[1].OverrideJustification)
	numericEquals(t, "12.00", w.lines[1].OriginalUnitPrice)
	numericEquals(t, "11.00", w.lines[1].UnitPrice)
}

func TestSubmitSale_CashHasNoInstallments(t *testing.T) {
	w := &mockSaleWriter{}
	s, _ := newTestStore(w)

	cart := sale.NewCart()
	_, err := cart.AddLine(&sale.Product{ID: "a", Name: "Apple", Price: dec("2"), PricingMode: enum.PricingByWeight}, dec("1"))
	require.NoError(t, err)
	sl, err := sale.NewTransaction(cart.Lines(), sale.PaymentSelection{Method: enum.PaymentMethodCash, Tendered: "5", Installments: 3}, dec("3"), uuid.Nil, time.Now())
	require.NoError(t, err)

	_, err = s.SubmitSale(t.Context(), sl)
	require.NoError(t, err)
	assert.False(t, w.sales[0].Installments.Valid)
	assert.False(t, w.sales[0].OperatorID.Valid)
	numericEquals(t, "3.00", w.sales[0].ChangeDue)
}

func TestSubmitSale_KeepsLinePrecision(t *testing.T) {
	w := &mockSaleWriter{}
	s, _ := newTestStore(w)

	cart := sale.NewCart()
	_, err := cart.AddLine(&sale.Product{ID: "grape", Name: "Grape", Price: dec("2.00"), PricingMode: enum.PricingByWeight}, dec("0.4567"))
	require.NoError(t, err)
	_, err = cart.EditLine(0, dec("0.4567"), dec("2.505"), "bulk")
	require.NoError(t, err)
	sl, err := sale.NewTransaction(cart.Lines(), sale.PaymentSelection{Method: enum.PaymentMethodPix, Tendered: "1.14"}, decimal.Zero, uuid.Nil, time.Now())
	require.NoError(t, err)

	_, err = s.SubmitSale(t.Context(), sl)
	require.NoError(t, err)

	require.Len(t, w.lines, 1)
	numericEquals(t, "0.4567", w.lines[0].Quantity)
	numericEquals(t, "2.505", w.lines[0].UnitPrice)
	numericEquals(t, "2.00", w.lines[0].OriginalUnitPrice)
}

func TestSubmitSale_LineFailureRollsBack(t *testing.T) {
	w := &mockSaleWriter{createSaleLineFn: func(ctx context.Context, arg store.CreateSaleLineParams) error {
		if arg.Position == 2 {
			return errors.New("check constraint")
		}
		return nil
	}}
	s, tx := newTestStore(w)

	_, err := s.SubmitSale(t.Context(), creditSale(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create sale line 2")
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}

func TestSubmitSale_DuplicateReference(t *testing.T) {
	w := &mockSaleWriter{createSaleFn: func(ctx context.Context, arg store.CreateSaleParams) error {
		return &pgconn.PgError{Code: "23505", ConstraintName: "sales_pkey"}
	}}
	s, _ := newTestStore(w)

	_, err := s.SubmitSale(t.Context(), creditSale(t))
	require.ErrorIs(t, err, store.ErrDuplicateSale)
	assert.Empty(t, w.lines)
}

func TestSubmitSale_BeginFails(t *testing.T) {
	s := store.NewSaleStore(&mockTxBeginner{err: errors.New("pool closed")}, nil)

	_, err := s.SubmitSale(t.Context(), creditSale(t))
	require.ErrorContains(t, err, "begin tx")
}

func TestSubmitSale_CommitFails(t *testing.T) {
	w := &mockSaleWriter{}
	tx := &mockTx{commitErr: errors.New("connection reset")}
	s := store.NewSaleStore(&mockTxBeginner{tx: tx}, func(db store.DBTX) store.SaleWriter { return w })

	_, err := s.SubmitSale(t.Context(), creditSale(t))
	require.ErrorContains(t, err, "commit")
}

func TestProductStore_ListProducts(t *testing.T) {
	s := store.NewProductStore(&mockProductLister{rows: []store.ProductRow{
		{ID: "apple", Name: "Apple", Price: makeNumeric("7.90"), PricingMode: enum.PricingByWeight},
		{ID: "pine", Name: "Pineapple", Price: makeNumeric("6.50"), PricingMode: enum.PricingByUnit, ImageRef: "pine.png"},
	}})

	products, err := s.ListProducts(t.Context())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.True(t, dec("7.90").Equal(products[0].Price))
	assert.Equal(t, "pine.png", products[1].ImageRef)
}

func TestProductStore_ListProductsError(t *testing.T) {
	s := store.NewProductStore(&mockProductLister{err: errors.New("relation does not exist")})

	_, err := s.ListProducts(t.Context())
	require.ErrorContains(t, err, "list products")
}

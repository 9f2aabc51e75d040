package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/fruteira-pos/terminal/internal/checkout"
	"github.com/fruteira-pos/terminal/internal/enum"
	"github.com/fruteira-pos/terminal/internal/sale"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// ErrDuplicateSale is returned when a sale reference was already recorded.
var ErrDuplicateSale = errors.New("sale already recorded")

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// SaleWriter defines the DB methods needed to record a sale.
// Satisfied by *Queries.
type SaleWriter interface {
	CreateSale(ctx context.Context, arg CreateSaleParams) error
	CreateSaleLine(ctx context.Context, arg CreateSaleLineParams) error
}

// NewSaleWriter creates a SaleWriter bound to a transaction.
type NewSaleWriter func(db DBTX) SaleWriter

// SaleStore records sales in Postgres. It satisfies checkout.Ledger.
type SaleStore struct {
	pool     TxBeginner
	newStore NewSaleWriter
}

func NewSaleStore(pool TxBeginner, newStore NewSaleWriter) *SaleStore {
	return &SaleStore{pool: pool, newStore: newStore}
}

// SubmitSale writes the sale and its lines in a single transaction.
func (s *SaleStore) SubmitSale(ctx context.Context, tx sale.Transaction) (checkout.Ack, error) {
	dbtx, err := s.pool.Begin(ctx)
	if err != nil {
		return checkout.Ack{}, fmt.Errorf("begin tx: %w", err)
	}
	defer dbtx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(dbtx)

	params := CreateSaleParams{
		ID:             tx.Reference,
		OperatorID:     pgtype.UUID{Bytes: tx.OperatorID, Valid: tx.OperatorID != uuid.Nil},
		Total:          decimalToNumeric(tx.Total, 2),
		PaymentMethod:  tx.Payment.Method,
		AmountTendered: decimalToNumeric(tx.Payment.Tendered, 2),
		ChangeDue:      decimalToNumeric(tx.Payment.ChangeDue, 2),
		CreatedAt:      tx.CreatedAt,
	}
	if tx.Payment.Method == enum.PaymentMethodCredit {
		params.Installments = pgtype.Int4{Int32: int32(tx.Payment.Installments), Valid: true}
	}
	if err := store.CreateSale(ctx, params); err != nil {
		if isUniqueViolation(err) {
			return checkout.Ack{}, ErrDuplicateSale
		}
		return checkout.Ack{}, fmt.Errorf("create sale: %w", err)
	}

	for i, l := range tx.Lines {
		line := CreateSaleLineParams{
			SaleID:            tx.Reference,
			Position:          int32(i + 1),
			ProductID:         l.Product.ID,
			Name:              l.Product.Name,
			Quantity:          exactNumeric(l.Quantity),
			UnitPrice:         exactNumeric(l.UnitPrice),
			OriginalUnitPrice: exactNumeric(l.OriginalUnitPrice),
		}
		if l.OverrideJustification != "" {
			line.OverrideJustification = pgtype.Text{String: l.OverrideJustification, Valid: true}
		}
		if err := store.CreateSaleLine(ctx, line); err != nil {
			return checkout.Ack{}, fmt.Errorf("create sale line %d: %w", i+1, err)
		}
	}

	if err := dbtx.Commit(ctx); err != nil {
		return checkout.Ack{}, fmt.Errorf("commit: %w", err)
	}
	return checkout.Ack{ID: tx.Reference.String(), Message: "sale recorded"}, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

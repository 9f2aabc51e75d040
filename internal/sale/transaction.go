package sale

import (
	"time"

	"github.com/fruteira-pos/terminal/internal/enum"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment is a validated payment as it is recorded on a transaction.
type Payment struct {
	Method       string
	Tendered     decimal.Decimal
	ChangeDue    decimal.Decimal
	Installments int // credit only, zero otherwise
}

// Transaction is the immutable snapshot submitted to the sales ledger.
type Transaction struct {
	Reference  uuid.UUID
	OperatorID uuid.UUID
	Lines      []CartLine
	Total      decimal.Decimal
	Payment    Payment
	CreatedAt  time.Time
}

// NewTransaction snapshots lines and a payment selection that already passed
// ValidatePayment. changeDue is the value ValidatePayment returned.
func NewTransaction(lines []CartLine, sel PaymentSelection, changeDue decimal.Decimal, operatorID uuid.UUID, now time.Time) (Transaction, error) {
	tendered, err := ParseDecimal(sel.Tendered)
	if err != nil {
		return Transaction{}, ErrAmountRequired
	}

	snapshot := make([]CartLine, len(lines))
	copy(snapshot, lines)

	payment := Payment{
		Method:    sel.Method,
		Tendered:  tendered,
		ChangeDue: changeDue,
	}
	if sel.Method == enum.PaymentMethodCredit {
		payment.Installments = sel.Installments
	}

	return Transaction{
		Reference:  uuid.New(),
		OperatorID: operatorID,
		Lines:      snapshot,
		Total:      SumSubtotals(snapshot),
		Payment:    payment,
		CreatedAt:  now,
	}, nil
}

// RoundedTotal returns the total rounded to cents, as submitted and printed.
func (t Transaction) RoundedTotal() decimal.Decimal {
	return t.Total.Round(2)
}

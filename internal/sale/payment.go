package sale

import (
	"fmt"
	"strings"

	"github.com/fruteira-pos/terminal/internal/enum"
	"github.com/shopspring/decimal"
)

const (
	// MaxInstallments is the largest accepted credit installment count.
	MaxInstallments = 12
	// DefaultInstallments is the installment count of a fresh selection.
	DefaultInstallments = 1
)

var (
	// Tolerance absorbs sub-cent differences between tender and total.
	Tolerance = decimal.New(1, -2)
	// MinInstallmentValue is the smallest accepted credit installment.
	MinInstallmentValue = decimal.New(5, 0)
)

// PaymentSelection is the operator's current payment choice.
// Tendered keeps the raw operator input so that an unparseable amount can be
// reported at finalize time.
type PaymentSelection struct {
	Method       string          `json:"method"`
	Tendered     string          `json:"tendered"`
	Installments int             `json:"installments"`
	ChangeDue    decimal.Decimal `json:"change_due"`
}

// DefaultPayment returns the selection a new sale starts with: cash, no amount,
// one installment.
func DefaultPayment() PaymentSelection {
	return PaymentSelection{
		Method:       enum.PaymentMethodCash,
		Installments: DefaultInstallments,
		ChangeDue:    decimal.Zero,
	}
}

// IsValidPaymentMethod checks if s is a known payment method.
func IsValidPaymentMethod(s string) bool {
	switch s {
	case enum.PaymentMethodCash, enum.PaymentMethodDebit,
		enum.PaymentMethodCredit, enum.PaymentMethodPix:
		return true
	}
	return false
}

// ParseDecimal parses operator input, accepting a comma as decimal separator.
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return decimal.Zero, errNotANumber
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", errNotANumber, s)
	}
	return d, nil
}

// ValidatePayment decides whether a sale of total may be finalized with the
// given payment and returns the change due (zero for non-cash methods).
//
// Rules are evaluated in order and the first failing rule wins:
//  1. tendered must be a number
//  2. cash: tendered must cover total (shortfall below Tolerance is accepted)
//  3. debit/credit/pix: tendered must equal total (difference below Tolerance)
//  4. credit: 1 <= installments <= MaxInstallments and
//     total/installments >= MinInstallmentValue
func ValidatePayment(method, tendered string, total decimal.Decimal, installments int) (decimal.Decimal, error) {
	amount, err := ParseDecimal(tendered)
	if err != nil {
		return decimal.Zero, ErrAmountRequired
	}

	switch method {
	case enum.PaymentMethodCash:
		if total.Sub(amount).GreaterThanOrEqual(Tolerance) {
			return decimal.Zero, ErrInsufficientAmount
		}
		return changeFor(amount, total), nil

	case enum.PaymentMethodDebit, enum.PaymentMethodCredit, enum.PaymentMethodPix:
		if amount.Sub(total).Abs().GreaterThanOrEqual(Tolerance) {
			return decimal.Zero, ErrAmountMismatch
		}
	default:
		return decimal.Zero, ErrInvalidPaymentMethod
	}

	if method == enum.PaymentMethodCredit {
		if installments < 1 || installments > MaxInstallments {
			return decimal.Zero, ErrInvalidInstallments
		}
		if total.Div(decimal.NewFromInt(int64(installments))).LessThan(MinInstallmentValue) {
			return decimal.Zero, ErrInstallmentTooSmall
		}
	}
	return decimal.Zero, nil
}

// PreviewChange computes the change shown while the operator types, without
// validating. Non-cash methods and unparseable input yield zero.
func PreviewChange(method, tendered string, total decimal.Decimal) decimal.Decimal {
	if method != enum.PaymentMethodCash {
		return decimal.Zero
	}
	amount, err := ParseDecimal(tendered)
	if err != nil {
		return decimal.Zero
	}
	return changeFor(amount, total)
}

func changeFor(amount, total decimal.Decimal) decimal.Decimal {
	change := amount.Sub(total)
	if change.IsNegative() {
		return decimal.Zero
	}
	return change.Round(2)
}

package sale

import "errors"

// Input errors. Raised by cart operations, never reach the backend.
var (
	ErrInvalidQuantity      = errors.New("quantity must be a positive number")
	ErrInvalidPrice         = errors.New("price must be a positive number")
	ErrMissingJustification = errors.New("justification is required when the price is changed")
	ErrNoProductSelected    = errors.New("select a product")
	ErrIndexOutOfRange      = errors.New("cart line does not exist")
)

// Validation errors. Raised by ValidatePayment and block finalization.
var (
	ErrAmountRequired       = errors.New("enter the amount paid")
	ErrInsufficientAmount   = errors.New("amount paid cannot be less than the sale total")
	ErrAmountMismatch       = errors.New("amount paid must be exactly the sale total")
	ErrInvalidInstallments  = errors.New("installments must be between 1 and 12")
	ErrInstallmentTooSmall  = errors.New("minimum installment value is 5.00")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
)

var errNotANumber = errors.New("not a number")

// IsInputError reports whether err is a cart input error.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidPrice) ||
		errors.Is(err, ErrMissingJustification) ||
		errors.Is(err, ErrNoProductSelected) ||
		errors.Is(err, ErrIndexOutOfRange)
}

// IsValidationError reports whether err is a payment validation error.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrAmountRequired) ||
		errors.Is(err, ErrInsufficientAmount) ||
		errors.Is(err, ErrAmountMismatch) ||
		errors.Is(err, ErrInvalidInstallments) ||
		errors.Is(err, ErrInstallmentTooSmall) ||
		errors.Is(err, ErrInvalidPaymentMethod)
}

// Code returns a stable machine-readable code for a domain error, or "" if
// err is not one.
func Code(err error) string {
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return ""
}

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrInvalidQuantity, "INVALID_QUANTITY"},
	{ErrInvalidPrice, "INVALID_PRICE"},
	{ErrMissingJustification, "MISSING_JUSTIFICATION"},
	{ErrNoProductSelected, "NO_PRODUCT_SELECTED"},
	{ErrIndexOutOfRange, "INDEX_OUT_OF_RANGE"},
	{ErrAmountRequired, "AMOUNT_REQUIRED"},
	{ErrInsufficientAmount, "INSUFFICIENT_AMOUNT"},
	{ErrAmountMismatch, "AMOUNT_MISMATCH"},
	{ErrInvalidInstallments, "INVALID_INSTALLMENTS"},
	{ErrInstallmentTooSmall, "INSTALLMENT_TOO_SMALL"},
	{ErrInvalidPaymentMethod, "INVALID_PAYMENT_METHOD"},
}

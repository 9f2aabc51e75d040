package enum

// ── Group A: State machines ──

const (
	CheckoutStateIdle       = "IDLE"
	CheckoutStateValidating = "VALIDATING"
	CheckoutStateSubmitting = "SUBMITTING"
	CheckoutStateSucceeded  = "SUCCEEDED"
	CheckoutStateFailed     = "FAILED"
)

const (
	CatalogStatusNotLoaded   = "NOT_LOADED"
	CatalogStatusLoaded      = "LOADED"
	CatalogStatusUnavailable = "UNAVAILABLE"
)

// ── Group B: Domain labels ──

const (
	PaymentMethodCash   = "cash"
	PaymentMethodDebit  = "debit"
	PaymentMethodCredit = "credit"
	PaymentMethodPix    = "pix"
)

const (
	PricingByWeight = "by-weight"
	PricingByUnit   = "by-unit"
)

// ── Group C: Borderline (issued by the backend) ──

const (
	UserRoleAdmin    = "admin"
	UserRoleOperator = "usuario"
)

// ── Group D: Customer display events ──

const (
	EventCartUpdated    = "cart.updated"
	EventPaymentUpdated = "payment.updated"
	EventSaleCompleted  = "sale.completed"
	EventSaleFailed     = "sale.failed"
	EventSaleCancelled  = "sale.cancelled"
)

const (
	LedgerModeREST     = "rest"
	LedgerModePostgres = "postgres"
)

const (
	ScaleModeSimulated = "simulated"
	ScaleModeNone      = "none"
)

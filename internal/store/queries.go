package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type ProductRow struct {
	ID          string
	Name        string
	Price       pgtype.Numeric
	PricingMode string
	ImageRef    string
}

const listActiveProducts = `
SELECT id, name, price, pricing_mode, image_ref
FROM products
WHERE is_active = true
ORDER BY name, id
`

func (q *Queries) ListActiveProducts(ctx context.Context) ([]ProductRow, error) {
	rows, err := q.db.Query(ctx, listActiveProducts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ProductRow
	for rows.Next() {
		var i ProductRow
		if err := rows.Scan(&i.ID, &i.Name, &i.Price, &i.PricingMode, &i.ImageRef); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

type UpsertProductParams struct {
	ID          string
	Name        string
	Price       pgtype.Numeric
	PricingMode string
	ImageRef    string
}

const upsertProduct = `
INSERT INTO products (id, name, price, pricing_mode, image_ref, is_active)
VALUES ($1, $2, $3, $4, $5, true)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name, price = EXCLUDED.price, pricing_mode = EXCLUDED.pricing_mode,
    image_ref = EXCLUDED.image_ref, is_active = true, updated_at = now()
`

func (q *Queries) UpsertProduct(ctx context.Context, arg UpsertProductParams) error {
	_, err := q.db.Exec(ctx, upsertProduct, arg.ID, arg.Name, arg.Price, arg.PricingMode, arg.ImageRef)
	return err
}

type Operator struct {
	ID             uuid.UUID
	Email          string
	FullName       string
	HashedPassword string
	Role           string
}

const getOperatorByEmail = `
SELECT id, email, full_name, hashed_password, role
FROM operators
WHERE email = $1 AND is_active = true
`

func (q *Queries) GetOperatorByEmail(ctx context.Context, email string) (Operator, error) {
	var i Operator
	err := q.db.QueryRow(ctx, getOperatorByEmail, email).
		Scan(&i.ID, &i.Email, &i.FullName, &i.HashedPassword, &i.Role)
	return i, err
}

type UpsertOperatorParams struct {
	Email          string
	FullName       string
	HashedPassword string
	Role           string
}

const upsertOperator = `
INSERT INTO operators (email, full_name, hashed_password, role)
VALUES ($1, $2, $3, $4)
ON CONFLICT (email) DO UPDATE
SET full_name = EXCLUDED.full_name, hashed_password = EXCLUDED.hashed_password,
    role = EXCLUDED.role, is_active = true
RETURNING id
`

func (q *Queries) UpsertOperator(ctx context.Context, arg UpsertOperatorParams) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.db.QueryRow(ctx, upsertOperator, arg.Email, arg.FullName, arg.HashedPassword, arg.Role).Scan(&id)
	return id, err
}

type CreateSaleParams struct {
	ID             uuid.UUID
	OperatorID     pgtype.UUID
	Total          pgtype.Numeric
	PaymentMethod  string
	AmountTendered pgtype.Numeric
	ChangeDue      pgtype.Numeric
	Installments   pgtype.Int4
	CreatedAt      time.Time
}

const createSale = `
INSERT INTO sales (id, operator_id, total, payment_method, amount_tendered, change_due, installments, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

func (q *Queries) CreateSale(ctx context.Context, arg CreateSaleParams) error {
	_, err := q.db.Exec(ctx, createSale,
		arg.ID, arg.OperatorID, arg.Total, arg.PaymentMethod,
		arg.AmountTendered, arg.ChangeDue, arg.Installments, arg.CreatedAt,
	)
	return err
}

type CreateSaleLineParams struct {
	SaleID                uuid.UUID
	Position              int32
	ProductID             string
	Name                  string
	Quantity              pgtype.Numeric
	UnitPrice             pgtype.Numeric
	OriginalUnitPrice     pgtype.Numeric
	OverrideJustification pgtype.Text
}

const createSaleLine = `
INSERT INTO sale_lines (sale_id, position, product_id, name, quantity, unit_price, original_unit_price, override_justification)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

func (q *Queries) CreateSaleLine(ctx context.Context, arg CreateSaleLineParams) error {
	_, err := q.db.Exec(ctx, createSaleLine,
		arg.SaleID, arg.Position, arg.ProductID, arg.Name,
		arg.Quantity, arg.UnitPrice, arg.OriginalUnitPrice, arg.OverrideJustification,
	)
	return err
}

type SaleSummary struct {
	ID            uuid.UUID
	Total         pgtype.Numeric
	PaymentMethod string
	Lines         int32
	CreatedAt     time.Time
}

const getSaleSummary = `
SELECT s.id, s.total, s.payment_method, count(l.position)::int, s.created_at
FROM sales s
LEFT JOIN sale_lines l ON l.sale_id = s.id
WHERE s.id = $1
GROUP BY s.id
`

func (q *Queries) GetSaleSummary(ctx context.Context, id uuid.UUID) (SaleSummary, error) {
	var i SaleSummary
	err := q.db.QueryRow(ctx, getSaleSummary, id).
		Scan(&i.ID, &i.Total, &i.PaymentMethod, &i.Lines, &i.CreatedAt)
	return i, err
}

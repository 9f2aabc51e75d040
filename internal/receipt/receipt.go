package receipt

import (
	"fmt"
	"strings"
	"time"

	"github.com/fruteira-pos/terminal/internal/enum"
	"github.com/fruteira-pos/terminal/internal/sale"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

const (
	// DefaultTitle heads the receipt when Options.Title is empty.
	DefaultTitle = "Fruteira do Zé - Non-fiscal document"
	// DefaultLinesPerPage is the page length used when Options.LinesPerPage
	// is not positive.
	DefaultLinesPerPage = 40

	width = 48
)

// Options controls receipt layout.
type Options struct {
	Title        string
	LinesPerPage int
	Currency     currency.Unit
	Location     *time.Location
}

// Document is a paginated plain-text receipt.
type Document struct {
	Filename string
	Pages    []string
}

// Text joins the pages with form feeds, ready for a printer or a file.
func (d Document) Text() string {
	return strings.Join(d.Pages, "\f\n")
}

// Render formats tx as a receipt. It has no side effects.
func Render(tx sale.Transaction, opts Options) Document {
	opts = withDefaults(opts)
	sym := Symbol(opts.Currency)
	money := func(d decimal.Decimal) string {
		return sym + " " + d.StringFixed(2)
	}

	var body []string
	for i, line := range tx.Lines {
		body = append(body, fmt.Sprintf("%d. %s — %s %s × %s = %s",
			i+1,
			line.Product.Name,
			line.Quantity.String(),
			line.Product.Unit(),
			money(line.UnitPrice),
			money(line.Subtotal().Round(2)),
		))
		if line.OverrideJustification != "" {
			body = append(body, "   * Justification: "+line.OverrideJustification)
		}
	}

	body = append(body, strings.Repeat("-", width))
	body = append(body, "TOTAL: "+money(tx.RoundedTotal()))
	body = append(body, "Payment: "+MethodLabel(tx.Payment.Method))
	body = append(body, "Paid: "+money(tx.Payment.Tendered))
	if tx.Payment.Method == enum.PaymentMethodCash {
		body = append(body, "Change: "+money(tx.Payment.ChangeDue))
	}
	if tx.Payment.Installments > 0 {
		per := tx.RoundedTotal().Div(decimal.NewFromInt(int64(tx.Payment.Installments)))
		body = append(body, fmt.Sprintf("Installments: %dx %s", tx.Payment.Installments, money(per.Round(2))))
	}

	stamp := tx.CreatedAt.In(opts.Location).Format("02/01/2006 15:04:05")
	pages := paginate(body, opts.LinesPerPage)
	out := make([]string, len(pages))
	for i, page := range pages {
		header := []string{
			opts.Title,
			"Date: " + stamp,
			"Sale: " + tx.Reference.String(),
			fmt.Sprintf("Page %d/%d", i+1, len(pages)),
			strings.Repeat("-", width),
		}
		out[i] = strings.Join(append(header, page...), "\n") + "\n"
	}

	return Document{
		Filename: fmt.Sprintf("receipt-%s.txt", tx.Reference),
		Pages:    out,
	}
}

// Symbol returns the printed symbol for a currency unit.
func Symbol(u currency.Unit) string {
	switch u {
	case currency.BRL:
		return "R$"
	case currency.USD:
		return "$"
	case currency.EUR:
		return "€"
	}
	return u.String()
}

// MethodLabel returns the printed name of a payment method.
func MethodLabel(method string) string {
	switch method {
	case enum.PaymentMethodCash:
		return "Cash"
	case enum.PaymentMethodDebit:
		return "Debit card"
	case enum.PaymentMethodCredit:
		return "Credit card"
	case enum.PaymentMethodPix:
		return "Pix"
	}
	return method
}

func withDefaults(opts Options) Options {
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	if opts.LinesPerPage <= 0 {
		opts.LinesPerPage = DefaultLinesPerPage
	}
	if opts.Currency == (currency.Unit{}) {
		opts.Currency = currency.BRL
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return opts
}

// paginate splits lines into pages of at most n lines. A line item and its
// justification are never split across pages.
func paginate(lines []string, n int) [][]string {
	var pages [][]string
	var cur []string
	for i := 0; i < len(lines); i++ {
		chunk := []string{lines[i]}
		if i+1 < len(lines) && strings.HasPrefix(lines[i+1], "   * ") {
			chunk = append(chunk, lines[i+1])
			i++
		}
		if len(cur)+len(chunk) > n && len(cur) > 0 {
			pages = append(pages, cur)
			cur = nil
		}
		cur = append(cur, chunk...)
	}
	if len(cur) > 0 || len(pages) == 0 {
		pages = append(pages, cur)
	}
	return pages
}

package printing

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/invoicely/backend/internal/domain/invoicing"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const invoiceTemplateName = "invoice.html.tmpl"

// Palette is the accent colors of a color scheme
type Palette struct {
	Primary string
	Light   string
}

var palettes = map[string]Palette{
	"blue":   {Primary: "#2563eb", Light: "#dbeafe"},
	"green":  {Primary: "#059669", Light: "#d1fae5"},
	"purple": {Primary: "#7c3aed", Light: "#ede9fe"},
	"red":    {Primary: "#dc2626", Light: "#fee2e2"},
	"orange": {Primary: "#ea580c", Light: "#ffedd5"},
	"gray":   {Primary: "#374151", Light: "#e5e7eb"},
}

// PaletteFor returns the palette of scheme, falling back to blue
func PaletteFor(scheme string) Palette {
	if p, ok := palettes[strings.ToLower(strings.TrimSpace(scheme))]; ok {
		return p
	}
	return palettes[invoicing.DefaultColorScheme]
}

// Labels are the fixed captions printed on an invoice
type Labels struct {
	Invoice             string
	BillTo              string
	IssueDate           string
	DueDate             string
	PONumber            string
	TaxID               string
	Description         string
	Quantity            string
	Rate                string
	Amount              string
	Subtotal            string
	Tax                 string
	TaxIncluded         string
	Total               string
	AmountPaid          string
	BalanceDue          string
	Notes               string
	Terms               string
	PaymentInstructions string
}

// EnglishLabels are the captions used for every invoice
var EnglishLabels = Labels{
	Invoice:             "INVOICE",
	BillTo:              "Bill To",
	IssueDate:           "Issue Date",
	DueDate:             "Due Date",
	PONumber:            "PO Number",
	TaxID:               "Tax ID",
	Description:         "Description",
	Quantity:            "Qty",
	Rate:                "Rate",
	Amount:              "Amount",
	Subtotal:            "Subtotal",
	Tax:                 "Tax",
	TaxIncluded:         "Tax (included)",
	Total:               "Total",
	AmountPaid:          "Amount Paid",
	BalanceDue:          "Balance Due",
	Notes:               "Notes",
	Terms:               "Terms & Conditions",
	PaymentInstructions: "Payment Instructions",
}

var currencySymbols = map[string]string{
	"USD": "$",
	"CAD": "CA$",
	"AUD": "A$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"INR": "₹",
}

type templateData struct {
	Doc     *invoicing.InvoiceDocument
	Palette Palette
	Labels  Labels
}

// InvoiceTemplate renders the invoice HTML page
type InvoiceTemplate struct {
	tmpl    *template.Template
	printer *message.Printer
	title   cases.Caser
}

// NewInvoiceTemplate parses the embedded invoice template
func NewInvoiceTemplate() (*InvoiceTemplate, error) {
	t := &InvoiceTemplate{
		printer: message.NewPrinter(language.AmericanEnglish),
		title:   cases.Title(language.AmericanEnglish),
	}
	tmpl, err := template.New(invoiceTemplateName).Funcs(template.FuncMap{
		"formatMoney":    t.formatMoney,
		"formatQuantity": t.formatQuantity,
		"formatDate":     formatDate,
		"statusLabel":    t.statusLabel,
	}).ParseFS(templateFS, "templates/"+invoiceTemplateName)
	if err != nil {
		return nil, fmt.Errorf("parse invoice template: %w", err)
	}
	t.tmpl = tmpl
	return t, nil
}

// Render executes the template for doc
func (t *InvoiceTemplate) Render(doc *invoicing.InvoiceDocument) (string, error) {
	var buf bytes.Buffer
	err := t.tmpl.Execute(&buf, templateData{
		Doc:     doc,
		Palette: PaletteFor(doc.Business.ColorScheme),
		Labels:  EnglishLabels,
	})
	if err != nil {
		return "", NewRenderError(ErrCodeTemplateFailed, "failed to execute invoice template", err)
	}
	return buf.String(), nil
}

// formatMoney prints amount with grouping and the currency's symbol,
// e.g. "$1,234.50" or "CHF 10.00"
func (t *InvoiceTemplate) formatMoney(currency string, amount float64) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if code == "" {
		code = invoicing.DefaultCurrency
	}
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	number := t.printer.Sprintf("%.2f", amount)
	if symbol, ok := currencySymbols[code]; ok {
		return sign + symbol + number
	}
	return sign + code + " " + number
}

// formatQuantity drops trailing zeros: 2 -> "2", 1.5 -> "1.5"
func (t *InvoiceTemplate) formatQuantity(q float64) string {
	s := t.printer.Sprintf("%.2f", q)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	return s
}

func (t *InvoiceTemplate) statusLabel(status string) string {
	return t.title.String(strings.ToLower(status))
}

func formatDate(d time.Time) string {
	if d.IsZero() {
		return ""
	}
	return d.Format("Jan 2, 2006")
}

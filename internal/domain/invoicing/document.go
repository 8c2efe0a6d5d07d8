package invoicing

import (
	"strings"
	"time"
)

// BusinessInfo is the issuer block printed on an invoice PDF
type BusinessInfo struct {
	Name        string
	Address     string
	Phone       string
	Email       string
	Logo        string
	TaxID       string
	ColorScheme string
}

// NewBusinessInfo projects a user's business profile
func NewBusinessInfo(u *User) BusinessInfo {
	colorScheme := u.InvoiceColorScheme
	if colorScheme == "" {
		colorScheme = DefaultColorScheme
	}
	return BusinessInfo{
		Name:        firstNonEmpty(u.BusinessName, u.DisplayName, u.Username),
		Address:     joinNonEmpty(", ", u.Address, u.City, u.State, u.ZipCode, u.Country),
		Phone:       u.Phone,
		Email:       u.Email,
		Logo:        firstNonEmpty(u.LogoURL, u.AILogoURL),
		TaxID:       u.BusinessRegNumber,
		ColorScheme: colorScheme,
	}
}

// DocumentParty is the bill-to block
type DocumentParty struct {
	Name    string
	Email   string
	Phone   string
	Address string
	TaxID   string
}

// DocumentItem is a line with plain numbers
type DocumentItem struct {
	Description string
	Quantity    float64
	UnitPrice   float64
	Total       float64
}

// InvoiceDocument is everything a renderer needs, with monetary values
// already converted to float64.
type InvoiceDocument struct {
	InvoiceID           string
	Number              string
	Status              string
	Currency            string
	IssueDate           time.Time
	DueDate             time.Time
	PONumber            string
	Notes               string
	Terms               string
	PaymentInstructions string
	TaxInclusive        bool
	Subtotal            float64
	TaxAmount           float64
	Total               float64
	AmountPaid          float64
	BalanceDue          float64
	Items               []DocumentItem
	Customer            DocumentParty
	Business            BusinessInfo
}

// NewInvoiceDocument projects an invoice (with items and customer loaded)
func NewInvoiceDocument(inv *Invoice, business BusinessInfo) *InvoiceDocument {
	doc := &InvoiceDocument{
		InvoiceID:           inv.ID.String(),
		Number:              inv.Number,
		Status:              string(inv.Status),
		Currency:            inv.Currency,
		IssueDate:           inv.IssueDate,
		DueDate:             inv.DueDate,
		PONumber:            inv.PONumber,
		Notes:               inv.Notes,
		Terms:               inv.Terms,
		PaymentInstructions: inv.PaymentInstructions,
		TaxInclusive:        inv.TaxInclusive,
		Subtotal:            inv.Subtotal.InexactFloat64(),
		TaxAmount:           inv.TaxAmount.InexactFloat64(),
		Total:               inv.Total.InexactFloat64(),
		AmountPaid:          inv.AmountPaid().InexactFloat64(),
		BalanceDue:          inv.BalanceDue().InexactFloat64(),
		Items:               make([]DocumentItem, 0, len(inv.Items)),
		Business:            business,
	}
	for _, item := range inv.Items {
		doc.Items = append(doc.Items, DocumentItem{
			Description: item.Description,
			Quantity:    item.Quantity.InexactFloat64(),
			UnitPrice:   item.UnitPrice.InexactFloat64(),
			Total:       item.Total.InexactFloat64(),
		})
	}
	if c := inv.Customer; c != nil {
		doc.Customer = DocumentParty{
			Name:    firstNonEmpty(c.BusinessName, c.DisplayName),
			Email:   c.Email,
			Phone:   c.Phone,
			Address: joinNonEmpty(", ", c.Address, c.City, c.State, c.ZipCode, c.Country),
			TaxID:   c.BusinessRegNumber,
		}
	}
	return doc
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func joinNonEmpty(sep string, values ...string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, sep)
}

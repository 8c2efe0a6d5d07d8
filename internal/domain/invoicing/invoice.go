package invoicing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the lifecycle state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "DRAFT"
	InvoiceStatusSent      InvoiceStatus = "SENT"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusOverdue   InvoiceStatus = "OVERDUE"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// DefaultCurrency is used when an invoice is created without one
const DefaultCurrency = "USD"

// ParseInvoiceStatus accepts any casing. An empty string yields DRAFT.
func ParseInvoiceStatus(s string) (InvoiceStatus, error) {
	if strings.TrimSpace(s) == "" {
		return InvoiceStatusDraft, nil
	}
	status := InvoiceStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch status {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled:
		return status, nil
	}
	return "", shared.NewDomainError("INVALID_STATUS", "Unknown invoice status: "+s)
}

// InvoiceItem is a single billed line
type InvoiceItem struct {
	ID          uuid.UUID
	InvoiceID   uuid.UUID
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
	Position    int
}

// LineInput describes a line when creating an invoice.
// Amount overrides Quantity*Rate for the stored line total when non-zero.
type LineInput struct {
	Description string
	Quantity    decimal.Decimal
	Rate        decimal.Decimal
	Amount      decimal.Decimal
}

// Invoice is the aggregate root for billing documents
type Invoice struct {
	shared.BaseEntity
	UserID              string
	CustomerID          uuid.UUID
	Number              string
	Status              InvoiceStatus
	IssueDate           time.Time
	DueDate             time.Time
	Currency            string
	Subtotal            decimal.Decimal
	TaxAmount           decimal.Decimal
	Total               decimal.Decimal
	TaxInclusive        bool
	PONumber            string
	Notes               string
	PaymentInstructions string
	Terms               string
	PDFURL              string

	// Email delivery tracking
	CCEmails        []string
	SentTo          string
	SentAt          *time.Time
	LastEmailSentAt *time.Time
	EmailCount      int

	Items    []InvoiceItem
	Customer *Customer
	Payments []Payment
}

// NewInvoice builds a draft invoice and computes its totals.
// subtotal = sum(quantity * rate), total = subtotal + taxAmount.
func NewInvoice(userID string, customerID uuid.UUID, number string, lines []LineInput, taxAmount decimal.Decimal) (*Invoice, error) {
	if userID == "" {
		return nil, shared.NewDomainError("INVALID_USER", "User is required")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer is required")
	}
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Invoice number is required")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("INVALID_ITEMS", "Invoice must have at least one item")
	}
	if taxAmount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_TAX", "Tax amount cannot be negative")
	}

	now := time.Now()
	inv := &Invoice{
		BaseEntity: shared.NewBaseEntity(),
		UserID:     userID,
		CustomerID: customerID,
		Number:     number,
		Status:     InvoiceStatusDraft,
		IssueDate:  now,
		DueDate:    now,
		Currency:   DefaultCurrency,
		TaxAmount:  taxAmount,
	}

	subtotal := decimal.Zero
	for i, line := range lines {
		item, err := newInvoiceItem(inv.ID, i, line)
		if err != nil {
			return nil, err
		}
		subtotal = subtotal.Add(item.Quantity.Mul(item.UnitPrice))
		inv.Items = append(inv.Items, item)
	}
	inv.Subtotal = subtotal
	inv.Total = subtotal.Add(taxAmount)

	return inv, nil
}

func newInvoiceItem(invoiceID uuid.UUID, position int, line LineInput) (InvoiceItem, error) {
	description := strings.TrimSpace(line.Description)
	if description == "" {
		description = "Item"
	}
	quantity := line.Quantity
	if !quantity.IsPositive() {
		quantity = decimal.NewFromInt(1)
	}
	if line.Rate.IsNegative() {
		return InvoiceItem{}, shared.NewDomainError("INVALID_RATE", "Item rate cannot be negative")
	}
	total := line.Amount
	if total.IsZero() {
		total = quantity.Mul(line.Rate)
	}
	return InvoiceItem{
		ID:          uuid.New(),
		InvoiceID:   invoiceID,
		Description: description,
		Quantity:    quantity,
		UnitPrice:   line.Rate,
		Total:       total,
		Position:    position,
	}, nil
}

// SetCurrency sets an ISO currency code, falling back to USD
func (i *Invoice) SetCurrency(code string) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = DefaultCurrency
	}
	i.Currency = code
	i.Touch()
}

// SetStatus moves the invoice to the given status
func (i *Invoice) SetStatus(status InvoiceStatus) {
	i.Status = status
	i.Touch()
}

// Reschedule updates issue and due dates. Zero values leave a date unchanged.
func (i *Invoice) Reschedule(issueDate, dueDate time.Time) error {
	issue, due := i.IssueDate, i.DueDate
	if !issueDate.IsZero() {
		issue = issueDate
	}
	if !dueDate.IsZero() {
		due = dueDate
	}
	if due.Before(issue) {
		return shared.NewDomainError("INVALID_DUE_DATE", "Due date cannot be before issue date")
	}
	i.IssueDate = issue
	i.DueDate = due
	i.Touch()
	return nil
}

// SetReferences sets the free-text fields printed on the invoice
func (i *Invoice) SetReferences(poNumber, notes, paymentInstructions string) {
	i.PONumber = strings.TrimSpace(poNumber)
	i.Notes = strings.TrimSpace(notes)
	i.PaymentInstructions = strings.TrimSpace(paymentInstructions)
	i.Touch()
}

// SetTerms sets the terms and conditions printed on the invoice
func (i *Invoice) SetTerms(terms string) {
	i.Terms = strings.TrimSpace(terms)
	i.Touch()
}

// CanSend reports whether the invoice may be emailed to a customer
func (i *Invoice) CanSend() error {
	if i.Status == InvoiceStatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Cannot send a cancelled invoice")
	}
	return nil
}

// MarkSent records an email delivery to the recipient. A DRAFT invoice moves
// to SENT; the result reports whether the status changed. SentAt keeps the
// first delivery time.
func (i *Invoice) MarkSent(to string, cc []string, at time.Time) bool {
	sentAt := at
	if i.SentAt == nil {
		i.SentAt = &sentAt
	}
	i.LastEmailSentAt = &sentAt
	i.SentTo = to
	i.CCEmails = cc
	i.EmailCount++

	statusUpdated := i.Status == InvoiceStatusDraft
	if statusUpdated {
		i.Status = InvoiceStatusSent
	}
	i.Touch()
	return statusUpdated
}

// AmountPaid sums recorded payments
func (i *Invoice) AmountPaid() decimal.Decimal {
	paid := decimal.Zero
	for _, p := range i.Payments {
		paid = paid.Add(p.Amount)
	}
	return paid
}

// BalanceDue is total minus payments, never negative
func (i *Invoice) BalanceDue() decimal.Decimal {
	due := i.Total.Sub(i.AmountPaid())
	if due.IsNegative() {
		return decimal.Zero
	}
	return due
}

// RecordPayment appends a payment and marks the invoice PAID once the
// balance is settled.
func (i *Invoice) RecordPayment(amount decimal.Decimal, paidAt time.Time, method PaymentMethod) (*Payment, error) {
	if i.Status == InvoiceStatusCancelled {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot record a payment on a cancelled invoice")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if amount.GreaterThan(i.BalanceDue()) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount exceeds balance due")
	}
	payment, err := NewPayment(i.ID, amount, paidAt, method)
	if err != nil {
		return nil, err
	}
	i.Payments = append(i.Payments, *payment)
	if !i.BalanceDue().IsPositive() {
		i.Status = InvoiceStatusPaid
	}
	i.Touch()
	return payment, nil
}

// HasPDF reports whether a generated PDF is stored for this invoice
func (i *Invoice) HasPDF() bool {
	return i.PDFURL != ""
}

// PDFFileName is the download name offered to clients
func (i *Invoice) PDFFileName() string {
	return "Invoice-" + i.Number + ".pdf"
}

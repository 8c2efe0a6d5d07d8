package invoicing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentMethod is how a payment was received
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodCheck        PaymentMethod = "CHECK"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCreditCard   PaymentMethod = "CREDIT_CARD"
	PaymentMethodPayPal       PaymentMethod = "PAYPAL"
	PaymentMethodOther        PaymentMethod = "OTHER"
)

// ParsePaymentMethod accepts any casing and spaces for underscores
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", "_")))
	switch m {
	case PaymentMethodCash, PaymentMethodCheck, PaymentMethodBankTransfer,
		PaymentMethodCreditCard, PaymentMethodPayPal, PaymentMethodOther:
		return m, nil
	case "":
		return PaymentMethodOther, nil
	}
	return "", shared.NewDomainError("INVALID_PAYMENT_METHOD", "Unknown payment method: "+s)
}

// Payment records money received against an invoice
type Payment struct {
	ID          uuid.UUID
	InvoiceID   uuid.UUID
	Amount      decimal.Decimal
	PaymentDate time.Time
	Method      PaymentMethod
	CreatedAt   time.Time
}

// NewPayment creates a payment. A zero paidAt means now.
func NewPayment(invoiceID uuid.UUID, amount decimal.Decimal, paidAt time.Time, method PaymentMethod) (*Payment, error) {
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	now := time.Now()
	if paidAt.IsZero() {
		paidAt = now
	}
	if method == "" {
		method = PaymentMethodOther
	}
	return &Payment{
		ID:          uuid.New(),
		InvoiceID:   invoiceID,
		Amount:      amount,
		PaymentDate: paidAt,
		Method:      method,
		CreatedAt:   now,
	}, nil
}

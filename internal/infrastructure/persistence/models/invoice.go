package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/invoicing"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the invoice header
type InvoiceModel struct {
	BaseModel
	UserID              string                  `gorm:"type:varchar(128);not null;index;uniqueIndex:idx_invoice_user_number,priority:1"`
	CustomerID          uuid.UUID               `gorm:"type:uuid;not null;index"`
	Number              string                  `gorm:"type:varchar(64);not null;uniqueIndex:idx_invoice_user_number,priority:2"`
	Status              invoicing.InvoiceStatus `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	IssueDate           time.Time               `gorm:"not null"`
	DueDate             time.Time               `gorm:"not null"`
	Currency            string                  `gorm:"type:varchar(3);not null;default:'USD'"`
	Subtotal            decimal.Decimal         `gorm:"type:decimal(18,2);not null;default:0"`
	TaxAmount           decimal.Decimal         `gorm:"type:decimal(18,2);not null;default:0"`
	Total               decimal.Decimal         `gorm:"type:decimal(18,2);not null;default:0"`
	TaxInclusive        bool                    `gorm:"not null;default:false"`
	PONumber            string                  `gorm:"column:po_number;type:varchar(100)"`
	Notes               string                  `gorm:"type:text"`
	PaymentInstructions string                  `gorm:"type:text"`
	Terms               string                  `gorm:"type:text"`
	PDFURL              string                  `gorm:"column:pdf_url;type:text"`
	CCEmails            string                  `gorm:"column:cc_emails;type:text"`
	SentTo              string                  `gorm:"type:varchar(255)"`
	SentAt              *time.Time
	LastEmailSentAt     *time.Time
	EmailCount          int `gorm:"not null;default:0"`

	Customer *CustomerModel     `gorm:"foreignKey:CustomerID"`
	Items    []InvoiceItemModel `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	Payments []PaymentModel     `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the model and any preloaded associations to a domain Invoice
func (m *InvoiceModel) ToDomain() *invoicing.Invoice {
	inv := &invoicing.Invoice{
		BaseEntity:          m.BaseModel.ToDomain(),
		UserID:              m.UserID,
		CustomerID:          m.CustomerID,
		Number:              m.Number,
		Status:              m.Status,
		IssueDate:           m.IssueDate,
		DueDate:             m.DueDate,
		Currency:            m.Currency,
		Subtotal:            m.Subtotal,
		TaxAmount:           m.TaxAmount,
		Total:               m.Total,
		TaxInclusive:        m.TaxInclusive,
		PONumber:            m.PONumber,
		Notes:               m.Notes,
		PaymentInstructions: m.PaymentInstructions,
		Terms:               m.Terms,
		PDFURL:              m.PDFURL,
		CCEmails:            SplitEmails(m.CCEmails),
		SentTo:              m.SentTo,
		SentAt:              m.SentAt,
		LastEmailSentAt:     m.LastEmailSentAt,
		EmailCount:          m.EmailCount,
	}
	if m.Customer != nil {
		inv.Customer = m.Customer.ToDomain()
	}
	if len(m.Items) > 0 {
		inv.Items = make([]invoicing.InvoiceItem, len(m.Items))
		for i := range m.Items {
			inv.Items[i] = m.Items[i].ToDomain()
		}
	}
	if len(m.Payments) > 0 {
		inv.Payments = make([]invoicing.Payment, len(m.Payments))
		for i := range m.Payments {
			inv.Payments[i] = m.Payments[i].ToDomain()
		}
	}
	return inv
}

// FromDomain populates the header and item models from a domain Invoice.
// The customer and payments are written through their own repositories.
func (m *InvoiceModel) FromDomain(inv *invoicing.Invoice) {
	m.FromDomainBaseEntity(inv.BaseEntity)
	m.UserID = inv.UserID
	m.CustomerID = inv.CustomerID
	m.Number = inv.Number
	m.Status = inv.Status
	m.IssueDate = inv.IssueDate
	m.DueDate = inv.DueDate
	m.Currency = inv.Currency
	m.Subtotal = inv.Subtotal
	m.TaxAmount = inv.TaxAmount
	m.Total = inv.Total
	m.TaxInclusive = inv.TaxInclusive
	m.PONumber = inv.PONumber
	m.Notes = inv.Notes
	m.PaymentInstructions = inv.PaymentInstructions
	m.Terms = inv.Terms
	m.PDFURL = inv.PDFURL
	m.CCEmails = JoinEmails(inv.CCEmails)
	m.SentTo = inv.SentTo
	m.SentAt = inv.SentAt
	m.LastEmailSentAt = inv.LastEmailSentAt
	m.EmailCount = inv.EmailCount

	m.Items = make([]InvoiceItemModel, len(inv.Items))
	for i := range inv.Items {
		m.Items[i] = InvoiceItemModelFromDomain(inv.Items[i])
	}
}

// JoinEmails stores an address list in a single comma separated column
func JoinEmails(emails []string) string {
	return strings.Join(emails, ",")
}

// SplitEmails reverses JoinEmails. An empty column yields nil.
func SplitEmails(column string) []string {
	if column == "" {
		return nil
	}
	return strings.Split(column, ",")
}

// InvoiceModelFromDomain creates a model from a domain Invoice
func InvoiceModelFromDomain(inv *invoicing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// InvoiceItemModel is the persistence model for an invoice line
type InvoiceItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Description string          `gorm:"type:text;not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:1"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Total       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Position    int             `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (InvoiceItemModel) TableName() string {
	return "invoice_items"
}

// ToDomain converts the model to a domain InvoiceItem
func (m *InvoiceItemModel) ToDomain() invoicing.InvoiceItem {
	return invoicing.InvoiceItem{
		ID:          m.ID,
		InvoiceID:   m.InvoiceID,
		Description: m.Description,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
		Total:       m.Total,
		Position:    m.Position,
	}
}

// InvoiceItemModelFromDomain creates a model from a domain InvoiceItem
func InvoiceItemModelFromDomain(item invoicing.InvoiceItem) InvoiceItemModel {
	return InvoiceItemModel{
		ID:          item.ID,
		InvoiceID:   item.InvoiceID,
		Description: item.Description,
		Quantity:    item.Quantity,
		UnitPrice:   item.UnitPrice,
		Total:       item.Total,
		Position:    item.Position,
	}
}

// PaymentModel is the persistence model for invoicing.Payment
type PaymentModel struct {
	ID          uuid.UUID               `gorm:"type:uuid;primaryKey"`
	InvoiceID   uuid.UUID               `gorm:"type:uuid;not null;index"`
	Amount      decimal.Decimal         `gorm:"type:decimal(18,2);not null"`
	PaymentDate time.Time               `gorm:"not null"`
	Method      invoicing.PaymentMethod `gorm:"type:varchar(20);not null;default:'OTHER'"`
	CreatedAt   time.Time               `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the model to a domain Payment
func (m *PaymentModel) ToDomain() invoicing.Payment {
	return invoicing.Payment{
		ID:          m.ID,
		InvoiceID:   m.InvoiceID,
		Amount:      m.Amount,
		PaymentDate: m.PaymentDate,
		Method:      m.Method,
		CreatedAt:   m.CreatedAt,
	}
}

// PaymentModelFromDomain creates a model from a domain Payment
func PaymentModelFromDomain(p *invoicing.Payment) *PaymentModel {
	return &PaymentModel{
		ID:          p.ID,
		InvoiceID:   p.InvoiceID,
		Amount:      p.Amount,
		PaymentDate: p.PaymentDate,
		Method:      p.Method,
		CreatedAt:   p.CreatedAt,
	}
}

package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/invoicing"
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/invoicely/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const invoiceResource = "Invoice"

// GormInvoiceRepository implements invoicing.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

var _ invoicing.InvoiceRepository = (*GormInvoiceRepository)(nil)

func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Customer").
		Preload("Items", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("position ASC")
		}).
		Preload("Payments", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("payment_date ASC")
		})
}

// FindByIDWithDetails loads an invoice with items, customer and payments
func (r *GormInvoiceRepository) FindByIDWithDetails(ctx context.Context, id uuid.UUID) (*invoicing.Invoice, error) {
	var model models.InvoiceModel
	if err := withDetails(r.db.WithContext(ctx)).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, invoiceResource)
	}
	return model.ToDomain(), nil
}

// FindByIDForUser loads an invoice with details when it belongs to userID
func (r *GormInvoiceRepository) FindByIDForUser(ctx context.Context, userID string, id uuid.UUID) (*invoicing.Invoice, error) {
	var model models.InvoiceModel
	if err := withDetails(r.db.WithContext(ctx)).
		Where("user_id = ? AND id = ?", userID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err, invoiceResource)
	}
	return model.ToDomain(), nil
}

// ListForUser returns a page of invoices, newest first, with their customer
func (r *GormInvoiceRepository) ListForUser(ctx context.Context, userID string, page shared.Page) ([]invoicing.Invoice, error) {
	var rows []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Customer").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	invoices := make([]invoicing.Invoice, len(rows))
	for i := range rows {
		invoices[i] = *rows[i].ToDomain()
	}
	return invoices, nil
}

// CountByCustomer counts a user's invoices billed to customerID
func (r *GormInvoiceRepository) CountByCustomer(ctx context.Context, userID string, customerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("user_id = ? AND customer_id = ?", userID, customerID).
		Count(&count).Error
	return count, err
}

// Create inserts the invoice header and its items in one transaction
func (r *GormInvoiceRepository) Create(ctx context.Context, invoice *invoicing.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			return translateError(err, invoiceResource)
		}
		if len(model.Items) > 0 {
			if err := tx.Create(&model.Items).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Save updates the mutable header and delivery tracking fields of an invoice
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *invoicing.Invoice) error {
	result := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("id = ? AND user_id = ?", invoice.ID, invoice.UserID).
		Updates(map[string]any{
			"status":               invoice.Status,
			"issue_date":           invoice.IssueDate,
			"due_date":             invoice.DueDate,
			"currency":             invoice.Currency,
			"po_number":            invoice.PONumber,
			"notes":                invoice.Notes,
			"payment_instructions": invoice.PaymentInstructions,
			"terms":                invoice.Terms,
			"cc_emails":            models.JoinEmails(invoice.CCEmails),
			"sent_to":              invoice.SentTo,
			"sent_at":              invoice.SentAt,
			"last_email_sent_at":   invoice.LastEmailSentAt,
			"email_count":          invoice.EmailCount,
			"updated_at":           invoice.UpdatedAt,
		})
	return requireAffected(result, invoiceResource)
}

// AddPayment stores a payment and the resulting invoice status atomically
func (r *GormInvoiceRepository) AddPayment(ctx context.Context, invoice *invoicing.Invoice, payment *invoicing.Payment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.InvoiceModel{}).
			Where("id = ? AND user_id = ?", invoice.ID, invoice.UserID).
			Updates(map[string]any{
				"status":     invoice.Status,
				"updated_at": invoice.UpdatedAt,
			})
		if err := requireAffected(result, invoiceResource); err != nil {
			return err
		}
		return tx.Create(models.PaymentModelFromDomain(payment)).Error
	})
}

// UpdatePDFURL records the stored PDF location. It touches only pdf_url so a
// concurrent header update is never overwritten by a generation cycle.
func (r *GormInvoiceRepository) UpdatePDFURL(ctx context.Context, id uuid.UUID, url string) error {
	result := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("id = ?", id).
		UpdateColumn("pdf_url", url)
	return requireAffected(result, invoiceResource)
}

// Delete removes an invoice with its items and payments
func (r *GormInvoiceRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ? AND id = ?", userID, id).Delete(&models.InvoiceModel{})
		if err := requireAffected(result, invoiceResource); err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", id).Delete(&models.InvoiceItemModel{}).Error; err != nil {
			return err
		}
		return tx.Where("invoice_id = ?", id).Delete(&models.PaymentModel{}).Error
	})
}


package invoicing

import (
	"context"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/shared"
)

// InvoiceRepository persists invoices with their items and payments
type InvoiceRepository interface {
	// FindByIDWithDetails loads an invoice with items, customer and payments
	// regardless of owner.
	FindByIDWithDetails(ctx context.Context, id uuid.UUID) (*Invoice, error)
	FindByIDForUser(ctx context.Context, userID string, id uuid.UUID) (*Invoice, error)
	// ListForUser returns invoices newest first with their customer loaded
	ListForUser(ctx context.Context, userID string, page shared.Page) ([]Invoice, error)
	CountByCustomer(ctx context.Context, userID string, customerID uuid.UUID) (int64, error)
	Create(ctx context.Context, invoice *Invoice) error
	// Save updates header fields only; items are immutable after creation
	Save(ctx context.Context, invoice *Invoice) error
	AddPayment(ctx context.Context, invoice *Invoice, payment *Payment) error
	UpdatePDFURL(ctx context.Context, id uuid.UUID, url string) error
	Delete(ctx context.Context, userID string, id uuid.UUID) error
}

// EstimateRepository persists estimates with their items
type EstimateRepository interface {
	FindByIDForUser(ctx context.Context, userID string, id uuid.UUID) (*Estimate, error)
	// ListForUser returns estimates newest first with their customer loaded
	ListForUser(ctx context.Context, userID string, page shared.Page) ([]Estimate, error)
	// NumbersForUser returns every estimate number the user has issued
	NumbersForUser(ctx context.Context, userID string) ([]string, error)
	Create(ctx context.Context, estimate *Estimate) error
	Delete(ctx context.Context, userID string, id uuid.UUID) error
}

// CustomerRepository persists customers
type CustomerRepository interface {
	FindByIDForUser(ctx context.Context, userID string, id uuid.UUID) (*Customer, error)
	FindByEmailForUser(ctx context.Context, userID, email string) (*Customer, error)
	ListForUser(ctx context.Context, userID string) ([]Customer, error)
	Create(ctx context.Context, customer *Customer) error
	Save(ctx context.Context, customer *Customer) error
	Delete(ctx context.Context, userID string, id uuid.UUID) error
}

// UserRepository persists users and their business profile
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, user *User) error
	Save(ctx context.Context, user *User) error
}

package invoicing

import (
	"context"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/invoicing"
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// =============================================================================
// Mock Repositories
// =============================================================================

// MockInvoiceRepository is a mock implementation of invoicing.InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByIDWithDetails(ctx context.Context, id uuid.UUID) (*invoicing.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByIDForUser(ctx context.Context, userID string, id uuid.UUID) (*invoicing.Invoice, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) ListForUser(ctx context.Context, userID string, page shared.Page) ([]invoicing.Invoice, error) {
	args := m.Called(ctx, userID, page)
	return args.Get(0).([]invoicing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) CountByCustomer(ctx context.Context, userID string, customerID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID, customerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceRepository) Create(ctx context.Context, invoice *invoicing.Invoice) error {
	return m.Called(ctx, invoice).Error(0)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *invoicing.Invoice) error {
	return m.Called(ctx, invoice).Error(0)
}

func (m *MockInvoiceRepository) AddPayment(ctx context.Context, invoice *invoicing.Invoice, payment *invoicing.Payment) error {
	return m.Called(ctx, invoice, payment).Error(0)
}

func (m *MockInvoiceRepository) UpdatePDFURL(ctx context.Context, id uuid.UUID, url string) error {
	return m.Called(ctx, id, url).Error(0)
}

func (m *MockInvoiceRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	return m.Called(ctx, userID, id).Error(0)
}

// MockCustomerRepository is a mock implementation of invoicing.CustomerRepository
type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) FindByIDForUser(ctx context.Context, userID string, id uuid.UUID) (*invoicing.Customer, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindByEmailForUser(ctx context.Context, userID, email string) (*invoicing.Customer, error) {
	args := m.Called(ctx, userID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Customer), args.Error(1)
}

func (m *MockCustomerRepository) ListForUser(ctx context.Context, userID string) ([]invoicing.Customer, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]invoicing.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Create(ctx context.Context, customer *invoicing.Customer) error {
	return m.Called(ctx, customer).Error(0)
}

func (m *MockCustomerRepository) Save(ctx context.Context, customer *invoicing.Customer) error {
	return m.Called(ctx, customer).Error(0)
}

func (m *MockCustomerRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	return m.Called(ctx, userID, id).Error(0)
}

// MockUserRepository is a mock implementation of invoicing.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*invoicing.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *invoicing.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) Save(ctx context.Context, user *invoicing.User) error {
	return m.Called(ctx, user).Error(0)
}

// =============================================================================
// Mock Ports
// =============================================================================

// MockBlobStore is a mock implementation of BlobStore
type MockBlobStore struct {
	mock.Mock
}

func (m *MockBlobStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, key, data, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockBlobStore) Get(ctx context.Context, url string) ([]byte, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockBlobStore) Delete(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

// MockPDFTrigger is a mock implementation of PDFTrigger
type MockPDFTrigger struct {
	mock.Mock
}

func (m *MockPDFTrigger) Trigger(invoiceID, userID string) {
	m.Called(invoiceID, userID)
}

// MockPDFScheduler is a mock implementation of PDFScheduler
type MockPDFScheduler struct {
	MockPDFTrigger
}

func (m *MockPDFScheduler) Busy(invoiceID string) bool {
	return m.Called(invoiceID).Bool(0)
}

// MockRenderer is a mock implementation of InvoiceDocumentRenderer
type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) RenderInvoice(ctx context.Context, doc *invoicing.InvoiceDocument) ([]byte, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockMailer is a mock implementation of Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, email Email) error {
	return m.Called(ctx, email).Error(0)
}

// MockEstimateRepository is a mock implementation of invoicing.EstimateRepository
type MockEstimateRepository struct {
	mock.Mock
}

func (m *MockEstimateRepository) FindByIDForUser(ctx context.Context, userID string, id uuid.UUID) (*invoicing.Estimate, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Estimate), args.Error(1)
}

func (m *MockEstimateRepository) ListForUser(ctx context.Context, userID string, page shared.Page) ([]invoicing.Estimate, error) {
	args := m.Called(ctx, userID, page)
	return args.Get(0).([]invoicing.Estimate), args.Error(1)
}

func (m *MockEstimateRepository) NumbersForUser(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockEstimateRepository) Create(ctx context.Context, estimate *invoicing.Estimate) error {
	return m.Called(ctx, estimate).Error(0)
}

func (m *MockEstimateRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	return m.Called(ctx, userID, id).Error(0)
}

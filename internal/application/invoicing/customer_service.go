package invoicing

import (
	"context"
	"fmt"

	"github.com/invoicely/backend/internal/domain/invoicing"
	"github.com/invoicely/backend/internal/domain/shared"
)

// CustomerService handles customer-related business operations
type CustomerService struct {
	customerRepo invoicing.CustomerRepository
	invoiceRepo  invoicing.InvoiceRepository
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(customerRepo invoicing.CustomerRepository, invoiceRepo invoicing.InvoiceRepository) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		invoiceRepo:  invoiceRepo,
	}
}

// List returns the user's customers ordered by display name
func (s *CustomerService) List(ctx context.Context, userID string) ([]CustomerResponse, error) {
	customers, err := s.customerRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	responses := make([]CustomerResponse, len(customers))
	for i := range customers {
		responses[i] = ToCustomerResponse(&customers[i])
	}
	return responses, nil
}

// Get retrieves a customer by ID
func (s *CustomerService) Get(ctx context.Context, userID, customerID string) (*CustomerResponse, error) {
	customer, err := s.find(ctx, userID, customerID)
	if err != nil {
		return nil, err
	}
	response := ToCustomerResponse(customer)
	return &response, nil
}

// Create creates a new customer
func (s *CustomerService) Create(ctx context.Context, userID string, req CustomerRequest) (*CustomerResponse, error) {
	customer, err := invoicing.NewCustomer(userID, req.profile())
	if err != nil {
		return nil, err
	}
	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, err
	}
	response := ToCustomerResponse(customer)
	return &response, nil
}

// Update replaces a customer's details. Existing invoice PDFs are not
// regenerated.
func (s *CustomerService) Update(ctx context.Context, userID, customerID string, req CustomerRequest) (*CustomerResponse, error) {
	customer, err := s.find(ctx, userID, customerID)
	if err != nil {
		return nil, err
	}
	if err := customer.Update(req.profile()); err != nil {
		return nil, err
	}
	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}
	response := ToCustomerResponse(customer)
	return &response, nil
}

// Delete removes a customer that has no invoices
func (s *CustomerService) Delete(ctx context.Context, userID, customerID string) error {
	customer, err := s.find(ctx, userID, customerID)
	if err != nil {
		return err
	}
	count, err := s.invoiceRepo.CountByCustomer(ctx, userID, customer.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return shared.NewDomainError("CONFLICT",
			fmt.Sprintf("Customer has %d invoice(s) and cannot be deleted", count))
	}
	return s.customerRepo.Delete(ctx, userID, customer.ID)
}

func (s *CustomerService) find(ctx context.Context, userID, customerID string) (*invoicing.Customer, error) {
	id, err := invoicing.ParseID(customerID)
	if err != nil {
		return nil, err
	}
	return s.customerRepo.FindByIDForUser(ctx, userID, id)
}

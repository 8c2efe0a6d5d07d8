package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/invoicing"
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/invoicely/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

const customerResource = "Customer"

// GormCustomerRepository implements invoicing.CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

var _ invoicing.CustomerRepository = (*GormCustomerRepository)(nil)

// FindByIDForUser finds a customer by ID owned by userID
func (r *GormCustomerRepository) FindByIDForUser(ctx context.Context, userID string, id uuid.UUID) (*invoicing.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err, customerResource)
	}
	return model.ToDomain(), nil
}

// FindByEmailForUser finds a customer by email, ignoring case
func (r *GormCustomerRepository) FindByEmailForUser(ctx context.Context, userID, email string) (*invoicing.Customer, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND LOWER(email) = ?", userID, strings.ToLower(email)).
		Order("created_at ASC").
		First(&model).Error; err != nil {
		return nil, translateError(err, customerResource)
	}
	return model.ToDomain(), nil
}

// ListForUser returns all of a user's customers ordered by display name
func (r *GormCustomerRepository) ListForUser(ctx context.Context, userID string) ([]invoicing.Customer, error) {
	var rows []models.CustomerModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("display_name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	customers := make([]invoicing.Customer, len(rows))
	for i := range rows {
		customers[i] = *rows[i].ToDomain()
	}
	return customers, nil
}

// Create inserts a new customer
func (r *GormCustomerRepository) Create(ctx context.Context, customer *invoicing.Customer) error {
	err := r.db.WithContext(ctx).Create(models.CustomerModelFromDomain(customer)).Error
	return translateError(err, customerResource)
}

// Save updates the editable fields of an existing customer
func (r *GormCustomerRepository) Save(ctx context.Context, customer *invoicing.Customer) error {
	result := r.db.WithContext(ctx).
		Model(&models.CustomerModel{}).
		Where("id = ? AND user_id = ?", customer.ID, customer.UserID).
		Updates(map[string]any{
			"display_name":        customer.DisplayName,
			"first_name":          customer.FirstName,
			"last_name":           customer.LastName,
			"business_name":       customer.BusinessName,
			"email":               customer.Email,
			"phone":               customer.Phone,
			"address":             customer.Address,
			"city":                customer.City,
			"state":               customer.State,
			"zip_code":            customer.ZipCode,
			"country":             customer.Country,
			"business_reg_number": customer.BusinessRegNumber,
			"updated_at":          customer.UpdatedAt,
		})
	return requireAffected(result, customerResource)
}

// Delete removes a customer owned by userID
func (r *GormCustomerRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		Delete(&models.CustomerModel{})
	return requireAffected(result, customerResource)
}

package invoicing

import (
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/shared"
)

// CustomerProfile carries the editable customer fields
type CustomerProfile struct {
	DisplayName       string
	FirstName         string
	LastName          string
	BusinessName      string
	Email             string
	Phone             string
	Address           string
	City              string
	State             string
	ZipCode           string
	Country           string
	BusinessRegNumber string
}

func (p CustomerProfile) trimmed() CustomerProfile {
	return CustomerProfile{
		DisplayName:       strings.TrimSpace(p.DisplayName),
		FirstName:         strings.TrimSpace(p.FirstName),
		LastName:          strings.TrimSpace(p.LastName),
		BusinessName:      strings.TrimSpace(p.BusinessName),
		Email:             strings.TrimSpace(p.Email),
		Phone:             strings.TrimSpace(p.Phone),
		Address:           strings.TrimSpace(p.Address),
		City:              strings.TrimSpace(p.City),
		State:             strings.TrimSpace(p.State),
		ZipCode:           strings.TrimSpace(p.ZipCode),
		Country:           strings.TrimSpace(p.Country),
		BusinessRegNumber: strings.TrimSpace(p.BusinessRegNumber),
	}
}

// Customer is a party invoices are billed to, owned by one user
type Customer struct {
	shared.BaseEntity
	UserID string
	CustomerProfile
}

// NewCustomer creates a customer owned by userID
func NewCustomer(userID string, profile CustomerProfile) (*Customer, error) {
	if userID == "" {
		return nil, shared.NewDomainError("INVALID_USER", "User is required")
	}
	profile = profile.trimmed()
	if err := validateCustomerProfile(profile); err != nil {
		return nil, err
	}
	return &Customer{
		BaseEntity:      shared.NewBaseEntity(),
		UserID:          userID,
		CustomerProfile: profile,
	}, nil
}

// NewQuickCustomer creates a customer from the name/email pair sent along
// with an invoice. An empty name becomes "Customer".
func NewQuickCustomer(userID, name, email string) (*Customer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Customer"
	}
	return NewCustomer(userID, CustomerProfile{DisplayName: name, Email: email})
}

// Update replaces the editable fields
func (c *Customer) Update(profile CustomerProfile) error {
	profile = profile.trimmed()
	if err := validateCustomerProfile(profile); err != nil {
		return err
	}
	c.CustomerProfile = profile
	c.Touch()
	return nil
}

// BelongsTo reports whether the customer is owned by userID
func (c *Customer) BelongsTo(userID string) bool {
	return c.UserID == userID
}

// ParseID parses a customer or invoice identifier
func ParseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, shared.NewDomainError("INVALID_ID", "Invalid identifier: "+raw)
	}
	return id, nil
}

func validateCustomerProfile(p CustomerProfile) error {
	if p.DisplayName == "" {
		return shared.NewDomainError("INVALID_DISPLAY_NAME", "Display name is required")
	}
	if len(p.DisplayName) > 200 {
		return shared.NewDomainError("INVALID_DISPLAY_NAME", "Display name cannot exceed 200 characters")
	}
	if p.Email != "" {
		if _, err := mail.ParseAddress(p.Email); err != nil {
			return shared.NewDomainError("INVALID_EMAIL", "Invalid email address")
		}
	}
	return nil
}

package invoicing

import (
	"strings"
	"time"

	"github.com/invoicely/backend/internal/domain/shared"
)

// Defaults applied to users created on first sign-in
const (
	DefaultCountry     = "US"
	DefaultColorScheme = "blue"
)

// User is an account holder together with the business profile printed on
// their invoices. ID is the subject issued by the auth provider.
type User struct {
	ID                 string
	Email              string
	Username           string
	DisplayName        string
	FirstName          string
	LastName           string
	BusinessName       string
	Phone              string
	Address            string
	City               string
	State              string
	ZipCode            string
	Country            string
	Currency           string
	BusinessRegNumber  string
	LogoURL            string
	AILogoURL          string
	InvoiceColorScheme string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewUser creates a user record for a freshly authenticated identity.
// Username is the local part of the email; display name falls back to it.
func NewUser(id, email, name string) (*User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, shared.NewDomainError("INVALID_USER", "User id is required")
	}
	email = strings.TrimSpace(email)
	username := email
	if at := strings.Index(email, "@"); at >= 0 {
		username = email[:at]
	}
	displayName := strings.TrimSpace(name)
	if displayName == "" {
		displayName = username
	}
	now := time.Now()
	return &User{
		ID:                 id,
		Email:              email,
		Username:           username,
		DisplayName:        displayName,
		Country:            DefaultCountry,
		Currency:           DefaultCurrency,
		InvoiceColorScheme: DefaultColorScheme,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// SetLogo replaces the uploaded logo URL
func (u *User) SetLogo(url string) {
	u.LogoURL = strings.TrimSpace(url)
	u.UpdatedAt = time.Now()
}

// ClearLogo removes the uploaded logo
func (u *User) ClearLogo() {
	u.LogoURL = ""
	u.UpdatedAt = time.Now()
}

// HasLogo reports whether any logo (uploaded or generated) is set
func (u *User) HasLogo() bool {
	return u.LogoURL != "" || u.AILogoURL != ""
}

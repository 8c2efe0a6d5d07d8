package models

import (
	"time"

	"github.com/invoicely/backend/internal/domain/invoicing"
)

// UserModel is the persistence model for invoicing.User
type UserModel struct {
	ID                 string    `gorm:"type:varchar(128);primaryKey"`
	Email              string    `gorm:"type:varchar(255);not null;index"`
	Username           string    `gorm:"type:varchar(100)"`
	DisplayName        string    `gorm:"type:varchar(200)"`
	FirstName          string    `gorm:"type:varchar(100)"`
	LastName           string    `gorm:"type:varchar(100)"`
	BusinessName       string    `gorm:"type:varchar(200)"`
	Phone              string    `gorm:"type:varchar(50)"`
	Address            string    `gorm:"type:text"`
	City               string    `gorm:"type:varchar(100)"`
	State              string    `gorm:"type:varchar(100)"`
	ZipCode            string    `gorm:"type:varchar(20)"`
	Country            string    `gorm:"type:varchar(2);not null;default:'US'"`
	Currency           string    `gorm:"type:varchar(3);not null;default:'USD'"`
	BusinessRegNumber  string    `gorm:"type:varchar(100)"`
	LogoURL            string    `gorm:"column:logo_url;type:text"`
	AILogoURL          string    `gorm:"column:ai_logo_url;type:text"`
	InvoiceColorScheme string    `gorm:"type:varchar(20);not null;default:'blue'"`
	CreatedAt          time.Time `gorm:"not null"`
	UpdatedAt          time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the model to a domain User
func (m *UserModel) ToDomain() *invoicing.User {
	return &invoicing.User{
		ID:                 m.ID,
		Email:              m.Email,
		Username:           m.Username,
		DisplayName:        m.DisplayName,
		FirstName:          m.FirstName,
		LastName:           m.LastName,
		BusinessName:       m.BusinessName,
		Phone:              m.Phone,
		Address:            m.Address,
		City:               m.City,
		State:              m.State,
		ZipCode:            m.ZipCode,
		Country:            m.Country,
		Currency:           m.Currency,
		BusinessRegNumber:  m.BusinessRegNumber,
		LogoURL:            m.LogoURL,
		AILogoURL:          m.AILogoURL,
		InvoiceColorScheme: m.InvoiceColorScheme,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

// FromDomain populates the model from a domain User
func (m *UserModel) FromDomain(u *invoicing.User) {
	m.ID = u.ID
	m.Email = u.Email
	m.Username = u.Username
	m.DisplayName = u.DisplayName
	m.FirstName = u.FirstName
	m.LastName = u.LastName
	m.BusinessName = u.BusinessName
	m.Phone = u.Phone
	m.Address = u.Address
	m.City = u.City
	m.State = u.State
	m.ZipCode = u.ZipCode
	m.Country = u.Country
	m.Currency = u.Currency
	m.BusinessRegNumber = u.BusinessRegNumber
	m.LogoURL = u.LogoURL
	m.AILogoURL = u.AILogoURL
	m.InvoiceColorScheme = u.InvoiceColorScheme
	m.CreatedAt = u.CreatedAt
	m.UpdatedAt = u.UpdatedAt
}

// UserModelFromDomain creates a model from a domain User
func UserModelFromDomain(u *invoicing.User) *UserModel {
	m := &UserModel{}
	m.FromDomain(u)
	return m
}

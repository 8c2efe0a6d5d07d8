package models

import (
	"github.com/invoicely/backend/internal/domain/invoicing"
)

// CustomerModel is the persistence model for invoicing.Customer
type CustomerModel struct {
	BaseModel
	UserID            string `gorm:"type:varchar(128);not null;index"`
	DisplayName       string `gorm:"type:varchar(200);not null"`
	FirstName         string `gorm:"type:varchar(100)"`
	LastName          string `gorm:"type:varchar(100)"`
	BusinessName      string `gorm:"type:varchar(200)"`
	Email             string `gorm:"type:varchar(255);index"`
	Phone             string `gorm:"type:varchar(50)"`
	Address           string `gorm:"type:text"`
	City              string `gorm:"type:varchar(100)"`
	State             string `gorm:"type:varchar(100)"`
	ZipCode           string `gorm:"type:varchar(20)"`
	Country           string `gorm:"type:varchar(100)"`
	BusinessRegNumber string `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the model to a domain Customer
func (m *CustomerModel) ToDomain() *invoicing.Customer {
	return &invoicing.Customer{
		BaseEntity: m.BaseModel.ToDomain(),
		UserID:     m.UserID,
		CustomerProfile: invoicing.CustomerProfile{
			DisplayName:       m.DisplayName,
			FirstName:         m.FirstName,
			LastName:          m.LastName,
			BusinessName:      m.BusinessName,
			Email:             m.Email,
			Phone:             m.Phone,
			Address:           m.Address,
			City:              m.City,
			State:             m.State,
			ZipCode:           m.ZipCode,
			Country:           m.Country,
			BusinessRegNumber: m.BusinessRegNumber,
		},
	}
}

// FromDomain populates the model from a domain Customer
func (m *CustomerModel) FromDomain(c *invoicing.Customer) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.UserID = c.UserID
	m.DisplayName = c.DisplayName
	m.FirstName = c.FirstName
	m.LastName = c.LastName
	m.BusinessName = c.BusinessName
	m.Email = c.Email
	m.Phone = c.Phone
	m.Address = c.Address
	m.City = c.City
	m.State = c.State
	m.ZipCode = c.ZipCode
	m.Country = c.Country
	m.BusinessRegNumber = c.BusinessRegNumber
}

// CustomerModelFromDomain creates a model from a domain Customer
func CustomerModelFromDomain(c *invoicing.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}

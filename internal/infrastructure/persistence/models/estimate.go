package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/invoicing"
	"github.com/shopspring/decimal"
)

// EstimateModel is the persistence model for the estimate header
type EstimateModel struct {
	BaseModel
	UserID     string                   `gorm:"type:varchar(128);not null;index;uniqueIndex:idx_estimate_user_number,priority:1"`
	CustomerID uuid.UUID                `gorm:"type:uuid;not null;index"`
	Number     string                   `gorm:"type:varchar(64);not null;uniqueIndex:idx_estimate_user_number,priority:2"`
	Status     invoicing.EstimateStatus `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	IssueDate  time.Time                `gorm:"not null"`
	ValidUntil time.Time                `gorm:"not null"`
	Currency   string                   `gorm:"type:varchar(3);not null;default:'USD'"`
	Total      decimal.Decimal          `gorm:"type:decimal(18,2);not null;default:0"`
	Notes      string                   `gorm:"type:text"`
	Terms      string                   `gorm:"type:text"`

	Customer *CustomerModel      `gorm:"foreignKey:CustomerID"`
	Items    []EstimateItemModel `gorm:"foreignKey:EstimateID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (EstimateModel) TableName() string {
	return "estimates"
}

// ToDomain converts the model and any preloaded associations to a domain Estimate
func (m *EstimateModel) ToDomain() *invoicing.Estimate {
	est := &invoicing.Estimate{
		BaseEntity: m.BaseModel.ToDomain(),
		UserID:     m.UserID,
		CustomerID: m.CustomerID,
		Number:     m.Number,
		Status:     m.Status,
		IssueDate:  m.IssueDate,
		ValidUntil: m.ValidUntil,
		Currency:   m.Currency,
		Total:      m.Total,
		Notes:      m.Notes,
		Terms:      m.Terms,
	}
	if m.Customer != nil {
		est.Customer = m.Customer.ToDomain()
	}
	if len(m.Items) > 0 {
		est.Items = make([]invoicing.EstimateItem, len(m.Items))
		for i := range m.Items {
			est.Items[i] = m.Items[i].ToDomain()
		}
	}
	return est
}

// EstimateModelFromDomain creates header and item models from a domain Estimate
func EstimateModelFromDomain(est *invoicing.Estimate) *EstimateModel {
	m := &EstimateModel{
		UserID:     est.UserID,
		CustomerID: est.CustomerID,
		Number:     est.Number,
		Status:     est.Status,
		IssueDate:  est.IssueDate,
		ValidUntil: est.ValidUntil,
		Currency:   est.Currency,
		Total:      est.Total,
		Notes:      est.Notes,
		Terms:      est.Terms,
		Items:      make([]EstimateItemModel, len(est.Items)),
	}
	m.FromDomainBaseEntity(est.BaseEntity)
	for i, item := range est.Items {
		m.Items[i] = EstimateItemModel{
			ID:          item.ID,
			EstimateID:  item.EstimateID,
			ItemName:    item.ItemName,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Total:       item.Total,
			Position:    item.Position,
		}
	}
	return m
}

// EstimateItemModel is the persistence model for an estimate line
type EstimateItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	EstimateID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	ItemName    string          `gorm:"type:varchar(200)"`
	Description string          `gorm:"type:text;not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:1"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Total       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Position    int             `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (EstimateItemModel) TableName() string {
	return "estimate_items"
}

// ToDomain converts the model to a domain EstimateItem
func (m *EstimateItemModel) ToDomain() invoicing.EstimateItem {
	return invoicing.EstimateItem{
		ID:          m.ID,
		EstimateID:  m.EstimateID,
		ItemName:    m.ItemName,
		Description: m.Description,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
		Total:       m.Total,
		Position:    m.Position,
	}
}

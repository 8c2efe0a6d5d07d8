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

const estimateResource = "Estimate"

// GormEstimateRepository implements invoicing.EstimateRepository using GORM
type GormEstimateRepository struct {
	db *gorm.DB
}

// NewGormEstimateRepository creates a new GormEstimateRepository
func NewGormEstimateRepository(db *gorm.DB) *GormEstimateRepository {
	return &GormEstimateRepository{db: db}
}

var _ invoicing.EstimateRepository = (*GormEstimateRepository)(nil)

// FindByIDForUser loads an estimate with its customer and ordered items
func (r *GormEstimateRepository) FindByIDForUser(ctx context.Context, userID string, id uuid.UUID) (*invoicing.Estimate, error) {
	var model models.EstimateModel
	if err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Items", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("position ASC")
		}).
		Where("user_id = ? AND id = ?", userID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err, estimateResource)
	}
	return model.ToDomain(), nil
}

// ListForUser returns a page of estimates, newest first
func (r *GormEstimateRepository) ListForUser(ctx context.Context, userID string, page shared.Page) ([]invoicing.Estimate, error) {
	var rows []models.EstimateModel
	if err := r.db.WithContext(ctx).
		Preload("Customer").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	estimates := make([]invoicing.Estimate, len(rows))
	for i := range rows {
		estimates[i] = *rows[i].ToDomain()
	}
	return estimates, nil
}

// NumbersForUser returns every estimate number the user has issued
func (r *GormEstimateRepository) NumbersForUser(ctx context.Context, userID string) ([]string, error) {
	var numbers []string
	err := r.db.WithContext(ctx).
		Model(&models.EstimateModel{}).
		Where("user_id = ?", userID).
		Pluck("number", &numbers).Error
	return numbers, err
}

// Create inserts the estimate header and its items in one transaction
func (r *GormEstimateRepository) Create(ctx context.Context, estimate *invoicing.Estimate) error {
	model := models.EstimateModelFromDomain(estimate)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			return translateError(err, estimateResource)
		}
		if len(model.Items) > 0 {
			if err := tx.Create(&model.Items).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes an estimate and its items
func (r *GormEstimateRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ? AND id = ?", userID, id).Delete(&models.EstimateModel{})
		if err := requireAffected(result, estimateResource); err != nil {
			return err
		}
		return tx.Where("estimate_id = ?", id).Delete(&models.EstimateItemModel{}).Error
	})
}

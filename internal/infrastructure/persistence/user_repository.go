package persistence

import (
	"context"

	"github.com/invoicely/backend/internal/domain/invoicing"
	"github.com/invoicely/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

const userResource = "User"

// GormUserRepository implements invoicing.UserRepository using GORM
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

var _ invoicing.UserRepository = (*GormUserRepository)(nil)

// FindByID finds a user by the auth provider subject
func (r *GormUserRepository) FindByID(ctx context.Context, id string) (*invoicing.User, error) {
	var model models.UserModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, userResource)
	}
	return model.ToDomain(), nil
}

// Create inserts a new user
func (r *GormUserRepository) Create(ctx context.Context, user *invoicing.User) error {
	err := r.db.WithContext(ctx).Create(models.UserModelFromDomain(user)).Error
	return translateError(err, userResource)
}

// Save writes every column of an existing user
func (r *GormUserRepository) Save(ctx context.Context, user *invoicing.User) error {
	model := models.UserModelFromDomain(user)
	result := r.db.WithContext(ctx).
		Model(&models.UserModel{}).
		Where("id = ?", user.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(model)
	return requireAffected(result, userResource)
}

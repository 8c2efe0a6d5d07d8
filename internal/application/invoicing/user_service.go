package invoicing

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/invoicely/backend/internal/domain/invoicing"
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/invoicely/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// MaxLogoSize is the largest logo upload accepted
const MaxLogoSize = 5 << 20

// UserService manages users and their business branding.
// Logo changes apply to PDFs generated afterwards only.
type UserService struct {
	userRepo invoicing.UserRepository
	blobs    BlobStore
	now      func() time.Time
}

// NewUserService creates a new UserService
func NewUserService(userRepo invoicing.UserRepository, blobs BlobStore) *UserService {
	return &UserService{
		userRepo: userRepo,
		blobs:    blobs,
		now:      time.Now,
	}
}

// EnsureUser returns the user for an authenticated identity, creating the
// record on first sign-in.
func (s *UserService) EnsureUser(ctx context.Context, identity Identity) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, identity.ID)
	if err == nil {
		response := ToUserResponse(user)
		return &response, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	user, err = invoicing.NewUser(identity.ID, identity.Email, identity.Name)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if !errors.Is(err, shared.ErrAlreadyExists) {
			return nil, err
		}
		// A concurrent sign-in created the record first
		if user, err = s.userRepo.FindByID(ctx, identity.ID); err != nil {
			return nil, err
		}
	} else {
		logger.L(ctx).Info("Created user on first sign-in", zap.String("user_id", user.ID))
	}

	response := ToUserResponse(user)
	return &response, nil
}

// GetLogo returns the user's logo URLs
func (s *UserService) GetLogo(ctx context.Context, userID string) (*LogoResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	response := toLogoResponse(user)
	return &response, nil
}

// UploadLogo stores an image as the user's logo and replaces the previous one
func (s *UserService) UploadLogo(ctx context.Context, userID string, upload LogoUpload) (*LogoResponse, error) {
	if len(upload.Data) == 0 {
		return nil, shared.NewValidationError("No file provided")
	}
	if !strings.HasPrefix(upload.ContentType, "image/") {
		return nil, shared.NewValidationError("Invalid file type. Please upload an image.")
	}
	if len(upload.Data) > MaxLogoSize {
		return nil, shared.NewValidationError("File too large. Maximum size is 5MB.")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.LogoURL != "" {
		s.deleteLogo(ctx, user.LogoURL)
	}

	key := fmt.Sprintf("logos/%s-%d.%s", userID, s.now().UnixMilli(), logoExtension(upload.FileName))
	url, err := s.blobs.Put(ctx, key, upload.Data, upload.ContentType)
	if err != nil {
		return nil, fmt.Errorf("upload logo: %w", err)
	}

	user.SetLogo(url)
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}

	response := toLogoResponse(user)
	return &response, nil
}

// SetLogoURL points the user's logo at an already hosted image
func (s *UserService) SetLogoURL(ctx context.Context, userID, logoURL string) (*LogoResponse, error) {
	if strings.TrimSpace(logoURL) == "" {
		return nil, shared.NewValidationError("Logo URL is required")
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.SetLogo(logoURL)
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}
	response := toLogoResponse(user)
	return &response, nil
}

// RemoveLogo clears the user's logo and deletes the stored file
func (s *UserService) RemoveLogo(ctx context.Context, userID string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.LogoURL != "" {
		s.deleteLogo(ctx, user.LogoURL)
	}
	user.ClearLogo()
	return s.userRepo.Save(ctx, user)
}

func (s *UserService) deleteLogo(ctx context.Context, url string) {
	if err := s.blobs.Delete(ctx, url); err != nil {
		logger.L(ctx).Warn("Failed to delete old logo",
			zap.String("url", url),
			zap.Error(err),
		)
	}
}

// logoExtension takes the file extension from the uploaded name, defaulting to png
func logoExtension(fileName string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(fileName), "."))
	if ext == "" {
		return "png"
	}
	return ext
}

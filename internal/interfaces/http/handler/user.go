package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	invoicingapp "github.com/invoicely/backend/internal/application/invoicing"
	"github.com/invoicely/backend/internal/interfaces/http/dto"
)

// LogoFormField is the multipart field carrying an uploaded logo
const LogoFormField = "logo"

// UserHandler handles the business branding endpoints of the current user
type UserHandler struct {
	BaseHandler
	userService *invoicingapp.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService *invoicingapp.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// GetLogo godoc
// @ID           getUserLogo
// @Summary      Get the business logo
// @Tags         users
// @Produce      json
// @Success      200 {object} APIResponse[invoicing.LogoResponse]
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /users/logo [get]
func (h *UserHandler) GetLogo(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	logo, err := h.userService.GetLogo(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, logo)
}

// UploadLogo godoc
// @ID           uploadUserLogo
// @Summary      Upload a business logo
// @Description  Upload an image (max 5MB). It replaces the previous logo on PDFs generated afterwards.
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Param        logo formData file true "Logo image"
// @Success      200 {object} APIResponse[invoicing.LogoResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      413 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /users/logo [post]
func (h *UserHandler) UploadLogo(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	header, err := c.FormFile(LogoFormField)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "File too large. Maximum size is 5MB.")
			return
		}
		h.BadRequest(c, "No file provided")
		return
	}

	upload, err := readLogoUpload(header)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	logo, err := h.userService.UploadLogo(c.Request.Context(), userID, upload)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, logo)
}

// readLogoUpload reads at most one byte past the logo limit so oversized
// files are still rejected by the service
func readLogoUpload(header *multipart.FileHeader) (invoicingapp.LogoUpload, error) {
	file, err := header.Open()
	if err != nil {
		return invoicingapp.LogoUpload{}, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, invoicingapp.MaxLogoSize+1))
	if err != nil {
		return invoicingapp.LogoUpload{}, err
	}
	return invoicingapp.LogoUpload{
		Data:        data,
		ContentType: header.Header.Get("Content-Type"),
		FileName:    header.Filename,
	}, nil
}

// SetLogoURL godoc
// @ID           setUserLogoURL
// @Summary      Use a hosted image as the business logo
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body invoicing.SetLogoRequest true "Logo URL"
// @Success      200 {object} APIResponse[invoicing.LogoResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /users/logo [put]
func (h *UserHandler) SetLogoURL(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	var req invoicingapp.SetLogoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	logo, err := h.userService.SetLogoURL(c.Request.Context(), userID, req.LogoURL)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, logo)
}

// RemoveLogo godoc
// @ID           removeUserLogo
// @Summary      Remove the business logo
// @Tags         users
// @Success      204
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /users/logo [delete]
func (h *UserHandler) RemoveLogo(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	if err := h.userService.RemoveLogo(c.Request.Context(), userID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

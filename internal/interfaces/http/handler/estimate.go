package handler

import (
	"github.com/gin-gonic/gin"
	invoicingapp "github.com/invoicely/backend/internal/application/invoicing"
	"github.com/invoicely/backend/internal/domain/shared"
)

// EstimateHandler handles estimate-related API endpoints
type EstimateHandler struct {
	BaseHandler
	estimateService *invoicingapp.EstimateService
}

// NewEstimateHandler creates a new EstimateHandler
func NewEstimateHandler(estimateService *invoicingapp.EstimateService) *EstimateHandler {
	return &EstimateHandler{
		estimateService: estimateService,
	}
}

// List godoc
// @ID           listEstimates
// @Summary      List estimates
// @Tags         estimates
// @Produce      json
// @Param        limit  query int false "Page size (max 50)" default(50)
// @Param        offset query int false "Offset" default(0)
// @Success      200 {object} APIResponse[[]invoicing.EstimateResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /estimates [get]
func (h *EstimateHandler) List(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	var req invoicingapp.ListInvoicesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	estimates, err := h.estimateService.List(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page := shared.NewPage(req.Limit, req.Offset)
	h.SuccessWithMeta(c, estimates, page.Limit, page.Offset, len(estimates))
}

// Create godoc
// @ID           createEstimate
// @Summary      Create an estimate
// @Description  Create a draft estimate for an existing customer. Without estimateNumber the next EST-NNNN number is assigned;
// @Description  without validUntil the estimate is valid for 30 days.
// @Tags         estimates
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Client generated key for safe retries"
// @Param        request body invoicing.CreateEstimateRequest true "Estimate"
// @Success      201 {object} APIResponse[invoicing.EstimateResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /estimates [post]
func (h *EstimateHandler) Create(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	var req invoicingapp.CreateEstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	estimate, err := h.estimateService.Create(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, estimate)
}

// NextNumber godoc
// @ID           nextEstimateNumber
// @Summary      Preview the next estimate number
// @Tags         estimates
// @Produce      json
// @Success      200 {object} APIResponse[invoicing.NextEstimateNumberResponse]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /estimates/next-number [get]
func (h *EstimateHandler) NextNumber(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	next, err := h.estimateService.NextNumber(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, next)
}

// Get godoc
// @ID           getEstimate
// @Summary      Get an estimate
// @Tags         estimates
// @Produce      json
// @Param        id path string true "Estimate ID" format(uuid)
// @Success      200 {object} APIResponse[invoicing.EstimateResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /estimates/{id} [get]
func (h *EstimateHandler) Get(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	estimate, err := h.estimateService.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, estimate)
}

// Delete godoc
// @ID           deleteEstimate
// @Summary      Delete an estimate
// @Tags         estimates
// @Param        id path string true "Estimate ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /estimates/{id} [delete]
func (h *EstimateHandler) Delete(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	if err := h.estimateService.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

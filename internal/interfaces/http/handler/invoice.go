package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	invoicingapp "github.com/invoicely/backend/internal/application/invoicing"
	"github.com/invoicely/backend/internal/domain/shared"
)

// PDFQueuedMessage is returned while an invoice PDF is being generated
const PDFQueuedMessage = "PDF generation queued. Try again shortly."

// InvoiceHandler handles invoice-related API endpoints
type InvoiceHandler struct {
	BaseHandler
	invoiceService  *invoicingapp.InvoiceService
	deliveryService *invoicingapp.DeliveryService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService *invoicingapp.InvoiceService, deliveryService *invoicingapp.DeliveryService) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService:  invoiceService,
		deliveryService: deliveryService,
	}
}

// List godoc
// @ID           listInvoices
// @Summary      List invoices
// @Description  List the caller's invoices, newest first
// @Tags         invoices
// @Produce      json
// @Param        limit  query int false "Page size (max 50)" default(50)
// @Param        offset query int false "Offset" default(0)
// @Success      200 {object} APIResponse[[]invoicing.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	var req invoicingapp.ListInvoicesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	invoices, err := h.invoiceService.List(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page := shared.NewPage(req.Limit, req.Offset)
	h.SuccessWithMeta(c, invoices, page.Limit, page.Offset, len(invoices))
}

// Create godoc
// @ID           createInvoice
// @Summary      Create an invoice
// @Description  Create an invoice for an existing customer, or for a customer found or created by name and email.
// @Description  PDF generation is queued in the background. Send Idempotency-Key to make retries safe.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Client generated key for safe retries"
// @Param        request body invoicing.CreateInvoiceRequest true "Invoice creation request"
// @Success      201 {object} APIResponse[invoicing.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	var req invoicingapp.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	invoice, err := h.invoiceService.Create(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, invoice)
}

// Get godoc
// @ID           getInvoice
// @Summary      Get an invoice
// @Description  Get an invoice with its customer, line items and payments
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} APIResponse[invoicing.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices/{id} [get]
func (h *InvoiceHandler) Get(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	invoice, err := h.invoiceService.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoice)
}

// Update godoc
// @ID           updateInvoice
// @Summary      Update an invoice
// @Description  Partially update invoice header fields. The PDF is regenerated in the background.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body invoicing.UpdateInvoiceRequest true "Fields to change"
// @Success      200 {object} APIResponse[invoicing.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices/{id} [patch]
func (h *InvoiceHandler) Update(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	var req invoicingapp.UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	invoice, err := h.invoiceService.Update(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoice)
}

// Delete godoc
// @ID           deleteInvoice
// @Summary      Delete an invoice
// @Description  Delete an invoice together with its items, payments and stored PDF
// @Tags         invoices
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices/{id} [delete]
func (h *InvoiceHandler) Delete(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	if err := h.invoiceService.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// RecordPayment godoc
// @ID           recordInvoicePayment
// @Summary      Record a payment
// @Description  Record a payment against an invoice. The invoice becomes paid once its balance reaches zero.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body invoicing.RecordPaymentRequest true "Payment"
// @Success      201 {object} APIResponse[invoicing.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices/{id}/payments [post]
func (h *InvoiceHandler) RecordPayment(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	var req invoicingapp.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	invoice, err := h.invoiceService.RecordPayment(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, invoice)
}

// Send godoc
// @ID           sendInvoice
// @Summary      Email an invoice
// @Description  Email the invoice PDF to the recipient and optional CC addresses (comma separated).
// @Description  A draft invoice is marked as sent. The reply-to address is the caller's email.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body invoicing.SendInvoiceRequest true "Delivery details"
// @Success      200 {object} APIResponse[invoicing.SendInvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices/{id}/send [post]
func (h *InvoiceHandler) Send(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	var req invoicingapp.SendInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.deliveryService.SendInvoice(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// GetPDF godoc
// @ID           getInvoicePDF
// @Summary      Download the invoice PDF
// @Description  Returns the stored PDF. When none is available yet, generation is queued and 202 is returned; retry shortly.
// @Tags         invoices
// @Produce      application/pdf
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {file} file "Invoice PDF"
// @Success      202 {object} APIResponse[dto.MessageResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices/{id}/pdf [get]
func (h *InvoiceHandler) GetPDF(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	file, err := h.invoiceService.RequestPDF(c.Request.Context(), userID, c.Param("id"))
	if errors.Is(err, invoicingapp.ErrPDFNotReady) {
		h.Accepted(c, PDFQueuedMessage)
		return
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", contentDisposition(file.FileName))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// RegeneratePDF godoc
// @ID           regenerateInvoicePDF
// @Summary      Regenerate the invoice PDF
// @Description  Queue regeneration of the invoice PDF, e.g. after changing the business logo
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      202 {object} APIResponse[dto.MessageResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices/{id}/pdf [post]
func (h *InvoiceHandler) RegeneratePDF(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	if err := h.invoiceService.RegeneratePDF(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Accepted(c, PDFQueuedMessage)
}

// contentDisposition builds an attachment header; quotes in the invoice
// number would end the filename parameter early
func contentDisposition(fileName string) string {
	return fmt.Sprintf(`attachment; filename="%s"`, strings.ReplaceAll(fileName, `"`, "'"))
}

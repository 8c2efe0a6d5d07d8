package invoicing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/invoicely/backend/internal/application/pdfgen"
	"github.com/invoicely/backend/internal/domain/invoicing"
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/invoicely/backend/internal/infrastructure/logger"
	"github.com/invoicely/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// InvoiceService handles invoice operations and keeps stored PDFs in step
// with invoice changes.
type InvoiceService struct {
	invoiceRepo  invoicing.InvoiceRepository
	customerRepo invoicing.CustomerRepository
	blobs        BlobStore
	pdf          PDFTrigger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	invoiceRepo invoicing.InvoiceRepository,
	customerRepo invoicing.CustomerRepository,
	blobs BlobStore,
	pdf PDFTrigger,
) *InvoiceService {
	return &InvoiceService{
		invoiceRepo:  invoiceRepo,
		customerRepo: customerRepo,
		blobs:        blobs,
		pdf:          pdf,
	}
}

// List returns the user's invoices newest first
func (s *InvoiceService) List(ctx context.Context, userID string, req ListInvoicesRequest) ([]InvoiceResponse, error) {
	invoices, err := s.invoiceRepo.ListForUser(ctx, userID, shared.NewPage(req.Limit, req.Offset))
	if err != nil {
		return nil, err
	}
	return ToInvoiceResponses(invoices), nil
}

// Get retrieves one invoice with items, customer and payments
func (s *InvoiceService) Get(ctx context.Context, userID, invoiceID string) (*InvoiceResponse, error) {
	inv, err := s.find(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}
	response := ToInvoiceResponse(inv)
	return &response, nil
}

// Create creates an invoice, resolving or creating its customer, and queues
// PDF generation once the invoice is stored.
func (s *InvoiceService) Create(ctx context.Context, userID string, req CreateInvoiceRequest) (_ *InvoiceResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "create", telemetry.SpanAttrUserID, userID)
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	if len(req.Items) == 0 {
		return nil, shared.NewValidationError("Invoice must have at least one item")
	}
	if strings.TrimSpace(req.InvoiceNumber) == "" {
		return nil, shared.NewValidationError("Invoice number is required")
	}
	if req.TaxAmount.IsNegative() {
		return nil, shared.NewValidationError("Tax amount cannot be negative")
	}
	status, err := invoicing.ParseInvoiceStatus(req.Status)
	if err != nil {
		return nil, err
	}
	issueDate, err := parseDate("invoice date", req.InvoiceDate)
	if err != nil {
		return nil, err
	}
	dueDate, err := parseDate("due date", req.DueDate)
	if err != nil {
		return nil, err
	}

	customer, err := s.resolveCustomer(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	lines := make([]invoicing.LineInput, len(req.Items))
	for i, item := range req.Items {
		lines[i] = invoicing.LineInput{
			Description: item.Description,
			Quantity:    item.Quantity,
			Rate:        item.Rate,
			Amount:      item.Amount,
		}
	}

	inv, err := invoicing.NewInvoice(userID, customer.ID, req.InvoiceNumber, lines, req.TaxAmount)
	if err != nil {
		return nil, err
	}
	inv.SetCurrency(req.Currency)
	inv.SetStatus(status)
	inv.TaxInclusive = req.TaxInclusive
	inv.SetReferences(req.PONumber, req.Notes, req.PaymentInstructions)
	inv.SetTerms(req.Terms)
	if err := inv.Reschedule(issueDate, dueDate); err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.Create(ctx, inv); err != nil {
		return nil, err
	}
	inv.Customer = customer
	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoiceID, inv.ID.String(),
		telemetry.SpanAttrCustomerID, customer.ID.String(),
	)

	s.pdf.Trigger(inv.ID.String(), userID)

	response := ToInvoiceResponse(inv)
	return &response, nil
}

// resolveCustomer finds the invoice's customer by id, then by email, and
// creates one from name/email when neither matches.
func (s *InvoiceService) resolveCustomer(ctx context.Context, userID string, req CreateInvoiceRequest) (*invoicing.Customer, error) {
	name := strings.TrimSpace(req.CustomerName)
	email := strings.TrimSpace(req.CustomerEmail)

	if rawID := strings.TrimSpace(req.CustomerID); rawID != "" {
		if customerID, err := invoicing.ParseID(rawID); err == nil {
			customer, err := s.customerRepo.FindByIDForUser(ctx, userID, customerID)
			if err == nil {
				return customer, nil
			}
			if !errors.Is(err, shared.ErrNotFound) {
				return nil, err
			}
		}
		if name == "" && email == "" {
			logger.L(ctx).Warn("Invoice references an unknown customer",
				zap.String("user_id", userID),
				zap.String("customer_id", rawID),
			)
			return nil, shared.NewValidationError(
				fmt.Sprintf("Invalid customer ID or customer does not belong to user (%s)", rawID))
		}
		return s.createQuickCustomer(ctx, userID, name, email)
	}

	if name == "" && email == "" {
		return nil, shared.NewValidationError("Customer ID or customer information (name/email) is required")
	}
	if email != "" {
		customer, err := s.customerRepo.FindByEmailForUser(ctx, userID, email)
		if err == nil {
			return customer, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}
	return s.createQuickCustomer(ctx, userID, name, email)
}

func (s *InvoiceService) createQuickCustomer(ctx context.Context, userID, name, email string) (*invoicing.Customer, error) {
	customer, err := invoicing.NewQuickCustomer(userID, name, email)
	if err != nil {
		return nil, err
	}
	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// Update applies a partial header update and queues regeneration
func (s *InvoiceService) Update(ctx context.Context, userID, invoiceID string, req UpdateInvoiceRequest) (*InvoiceResponse, error) {
	inv, err := s.find(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}

	if req.Status != nil {
		status, err := invoicing.ParseInvoiceStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		inv.SetStatus(status)
	}
	if req.InvoiceDate != nil || req.DueDate != nil {
		var issueDate, dueDate time.Time
		if req.InvoiceDate != nil {
			if issueDate, err = parseDate("invoice date", *req.InvoiceDate); err != nil {
				return nil, err
			}
		}
		if req.DueDate != nil {
			if dueDate, err = parseDate("due date", *req.DueDate); err != nil {
				return nil, err
			}
		}
		if err := inv.Reschedule(issueDate, dueDate); err != nil {
			return nil, err
		}
	}
	if req.Currency != nil {
		inv.SetCurrency(*req.Currency)
	}
	if req.PONumber != nil || req.Notes != nil || req.PaymentInstructions != nil {
		inv.SetReferences(
			valueOr(req.PONumber, inv.PONumber),
			valueOr(req.Notes, inv.Notes),
			valueOr(req.PaymentInstructions, inv.PaymentInstructions),
		)
	}
	if req.Terms != nil {
		inv.SetTerms(*req.Terms)
	}

	if err := s.invoiceRepo.Save(ctx, inv); err != nil {
		return nil, err
	}

	s.pdf.Trigger(inv.ID.String(), userID)

	response := ToInvoiceResponse(inv)
	return &response, nil
}

// Delete removes the invoice and, best effort, its stored PDF
func (s *InvoiceService) Delete(ctx context.Context, userID, invoiceID string) error {
	inv, err := s.find(ctx, userID, invoiceID)
	if err != nil {
		return err
	}
	if err := s.invoiceRepo.Delete(ctx, userID, inv.ID); err != nil {
		return err
	}
	if inv.HasPDF() {
		if err := s.blobs.Delete(ctx, inv.PDFURL); err != nil {
			logger.L(ctx).Warn("Failed to delete invoice PDF",
				zap.String("invoice_id", inv.ID.String()),
				zap.String("url", inv.PDFURL),
				zap.Error(err),
			)
		}
	}
	return nil
}

// RecordPayment records a payment and queues regeneration. The invoice is
// marked PAID once its balance reaches zero.
func (s *InvoiceService) RecordPayment(ctx context.Context, userID, invoiceID string, req RecordPaymentRequest) (_ *InvoiceResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "record_payment",
		telemetry.SpanAttrUserID, userID,
		telemetry.SpanAttrInvoiceID, invoiceID,
	)
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	method, err := invoicing.ParsePaymentMethod(req.Method)
	if err != nil {
		return nil, err
	}
	paidAt, err := parseDate("payment date", req.PaymentDate)
	if err != nil {
		return nil, err
	}

	inv, err := s.find(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}
	payment, err := inv.RecordPayment(req.Amount, paidAt, method)
	if err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.AddPayment(ctx, inv, payment); err != nil {
		return nil, err
	}

	s.pdf.Trigger(inv.ID.String(), userID)

	response := ToInvoiceResponse(inv)
	return &response, nil
}

// RequestPDF returns the stored PDF when one can be read. Otherwise it queues
// generation and returns ErrPDFNotReady so the caller can answer 202.
func (s *InvoiceService) RequestPDF(ctx context.Context, userID, invoiceID string) (_ *PDFFile, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "request_pdf",
		telemetry.SpanAttrUserID, userID,
		telemetry.SpanAttrInvoiceID, invoiceID,
	)
	defer func() {
		if !errors.Is(err, ErrPDFNotReady) {
			telemetry.RecordError(span, err)
		}
		span.End()
	}()

	inv, err := s.find(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}

	if inv.HasPDF() {
		data, err := s.blobs.Get(ctx, inv.PDFURL)
		if err == nil {
			telemetry.SetAttributes(span, "pdf.cached", true)
			return &PDFFile{
				FileName:    inv.PDFFileName(),
				ContentType: pdfgen.PDFContentType,
				Data:        data,
			}, nil
		}
		logger.L(ctx).Warn("Failed to fetch stored invoice PDF, regenerating",
			zap.String("invoice_id", inv.ID.String()),
			zap.String("url", inv.PDFURL),
			zap.Error(err),
		)
	}

	telemetry.SetAttributes(span, "pdf.cached", false)
	s.pdf.Trigger(inv.ID.String(), userID)
	return nil, ErrPDFNotReady
}

// RegeneratePDF queues regeneration of an invoice the user owns
func (s *InvoiceService) RegeneratePDF(ctx context.Context, userID, invoiceID string) error {
	inv, err := s.find(ctx, userID, invoiceID)
	if err != nil {
		return err
	}
	s.pdf.Trigger(inv.ID.String(), userID)
	return nil
}

func (s *InvoiceService) find(ctx context.Context, userID, invoiceID string) (*invoicing.Invoice, error) {
	id, err := invoicing.ParseID(invoiceID)
	if err != nil {
		return nil, err
	}
	return s.invoiceRepo.FindByIDForUser(ctx, userID, id)
}

func valueOr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}

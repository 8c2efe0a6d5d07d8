package invoicing

import (
	"context"
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

// PDFScheduler is a PDFTrigger that also reports whether regeneration of an
// invoice is still outstanding
type PDFScheduler interface {
	PDFTrigger
	Busy(invoiceID string) bool
}

// DeliveryService emails invoice PDFs to customers and tracks deliveries
type DeliveryService struct {
	invoiceRepo invoicing.InvoiceRepository
	userRepo    invoicing.UserRepository
	blobs       BlobStore
	renderer    InvoiceDocumentRenderer
	mailer      Mailer
	pdf         PDFScheduler
	now         func() time.Time
}

// NewDeliveryService creates a new DeliveryService
func NewDeliveryService(
	invoiceRepo invoicing.InvoiceRepository,
	userRepo invoicing.UserRepository,
	blobs BlobStore,
	renderer InvoiceDocumentRenderer,
	mailer Mailer,
	pdf PDFScheduler,
) *DeliveryService {
	return &DeliveryService{
		invoiceRepo: invoiceRepo,
		userRepo:    userRepo,
		blobs:       blobs,
		renderer:    renderer,
		mailer:      mailer,
		pdf:         pdf,
		now:         time.Now,
	}
}

// SendInvoice emails the invoice PDF to the recipient and any CC addresses.
// The stored PDF is attached when it is current; otherwise a fresh one is
// rendered for the email. A DRAFT invoice becomes SENT. Delivery tracking is
// saved only after the mail server accepted the message.
func (s *DeliveryService) SendInvoice(ctx context.Context, userID, invoiceID string, req SendInvoiceRequest) (_ *SendInvoiceResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "send",
		telemetry.SpanAttrUserID, userID,
		telemetry.SpanAttrInvoiceID, invoiceID,
	)
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	to, err := invoicing.ParseEmailAddress(req.RecipientEmail)
	if err != nil {
		return nil, err
	}
	cc, err := invoicing.ParseEmailList(req.CCEmails)
	if err != nil {
		return nil, err
	}

	id, err := invoicing.ParseID(invoiceID)
	if err != nil {
		return nil, err
	}
	inv, err := s.invoiceRepo.FindByIDForUser(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := inv.CanSend(); err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	business := invoicing.NewBusinessInfo(user)

	statusUpdated := inv.MarkSent(to, cc, s.now())

	pdf, cached, err := s.attachment(ctx, inv, business, statusUpdated)
	if err != nil {
		return nil, err
	}
	telemetry.SetAttributes(span, "pdf.cached", cached)

	email := Email{
		FromName: business.Name,
		To:       []string{to},
		CC:       cc,
		ReplyTo:  user.Email,
		Subject:  invoiceSubject(inv, business),
		Body:     invoiceBody(inv, business, req.Message),
		Attachments: []Attachment{{
			FileName:    inv.PDFFileName(),
			ContentType: pdfgen.PDFContentType,
			Data:        pdf,
		}},
	}
	if err := s.mailer.Send(ctx, email); err != nil {
		logger.L(ctx).Error("Failed to send invoice email",
			zap.String("invoice_id", inv.ID.String()),
			zap.String("recipient", to),
			zap.Error(err),
		)
		return nil, shared.NewDomainError("DELIVERY_FAILED", "Failed to send invoice email")
	}

	if err := s.invoiceRepo.Save(ctx, inv); err != nil {
		logger.L(ctx).Error("Invoice email sent but delivery tracking was not saved",
			zap.String("invoice_id", inv.ID.String()),
			zap.String("recipient", to),
			zap.Error(err),
		)
		return nil, err
	}
	if statusUpdated {
		s.pdf.Trigger(inv.ID.String(), userID)
	}

	message := "Invoice sent to " + to
	if statusUpdated {
		message += " and status updated to Sent"
	}
	return &SendInvoiceResponse{
		Message:       message,
		SentTo:        to,
		CCEmails:      cc,
		StatusUpdated: statusUpdated,
		EmailCount:    inv.EmailCount,
		PDFCached:     cached,
	}, nil
}

// attachment returns the stored PDF when it reflects the invoice as sent,
// else renders one. The rendered copy is not stored; the regeneration
// triggered after sending takes care of that.
func (s *DeliveryService) attachment(ctx context.Context, inv *invoicing.Invoice, business invoicing.BusinessInfo, statusChanged bool) ([]byte, bool, error) {
	if inv.HasPDF() && !statusChanged && !s.pdf.Busy(inv.ID.String()) {
		data, err := s.blobs.Get(ctx, inv.PDFURL)
		if err == nil {
			return data, true, nil
		}
		logger.L(ctx).Warn("Failed to fetch stored invoice PDF, rendering for email",
			zap.String("invoice_id", inv.ID.String()),
			zap.String("url", inv.PDFURL),
			zap.Error(err),
		)
	}

	pdf, err := s.renderer.RenderInvoice(ctx, invoicing.NewInvoiceDocument(inv, business))
	if err != nil {
		return nil, false, fmt.Errorf("failed to render invoice pdf: %w", err)
	}
	return pdf, false, nil
}

func invoiceSubject(inv *invoicing.Invoice, business invoicing.BusinessInfo) string {
	if business.Name == "" {
		return "Invoice " + inv.Number
	}
	return fmt.Sprintf("Invoice %s from %s", inv.Number, business.Name)
}

func invoiceBody(inv *invoicing.Invoice, business invoicing.BusinessInfo, message string) string {
	var b strings.Builder
	if message = strings.TrimSpace(message); message != "" {
		b.WriteString(message)
	} else {
		fmt.Fprintf(&b, "Please find attached invoice %s.", inv.Number)
	}
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Invoice: %s\n", inv.Number)
	fmt.Fprintf(&b, "Amount due: %s %s\n", inv.Currency, inv.BalanceDue().StringFixed(2))
	fmt.Fprintf(&b, "Due date: %s\n", inv.DueDate.Format("Jan 2, 2006"))
	if business.Name != "" {
		b.WriteString("\n")
		b.WriteString(business.Name)
		b.WriteString("\n")
	}
	return b.String()
}

package pdfgen

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/invoicing"
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/invoicely/backend/internal/infrastructure/logger"
	"github.com/invoicely/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const orphanCleanupTimeout = 10 * time.Second

// Generator performs one fetch, render, upload and persist cycle
type Generator struct {
	invoices invoicing.InvoiceRepository
	users    invoicing.UserRepository
	renderer DocumentRenderer
	blobs    BlobStore
	logger   *zap.Logger
	tracer   trace.Tracer
}

// NewGenerator creates a Generator
func NewGenerator(
	invoices invoicing.InvoiceRepository,
	users invoicing.UserRepository,
	renderer DocumentRenderer,
	blobs BlobStore,
	logger *zap.Logger,
) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		invoices: invoices,
		users:    users,
		renderer: renderer,
		blobs:    blobs,
		logger:   logger,
		tracer:   otel.Tracer(instrumentationName),
	}
}

type stageError struct {
	stage Stage
	err   error
}

func (e *stageError) Error() string { return string(e.stage) + ": " + e.err.Error() }
func (e *stageError) Unwrap() error { return e.err }

// Run implements Runner
func (g *Generator) Run(ctx context.Context, req Request) (result Result) {
	ctx, span := g.tracer.Start(ctx, "pdfgen.cycle", trace.WithAttributes(
		attribute.String(telemetry.SpanAttrInvoiceID, req.InvoiceID),
		attribute.String(telemetry.SpanAttrUserID, req.UserID),
	))
	defer func() {
		span.SetAttributes(attribute.String("pdfgen.outcome", string(result.Outcome)))
		if result.Err != nil {
			span.RecordError(result.Err)
			span.SetStatus(codes.Error, result.Reason())
		}
		span.End()
	}()

	ctx = logger.WithInvoiceID(ctx, req.InvoiceID)
	start := time.Now()
	result = Result{Request: req}
	defer func() {
		result.Duration = time.Since(start)
	}()

	invoiceID, err := uuid.Parse(req.InvoiceID)
	if err != nil {
		return result.missing(StageFetchInvoice, err)
	}

	invoice, user, err := g.load(ctx, invoiceID, req.UserID)
	if err != nil {
		var se *stageError
		if !errors.As(err, &se) {
			return result.fail(StageFetchInvoice, err)
		}
		if errors.Is(se.err, shared.ErrNotFound) {
			return result.missing(se.stage, se.err)
		}
		return result.fail(se.stage, se.err)
	}

	doc := invoicing.NewInvoiceDocument(invoice, invoicing.NewBusinessInfo(user))

	if invoice.HasPDF() {
		if err := g.blobs.Delete(ctx, invoice.PDFURL); err != nil {
			result.StaleDeleteErr = err
			g.logger.Warn("Failed to delete existing invoice PDF",
				zap.String("invoice_id", req.InvoiceID),
				zap.String("url", invoice.PDFURL),
				zap.Error(err),
			)
		}
	}

	var pdf []byte
	telemetry.WithProfilingLabels(ctx, map[string]string{
		telemetry.ProfilingLabelStage: string(StageRender),
	}, func(ctx context.Context) {
		pdf, err = g.renderer.RenderInvoice(ctx, doc)
	})
	if err != nil {
		return result.fail(StageRender, err)
	}

	url, err := g.blobs.Put(ctx, InvoiceBlobKey(req.UserID, req.InvoiceID), pdf, PDFContentType)
	if err != nil {
		return result.fail(StageUpload, err)
	}

	if err := g.invoices.UpdatePDFURL(ctx, invoiceID, url); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			// Deleted while rendering; the upload has no owner anymore.
			g.discardUpload(ctx, req, url)
			return result.missing(StagePersist, err)
		}
		return result.fail(StagePersist, err)
	}

	result.Outcome = OutcomeGenerated
	result.URL = url
	result.Bytes = len(pdf)
	return result
}

// discardUpload removes a PDF that was uploaded for an invoice which no
// longer exists. It runs even when the cycle context is already done.
func (g *Generator) discardUpload(ctx context.Context, req Request, url string) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), orphanCleanupTimeout)
	defer cancel()

	if err := g.blobs.Delete(cleanupCtx, url); err != nil {
		g.logger.Warn("Failed to delete PDF of deleted invoice",
			zap.String("invoice_id", req.InvoiceID),
			zap.String("url", url),
			zap.Error(err),
		)
	}
}

// load fetches the invoice and its owner concurrently
func (g *Generator) load(ctx context.Context, invoiceID uuid.UUID, userID string) (*invoicing.Invoice, *invoicing.User, error) {
	var (
		invoice *invoicing.Invoice
		user    *invoicing.User
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		inv, err := g.invoices.FindByIDWithDetails(egCtx, invoiceID)
		if err != nil {
			return &stageError{stage: StageFetchInvoice, err: err}
		}
		invoice = inv
		return nil
	})
	eg.Go(func() error {
		u, err := g.users.FindByID(egCtx, userID)
		if err != nil {
			return &stageError{stage: StageFetchUser, err: err}
		}
		user = u
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}
	return invoice, user, nil
}

var _ Runner = (*Generator)(nil)

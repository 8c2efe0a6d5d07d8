package pdfgen

import (
	"context"
	"fmt"

	"github.com/invoicely/backend/internal/domain/invoicing"
)

// PDFContentType is stored alongside every uploaded invoice
const PDFContentType = "application/pdf"

// Runner executes one generation cycle
type Runner interface {
	Run(ctx context.Context, req Request) Result
}

// DocumentRenderer turns an invoice projection into PDF bytes
type DocumentRenderer interface {
	RenderInvoice(ctx context.Context, doc *invoicing.InvoiceDocument) ([]byte, error)
}

// BlobStore stores generated files and addresses them by URL
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, url string) error
}

// InvoiceBlobKey is the storage key of an invoice PDF. It is stable per
// (user, invoice) so regenerations overwrite the previous object.
func InvoiceBlobKey(userID, invoiceID string) string {
	return fmt.Sprintf("invoices/%s/%s.pdf", userID, invoiceID)
}

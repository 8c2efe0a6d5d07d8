package invoicing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/invoicely/backend/internal/domain/invoicing"
	"github.com/invoicely/backend/internal/domain/shared"
)

// ErrPDFNotReady is returned by RequestPDF when no stored PDF could be served
// and generation has been queued instead.
var ErrPDFNotReady = errors.New("invoice pdf not ready")

// PDFTrigger schedules background regeneration of an invoice PDF
type PDFTrigger interface {
	Trigger(invoiceID, userID string)
}

// BlobStore reads, writes and removes stored files by URL
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, url string) ([]byte, error)
	Delete(ctx context.Context, url string) error
}

// Attachment is a file sent along with an email
type Attachment struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Email is an outgoing message. FromName overrides the configured sender name.
type Email struct {
	FromName    string
	To          []string
	CC          []string
	ReplyTo     string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Mailer delivers outgoing email
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// InvoiceDocumentRenderer renders an invoice PDF on demand
type InvoiceDocumentRenderer interface {
	RenderInvoice(ctx context.Context, doc *invoicing.InvoiceDocument) ([]byte, error)
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// parseDate accepts RFC 3339 timestamps and plain calendar dates.
// An empty string yields the zero time.
func parseDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, shared.NewValidationError("Invalid " + field + ": " + raw)
}

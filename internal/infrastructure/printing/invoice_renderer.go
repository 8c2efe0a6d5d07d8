package printing

import (
	"context"

	"github.com/invoicely/backend/internal/application/pdfgen"
	"github.com/invoicely/backend/internal/domain/invoicing"
)

// InvoiceRenderer renders invoice documents through the HTML template and
// an HTMLRenderer
type InvoiceRenderer struct {
	template *InvoiceTemplate
	html     HTMLRenderer
}

// NewInvoiceRenderer creates an InvoiceRenderer backed by html
func NewInvoiceRenderer(html HTMLRenderer) (*InvoiceRenderer, error) {
	tmpl, err := NewInvoiceTemplate()
	if err != nil {
		return nil, err
	}
	return &InvoiceRenderer{template: tmpl, html: html}, nil
}

// RenderInvoice implements pdfgen.DocumentRenderer
func (r *InvoiceRenderer) RenderInvoice(ctx context.Context, doc *invoicing.InvoiceDocument) ([]byte, error) {
	page, err := r.template.Render(doc)
	if err != nil {
		return nil, err
	}
	return r.html.RenderHTML(ctx, page)
}

var _ pdfgen.DocumentRenderer = (*InvoiceRenderer)(nil)

package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	invoicingapp "github.com/invoicely/backend/internal/application/invoicing"
	"github.com/invoicely/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func invoiceBody(number string) map[string]any {
	return map[string]any{
		"customerName":  "Globex",
		"customerEmail": "billing@globex.test",
		"invoiceNumber": number,
		"invoiceDate":   "2026-03-01",
		"dueDate":       "2026-03-31",
		"taxAmount":     "10",
		"items": []map[string]any{
			{"description": "Consulting", "quantity": "2", "rate": "100"},
			{"description": "Travel", "quantity": "1", "rate": "40"},
		},
	}
}

func createInvoice(t *testing.T, s *testServer, number string) invoicingapp.InvoiceResponse {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/invoices", invoiceBody(number))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[invoicingapp.InvoiceResponse](t, w).Data
}

func TestInvoiceHandler_Create(t *testing.T) {
	s := newTestServer(t, testUserID)
	s.signIn(t)

	inv := createInvoice(t, s, "INV-001")

	assert.Equal(t, "INV-001", inv.Number)
	assert.Equal(t, "DRAFT", inv.Status)
	assert.True(t, decimal.NewFromInt(240).Equal(inv.Subtotal), inv.Subtotal.String())
	assert.True(t, decimal.NewFromInt(250).Equal(inv.Total), inv.Total.String())
	assert.Len(t, inv.Items, 2)
	require.NotNil(t, inv.Customer)
	assert.Equal(t, "Globex", inv.Customer.DisplayName)
	assert.Equal(t, 1, s.trigger.count(inv.ID.String()), "creation queues one PDF generation")
}

func TestInvoiceHandler_CreateValidation(t *testing.T) {
	s := newTestServer(t, testUserID)
	s.signIn(t)

	t.Run("malformed json", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/v1/invoices", `{"items":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidJSON, decode[any](t, w).Error.Code)
	})

	t.Run("no items", func(t *testing.T) {
		body := invoiceBody("INV-002")
		delete(body, "items")
		w := s.do(t, http.MethodPost, "/api/v1/invoices", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidInput, decode[any](t, w).Error.Code)
	})

	t.Run("invalid customer email", func(t *testing.T) {
		body := invoiceBody("INV-003")
		body["customerEmail"] = "not-an-email"
		w := s.do(t, http.MethodPost, "/api/v1/invoices", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode[any](t, w)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		require.NotEmpty(t, resp.Error.Details)
		assert.Equal(t, "customerEmail", resp.Error.Details[0].Field)
	})

	t.Run("unknown status", func(t *testing.T) {
		body := invoiceBody("INV-004")
		body["status"] = "ARCHIVED"
		w := s.do(t, http.MethodPost, "/api/v1/invoices", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_STATUS", decode[any](t, w).Error.Code)
	})
}

func TestInvoiceHandler_RequiresUser(t *testing.T) {
	s := newTestServer(t, "")

	w := s.do(t, http.MethodGet, "/api/v1/invoices", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeUnauthorized, decode[any](t, w).Error.Code)
}

func TestInvoiceHandler_ListAndGet(t *testing.T) {
	s := newTestServer(t, testUserID)
	s.signIn(t)
	first := createInvoice(t, s, "INV-001")
	createInvoice(t, s, "INV-002")

	w := s.do(t, http.MethodGet, "/api/v1/invoices?limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]invoicingapp.InvoiceResponse](t, w)
	assert.Len(t, list.Data, 1)
	require.NotNil(t, list.Meta)
	assert.Equal(t, 1, list.Meta.Limit)

	w = s.do(t, http.MethodGet, "/api/v1/invoices/"+first.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "INV-001", decode[invoicingapp.InvoiceResponse](t, w).Data.Number)

	w = s.do(t, http.MethodGet, "/api/v1/invoices/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, decode[any](t, w).Error.Code)

	w = s.do(t, http.MethodGet, "/api/v1/invoices/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidID, decode[any](t, w).Error.Code)
}

func TestInvoiceHandler_UpdateQueuesRegeneration(t *testing.T) {
	s := newTestServer(t, testUserID)
	s.signIn(t)
	inv := createInvoice(t, s, "INV-001")

	w := s.do(t, http.MethodPatch, "/api/v1/invoices/"+inv.ID.String(), map[string]any{
		"status": "sent",
		"notes":  "Thanks for your business",
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[invoicingapp.InvoiceResponse](t, w).Data
	assert.Equal(t, "SENT", updated.Status)
	assert.Equal(t, "Thanks for your business", updated.Notes)
	assert.Equal(t, 2, s.trigger.count(inv.ID.String()))
}

func TestInvoiceHandler_RecordPayment(t *testing.T) {
	s := newTestServer(t, testUserID)
	s.signIn(t)
	inv := createInvoice(t, s, "INV-001")
	path := "/api/v1/invoices/" + inv.ID.String() + "/payments"

	t.Run("partial payment", func(t *testing.T) {
		w := s.do(t, http.MethodPost, path, map[string]any{"amount": "100", "method": "bank transfer"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		resp := decode[invoicingapp.InvoiceResponse](t, w).Data
		assert.True(t, decimal.NewFromInt(150).Equal(resp.BalanceDue), resp.BalanceDue.String())
		assert.Len(t, resp.Payments, 1)
	})

	t.Run("overpayment rejected", func(t *testing.T) {
		w := s.do(t, http.MethodPost, path, map[string]any{"amount": "1000"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_AMOUNT", decode[any](t, w).Error.Code)
	})

	t.Run("settling payment marks invoice paid", func(t *testing.T) {
		w := s.do(t, http.MethodPost, path, map[string]any{"amount": "150", "method": "cash"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		resp := decode[invoicingapp.InvoiceResponse](t, w).Data
		assert.Equal(t, "PAID", resp.Status)
		assert.True(t, resp.BalanceDue.IsZero())
	})
}

func TestInvoiceHandler_GetPDF(t *testing.T) {
	s := newTestServer(t, testUserID)
	s.signIn(t)
	inv := createInvoice(t, s, "INV-001")
	path := "/api/v1/invoices/" + inv.ID.String() + "/pdf"

	t.Run("queued while missing", func(t *testing.T) {
		w := s.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Equal(t, PDFQueuedMessage, decode[dto.MessageResponse](t, w).Data.Message)
		assert.Equal(t, 2, s.trigger.count(inv.ID.String()))
	})

	t.Run("served once stored", func(t *testing.T) {
		ctx := context.Background()
		url, err := s.blobs.Put(ctx, "invoices/"+inv.ID.String()+".pdf", []byte("%PDF-1.7"), "application/pdf")
		require.NoError(t, err)
		require.NoError(t, s.invoices.UpdatePDFURL(ctx, inv.ID, url))

		w := s.do(t, http.MethodGet, path, nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="Invoice-INV-001.pdf"`, w.Header().Get("Content-Disposition"))
		assert.Equal(t, "%PDF-1.7", w.Body.String())
		assert.Equal(t, 2, s.trigger.count(inv.ID.String()), "a stored PDF is served without regenerating")
	})

	t.Run("unknown invoice", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/v1/invoices/"+uuid.NewString()+"/pdf", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestInvoiceHandler_RegeneratePDF(t *testing.T) {
	s := newTestServer(t, testUserID)
	s.signIn(t)
	inv := createInvoice(t, s, "INV-001")

	w := s.do(t, http.MethodPost, "/api/v1/invoices/"+inv.ID.String()+"/pdf", nil)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, 2, s.trigger.count(inv.ID.String()))
}

func TestInvoiceHandler_Delete(t *testing.T) {
	s := newTestServer(t, testUserID)
	s.signIn(t)
	inv := createInvoice(t, s, "INV-001")
	path := "/api/v1/invoices/" + inv.ID.String()

	w := s.do(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestContentDisposition(t *testing.T) {
	assert.Equal(t, `attachment; filename="Invoice-7.pdf"`, contentDisposition("Invoice-7.pdf"))
	assert.Equal(t, `attachment; filename="Invoice-'7'.pdf"`, contentDisposition(`Invoice-"7".pdf`))
}

func TestInvoiceHandler_Send(t *testing.T) {
	s := newTestServer(t, testUserID)
	s.signIn(t)
	inv := createInvoice(t, s, "INV-001")
	path := "/api/v1/invoices/" + inv.ID.String() + "/send"

	t.Run("draft is rendered and marked sent", func(t *testing.T) {
		w := s.do(t, http.MethodPost, path, map[string]any{
			"recipientEmail": "ap@globex.test",
			"ccEmails":       "cfo@globex.test",
			"message":        "Thanks!",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := decode[invoicingapp.SendInvoiceResponse](t, w).Data
		assert.True(t, resp.StatusUpdated)
		assert.False(t, resp.PDFCached)
		assert.Equal(t, 1, resp.EmailCount)

		emails := s.mailer.emails()
		require.Len(t, emails, 1)
		assert.Equal(t, []string{"ap@globex.test"}, emails[0].To)
		assert.Equal(t, []string{"cfo@globex.test"}, emails[0].CC)
		assert.Equal(t, "owner@acme.test", emails[0].ReplyTo)
		require.Len(t, emails[0].Attachments, 1)
		assert.Equal(t, "Invoice-INV-001.pdf", emails[0].Attachments[0].FileName)
		assert.Equal(t, "%PDF-1.7 rendered", string(emails[0].Attachments[0].Data))
		assert.Equal(t, 2, s.trigger.count(inv.ID.String()), "status change queues regeneration")

		w = s.do(t, http.MethodGet, "/api/v1/invoices/"+inv.ID.String(), nil)
		got := decode[invoicingapp.InvoiceResponse](t, w).Data
		assert.Equal(t, "SENT", got.Status)
		assert.Equal(t, "ap@globex.test", got.SentTo)
		assert.Equal(t, []string{"cfo@globex.test"}, got.CCEmails)
		assert.NotNil(t, got.SentAt)
		assert.Equal(t, 1, got.EmailCount)
	})

	t.Run("resend attaches the stored pdf", func(t *testing.T) {
		ctx := context.Background()
		url, err := s.blobs.Put(ctx, "invoices/"+inv.ID.String()+".pdf", []byte("%PDF-1.7 stored"), "application/pdf")
		require.NoError(t, err)
		require.NoError(t, s.invoices.UpdatePDFURL(ctx, inv.ID, url))

		w := s.do(t, http.MethodPost, path, map[string]any{"recipientEmail": "ap@globex.test"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := decode[invoicingapp.SendInvoiceResponse](t, w).Data
		assert.False(t, resp.StatusUpdated)
		assert.True(t, resp.PDFCached)
		assert.Equal(t, 2, resp.EmailCount)

		emails := s.mailer.emails()
		require.Len(t, emails, 2)
		assert.Equal(t, "%PDF-1.7 stored", string(emails[1].Attachments[0].Data))
		assert.Equal(t, 2, s.trigger.count(inv.ID.String()))
	})

	t.Run("recipient is required", func(t *testing.T) {
		w := s.do(t, http.MethodPost, path, map[string]any{"message": "hi"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, decode[any](t, w).Error.Code)
	})

	t.Run("invalid cc", func(t *testing.T) {
		w := s.do(t, http.MethodPost, path, map[string]any{
			"recipientEmail": "ap@globex.test",
			"ccEmails":       "cfo@globex.test, nope",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_EMAIL", decode[any](t, w).Error.Code)
	})

	t.Run("mail server failure", func(t *testing.T) {
		s.mailer.err = errors.New("dial tcp: connection refused")
		defer func() { s.mailer.err = nil }()

		w := s.do(t, http.MethodPost, path, map[string]any{"recipientEmail": "ap@globex.test"})
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, dto.ErrCodeDeliveryFailed, decode[any](t, w).Error.Code)

		w = s.do(t, http.MethodGet, "/api/v1/invoices/"+inv.ID.String(), nil)
		assert.Equal(t, 2, decode[invoicingapp.InvoiceResponse](t, w).Data.EmailCount)
	})
}

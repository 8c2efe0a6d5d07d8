package handler

import (
	"net/http"
	"testing"

	invoicingapp "github.com/invoicely/backend/internal/application/invoicing"
	"github.com/invoicely/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createCustomer(t *testing.T, s *testServer) invoicingapp.CustomerResponse {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/customers", map[string]any{"displayName": "Initech"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[invoicingapp.CustomerResponse](t, w).Data
}

func estimateBody(customerID string) map[string]any {
	return map[string]any{
		"customerId": customerID,
		"issueDate":  "2026-03-01",
		"terms":      "Half upfront",
		"items": []map[string]any{
			{"itemName": "Audit", "description": "Security audit", "quantity": "2", "unitPrice": "400"},
		},
	}
}

func TestEstimateHandler_Lifecycle(t *testing.T) {
	s := newTestServer(t, testUserID)
	s.signIn(t)
	customer := createCustomer(t, s)

	w := s.do(t, http.MethodGet, "/api/v1/estimates/next-number", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "EST-0001", decode[invoicingapp.NextEstimateNumberResponse](t, w).Data.Number)

	w = s.do(t, http.MethodPost, "/api/v1/estimates", estimateBody(customer.ID.String()))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[invoicingapp.EstimateResponse](t, w).Data
	assert.Equal(t, "EST-0001", created.Number)
	assert.Equal(t, "DRAFT", created.Status)
	assert.Equal(t, "Half upfront", created.Terms)
	assert.True(t, decimal.NewFromInt(800).Equal(created.Total))
	path := "/api/v1/estimates/" + created.ID.String()

	w = s.do(t, http.MethodPost, "/api/v1/estimates", estimateBody(customer.ID.String()))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "EST-0002", decode[invoicingapp.EstimateResponse](t, w).Data.Number)

	w = s.do(t, http.MethodGet, "/api/v1/estimates?limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]invoicingapp.EstimateResponse](t, w)
	assert.Len(t, list.Data, 1)
	require.NotNil(t, list.Meta)
	assert.Equal(t, 1, list.Meta.Limit)

	w = s.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[invoicingapp.EstimateResponse](t, w).Data
	require.Len(t, got.Items, 1)
	require.NotNil(t, got.Customer)
	assert.Equal(t, "Initech", got.Customer.DisplayName)

	w = s.do(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEstimateHandler_CreateValidation(t *testing.T) {
	s := newTestServer(t, testUserID)
	s.signIn(t)
	customer := createCustomer(t, s)

	t.Run("items are required", func(t *testing.T) {
		body := estimateBody(customer.ID.String())
		delete(body, "items")
		w := s.do(t, http.MethodPost, "/api/v1/estimates", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, decode[any](t, w).Error.Code)
	})

	t.Run("duplicate number", func(t *testing.T) {
		body := estimateBody(customer.ID.String())
		body["estimateNumber"] = "Q-1"
		w := s.do(t, http.MethodPost, "/api/v1/estimates", body)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		w = s.do(t, http.MethodPost, "/api/v1/estimates", body)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("valid until before issue date", func(t *testing.T) {
		body := estimateBody(customer.ID.String())
		body["validUntil"] = "2026-02-01"
		w := s.do(t, http.MethodPost, "/api/v1/estimates", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_VALID_UNTIL", decode[any](t, w).Error.Code)
	})
}

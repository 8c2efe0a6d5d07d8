package handler

import (
	"net/http"
	"testing"

	invoicingapp "github.com/invoicely/backend/internal/application/invoicing"
	"github.com/invoicely/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerHandler_CRUD(t *testing.T) {
	s := newTestServer(t, testUserID)
	s.signIn(t)

	w := s.do(t, http.MethodPost, "/api/v1/customers", map[string]any{
		"displayName": "Initech",
		"email":       "ap@initech.test",
		"city":        "Austin",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[invoicingapp.CustomerResponse](t, w).Data
	assert.Equal(t, "Initech", created.DisplayName)
	path := "/api/v1/customers/" + created.ID.String()

	w = s.do(t, http.MethodPut, path, map[string]any{
		"displayName": "Initech LLC",
		"email":       "ap@initech.test",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[invoicingapp.CustomerResponse](t, w).Data
	assert.Equal(t, "Initech LLC", updated.DisplayName)
	assert.Empty(t, updated.City, "PUT replaces the whole profile")

	w = s.do(t, http.MethodGet, "/api/v1/customers", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]invoicingapp.CustomerResponse](t, w).Data, 1)

	w = s.do(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCustomerHandler_CreateValidation(t *testing.T) {
	s := newTestServer(t, testUserID)
	s.signIn(t)

	w := s.do(t, http.MethodPost, "/api/v1/customers", map[string]any{"email": "ap@initech.test"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode[any](t, w)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "displayName", resp.Error.Details[0].Field)
	assert.Equal(t, "This field is required", resp.Error.Details[0].Message)
}

func TestCustomerHandler_DeleteWithInvoices(t *testing.T) {
	s := newTestServer(t, testUserID)
	s.signIn(t)
	inv := createInvoice(t, s, "INV-001")

	w := s.do(t, http.MethodDelete, "/api/v1/customers/"+inv.CustomerID.String(), nil)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.ErrCodeConflict, decode[any](t, w).Error.Code)
}

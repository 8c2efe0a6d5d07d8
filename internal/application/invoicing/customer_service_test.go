package invoicing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/invoicing"
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCustomerServiceForTest() (*CustomerService, *MockCustomerRepository, *MockInvoiceRepository) {
	customers := new(MockCustomerRepository)
	invoices := new(MockInvoiceRepository)
	return NewCustomerService(customers, invoices), customers, invoices
}

func TestCustomerService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("trims and stores customer", func(t *testing.T) {
		service, customers, _ := newCustomerServiceForTest()
		customers.On("Create", ctx, mock.AnythingOfType("*invoicing.Customer")).Return(nil)

		resp, err := service.Create(ctx, testUserID, CustomerRequest{
			DisplayName: "  Globex  ",
			Email:       "ap@globex.test",
			City:        " Springfield ",
		})
		require.NoError(t, err)
		assert.Equal(t, "Globex", resp.DisplayName)
		assert.Equal(t, "Springfield", resp.City)
		assert.NotEqual(t, uuid.Nil, resp.ID)
		customers.AssertExpectations(t)
	})

	t.Run("rejects blank display name", func(t *testing.T) {
		service, customers, _ := newCustomerServiceForTest()

		_, err := service.Create(ctx, testUserID, CustomerRequest{DisplayName: "   "})
		assertDomainCode(t, err, "INVALID_DISPLAY_NAME")
		customers.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestCustomerService_ListGetUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("lists customers", func(t *testing.T) {
		service, customers, _ := newCustomerServiceForTest()
		c := newTestCustomer(t)
		customers.On("ListForUser", ctx, testUserID).Return([]invoicing.Customer{*c}, nil)

		list, err := service.List(ctx, testUserID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Acme Corp", list[0].DisplayName)
	})

	t.Run("get propagates not found", func(t *testing.T) {
		service, customers, _ := newCustomerServiceForTest()
		id := uuid.New()
		customers.On("FindByIDForUser", ctx, testUserID, id).Return(nil, shared.NewNotFoundError("Customer"))

		_, err := service.Get(ctx, testUserID, id.String())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("update replaces profile", func(t *testing.T) {
		service, customers, _ := newCustomerServiceForTest()
		c := newTestCustomer(t)
		customers.On("FindByIDForUser", ctx, testUserID, c.ID).Return(c, nil)
		customers.On("Save", ctx, c).Return(nil)

		resp, err := service.Update(ctx, testUserID, c.ID.String(), CustomerRequest{
			DisplayName:  "Acme Holdings",
			BusinessName: "Acme Holdings LLC",
		})
		require.NoError(t, err)
		assert.Equal(t, "Acme Holdings", resp.DisplayName)
		assert.Equal(t, "Acme Holdings LLC", resp.BusinessName)
		assert.Empty(t, resp.Email)
	})
}

func TestCustomerService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes customer without invoices", func(t *testing.T) {
		service, customers, invoices := newCustomerServiceForTest()
		c := newTestCustomer(t)
		customers.On("FindByIDForUser", ctx, testUserID, c.ID).Return(c, nil)
		invoices.On("CountByCustomer", ctx, testUserID, c.ID).Return(int64(0), nil)
		customers.On("Delete", ctx, testUserID, c.ID).Return(nil)

		require.NoError(t, service.Delete(ctx, testUserID, c.ID.String()))
		customers.AssertExpectations(t)
	})

	t.Run("refuses customer with invoices", func(t *testing.T) {
		service, customers, invoices := newCustomerServiceForTest()
		c := newTestCustomer(t)
		customers.On("FindByIDForUser", ctx, testUserID, c.ID).Return(c, nil)
		invoices.On("CountByCustomer", ctx, testUserID, c.ID).Return(int64(2), nil)

		err := service.Delete(ctx, testUserID, c.ID.String())
		assertDomainCode(t, err, "CONFLICT")
		assert.Contains(t, err.Error(), "2 invoice(s)")
		customers.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
	})
}

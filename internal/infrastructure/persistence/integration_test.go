//go:build integration

package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/invoicely/backend/internal/domain/invoicing"
	"github.com/invoicely/backend/internal/infrastructure/migration"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newPostgres starts a throwaway postgres, applies the embedded migrations and
// returns a gorm handle on it.
func newPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("invoicely_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	sqlDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	m, err := migration.New(sqlDB, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, m.Up())

	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.GreaterOrEqual(t, version, uint(1))

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	return db
}

func TestPostgres_InvoiceLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	db := newPostgres(t)
	ctx := context.Background()

	users := NewGormUserRepository(db)
	customers := NewGormCustomerRepository(db)
	invoices := NewGormInvoiceRepository(db)

	user, err := invoicing.NewUser("auth|pg", "pg@acme.test", "PG")
	require.NoError(t, err)
	require.NoError(t, users.Create(ctx, user))

	customer, err := invoicing.NewQuickCustomer(user.ID, "Initech", "ap@initech.test")
	require.NoError(t, err)
	require.NoError(t, customers.Create(ctx, customer))

	inv, err := invoicing.NewInvoice(user.ID, customer.ID, "PG-1", []invoicing.LineInput{
		{Description: "Stapler", Quantity: decimal.NewFromInt(2), Rate: decimal.RequireFromString("12.25")},
	}, decimal.RequireFromString("2.45"))
	require.NoError(t, err)
	require.NoError(t, invoices.Create(ctx, inv))

	require.NoError(t, invoices.UpdatePDFURL(ctx, inv.ID, "https://blob.test/pg.pdf"))

	got, err := invoices.FindByIDWithDetails(ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("26.95").Equal(got.Total))
	assert.Equal(t, "https://blob.test/pg.pdf", got.PDFURL)
	require.Len(t, got.Items, 1)
	require.NotNil(t, got.Customer)
	assert.Equal(t, "Initech", got.Customer.DisplayName)

	require.NoError(t, invoices.Delete(ctx, user.ID, inv.ID))
	count, err := invoices.CountByCustomer(ctx, user.ID, customer.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

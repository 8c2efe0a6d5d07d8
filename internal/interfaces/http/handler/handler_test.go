package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	invoicingapp "github.com/invoicely/backend/internal/application/invoicing"
	"github.com/invoicely/backend/internal/domain/invoicing"
	"github.com/invoicely/backend/internal/infrastructure/auth"
	"github.com/invoicely/backend/internal/infrastructure/config"
	"github.com/invoicely/backend/internal/infrastructure/logger"
	"github.com/invoicely/backend/internal/infrastructure/persistence"
	"github.com/invoicely/backend/internal/infrastructure/storage"
	"github.com/invoicely/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/require"
)

const testUserID = "user-1"

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// triggerRecorder records PDF generation requests instead of rendering
type triggerRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *triggerRecorder) Trigger(invoiceID, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, invoiceID)
}

func (r *triggerRecorder) count(invoiceID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, id := range r.calls {
		if id == invoiceID {
			n++
		}
	}
	return n
}

func (r *triggerRecorder) Busy(string) bool { return false }

// stubRenderer returns a fixed document instead of driving a browser
type stubRenderer struct{}

func (stubRenderer) RenderInvoice(context.Context, *invoicing.InvoiceDocument) ([]byte, error) {
	return []byte("%PDF-1.7 rendered"), nil
}

// mailRecorder keeps sent emails in memory
type mailRecorder struct {
	mu   sync.Mutex
	sent []invoicingapp.Email
	err  error
}

func (m *mailRecorder) Send(_ context.Context, email invoicingapp.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, email)
	return nil
}

func (m *mailRecorder) emails() []invoicingapp.Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]invoicingapp.Email(nil), m.sent...)
}

type testServer struct {
	engine   *gin.Engine
	db       *persistence.Database
	blobs    *storage.MemoryBlobStore
	trigger  *triggerRecorder
	mailer   *mailRecorder
	invoices *persistence.GormInvoiceRepository
	users    *invoicingapp.UserService
}

// fakeAuth stands in for the JWT middleware with a fixed identity
func fakeAuth(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID == "" {
			c.Next()
			return
		}
		c.Set(middleware.JWTClaimsKey, &auth.Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: userID},
			Email:            "owner@acme.test",
			Name:             "Owner",
		})
		c.Set(logger.GinUserIDKey, userID)
		c.Next()
	}
}

func newTestServer(t *testing.T, userID string) *testServer {
	t.Helper()
	db, err := persistence.NewDatabase(&config.DatabaseConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "handler.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	estimateRepo := persistence.NewGormEstimateRepository(db.DB)
	blobs := storage.NewMemoryBlobStore("memory://test")
	trigger := &triggerRecorder{}
	mailer := &mailRecorder{}

	invoiceService := invoicingapp.NewInvoiceService(invoiceRepo, customerRepo, blobs, trigger)
	customerService := invoicingapp.NewCustomerService(customerRepo, invoiceRepo)
	userService := invoicingapp.NewUserService(userRepo, blobs)
	deliveryService := invoicingapp.NewDeliveryService(invoiceRepo, userRepo, blobs, stubRenderer{}, mailer, trigger)
	estimateService := invoicingapp.NewEstimateService(estimateRepo, customerRepo)

	invoices := NewInvoiceHandler(invoiceService, deliveryService)
	customers := NewCustomerHandler(customerService)
	estimates := NewEstimateHandler(estimateService)
	users := NewUserHandler(userService)
	authHandler := NewAuthHandler(userService)

	engine := gin.New()
	engine.GET("/health", NewHealthHandler(db, nil).Health)
	api := engine.Group("/api/v1", fakeAuth(userID))
	api.POST("/auth/callback", authHandler.Callback)
	api.GET("/invoices", invoices.List)
	api.POST("/invoices", invoices.Create)
	api.GET("/invoices/:id", invoices.Get)
	api.PATCH("/invoices/:id", invoices.Update)
	api.DELETE("/invoices/:id", invoices.Delete)
	api.POST("/invoices/:id/payments", invoices.RecordPayment)
	api.GET("/invoices/:id/pdf", invoices.GetPDF)
	api.POST("/invoices/:id/pdf", invoices.RegeneratePDF)
	api.POST("/invoices/:id/send", invoices.Send)
	api.GET("/estimates", estimates.List)
	api.POST("/estimates", estimates.Create)
	api.GET("/estimates/next-number", estimates.NextNumber)
	api.GET("/estimates/:id", estimates.Get)
	api.DELETE("/estimates/:id", estimates.Delete)
	api.GET("/customers", customers.List)
	api.POST("/customers", customers.Create)
	api.GET("/customers/:id", customers.Get)
	api.PUT("/customers/:id", customers.Update)
	api.DELETE("/customers/:id", customers.Delete)
	api.GET("/users/logo", users.GetLogo)
	api.POST("/users/logo", users.UploadLogo)
	api.PUT("/users/logo", users.SetLogoURL)
	api.DELETE("/users/logo", users.RemoveLogo)

	return &testServer{
		engine:   engine,
		db:       db,
		blobs:    blobs,
		trigger:  trigger,
		mailer:   mailer,
		invoices: invoiceRepo,
		users:    userService,
	}
}

// signIn creates the user record the way the auth callback does
func (s *testServer) signIn(t *testing.T) {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/auth/callback", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

type envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"details"`
	} `json:"error"`
	Meta *struct {
		Limit  int `json:"limit"`
		Offset int `json:"offset"`
		Count  int `json:"count"`
	} `json:"meta"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var resp envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

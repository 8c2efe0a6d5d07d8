package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/invoicely/backend/internal/interfaces/http/handler"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithMiddleware(func(c *gin.Context) {
		c.Header("X-API", "yes")
		c.Next()
	}))
	engine.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	group := NewDomainGroup("invoices", "/invoices")
	group.GET("", func(c *gin.Context) {
		c.String(http.StatusOK, "list")
	})
	r.Register(group).Setup()

	w := serve(engine, http.MethodGet, "/api/v1/invoices")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "list", w.Body.String())
	assert.Equal(t, "yes", w.Header().Get("X-API"))

	w = serve(engine, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-API"), "router middleware stays inside the API group")
}

func TestDomainGroup_Methods(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("customers", "/customers")
	ok := func(c *gin.Context) { c.String(http.StatusOK, c.Request.Method) }
	g.GET("/:id", ok).POST("", ok).PUT("/:id", ok).PATCH("/:id", ok).DELETE("/:id", ok)
	g.RegisterRoutes(engine.Group("/api/v1"))

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/customers/1"},
		{http.MethodPost, "/api/v1/customers"},
		{http.MethodPut, "/api/v1/customers/1"},
		{http.MethodPatch, "/api/v1/customers/1"},
		{http.MethodDelete, "/api/v1/customers/1"},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			w := serve(engine, tt.method, tt.path)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.method, w.Body.String())
		})
	}
}

func TestDomainGroup_MiddlewareAndSubgroups(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("invoices", "/invoices").Use(func(c *gin.Context) {
		c.Header("X-Group", "invoices")
		c.Next()
	})
	pdf := g.Group("pdf", "/:id/pdf")
	pdf.GET("", func(c *gin.Context) {
		c.String(http.StatusOK, c.Param("id"))
	})
	g.RegisterRoutes(engine.Group("/api/v1"))

	assert.Equal(t, "invoices", g.Name())
	assert.Equal(t, "/invoices", g.Prefix())

	w := serve(engine, http.MethodGet, "/api/v1/invoices/42/pdf")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "42", w.Body.String())
	assert.Equal(t, "invoices", w.Header().Get("X-Group"))
}

func TestRegisterAPI(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)
	RegisterAPI(r, Handlers{
		Auth:     handler.NewAuthHandler(nil),
		Invoice:  handler.NewInvoiceHandler(nil, nil),
		Customer: handler.NewCustomerHandler(nil),
		Estimate: handler.NewEstimateHandler(nil),
		User:     handler.NewUserHandler(nil),
	}, func(c *gin.Context) {
		c.AbortWithStatus(http.StatusTeapot)
	})
	r.Setup()

	registered := make(map[string]bool)
	for _, route := range engine.Routes() {
		registered[route.Method+" "+route.Path] = true
	}
	for _, want := range []string{
		"POST /api/v1/auth/callback",
		"GET /api/v1/invoices",
		"POST /api/v1/invoices",
		"GET /api/v1/invoices/:id",
		"PATCH /api/v1/invoices/:id",
		"DELETE /api/v1/invoices/:id",
		"POST /api/v1/invoices/:id/payments",
		"GET /api/v1/invoices/:id/pdf",
		"POST /api/v1/invoices/:id/pdf",
		"POST /api/v1/invoices/:id/send",
		"GET /api/v1/customers",
		"POST /api/v1/customers",
		"GET /api/v1/customers/:id",
		"PUT /api/v1/customers/:id",
		"DELETE /api/v1/customers/:id",
		"GET /api/v1/estimates",
		"POST /api/v1/estimates",
		"GET /api/v1/estimates/next-number",
		"GET /api/v1/estimates/:id",
		"DELETE /api/v1/estimates/:id",
		"GET /api/v1/users/logo",
		"POST /api/v1/users/logo",
		"PUT /api/v1/users/logo",
		"DELETE /api/v1/users/logo",
	} {
		assert.True(t, registered[want], "missing route %s", want)
	}

	t.Run("idempotency guards creation only", func(t *testing.T) {
		assert.Equal(t, http.StatusTeapot, serve(engine, http.MethodPost, "/api/v1/invoices").Code)
		assert.Equal(t, http.StatusTeapot, serve(engine, http.MethodPost, "/api/v1/estimates").Code)
		// No user is set, so the handler itself answers 401
		assert.Equal(t, http.StatusUnauthorized, serve(engine, http.MethodGet, "/api/v1/invoices").Code)
		assert.Equal(t, http.StatusUnauthorized, serve(engine, http.MethodPost, "/api/v1/customers").Code)
	})
}

package router

import (
	"github.com/gin-gonic/gin"
	"github.com/invoicely/backend/internal/interfaces/http/handler"
)

// Handlers bundles the API handlers mounted by RegisterAPI
type Handlers struct {
	Auth     *handler.AuthHandler
	Invoice  *handler.InvoiceHandler
	Customer *handler.CustomerHandler
	Estimate *handler.EstimateHandler
	User     *handler.UserHandler
}

// RegisterAPI adds the invoicing routes to r. idempotency guards invoice and
// estimate creation and may be nil.
func RegisterAPI(r *Router, h Handlers, idempotency gin.HandlerFunc) {
	auth := NewDomainGroup("auth", "/auth")
	auth.POST("/callback", h.Auth.Callback)

	guarded := func(create gin.HandlerFunc) []gin.HandlerFunc {
		if idempotency == nil {
			return []gin.HandlerFunc{create}
		}
		return []gin.HandlerFunc{idempotency, create}
	}

	invoices := NewDomainGroup("invoices", "/invoices")
	invoices.GET("", h.Invoice.List)
	invoices.POST("", guarded(h.Invoice.Create)...)
	invoices.GET("/:id", h.Invoice.Get)
	invoices.PATCH("/:id", h.Invoice.Update)
	invoices.DELETE("/:id", h.Invoice.Delete)
	invoices.POST("/:id/payments", h.Invoice.RecordPayment)
	invoices.GET("/:id/pdf", h.Invoice.GetPDF)
	invoices.POST("/:id/pdf", h.Invoice.RegeneratePDF)
	invoices.POST("/:id/send", h.Invoice.Send)

	customers := NewDomainGroup("customers", "/customers")
	customers.GET("", h.Customer.List)
	customers.POST("", h.Customer.Create)
	customers.GET("/:id", h.Customer.Get)
	customers.PUT("/:id", h.Customer.Update)
	customers.DELETE("/:id", h.Customer.Delete)

	estimates := NewDomainGroup("estimates", "/estimates")
	estimates.GET("", h.Estimate.List)
	estimates.POST("", guarded(h.Estimate.Create)...)
	estimates.GET("/next-number", h.Estimate.NextNumber)
	estimates.GET("/:id", h.Estimate.Get)
	estimates.DELETE("/:id", h.Estimate.Delete)

	users := NewDomainGroup("users", "/users")
	users.GET("/logo", h.User.GetLogo)
	users.POST("/logo", h.User.UploadLogo)
	users.PUT("/logo", h.User.SetLogoURL)
	users.DELETE("/logo", h.User.RemoveLogo)

	r.Register(auth).Register(invoices).Register(customers).Register(estimates).Register(users)
}

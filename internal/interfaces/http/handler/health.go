package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/invoicely/backend/internal/application/pdfgen"
	"github.com/invoicely/backend/internal/interfaces/http/dto"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// PDFStatsProvider exposes the PDF coordinator state
type PDFStatsProvider interface {
	Stats() pdfgen.Stats
}

// HealthResponse is the body of the health endpoint
type HealthResponse struct {
	Status   string       `json:"status"`
	Database string       `json:"database"`
	PDF      pdfgen.Stats `json:"pdf"`
}

// HealthHandler answers liveness and readiness checks
type HealthHandler struct {
	BaseHandler
	db      Pinger
	pdf     PDFStatsProvider
	timeout time.Duration
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db Pinger, pdf PDFStatsProvider) *HealthHandler {
	return &HealthHandler{
		db:      db,
		pdf:     pdf,
		timeout: 2 * time.Second,
	}
}

// Health godoc
// @ID           health
// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[HealthResponse]
// @Failure      503 {object} APIResponse[HealthResponse]
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	resp := HealthResponse{Status: "healthy", Database: "up"}
	if h.pdf != nil {
		resp.PDF = h.pdf.Stats()
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			resp.Status = "unhealthy"
			resp.Database = "down"
			c.JSON(http.StatusServiceUnavailable, dto.Response{Success: false, Data: resp, Error: &dto.ErrorInfo{
				Code:    dto.ErrCodeServiceUnavailable,
				Message: "Database unavailable",
			}})
			return
		}
	}

	h.Success(c, resp)
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/retreat/backend/internal/interfaces/http/dto"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping() error
}

// SystemHandler serves operational endpoints
type SystemHandler struct {
	BaseHandler
	db           Pinger
	dedupBackend string
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(db Pinger, dedupBackend string) *SystemHandler {
	return &SystemHandler{db: db, dedupBackend: dedupBackend}
}

// Health reports service and database status
// GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	resp := dto.HealthResponse{Status: "healthy", Database: "up", Dedup: h.dedupBackend}
	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			resp.Status = "unhealthy"
			resp.Database = "down"
			c.JSON(http.StatusServiceUnavailable, dto.Response{Success: false, Data: resp, Error: &dto.ErrorInfo{
				Code:      dto.ErrCodeInternal,
				Message:   "database unreachable",
				RequestID: getRequestID(c),
			}})
			return
		}
	}
	h.Success(c, resp)
}

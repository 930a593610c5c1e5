package errorlog

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tenx-cards/core/internal/middleware"
	"github.com/tenx-cards/core/internal/pkg/response"
)

const maxRecent = 100

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/error-logs", h.recent)
}

// GET /error-logs?limit=N
func (h *Handler) recent(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit > maxRecent {
		limit = maxRecent
	}
	rows, err := h.svc.Recent(c.Request.Context(), middleware.UserID(c), limit)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, rows)
}

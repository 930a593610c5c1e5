package flashcardset

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tenx-cards/core/internal/middleware"
	"github.com/tenx-cards/core/internal/pkg/pagination"
	"github.com/tenx-cards/core/internal/pkg/response"
	"github.com/tenx-cards/core/internal/pkg/validation"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/flashcard-sets")
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.DELETE("/:id", h.delete)
}

// POST /flashcard-sets
func (h *Handler) create(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		response.InvalidJSON(c)
		return
	}
	var req CreateSetRequest
	if err := validation.Decode(body, &req); err != nil {
		if fields, ok := validation.IsFieldErrors(err); ok {
			response.ValidationFailed(c, "Invalid request data", fields)
			return
		}
		response.InvalidJSON(c)
		return
	}
	if err := validation.Struct(req, createMessages); err != nil {
		fields, _ := validation.IsFieldErrors(err)
		response.ValidationFailed(c, "Invalid request data", fields)
		return
	}

	created, err := h.svc.Create(c.Request.Context(), middleware.UserID(c), req.command())
	if err != nil {
		writeCreateError(c, err)
		return
	}
	response.Created(c, created)
}

func writeCreateError(c *gin.Context, err error) {
	var conflict *NameConflictError
	if errors.As(err, &conflict) {
		response.Conflict(c, response.CodeNameConflict, conflict.Error(), gin.H{
			"field": "name",
			"value": conflict.Name,
		})
		return
	}
	var txErr *TransactionError
	if errors.As(err, &txErr) {
		details := gin.H{}
		if txErr.Err != nil {
			details["originalMessage"] = txErr.Err.Error()
		}
		response.Error(c, http.StatusInternalServerError, response.CodeTransactionFailed,
			"Failed to create flashcard set due to a database error", details)
		return
	}
	response.InternalError(c, err)
}

// GET /flashcard-sets?page=&size=
func (h *Handler) list(c *gin.Context) {
	sets, pag, err := h.svc.List(c.Request.Context(), middleware.UserID(c), pagination.FromContext(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, sets, pag)
}

// GET /flashcard-sets/:id
func (h *Handler) get(c *gin.Context) {
	set, err := h.svc.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, "Flashcard set not found")
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, set)
}

// DELETE /flashcard-sets/:id
func (h *Handler) delete(c *gin.Context) {
	err := h.svc.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, "Flashcard set not found")
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}

package generation

import (
	"context"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/tenx-cards/core/internal/middleware"
	"github.com/tenx-cards/core/internal/pkg/apperr"
	"github.com/tenx-cards/core/internal/pkg/response"
	"github.com/tenx-cards/core/internal/pkg/validation"
)

// payloadTextLimit bounds the source text copied into an error log entry.
const payloadTextLimit = 500

// ErrorRecorder stores failed generations. Record must not fail the request.
type ErrorRecorder interface {
	Record(ctx context.Context, userID, model string, err error, payload map[string]any)
}

var generateMessages = validation.Messages{
	"text.required": msgTextEmpty,
	"text.max":      msgTextTooLong,
}

type Handler struct {
	svc    *Service
	errlog ErrorRecorder
}

func NewHandler(svc *Service, errlog ErrorRecorder) *Handler {
	return &Handler{svc: svc, errlog: errlog}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, limitMW gin.HandlerFunc) {
	g := rg.Group("/flashcards")
	g.POST("/generate", limitMW, h.generate)
}

// POST /flashcards/generate
func (h *Handler) generate(c *gin.Context) {
	start := time.Now()

	body, err := c.GetRawData()
	if err != nil {
		response.InvalidJSON(c)
		return
	}
	var req GenerateRequest
	if err := validation.Decode(body, &req); err != nil {
		if fields, ok := validation.IsFieldErrors(err); ok {
			response.ValidationFailed(c, "Invalid request data", fields)
			return
		}
		response.InvalidJSON(c)
		return
	}
	if err := validation.Struct(req, generateMessages); err != nil {
		fields, _ := validation.IsFieldErrors(err)
		response.ValidationFailed(c, "Invalid request data", fields)
		return
	}
	if err := ValidateText(req.Text); err != nil {
		e, _ := apperr.As(err)
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "Invalid request data", e.Details)
		return
	}

	model := h.svc.ResolveModel(req.Model)
	result, err := h.svc.Generate(c.Request.Context(), req.Text, model)
	if err != nil {
		duration := time.Since(start).Milliseconds()
		if h.errlog != nil {
			h.errlog.Record(c.Request.Context(), middleware.UserID(c), model, err, map[string]any{
				"text":        prefixRunes(req.Text, payloadTextLimit),
				"model":       model,
				"text_length": utf8.RuneCountInString(req.Text),
			})
		}
		writeGenerationError(c, err, model, duration)
		return
	}

	response.OK(c, GenerateResponse{
		FlashcardProposals: result.Proposals,
		GenerationDuration: time.Since(start).Milliseconds(),
		Model:              result.Model,
	})
}

func writeGenerationError(c *gin.Context, err error, model string, duration int64) {
	details := gin.H{"model": model, "duration": duration}
	e, ok := apperr.As(err)
	if !ok {
		response.Error(c, http.StatusInternalServerError, response.CodeGenerationFailed, err.Error(), details)
		return
	}

	switch status := apperr.HTTPStatus(err); {
	case status == http.StatusServiceUnavailable:
		details["reason"] = e.Code
		response.Error(c, status, response.CodeServiceUnavailable,
			"AI service is temporarily unavailable. Please try again later.", details)
	case e.Kind == apperr.KindConfiguration:
		response.Error(c, http.StatusInternalServerError, response.CodeConfiguration, e.Message, details)
	case status == http.StatusBadRequest:
		response.Error(c, status, response.CodeValidation, e.Message, e.Details)
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeGenerationFailed, e.Error(), details)
	}
}

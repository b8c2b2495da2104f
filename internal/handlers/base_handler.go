package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/EduCore-2026/quiz-platform/internal/models"
	"github.com/EduCore-2026/quiz-platform/internal/services"
	"github.com/EduCore-2026/quiz-platform/internal/utils"
	"github.com/EduCore-2026/quiz-platform/internal/validator"
)

// BaseHandler carries the pieces every handler needs.
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogRequest(c *gin.Context, message string) {
	utils.LoggerFromContext(c.Request.Context()).Debug(message,
		"method", c.Request.Method,
		"path", c.Request.URL.Path)
}

// handleServiceError maps the service error taxonomy onto HTTP statuses:
// not-found 404, permission 403, conflict 409, invalid state 422, validation
// 400, everything else 500.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		h.respondError(c, http.StatusBadRequest, "validation_failed", err.Error(), verrs)
	case services.IsNotFoundError(err):
		h.respondError(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case services.IsPermissionError(err):
		h.respondError(c, http.StatusForbidden, "forbidden", err.Error(), nil)
	case services.IsConflictError(err):
		h.respondError(c, http.StatusConflict, "conflict", err.Error(), nil)
	case services.IsInvalidStateError(err):
		h.respondError(c, http.StatusUnprocessableEntity, "invalid_state", err.Error(), nil)
	default:
		h.logger.Error("Unhandled service error", "error", err, "path", c.Request.URL.Path)
		h.respondError(c, http.StatusInternalServerError, "internal_error", "internal server error", nil)
	}
}

func (h *BaseHandler) respondError(c *gin.Context, status int, code, message string, details interface{}) {
	c.JSON(status, models.ErrorResponse{
		Error:     http.StatusText(status),
		Message:   message,
		Code:      code,
		Details:   details,
		Timestamp: time.Now().UTC(),
		Path:      c.Request.URL.Path,
	})
}

func (h *BaseHandler) badRequest(c *gin.Context, message string) {
	h.respondError(c, http.StatusBadRequest, "bad_request", message, nil)
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func parsePagination(c *gin.Context) (page, size int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ = strconv.Atoi(c.DefaultQuery("size", "20"))
	if page < 0 {
		page = 0
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}

func queryUint(c *gin.Context, name string) *uint {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil
	}
	u := uint(v)
	return &u
}

func queryBool(c *gin.Context, name string) *bool {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &v
}

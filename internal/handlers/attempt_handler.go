package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EduCore-2026/quiz-platform/internal/models"
	"github.com/EduCore-2026/quiz-platform/internal/services"
	"github.com/EduCore-2026/quiz-platform/internal/utils"
)

type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
	reportService  services.ReportService
}

func NewAttemptHandler(attemptService services.AttemptService, reportService services.ReportService, logger utils.Logger) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
		reportService:  reportService,
	}
}

// StartAttempt starts a quiz attempt for the calling student
// @Summary Start quiz attempt
// @Tags attempts
// @Produce json
// @Param id path int true "Quiz ID"
// @Success 201 {object} services.AttemptResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /quizzes/{id}/attempts [post]
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	h.LogRequest(c, "Starting quiz attempt")

	quizID, ok := parseIDParam(c, "id")
	if !ok {
		h.badRequest(c, "invalid quiz id")
		return
	}

	principal, err := GetPrincipalFromContext(c)
	if err != nil {
		abortUnauthorized(c, err.Error())
		return
	}

	attempt, err := h.attemptService.Start(c.Request.Context(), quizID, principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, attempt)
}

// SubmitAttempt grades and completes an attempt
// @Summary Submit quiz attempt
// @Tags attempts
// @Accept json
// @Produce json
// @Param id path int true "Attempt ID"
// @Param submission body models.SubmitAttemptRequest true "Answers"
// @Success 200 {object} services.SubmitResultResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /attempts/{id}/submit [post]
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	h.LogRequest(c, "Submitting quiz attempt")

	attemptID, ok := parseIDParam(c, "id")
	if !ok {
		h.badRequest(c, "invalid attempt id")
		return
	}

	var req models.SubmitAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request payload")
		return
	}

	principal, err := GetPrincipalFromContext(c)
	if err != nil {
		abortUnauthorized(c, err.Error())
		return
	}

	result, err := h.attemptService.Submit(c.Request.Context(), attemptID, &req, principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetAttempt returns a single attempt
// @Summary Get attempt
// @Tags attempts
// @Produce json
// @Param id path int true "Attempt ID"
// @Success 200 {object} services.AttemptResponse
// @Router /attempts/{id} [get]
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	attemptID, ok := parseIDParam(c, "id")
	if !ok {
		h.badRequest(c, "invalid attempt id")
		return
	}

	principal, err := GetPrincipalFromContext(c)
	if err != nil {
		abortUnauthorized(c, err.Error())
		return
	}

	attempt, err := h.attemptService.GetByID(c.Request.Context(), attemptID, principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

// GetActiveAttempt returns the caller's in-progress attempt on a quiz
// @Summary Get active attempt
// @Tags attempts
// @Produce json
// @Param id path int true "Quiz ID"
// @Success 200 {object} services.AttemptResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /quizzes/{id}/attempts/active [get]
func (h *AttemptHandler) GetActiveAttempt(c *gin.Context) {
	quizID, ok := parseIDParam(c, "id")
	if !ok {
		h.badRequest(c, "invalid quiz id")
		return
	}

	principal, err := GetPrincipalFromContext(c)
	if err != nil {
		abortUnauthorized(c, err.Error())
		return
	}

	attempt, err := h.attemptService.GetActive(c.Request.Context(), quizID, principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

// GetQuizResults lists attempts on a quiz, scoped by the caller's role
// @Summary Quiz results
// @Tags attempts
// @Produce json
// @Param id path int true "Quiz ID"
// @Success 200 {object} services.QuizResultsResponse
// @Router /quizzes/{id}/results [get]
func (h *AttemptHandler) GetQuizResults(c *gin.Context) {
	quizID, ok := parseIDParam(c, "id")
	if !ok {
		h.badRequest(c, "invalid quiz id")
		return
	}

	principal, err := GetPrincipalFromContext(c)
	if err != nil {
		abortUnauthorized(c, err.Error())
		return
	}

	page, size := parsePagination(c)
	params := models.ListAttemptsParams{
		Page:      page,
		Size:      size,
		Completed: queryBool(c, "completed"),
		SortBy:    c.Query("sort_by"),
		SortDir:   c.Query("sort_dir"),
	}

	results, err := h.attemptService.Results(c.Request.Context(), quizID, params, principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

// GetAttemptsByStudent lists a student's attempts
// @Summary Student attempts
// @Tags attempts
// @Produce json
// @Param student_id path string true "Student ID"
// @Success 200 {object} models.PaginatedResponse
// @Router /attempts/student/{student_id} [get]
func (h *AttemptHandler) GetAttemptsByStudent(c *gin.Context) {
	studentID := c.Param("student_id")
	if studentID == "" {
		h.badRequest(c, "invalid student id")
		return
	}

	principal, err := GetPrincipalFromContext(c)
	if err != nil {
		abortUnauthorized(c, err.Error())
		return
	}

	page, size := parsePagination(c)
	params := models.ListAttemptsParams{
		Page:      page,
		Size:      size,
		Completed: queryBool(c, "completed"),
	}

	attempts, total, err := h.attemptService.ListByStudent(c.Request.Context(), studentID, params, principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, paginated(attempts, total, page, size))
}

// GetMyAttempts lists the calling student's attempts
// @Summary My attempts
// @Tags attempts
// @Produce json
// @Success 200 {object} models.PaginatedResponse
// @Router /students/me/attempts [get]
func (h *AttemptHandler) GetMyAttempts(c *gin.Context) {
	principal, err := GetPrincipalFromContext(c)
	if err != nil {
		abortUnauthorized(c, err.Error())
		return
	}

	page, size := parsePagination(c)
	params := models.ListAttemptsParams{
		Page:      page,
		Size:      size,
		Completed: queryBool(c, "completed"),
	}

	attempts, total, err := h.attemptService.ListByStudent(c.Request.Context(), principal.ID, params, principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, paginated(attempts, total, page, size))
}

// ExportQuizResults streams the results workbook
// @Summary Export quiz results
// @Tags attempts
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path int true "Quiz ID"
// @Success 200 {file} binary
// @Router /quizzes/{id}/results/export [get]
func (h *AttemptHandler) ExportQuizResults(c *gin.Context) {
	quizID, ok := parseIDParam(c, "id")
	if !ok {
		h.badRequest(c, "invalid quiz id")
		return
	}

	principal, err := GetPrincipalFromContext(c)
	if err != nil {
		abortUnauthorized(c, err.Error())
		return
	}

	data, filename, err := h.reportService.ExportQuizResults(c.Request.Context(), quizID, principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func paginated(content interface{}, total int64, page, size int) models.PaginatedResponse {
	totalPages := 0
	if size > 0 {
		totalPages = int((total + int64(size) - 1) / int64(size))
	}
	return models.PaginatedResponse{
		Content:       content,
		TotalElements: total,
		TotalPages:    totalPages,
		Size:          size,
		Page:          page,
		First:         page == 0,
		Last:          page >= totalPages-1,
	}
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EduCore-2026/quiz-platform/internal/models"
	"github.com/EduCore-2026/quiz-platform/internal/services"
	"github.com/EduCore-2026/quiz-platform/internal/utils"
)

type QuizHandler struct {
	BaseHandler
	quizService     services.QuizService
	questionService services.QuestionService
}

func NewQuizHandler(quizService services.QuizService, questionService services.QuestionService, logger utils.Logger) *QuizHandler {
	return &QuizHandler{
		BaseHandler:     NewBaseHandler(logger),
		quizService:     quizService,
		questionService: questionService,
	}
}

// CreateQuiz creates a new quiz
// @Summary Create quiz
// @Tags quizzes
// @Accept json
// @Produce json
// @Param quiz body models.QuizCreateRequest true "Quiz data"
// @Success 201 {object} services.QuizResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /quizzes [post]
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	h.LogRequest(c, "Creating quiz")

	var req models.QuizCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request payload")
		return
	}

	principal, err := GetPrincipalFromContext(c)
	if err != nil {
		abortUnauthorized(c, err.Error())
		return
	}

	quiz, err := h.quizService.Create(c.Request.Context(), &req, principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, quiz)
}

// GetQuiz returns a quiz by id
// @Summary Get quiz
// @Tags quizzes
// @Produce json
// @Param id path int true "Quiz ID"
// @Success 200 {object} services.QuizResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /quizzes/{id} [get]
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.badRequest(c, "invalid quiz id")
		return
	}

	principal, err := GetPrincipalFromContext(c)
	if err != nil {
		abortUnauthorized(c, err.Error())
		return
	}

	quiz, err := h.quizService.GetByID(c.Request.Context(), id, principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// GetQuizWithQuestions returns a quiz with its question set. Students
// receive sanitized questions.
// @Summary Get quiz with questions
// @Tags quizzes
// @Produce json
// @Param id path int true "Quiz ID"
// @Success 200 {object} services.QuizResponse
// @Router /quizzes/{id}/details [get]
func (h *QuizHandler) GetQuizWithQuestions(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.badRequest(c, "invalid quiz id")
		return
	}

	principal, err := GetPrincipalFromContext(c)
	if err != nil {
		abortUnauthorized(c, err.Error())
		return
	}

	quiz, err := h.quizService.GetByIDWithQuestions(c.Request.Context(), id, principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// UpdateQuiz applies a partial update
// @Summary Update quiz
// @Tags quizzes
// @Accept json
// @Produce json
// @Param id path int true "Quiz ID"
// @Param quiz body models.QuizUpdateRequest true "Quiz update"
// @Success 200 {object} services.QuizResponse
// @Router /quizzes/{id} [put]
func (h *QuizHandler) UpdateQuiz(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.badRequest(c, "invalid quiz id")
		return
	}

	var req models.QuizUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request payload")
		return
	}

	principal, err := GetPrincipalFromContext(c)
	if err != nil {
		abortUnauthorized(c, err.Error())
		return
	}

	quiz, err := h.quizService.Update(c.Request.Context(), id, &req, principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// UpdateQuizSettings updates quiz settings
// @Summary Update quiz settings
// @Tags quizzes
// @Accept json
// @Produce json
// @Param id path int true "Quiz ID"
// @Param settings body models.QuizSettingsRequest true "Settings"
// @Success 200 {object} services.QuizResponse
// @Router /quizzes/{id}/settings [put]
func (h *QuizHandler) UpdateQuizSettings(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.badRequest(c, "invalid quiz id")
		return
	}

	var req models.QuizSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request payload")
		return
	}

	principal, err := GetPrincipalFromContext(c)
	if err != nil {
		abortUnauthorized(c, err.Error())
		return
	}

	quiz, err := h.quizService.UpdateSettings(c.Request.Context(), id, &req, principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// DeleteQuiz removes a quiz that has no attempts
// @Summary Delete quiz
// @Tags quizzes
// @Param id path int true "Quiz ID"
// @Success 204
// @Failure 422 {object} models.ErrorResponse
// @Router /quizzes/{id} [delete]
func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.badRequest(c, "invalid quiz id")
		return
	}

	principal, err := GetPrincipalFromContext(c)
	if err != nil {
		abortUnauthorized(c, err.Error())
		return
	}

	if err := h.quizService.Delete(c.Request.Context(), id, principal); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListQuizzes lists quizzes visible to the caller
// @Summary List quizzes
// @Tags quizzes
// @Produce json
// @Success 200 {object} services.QuizListResponse
// @Router /quizzes [get]
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	principal, err := GetPrincipalFromContext(c)
	if err != nil {
		abortUnauthorized(c, err.Error())
		return
	}

	page, size := parsePagination(c)
	params := models.ListQuizzesParams{
		Page:          page,
		Size:          size,
		SubjectID:     queryUint(c, "subject_id"),
		InstitutionID: queryUint(c, "institution_id"),
		Search:        c.Query("search"),
		SortBy:        c.Query("sort_by"),
		SortDir:       c.Query("sort_dir"),
	}
	if creator := c.Query("created_by"); creator != "" {
		params.CreatedBy = &creator
	}

	quizzes, err := h.quizService.List(c.Request.Context(), params, principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quizzes)
}

// ===== QUESTIONS =====

// AddQuestion appends a question to a quiz
// @Summary Add question
// @Tags questions
// @Accept json
// @Produce json
// @Param id path int true "Quiz ID"
// @Param question body models.QuestionCreateRequest true "Question"
// @Success 201 {object} models.Question
// @Failure 422 {object} models.ErrorResponse
// @Router /quizzes/{id}/questions [post]
func (h *QuizHandler) AddQuestion(c *gin.Context) {
	quizID, ok := parseIDParam(c, "id")
	if !ok {
		h.badRequest(c, "invalid quiz id")
		return
	}

	var req models.QuestionCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request payload")
		return
	}

	principal, err := GetPrincipalFromContext(c)
	if err != nil {
		abortUnauthorized(c, err.Error())
		return
	}

	question, err := h.questionService.Add(c.Request.Context(), quizID, &req, principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, question)
}

// UpdateQuestion updates a question on an unattempted quiz
// @Summary Update question
// @Tags questions
// @Accept json
// @Produce json
// @Param id path int true "Quiz ID"
// @Param question_id path int true "Question ID"
// @Param question body models.QuestionUpdateRequest true "Question update"
// @Success 200 {object} models.Question
// @Router /quizzes/{id}/questions/{question_id} [put]
func (h *QuizHandler) UpdateQuestion(c *gin.Context) {
	quizID, ok := parseIDParam(c, "id")
	if !ok {
		h.badRequest(c, "invalid quiz id")
		return
	}
	questionID, ok := parseIDParam(c, "question_id")
	if !ok {
		h.badRequest(c, "invalid question id")
		return
	}

	var req models.QuestionUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request payload")
		return
	}

	principal, err := GetPrincipalFromContext(c)
	if err != nil {
		abortUnauthorized(c, err.Error())
		return
	}

	question, err := h.questionService.Update(c.Request.Context(), quizID, questionID, &req, principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, question)
}

// DeleteQuestion removes a question from an unattempted quiz
// @Summary Delete question
// @Tags questions
// @Param id path int true "Quiz ID"
// @Param question_id path int true "Question ID"
// @Success 204
// @Router /quizzes/{id}/questions/{question_id} [delete]
func (h *QuizHandler) DeleteQuestion(c *gin.Context) {
	quizID, ok := parseIDParam(c, "id")
	if !ok {
		h.badRequest(c, "invalid quiz id")
		return
	}
	questionID, ok := parseIDParam(c, "question_id")
	if !ok {
		h.badRequest(c, "invalid question id")
		return
	}

	principal, err := GetPrincipalFromContext(c)
	if err != nil {
		abortUnauthorized(c, err.Error())
		return
	}

	if err := h.questionService.Delete(c.Request.Context(), quizID, questionID, principal); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListQuestions lists a quiz's questions
// @Summary List questions
// @Tags questions
// @Produce json
// @Param id path int true "Quiz ID"
// @Success 200 {array} models.Question
// @Router /quizzes/{id}/questions [get]
func (h *QuizHandler) ListQuestions(c *gin.Context) {
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

	questions, err := h.questionService.ListByQuiz(c.Request.Context(), quizID, principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, questions)
}

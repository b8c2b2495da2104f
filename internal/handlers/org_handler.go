package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EduCore-2026/quiz-platform/internal/models"
	"github.com/EduCore-2026/quiz-platform/internal/repositories"
	"github.com/EduCore-2026/quiz-platform/internal/services"
	"github.com/EduCore-2026/quiz-platform/internal/utils"
)

type OrganizationHandler struct {
	BaseHandler
	orgService services.OrganizationService
}

func NewOrganizationHandler(orgService services.OrganizationService, logger utils.Logger) *OrganizationHandler {
	return &OrganizationHandler{
		BaseHandler: NewBaseHandler(logger),
		orgService:  orgService,
	}
}

// CreateInstitution registers a new institution
// @Summary Create institution
// @Tags institutions
// @Accept json
// @Produce json
// @Param institution body models.InstitutionCreateRequest true "Institution"
// @Success 201 {object} models.Institution
// @Router /institutions [post]
func (h *OrganizationHandler) CreateInstitution(c *gin.Context) {
	var req models.InstitutionCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request payload")
		return
	}

	principal, err := GetPrincipalFromContext(c)
	if err != nil {
		abortUnauthorized(c, err.Error())
		return
	}

	institution, err := h.orgService.CreateInstitution(c.Request.Context(), &req, principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, institution)
}

// GetInstitution returns an institution by id
// @Summary Get institution
// @Tags institutions
// @Produce json
// @Param id path int true "Institution ID"
// @Success 200 {object} models.Institution
// @Router /institutions/{id} [get]
func (h *OrganizationHandler) GetInstitution(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.badRequest(c, "invalid institution id")
		return
	}

	principal, err := GetPrincipalFromContext(c)
	if err != nil {
		abortUnauthorized(c, err.Error())
		return
	}

	institution, err := h.orgService.GetInstitution(c.Request.Context(), id, principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, institution)
}

// ListInstitutions lists institutions
// @Summary List institutions
// @Tags institutions
// @Produce json
// @Success 200 {object} models.PaginatedResponse
// @Router /institutions [get]
func (h *OrganizationHandler) ListInstitutions(c *gin.Context) {
	principal, err := GetPrincipalFromContext(c)
	if err != nil {
		abortUnauthorized(c, err.Error())
		return
	}

	page, size := parsePagination(c)
	filters := repositories.InstitutionFilters{
		Approved: queryBool(c, "approved"),
		Search:   c.Query("search"),
		Limit:    size,
		Offset:   page * size,
	}

	institutions, total, err := h.orgService.ListInstitutions(c.Request.Context(), filters, principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, paginated(institutions, total, page, size))
}

// ApproveInstitution marks an institution approved
// @Summary Approve institution
// @Tags institutions
// @Param id path int true "Institution ID"
// @Success 200 {object} models.SuccessResponse
// @Router /institutions/{id}/approve [post]
func (h *OrganizationHandler) ApproveInstitution(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.badRequest(c, "invalid institution id")
		return
	}

	principal, err := GetPrincipalFromContext(c)
	if err != nil {
		abortUnauthorized(c, err.Error())
		return
	}

	if err := h.orgService.ApproveInstitution(c.Request.Context(), id, principal); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "institution approved"})
}

// DeleteInstitution removes an institution
// @Summary Delete institution
// @Tags institutions
// @Param id path int true "Institution ID"
// @Success 204
// @Router /institutions/{id} [delete]
func (h *OrganizationHandler) DeleteInstitution(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.badRequest(c, "invalid institution id")
		return
	}

	principal, err := GetPrincipalFromContext(c)
	if err != nil {
		abortUnauthorized(c, err.Error())
		return
	}

	if err := h.orgService.DeleteInstitution(c.Request.Context(), id, principal); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// CreateGrade adds a grade to an institution
// @Summary Create grade
// @Tags grades
// @Accept json
// @Produce json
// @Param grade body models.GradeCreateRequest true "Grade"
// @Success 201 {object} models.Grade
// @Router /grades [post]
func (h *OrganizationHandler) CreateGrade(c *gin.Context) {
	var req models.GradeCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request payload")
		return
	}

	principal, err := GetPrincipalFromContext(c)
	if err != nil {
		abortUnauthorized(c, err.Error())
		return
	}

	grade, err := h.orgService.CreateGrade(c.Request.Context(), &req, principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, grade)
}

// ListGrades lists an institution's grades
// @Summary List grades
// @Tags grades
// @Produce json
// @Param id path int true "Institution ID"
// @Success 200 {array} models.Grade
// @Router /institutions/{id}/grades [get]
func (h *OrganizationHandler) ListGrades(c *gin.Context) {
	institutionID, ok := parseIDParam(c, "id")
	if !ok {
		h.badRequest(c, "invalid institution id")
		return
	}

	principal, err := GetPrincipalFromContext(c)
	if err != nil {
		abortUnauthorized(c, err.Error())
		return
	}

	grades, err := h.orgService.ListGrades(c.Request.Context(), institutionID, principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, grades)
}

// CreateSubject adds a subject to a grade
// @Summary Create subject
// @Tags subjects
// @Accept json
// @Produce json
// @Param subject body models.SubjectCreateRequest true "Subject"
// @Success 201 {object} models.Subject
// @Router /subjects [post]
func (h *OrganizationHandler) CreateSubject(c *gin.Context) {
	var req models.SubjectCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request payload")
		return
	}

	principal, err := GetPrincipalFromContext(c)
	if err != nil {
		abortUnauthorized(c, err.Error())
		return
	}

	subject, err := h.orgService.CreateSubject(c.Request.Context(), &req, principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, subject)
}

// ListSubjects lists a grade's subjects
// @Summary List subjects
// @Tags subjects
// @Produce json
// @Param id path int true "Grade ID"
// @Success 200 {array} models.Subject
// @Router /grades/{id}/subjects [get]
func (h *OrganizationHandler) ListSubjects(c *gin.Context) {
	gradeID, ok := parseIDParam(c, "id")
	if !ok {
		h.badRequest(c, "invalid grade id")
		return
	}

	principal, err := GetPrincipalFromContext(c)
	if err != nil {
		abortUnauthorized(c, err.Error())
		return
	}

	subjects, err := h.orgService.ListSubjects(c.Request.Context(), gradeID, principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, subjects)
}

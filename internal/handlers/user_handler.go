package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EduCore-2026/quiz-platform/internal/models"
	"github.com/EduCore-2026/quiz-platform/internal/services"
	"github.com/EduCore-2026/quiz-platform/internal/utils"
)

type UserHandler struct {
	BaseHandler
	userService services.UserService
}

func NewUserHandler(userService services.UserService, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: NewBaseHandler(logger),
		userService: userService,
	}
}

// GetMe returns the caller's own record
// @Summary Current user
// @Tags users
// @Produce json
// @Success 200 {object} models.User
// @Router /users/me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	user, err := GetUserFromContext(c)
	if err != nil {
		abortUnauthorized(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, user)
}

// GetUser returns a user by id
// @Summary Get user
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.User
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		h.badRequest(c, "invalid user id")
		return
	}

	principal, err := GetPrincipalFromContext(c)
	if err != nil {
		abortUnauthorized(c, err.Error())
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), id, principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateUser applies a partial update to a user
// @Summary Update user
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param user body models.UserUpdateRequest true "User update"
// @Success 200 {object} models.User
// @Router /users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		h.badRequest(c, "invalid user id")
		return
	}

	var req models.UserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request payload")
		return
	}

	principal, err := GetPrincipalFromContext(c)
	if err != nil {
		abortUnauthorized(c, err.Error())
		return
	}

	user, err := h.userService.Update(c.Request.Context(), id, &req, principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// ApproveUser approves a pending user
// @Summary Approve user
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.User
// @Router /users/{id}/approve [post]
func (h *UserHandler) ApproveUser(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		h.badRequest(c, "invalid user id")
		return
	}

	principal, err := GetPrincipalFromContext(c)
	if err != nil {
		abortUnauthorized(c, err.Error())
		return
	}

	user, err := h.userService.Approve(c.Request.Context(), id, principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// ListUsers lists users visible to the caller
// @Summary List users
// @Tags users
// @Produce json
// @Success 200 {object} models.PaginatedResponse
// @Router /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	principal, err := GetPrincipalFromContext(c)
	if err != nil {
		abortUnauthorized(c, err.Error())
		return
	}

	page, size := parsePagination(c)
	params := models.ListUsersParams{
		Page:          page,
		Size:          size,
		Role:          models.UserRole(c.Query("role")),
		InstitutionID: queryUint(c, "institution_id"),
		Approved:      queryBool(c, "approved"),
		Search:        c.Query("search"),
	}

	users, total, err := h.userService.List(c.Request.Context(), params, principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, paginated(users, total, page, size))
}

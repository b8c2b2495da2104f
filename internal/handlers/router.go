package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EduCore-2026/quiz-platform/internal/config"
	"github.com/EduCore-2026/quiz-platform/internal/models"
	"github.com/EduCore-2026/quiz-platform/internal/repositories"
	"github.com/EduCore-2026/quiz-platform/internal/services"
	"github.com/EduCore-2026/quiz-platform/internal/utils"
)

type HandlerManager struct {
	quizHandler    *QuizHandler
	attemptHandler *AttemptHandler
	orgHandler     *OrganizationHandler
	userHandler    *UserHandler
	authMiddleware *CasdoorAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	return &HandlerManager{
		quizHandler:    NewQuizHandler(serviceManager.Quiz(), serviceManager.Question(), logger),
		attemptHandler: NewAttemptHandler(serviceManager.Attempt(), serviceManager.Report(), logger),
		orgHandler:     NewOrganizationHandler(serviceManager.Organization(), logger),
		userHandler:    NewUserHandler(serviceManager.User(), logger),
		authMiddleware: NewCasdoorAuthMiddleware(casdoorConfig, userRepo),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	staffRoles := []models.UserRole{
		models.RoleGlobalContentCreator, models.RoleAdmin, models.RoleTeacher,
	}

	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		institutions := v1.Group("/institutions")
		{
			institutions.POST("", hm.orgHandler.CreateInstitution)
			institutions.GET("", hm.orgHandler.ListInstitutions)
			institutions.GET("/:id", hm.orgHandler.GetInstitution)
			institutions.POST("/:id/approve", hm.orgHandler.ApproveInstitution)
			institutions.DELETE("/:id", hm.orgHandler.DeleteInstitution)
			institutions.GET("/:id/grades", hm.orgHandler.ListGrades)
		}

		grades := v1.Group("/grades")
		{
			grades.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleGlobalContentCreator, models.RoleAdmin), hm.orgHandler.CreateGrade)
			grades.GET("/:id/subjects", hm.orgHandler.ListSubjects)
		}

		subjects := v1.Group("/subjects")
		{
			subjects.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleGlobalContentCreator, models.RoleAdmin), hm.orgHandler.CreateSubject)
		}

		quizzes := v1.Group("/quizzes")
		{
			quizzes.POST("", hm.authMiddleware.RequireRoleMiddleware(staffRoles...), hm.quizHandler.CreateQuiz)
			quizzes.GET("", hm.quizHandler.ListQuizzes)
			quizzes.GET("/:id", hm.quizHandler.GetQuiz)
			quizzes.GET("/:id/details", hm.quizHandler.GetQuizWithQuestions)
			quizzes.PUT("/:id", hm.authMiddleware.RequireRoleMiddleware(staffRoles...), hm.quizHandler.UpdateQuiz)
			quizzes.PUT("/:id/settings", hm.authMiddleware.RequireRoleMiddleware(staffRoles...), hm.quizHandler.UpdateQuizSettings)
			quizzes.DELETE("/:id", hm.authMiddleware.RequireRoleMiddleware(staffRoles...), hm.quizHandler.DeleteQuiz)

			quizzes.GET("/:id/questions", hm.quizHandler.ListQuestions)
			quizzes.POST("/:id/questions", hm.authMiddleware.RequireRoleMiddleware(staffRoles...), hm.quizHandler.AddQuestion)
			quizzes.PUT("/:id/questions/:question_id", hm.authMiddleware.RequireRoleMiddleware(staffRoles...), hm.quizHandler.UpdateQuestion)
			quizzes.DELETE("/:id/questions/:question_id", hm.authMiddleware.RequireRoleMiddleware(staffRoles...), hm.quizHandler.DeleteQuestion)

			quizzes.POST("/:id/attempts", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.attemptHandler.StartAttempt)
			quizzes.GET("/:id/attempts/active", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.attemptHandler.GetActiveAttempt)
			quizzes.GET("/:id/results", hm.attemptHandler.GetQuizResults)
			quizzes.GET("/:id/results/export", hm.authMiddleware.RequireRoleMiddleware(staffRoles...), hm.attemptHandler.ExportQuizResults)
		}

		attempts := v1.Group("/attempts")
		{
			attempts.GET("/:id", hm.attemptHandler.GetAttempt)
			attempts.POST("/:id/submit", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.attemptHandler.SubmitAttempt)
			attempts.GET("/student/:student_id", hm.authMiddleware.RequireRoleMiddleware(staffRoles...), hm.attemptHandler.GetAttemptsByStudent)
		}

		students := v1.Group("/students")
		students.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent))
		{
			students.GET("/me/attempts", hm.attemptHandler.GetMyAttempts)
		}

		users := v1.Group("/users")
		{
			users.GET("/me", hm.userHandler.GetMe)
			users.GET("", hm.userHandler.ListUsers)
			users.GET("/:id", hm.userHandler.GetUser)
			users.PUT("/:id", hm.userHandler.UpdateUser)
			users.POST("/:id/approve", hm.userHandler.ApproveUser)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "quiz-platform",
		})
	})
}

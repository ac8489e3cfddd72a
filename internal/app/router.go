package app

import (
	"lms_backend/docs"
	"lms_backend/internal/config"
	"lms_backend/internal/middleware"
	"lms_backend/internal/model"
	"lms_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		authGroup.GET("/profile", c.auth.GetProfile)

		// 课程与进度
		authGroup.GET("/courses", c.course.ListCourses)
		authGroup.GET("/courses/:id", c.course.GetCourse)
		authGroup.POST("/courses/:id/enroll", c.course.Enroll)
		authGroup.GET("/courses/:id/progress", c.course.GetProgress)
		authGroup.POST("/lessons/:id/complete", c.course.CompleteLesson)

		// 测验
		authGroup.GET("/lessons/:id/quiz", c.quiz.GetLessonQuiz)
		authGroup.POST("/quizzes/:id/submit", c.quiz.Submit)
		authGroup.GET("/quizzes/:id/attempts", c.quiz.MyAttempts)

		// 教师相关接口
		teacherGroup := authGroup.Group("/teacher")
		teacherGroup.Use(middleware.RoleMiddleware(model.Teacher))
		{
			teacherGroup.GET("/quizzes/:id/attempts", c.quiz.ListAttempts)
		}
	}
}

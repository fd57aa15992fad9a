package app

import (
	"practice_exam_backend/docs"
	"practice_exam_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	api := router.Group("/api")
	{
		api.GET("/health", c.health.HealthCheck)

		a.registerQuestionRoutes(api, c)
		a.registerExamRoutes(api, c)
	}
}

func (a *App) registerQuestionRoutes(api *gin.RouterGroup, c *controllers) {
	questions := api.Group("/questions")
	{
		questions.GET("/:examType", c.question.ListQuestions)
		questions.GET("/:examType/random/:count", c.question.RandomQuestions)
		questions.POST("", c.question.AddQuestion)
	}
}

func (a *App) registerExamRoutes(api *gin.RouterGroup, c *controllers) {
	exam := api.Group("/exam")
	{
		exam.POST("/start", c.exam.StartExam)
		exam.POST("/answer", c.exam.SubmitAnswer)
		exam.POST("/complete", c.exam.CompleteExam)
		exam.GET("/:sessionId", c.exam.GetSession)
		exam.GET("/:sessionId/questions", c.exam.SessionQuestions)
	}
}

package handlers

import (
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-reader-service/internal/services"
	"github.com/SAP-F-2025/exam-reader-service/internal/utils"
)

type HandlerManager struct {
	examHandler *ExamHandler
	logger      *slog.Logger
}

func NewHandlerManager(examService services.ExamService, logger *slog.Logger) *HandlerManager {
	return &HandlerManager{
		examHandler: NewExamHandler(examService, logger),
		logger:      logger,
	}
}

// NewRouter builds a gin engine with recovery, CORS, request ids, logging and every route
func (hm *HandlerManager) NewRouter() *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		cors.New(corsConfig()),
		utils.RequestID(),
		utils.ContextLogger(hm.logger),
		utils.LoggerMiddleware(hm.logger),
	)
	hm.SetupRoutes(router)
	return router
}

func corsConfig() cors.Config {
	return cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Authorization", utils.RequestIDHeader},
		ExposeHeaders:   []string{utils.RequestIDHeader, "Content-Disposition"},
		MaxAge:          12 * time.Hour,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		sheets := v1.Group("/sheets")
		{
			sheets.POST("/parse", hm.examHandler.ParseSheet)
			sheets.POST("/scan", hm.examHandler.ScanSheet)
		}

		grading := v1.Group("/grading")
		{
			grading.POST("/grade", hm.examHandler.GradeSheet)
			grading.POST("/batch", hm.examHandler.RunBatch)
		}

		v1.POST("/analytics", hm.examHandler.Analyze)

		runs := v1.Group("/runs")
		{
			runs.GET("", hm.examHandler.ListRuns)
			runs.DELETE("/:id", hm.examHandler.DeleteRun)
			runs.GET("/:id/analytics", hm.examHandler.GetRunAnalytics)
			runs.GET("/:id/export", hm.examHandler.ExportRun)
		}

		v1.GET("/exams/:id/runs", hm.examHandler.ListExamRuns)
		v1.DELETE("/cache/analytics", hm.examHandler.PurgeAnalyticsCache)
	}
}

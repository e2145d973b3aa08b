package router

import (
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"exam-mex-backend/internal/api"
	"exam-mex-backend/internal/ctxlog"
)

// requestLogger puts a logger tagged with the request into the request
// context and logs the outcome.
func requestLogger(base *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		logger := base.With("method", c.Request.Method, "path", c.FullPath())
		c.Request = c.Request.WithContext(ctxlog.WithLogger(c.Request.Context(), logger))

		c.Next()

		logger.Info("request handled", "status", c.Writer.Status(), "duration", time.Since(start))
	}
}

func SetupRouter(examHandler *api.ExamHandler, allowedOrigins []string, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	config := cors.DefaultConfig()
	config.AllowOrigins = allowedOrigins
	config.AllowHeaders = append(config.AllowHeaders, "Content-Type")
	r.Use(cors.New(config))

	apiV1 := r.Group("/api/v1")
	{
		apiV1.POST("/exams/xml", examHandler.GenerateXMLHandler)
		apiV1.POST("/exams/mex", examHandler.ConvertToMexHandler)
		apiV1.POST("/exams/mex/batch", examHandler.ConvertBatchHandler)
		apiV1.POST("/exams/master", examHandler.MasterXMLHandler)
		apiV1.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{"status": "UP"})
		})
	}

	return r
}

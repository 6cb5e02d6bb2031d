package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (s *Server) newRouter() *gin.Engine {
	r := gin.New()
	r.Use(zapLoggerMiddleware(s.logger), gin.Recovery())

	r.GET("/healthz", s.health)

	api := r.Group("/api/v1")
	api.GET("/taxonomies", s.taxonomies)
	api.POST("/analyze", s.analyze)

	sessions := api.Group("/sessions/:id")
	sessions.GET("", s.getSession)
	sessions.DELETE("", s.deleteSession)
	sessions.GET("/export", s.exportSession)
	sessions.POST("/chat", s.chat)
	sessions.POST("/cover-letter", s.coverLetter)
	sessions.POST("/refine", s.refine)
	sessions.POST("/interview/question", s.interviewQuestion)
	sessions.POST("/interview/answer", s.interviewAnswer)

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

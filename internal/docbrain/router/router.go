// Package router wires the docbrain HTTP routes.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/docbrain/internal/docbrain/biz"
	"github.com/kart-io/docbrain/internal/docbrain/handler"
	"github.com/kart-io/docbrain/internal/docbrain/middleware"
)

// Register registers all routes on the engine.
func Register(engine *gin.Engine, authSvc *biz.AuthService, docSvc *biz.DocumentService, ragSvc *biz.RAGService) {
	engine.Use(middleware.CORS())

	authHandler := handler.NewAuthHandler(authSvc)
	docHandler := handler.NewDocumentHandler(docSvc)
	queryHandler := handler.NewQueryHandler(ragSvc, authSvc)

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		// API-key authenticated, no session required.
		api.POST("/external/query", queryHandler.ExternalQuery)

		protected := api.Group("", middleware.Auth(authSvc))
		{
			protected.POST("/documents/upload", docHandler.Upload)
			protected.POST("/documents/text", docHandler.UploadText)
			protected.GET("/documents", docHandler.List)
			protected.POST("/query", queryHandler.Query)
		}
	}

	logger.Info("HTTP routes registered")
}

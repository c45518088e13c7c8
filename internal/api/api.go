// internal/api/api.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/driveup/internal/api/handlers"
	"github.com/andresuchdata/driveup/internal/api/middleware"
	"github.com/andresuchdata/driveup/internal/workflow"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func NewRouter(orchestrator *workflow.Orchestrator, states *StateStore, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			// the credential endpoint must not be readable from any origin with cookies
			corsConfig.AllowOrigins = nil
			corsConfig.AllowAllOrigins = true
			corsConfig.AllowCredentials = false
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := handlers.NewWorkflowHandler(orchestrator, states)

	apiGroup := router.Group("/api/v1")
	{
		apiGroup.GET("/state", h.GetState)

		filesGroup := apiGroup.Group("/files")
		{
			filesGroup.GET("", h.ListFiles)
			filesGroup.POST("/download", h.Download)
			filesGroup.POST("/compress", h.Compress)
			filesGroup.POST("/select", h.SelectFile)
			filesGroup.DELETE("/:name", h.DeleteFile)
		}

		credentialGroup := apiGroup.Group("/credential")
		{
			credentialGroup.GET("", h.GetCredential)
			credentialGroup.POST("", h.UploadCredential)
			credentialGroup.POST("/toggle", h.ToggleCredential)
		}

		apiGroup.POST("/auth", h.Authenticate)

		foldersGroup := apiGroup.Group("/folders")
		{
			foldersGroup.GET("", h.ListFolders)
			foldersGroup.POST("/select", h.SelectFolder)
		}

		apiGroup.POST("/upload", h.Upload)
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}

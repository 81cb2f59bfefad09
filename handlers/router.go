package handlers

import (
	"log/slog"

	"github.com/Skryldev/edu-platform/middleware"
	"github.com/gin-gonic/gin"
)

// NewRouter registers the API routes.
func NewRouter(users *UserHandler, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger))

	user := router.Group("/user")
	user.POST("/", users.CreateUser)

	return router
}

package handlers

import (
	"github.com/gin-gonic/gin"

	"taskboard/pkg/auth"
)

func RegisterRoutes(r *gin.Engine, authHandler *AuthHandler, taskHandler *TaskHandler, subTaskHandler *SubTaskHandler, users auth.UserRepository, jwtSecret string, attachmentDir string) {
	api := r.Group("/api")

	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("", auth.Middleware(users, jwtSecret))

	authed.POST("/tasks", taskHandler.Create)
	authed.GET("/tasks", taskHandler.List)
	authed.GET("/tasks/:id", taskHandler.Get)
	authed.PUT("/tasks/:id", taskHandler.Update)
	authed.DELETE("/tasks/:id", taskHandler.Delete)
	authed.POST("/tasks/:id/attachment", taskHandler.UploadAttachment)

	authed.POST("/tasks/:id/subtasks", subTaskHandler.Create)
	authed.GET("/tasks/:id/subtasks", subTaskHandler.ListByTask)
	authed.PUT("/subtasks/:id", subTaskHandler.Update)
	authed.DELETE("/subtasks/:id", subTaskHandler.Delete)

	r.Static("/attachments", attachmentDir)
}

package http

import (
	"github.com/gin-gonic/gin"

	"studymate/internal/bootstrap"
	"studymate/internal/transport/http/handler"
	"studymate/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.MaxMultipartMemory = app.Config.MaxUploadBytes()

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	documentHandler := handler.NewDocumentHandler(app.DocumentService, app.Config.MaxUploadBytes())
	chatHandler := handler.NewChatHandler(app.ChatService)
	studyHandler := handler.NewStudyHandler(app.StudyService)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))

	documents := v1.Group("/documents")
	documents.POST("", documentHandler.Upload)
	documents.POST("/text", documentHandler.CreateText)
	documents.GET("", documentHandler.List)
	documents.GET("/:id", documentHandler.Get)
	documents.DELETE("/:id", documentHandler.Delete)
	documents.POST("/:id/reindex", documentHandler.Reindex)
	documents.POST("/:id/summary", studyHandler.Summarize)
	documents.POST("/:id/questions", studyHandler.GenerateQuestions)

	chat := v1.Group("/chat")
	chat.POST("", chatHandler.Ask)
	chat.GET("/conversations", chatHandler.ListConversations)
	chat.GET("/conversations/:id/messages", chatHandler.GetHistory)
	chat.DELETE("/conversations/:id", chatHandler.DeleteConversation)

	v1.GET("/questions", studyHandler.ListQuestions)
	v1.POST("/retrieve", studyHandler.Retrieve)

	return router
}

package http

import (
	"github.com/gin-gonic/gin"

	"docassist/internal/bootstrap"
	"docassist/internal/transport/http/handler"
	"docassist/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	documentHandler := handler.NewDocumentHandler(app.DocumentService)
	searchHandler := handler.NewSearchHandler(app.SearchService)
	chatHandler := handler.NewChatHandler(app.ChatService)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))

	docs := v1.Group("/documents")
	docs.POST("", documentHandler.Upload)
	docs.GET("", documentHandler.List)
	docs.GET("/:id", documentHandler.Get)
	docs.DELETE("/:id", documentHandler.Delete)
	docs.POST("/:id/process", documentHandler.Process)

	v1.POST("/search", searchHandler.Search)
	v1.POST("/chat/ask", chatHandler.Ask)

	return router
}

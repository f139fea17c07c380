package http

import (
	"time"

	"github.com/gin-gonic/gin"

	appsvc "smartstudy/internal/app"
	"smartstudy/internal/bootstrap"
	"smartstudy/internal/cache"
	"smartstudy/internal/platform/rabbitmq"
	"smartstudy/internal/repository"
	"smartstudy/internal/transport/http/handler"
	"smartstudy/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.MySQL)
	docRepo := repository.NewDocumentRepository(app.MySQL)
	chatRepo := repository.NewChatMessageRepository(app.MySQL)
	quizRepo := repository.NewQuizAttemptRepository(app.MySQL)

	historyCache := cache.NewHistoryCache(
		app.Redis,
		time.Duration(app.Config.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(app.Config.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)
	publisher := rabbitmq.NewMessagePublisher(app.MQConn, app.Config.RabbitMQ.MessagePersistQueue)

	authService := appsvc.NewAuthService(
		userRepo,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)
	studyService := appsvc.NewStudyService(
		docRepo,
		chatRepo,
		quizRepo,
		publisher,
		historyCache,
		app.Uploads,
		app.Vectors,
		app.Embedder,
		app.Generator,
		app.Splitter,
		app.Config.Chunking.TopK,
	)

	authHandler := handler.NewAuthHandler(authService)
	documentHandler := handler.NewDocumentHandler(studyService, app.Config.Uploads.MaxSizeMB)
	chatHandler := handler.NewChatHandler(studyService)
	quizHandler := handler.NewQuizHandler(studyService)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", middleware.AuthJWT(app.Config.Auth.JWTSecret), authHandler.Me)

	docGroup := v1.Group("/documents")
	docGroup.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	docGroup.POST("", documentHandler.Upload)
	docGroup.GET("", documentHandler.List)
	docGroup.DELETE("/:filename", documentHandler.Delete)

	chatGroup := v1.Group("/chat")
	chatGroup.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	chatGroup.POST("/stream", chatHandler.Stream)
	chatGroup.GET("/history", chatHandler.GetHistory)

	quizGroup := v1.Group("/quiz")
	quizGroup.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	quizGroup.POST("", quizHandler.Generate)
	quizGroup.POST("/:id/score", quizHandler.SubmitScore)
	quizGroup.GET("/attempts", quizHandler.ListAttempts)

	return router
}

package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/studycrew/studyroom_backend/controllers"
	"github.com/studycrew/studyroom_backend/database"
	"github.com/studycrew/studyroom_backend/docs"
	"github.com/studycrew/studyroom_backend/middleware"
	"github.com/studycrew/studyroom_backend/occupancy"
	"github.com/studycrew/studyroom_backend/video"
	"github.com/studycrew/studyroom_backend/websocket"
)

// @title           Study Room API
// @version         1.0
// @description     API Server for the study room platform
// @host            localhost:8080
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("GIN_MODE") != "release" {
		zlog.Logger = zlog.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		zlog.Info().Msg("No .env file found, using system environment variables")
	}

	// Initialize database
	database.Connect()
	database.Migrate()

	// Video backend wiring
	issuer, err := video.NewIssuer(os.Getenv("VIDEO_API_KEY"), os.Getenv("VIDEO_API_SECRET"))
	if err != nil {
		zlog.Fatal().Err(err).Msg("video issuer configuration")
	}

	adminURL := os.Getenv("VIDEO_ADMIN_URL")
	if adminURL == "" {
		adminURL = "http://localhost:7880"
	}
	clientURL := os.Getenv("VIDEO_CLIENT_URL")
	if clientURL == "" {
		clientURL = "ws://localhost:7880"
	}
	videoClient := video.NewClient(adminURL, issuer)

	coordinator := occupancy.NewCoordinator(
		database.DB,
		video.IdentityScheme{},
		videoClient,
		websocket.HubNotifier{},
	)
	controllers.Setup(coordinator, issuer, clientURL)

	// Set up Swagger info
	docs.SwaggerInfo.Title = "Study Room API"
	docs.SwaggerInfo.Description = "API Server for the study room platform"
	docs.SwaggerInfo.Version = "1.0"
	docs.SwaggerInfo.Host = "localhost:" + os.Getenv("PORT")
	if docs.SwaggerInfo.Host == "localhost:" {
		docs.SwaggerInfo.Host = "localhost:8080"
	}
	docs.SwaggerInfo.BasePath = "/"
	docs.SwaggerInfo.Schemes = []string{"http"}

	// Set up router
	router := gin.Default()

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Authentication routes
	auth := router.Group("/api")
	{
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)
	}

	// Protected routes
	api := router.Group("/api")
	api.Use(middleware.JWTAuth())
	{
		// Room routes
		api.GET("/rooms", controllers.GetRooms)
		api.POST("/rooms", controllers.CreateRoom)
		api.GET("/rooms/:id", controllers.GetRoom)
		api.PUT("/rooms/:id", controllers.UpdateRoom)
		api.DELETE("/rooms/:id", controllers.DeleteRoom)

		// Session routes
		api.POST("/rooms/:id/join", controllers.JoinRoom)
		api.POST("/rooms/:id/rejoin", controllers.RejoinRoom)
		api.POST("/rooms/:id/leave", controllers.LeaveRoom)

		// Moderation routes
		api.POST("/rooms/:id/mute", controllers.MuteParticipant)
		api.POST("/rooms/:id/ban", controllers.BanParticipant)
	}

	// Video backend lifecycle webhook
	router.POST("/webhooks/video", controllers.VideoWebhook)

	// WebSocket route
	router.GET("/ws", websocket.HandleConnection)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	zlog.Info().Str("port", port).Msg("server running")
	if err := router.Run(":" + port); err != nil {
		zlog.Fatal().Err(err).Msg("failed to start server")
	}
}

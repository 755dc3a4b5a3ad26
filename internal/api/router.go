package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"foodshare/internal/auth"
	"foodshare/internal/config"
	"foodshare/internal/database"
	"foodshare/internal/handlers"
	"foodshare/internal/notify"
	"foodshare/internal/websocket"
)

func SetupRouter(db *database.DB, cfg *config.Config, hub *websocket.Hub, notifier *notify.Notifier) *gin.Engine {
	router := gin.Default()

	// CORS open to all origins; tightening is left to the deployment proxy
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	jwtManager := auth.NewJWTManager(cfg.JWT)

	authHandler := handlers.NewAuthHandler(db, jwtManager)
	userHandler := handlers.NewUserHandler(db)
	productHandler := handlers.NewProductHandler(db)
	claimHandler := handlers.NewClaimHandler(db, notifier)
	groupHandler := handlers.NewGroupHandler(db)
	notificationHandler := handlers.NewNotificationHandler(db)
	wsHandler := handlers.NewWebSocketHandler(hub)

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "msg": "API running"})
	})

	api := router.Group("/api")
	{
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
		}

		// Product listing is public
		api.GET("/products", productHandler.GetProducts)
	}

	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(jwtManager))
	{
		users := protected.Group("/users")
		{
			users.GET("", userHandler.GetUsers)
			users.GET("/profile", userHandler.GetProfile)
		}

		products := protected.Group("/products")
		{
			products.POST("", productHandler.CreateProduct)
			products.PUT("/:id", productHandler.UpdateProduct)
			products.DELETE("/:id", productHandler.DeleteProduct)
			products.POST("/:id/claim", claimHandler.SubmitClaim)
		}

		claims := protected.Group("/claims")
		{
			claims.GET("/incoming", claimHandler.GetIncomingClaims)
			claims.GET("/my-claims", claimHandler.GetMyClaims)
			claims.PUT("/:id", claimHandler.ResolveClaim)
		}

		groups := protected.Group("/groups")
		{
			groups.POST("", groupHandler.CreateGroup)
			groups.GET("/my-groups", groupHandler.GetMyGroups)
			groups.POST("/:id/invite", groupHandler.InviteMember)
			groups.GET("/:id/members", groupHandler.GetMembers)
			groups.PUT("/:id/preferences", groupHandler.UpdatePreferences)
		}

		notifications := protected.Group("/notifications")
		{
			notifications.GET("", notificationHandler.GetNotifications)
			notifications.PUT("/:id/read", notificationHandler.MarkAsRead)
		}

		ws := protected.Group("/ws")
		{
			ws.GET("", wsHandler.HandleWebSocket)
			ws.GET("/online", wsHandler.GetOnlineUsers)
		}
	}

	return router
}

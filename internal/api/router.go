// Package api builds the HTTP surface: REST routes, realtime transports and
// the metrics endpoint, all on one gin engine.
package api

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/rajankumarrkr/sukoon/internal/api/handlers"
	"github.com/rajankumarrkr/sukoon/internal/api/middleware"
)

// RouterDeps are the components mounted on the router. Nil transports and a
// nil Metrics handler are skipped.
type RouterDeps struct {
	AllowedOrigins []string
	Verifier       middleware.TokenVerifier
	Notifications  handlers.NotificationStore
	Profiles       handlers.ProfileStore
	Calls          handlers.StatsSource

	SocketIOPath string
	SocketIO     gin.HandlerFunc
	SimplePath   string
	Simple       gin.HandlerFunc
	Metrics      http.Handler
}

// NewRouter wires all routes.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     deps.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))
	router.Use(middleware.LoggingMiddleware())

	notificationHandler := handlers.NewNotificationHandler(deps.Notifications)
	callHandler := handlers.NewCallHandler(deps.Calls)
	userHandler := handlers.NewUserHandler(deps.Profiles)

	api := router.Group("/api")
	{
		api.GET("/health", handlers.Health)
	}

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(deps.Verifier))
	{
		protected.GET("/notifications", notificationHandler.ListNotifications)
		protected.PUT("/notifications/mark-read", notificationHandler.MarkRead)
		protected.GET("/calls/debug", callHandler.Debug)
		protected.PUT("/users/me", userHandler.UpdateProfile)
	}

	// Realtime endpoints authenticate during their own handshake.
	if deps.SocketIO != nil {
		base := strings.TrimSuffix(deps.SocketIOPath, "/")
		router.Any(base, deps.SocketIO)
		router.Any(base+"/*any", deps.SocketIO)
	}
	if deps.Simple != nil {
		router.GET(deps.SimplePath, deps.Simple)
	}
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics))
	}
	return router
}

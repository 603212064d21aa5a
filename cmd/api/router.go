package main

import (
	"github.com/gin-gonic/gin"

	"cardvault-backend/internal/shared/authz"
	"cardvault-backend/internal/shared/middleware"
	"cardvault-backend/pkg/container"
)

// SetupRouter wires every route the service exposes under /api,
// including the legacy dual card-lookup endpoints kept for backward
// compatibility.
func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.ClientIPMiddleware(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		middleware.ResponseTime(),
		middleware.ErrorMapper(),
		middleware.AuthMiddleware(c.JWTManager),
		middleware.RateLimit(c.RateLimit),
	)

	api := router.Group("/api")
	{
		api.GET("/health", c.Health.Handle)

		setupAuthRoutes(api, c)
		setupCardRoutes(api, c)
		setupArchetypeRoutes(api, c)
		setupDeckRoutes(api, c)
		setupUserRoutes(api, c)
	}

	return router
}

func setupAuthRoutes(api *gin.RouterGroup, c *container.Container) {
	auth := api.Group("/auth")
	{
		auth.POST("/login", c.AuthHandler.Login)
		auth.POST("/refresh", c.AuthHandler.Refresh)
		auth.POST("/logout", c.AuthHandler.Logout)
		auth.GET("/user", c.AuthHandler.CurrentUser)
	}
}

func setupUserRoutes(api *gin.RouterGroup, c *container.Container) {
	users := api.Group("/users")
	users.Use(middleware.RequireAuth(), middleware.RequireAdmin())
	{
		users.GET("", c.AuthHandler.ListUsers)
	}
}

func setupCardRoutes(api *gin.RouterGroup, c *container.Container) {
	cards := api.Group("/cards")
	{
		cards.GET("", c.CatalogHandler.ListCards)
		cards.GET("/by-name", c.CatalogHandler.GetByName)
		cards.GET("/:name", c.CatalogHandler.GetLegacy)

		admin := cards.Group("")
		admin.Use(middleware.RequireAuth(), middleware.RequireRole(authz.RoleAdmin))
		{
			admin.POST("", c.CatalogHandler.CreateCard)
			admin.PUT("/:name", c.CatalogHandler.UpdateCard)
			admin.PATCH("/:name", c.CatalogHandler.UpdateCard)
			admin.DELETE("/:name", c.CatalogHandler.DeleteCard)

			admin.POST("/cache/clear", c.CatalogHandler.ClearCache)
			admin.GET("/cache/stats", c.CatalogHandler.CacheStats)
			admin.POST("/batch/warmup-cache", c.CatalogHandler.WarmupCache)
			admin.POST("/batch/statistics", c.CatalogHandler.BatchStatistics)
			admin.POST("/run-batch-job", c.CatalogHandler.RunBatchJob)
			admin.POST("/async-reload", c.CatalogHandler.AsyncReload)
			admin.POST("/publish-event", c.CatalogHandler.PublishEvent)
			admin.POST("/queue/:queue/:op", c.CatalogHandler.QueueOperation)
			admin.POST("/notification/send", c.CatalogHandler.SendNotification)
		}
	}
}

func setupArchetypeRoutes(api *gin.RouterGroup, c *container.Container) {
	archetypes := api.Group("/archetypes")
	{
		archetypes.GET("", c.CatalogHandler.ListArchetypes)
		archetypes.GET("/:id", c.CatalogHandler.GetArchetype)
	}
}

func setupDeckRoutes(api *gin.RouterGroup, c *container.Container) {
	decks := api.Group("/decks")
	decks.Use(middleware.RequireAuth())
	{
		decks.GET("", c.DeckHandler.ListDecks)
		decks.GET("/:id", c.DeckHandler.GetDeck)
		decks.POST("", c.DeckHandler.CreateDeck)
		decks.PUT("/:id", c.DeckHandler.UpdateDeck)
		decks.DELETE("/:id", c.DeckHandler.DeleteDeck)
		decks.POST("/:id/cards/:cardName", c.DeckHandler.AddCard)
		decks.DELETE("/:id/cards/:cardName", c.DeckHandler.RemoveCard)
	}
}

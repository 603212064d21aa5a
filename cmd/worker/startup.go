package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"cardvault-backend/pkg/container"
)

// startHealthCheckServer exposes the same DB/coordination-store probe
// the API serves, so an orchestrator can liveness-check the worker
// process independently of the HTTP API.
func startHealthCheckServer(c *container.Container) {
	router := gin.New()
	router.GET("/health", c.Health.Handle)

	log.Println("[health] worker health endpoint starting on :9999")
	if err := router.Run(":9999"); err != nil {
		log.Printf("[health] failed to start: %v", err)
	}
}

// cmd/worker/main.go runs the background half of the service: the C6
// queue dispatcher poll loop and an asynq-scheduled sweep of expired
// or revoked refresh tokens.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"cardvault-backend/pkg/container"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	c, err := container.New(ctx)
	cancel()
	if err != nil {
		log.Fatalf("[container] failed to initialize: %v", err)
	}
	defer c.Cleanup()

	dispatcherCtx, stopDispatcher := context.WithCancel(context.Background())
	c.Dispatcher.Start(dispatcherCtx)
	log.Println("[dispatcher] poll loop started")

	srv := setupAsynqServer(c)
	scheduler := setupScheduler(c)
	go startHealthCheckServer(c)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("[shutdown] gracefully stopping...")
	stopDispatcher()
	c.Dispatcher.Stop()
	scheduler.Shutdown()
	srv.Shutdown()
	log.Println("[shutdown] stopped")
}

package main

import (
	"context"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"cardvault-backend/pkg/container"
)

// asynqServer wraps asynq.Server with a bounded shutdown.
type asynqServer struct {
	*asynq.Server
}

func setupAsynqServer(c *container.Container) *asynqServer {
	mux := asynq.NewServeMux()
	mux.Handle(TypeCleanupExpiredTokens, &cleanupHandler{auth: c.AuthService})

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: c.Config.Redis.Host, Password: c.Config.Redis.Password, DB: c.Config.Redis.DB},
		asynq.Config{
			Queues: map[string]int{
				"default": 10,
			},
			Concurrency: 5,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("[asynq] task failed - type: %s, error: %v", task.Type(), err)
			}),
		},
	)

	go func() {
		log.Println("[asynq] server starting")
		if err := srv.Run(mux); err != nil {
			log.Fatalf("[asynq] server failed: %v", err)
		}
	}()

	return &asynqServer{Server: srv}
}

func (s *asynqServer) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	s.Server.Shutdown()
	<-ctx.Done()
}

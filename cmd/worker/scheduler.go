package main

import (
	"log"

	"github.com/hibiken/asynq"

	"cardvault-backend/pkg/container"
)

// asynqScheduler wraps asynq.Scheduler to enqueue the cleanup task on
// a cron schedule.
type asynqScheduler struct {
	*asynq.Scheduler
}

func setupScheduler(c *container.Container) *asynqScheduler {
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{Addr: c.Config.Redis.Host, Password: c.Config.Redis.Password, DB: c.Config.Redis.DB},
		nil,
	)

	task := asynq.NewTask(TypeCleanupExpiredTokens, nil)
	if _, err := scheduler.Register("0 * * * *", task); err != nil {
		log.Fatalf("[scheduler] failed to register cleanup job: %v", err)
	}

	go func() {
		log.Println("[scheduler] starting")
		if err := scheduler.Run(); err != nil {
			log.Fatalf("[scheduler] failed: %v", err)
		}
	}()

	return &asynqScheduler{Scheduler: scheduler}
}

func (s *asynqScheduler) Shutdown() {
	log.Println("[scheduler] shutting down")
	s.Scheduler.Shutdown()
}

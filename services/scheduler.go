// services/scheduler.go
package services

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartReconcileScheduler runs a safety-net reconcile pass every minute, so
// expired bounties get closed even when no one is reading. Reads still
// reconcile eagerly; this only narrows the window in which the persisted
// status lags the computed one.
func (s *LifecycleService) StartReconcileScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			if closed := s.Reconcile(context.Background()); closed > 0 {
				log.Printf("[Scheduler] closed %d expired bounties", closed)
			}
		}),
	)
}

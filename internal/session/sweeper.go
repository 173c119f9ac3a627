package session

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// StartSweeper schedules periodic removal of idle in-memory sessions.  The
// Redis store relies on key TTLs instead and needs no sweeper.  Callers stop
// the returned scheduler on shutdown.
func StartSweeper(store *MemoryStore, schedule string, maxIdle time.Duration, now func() time.Time) (*cron.Cron, error) {
	sched := cron.New()
	_, err := sched.AddFunc(schedule, func() {
		if n := store.Sweep(now(), maxIdle); n > 0 {
			zap.L().Info("swept idle sessions", zap.Int("removed", n), zap.Int("remaining", store.Len()))
		}
	})
	if err != nil {
		return nil, err
	}
	sched.Start()
	return sched, nil
}

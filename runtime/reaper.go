package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pairchat/contract"
	"pairchat/domain/event"
	"pairchat/observability"
	"pairchat/repositories"
)

// Reaper proactively deletes expired messages on a fixed interval and
// publishes a deletion event for every removed id. The store's native TTL
// already guarantees physical removal; the reaper exists so that connected
// subscribers learn about it. A failed tick is logged and isolated, the next
// scheduled tick proceeds independently.
type Reaper struct {
	log        *slog.Logger
	repository repositories.IMessageRepository
	publisher  contract.Publisher
	stats      *observability.Stats
	interval   time.Duration
}

func NewReaper(log *slog.Logger, repository repositories.IMessageRepository,
	publisher contract.Publisher, stats *observability.Stats, interval time.Duration) *Reaper {
	return &Reaper{
		log:        log,
		repository: repository,
		publisher:  publisher,
		stats:      stats,
		interval:   interval,
	}
}

// Run sweeps until the context is cancelled.
func (r *Reaper) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			r.Tick(now.UTC())
		case <-ctx.Done():
			r.log.Debug("Context done, stopping reaper")
			return nil
		}
	}
}

// Tick performs a single sweep. Exposed so the sweep is testable without a
// running ticker.
func (r *Reaper) Tick(now time.Time) {
	removed, err := r.repository.DeleteExpired(now)
	r.stats.ReaperTick()
	if err != nil {
		r.log.Error("Expiry sweep failed", "error", err)
		return
	}
	if len(removed) == 0 {
		return
	}
	r.log.Info(fmt.Sprintf("Expiry sweep removed %d message(s)", len(removed)))
	for _, id := range removed {
		r.publisher.Publish(event.MessageDeleted{ID: id, DeletedAt: now})
	}
}

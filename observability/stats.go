// Package observability aggregates live process counters for the health
// probe. It is deliberately small: atomic counters plus a snapshot, no
// background collection.
package observability

import (
	"runtime"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/mem"
)

type Stats struct {
	started time.Time

	messagesCreated uint64
	messagesDeleted uint64
	eventsDelivered uint64
	reaperTicks     uint64
}

func NewStats() *Stats {
	return &Stats{started: time.Now().UTC()}
}

func (s *Stats) MessageCreated() { atomic.AddUint64(&s.messagesCreated, 1) }
func (s *Stats) MessageDeleted() { atomic.AddUint64(&s.messagesDeleted, 1) }
func (s *Stats) EventDelivered() { atomic.AddUint64(&s.eventsDelivered, 1) }
func (s *Stats) ReaperTick()     { atomic.AddUint64(&s.reaperTicks, 1) }

func (s *Stats) CreatedCount() uint64 { return atomic.LoadUint64(&s.messagesCreated) }
func (s *Stats) DeletedCount() uint64 { return atomic.LoadUint64(&s.messagesDeleted) }

// Snapshot gathers counters, runtime and system memory figures for the
// health endpoint. Memory probing failures degrade to a partial snapshot.
func (s *Stats) Snapshot() map[string]any {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	snapshot := map[string]any{
		"uptime":           time.Since(s.started).Round(time.Second).String(),
		"messages_created": atomic.LoadUint64(&s.messagesCreated),
		"messages_deleted": atomic.LoadUint64(&s.messagesDeleted),
		"events_delivered": atomic.LoadUint64(&s.eventsDelivered),
		"reaper_ticks":     atomic.LoadUint64(&s.reaperTicks),
		"goroutines":       runtime.NumGoroutine(),
		"alloc_mb":         ms.Alloc / 1024 / 1024,
		"num_gc":           ms.NumGC,
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		snapshot["sys_mem_used_percent"] = vm.UsedPercent
	}
	return snapshot
}

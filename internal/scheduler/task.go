package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/thoreinstein/arx/internal/compress"
	"github.com/thoreinstein/arx/internal/engine"
)

// TaskKind distinguishes how a task is triggered.
type TaskKind int

const (
	// Interval tasks fire on a fixed cadence.
	Interval TaskKind = iota
	// Realtime tasks fire on filesystem changes under their source,
	// debounced to one backup per quiet period.
	Realtime
)

// String returns the task kind name.
func (k TaskKind) String() string {
	switch k {
	case Interval:
		return "interval"
	case Realtime:
		return "realtime"
	default:
		return "unknown"
	}
}

// TaskInfo is a read-only snapshot of a registered task.
type TaskInfo struct {
	ID        int
	Kind      TaskKind
	Src       string
	Dst       string
	Prefix    string
	KeepCount int
	Interval  time.Duration
	Algorithm compress.Algorithm
	Encrypted bool
}

// task is the scheduler's internal task record. Configuration fields are
// guarded by the scheduler mutex; the engine carries its own lock.
type task struct {
	id        int
	kind      TaskKind
	src       string
	dst       string
	prefix    string
	keepCount int
	interval  time.Duration

	// Each task owns its engine so password and algorithm changes are
	// scoped to the one task.
	engine    *engine.Engine
	algorithm compress.Algorithm
	encrypted bool

	// runMu enforces only-one-active-trigger-per-task.
	runMu sync.Mutex

	// cancel stops this task's runner goroutine. Nil until the runner
	// is launched.
	cancel context.CancelFunc

	// watcher is set for realtime tasks; a failed watch fails
	// registration up front. Stop closes and clears it, Start rebuilds
	// it, so across a restart the task keeps firing on changes.
	watcher *fsnotify.Watcher
}

func (t *task) info() TaskInfo {
	return TaskInfo{
		ID:        t.id,
		Kind:      t.kind,
		Src:       t.src,
		Dst:       t.dst,
		Prefix:    t.prefix,
		KeepCount: t.keepCount,
		Interval:  t.interval,
		Algorithm: t.algorithm,
		Encrypted: t.encrypted,
	}
}

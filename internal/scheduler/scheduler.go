package scheduler

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/thoreinstein/arx/internal/compress"
	"github.com/thoreinstein/arx/internal/engine"
	"github.com/thoreinstein/arx/internal/errors"
	"github.com/thoreinstein/arx/internal/filter"
	"github.com/thoreinstein/arx/internal/logging"
	"github.com/thoreinstein/arx/internal/retention"
)

// DefaultDebounce is the quiet period a realtime task waits after the
// last filesystem event before firing a backup.
const DefaultDebounce = 2 * time.Second

// Scheduler owns a registry of backup tasks and runs them on background
// goroutines: interval tasks on a ticker, realtime tasks on a filesystem
// watch. Construct with New, then Start; Stop halts every trigger and
// waits for in-flight backups to finish. All methods are safe for
// concurrent use.
type Scheduler struct {
	mu      sync.Mutex
	tasks   map[int]*task
	nextID  int
	running bool
	ctx     context.Context
	cancel  context.CancelFunc

	wg       sync.WaitGroup
	logger   *slog.Logger
	debounce time.Duration

	// destLocks serializes backup+prune per dst|prefix so two tasks
	// sharing a destination cannot race the retention listing.
	destMu    sync.Mutex
	destLocks map[string]*sync.Mutex
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger for trigger diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithDebounce sets the realtime quiet period.
func WithDebounce(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// New creates a Scheduler. It does not run anything until Start.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		tasks:     make(map[int]*task),
		nextID:    1,
		logger:    logging.Default(),
		debounce:  DefaultDebounce,
		destLocks: make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddScheduledTask registers an interval task that backs up src into dst
// every interval, then prunes archives with the given prefix down to
// keepCount. Returns the new task id.
func (s *Scheduler) AddScheduledTask(src, dst, prefix string, interval time.Duration, keepCount int) (int, error) {
	if interval <= 0 {
		return 0, errors.Newf("interval must be positive, got %s", interval)
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return 0, errors.Wrapf(err, "creating destination %s", dst)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.register(Interval, src, dst, prefix, keepCount)
	t.interval = interval
	if s.running {
		s.launch(t)
	}
	s.logger.Info("task registered", "task", t.id, "kind", t.kind.String(), "src", src, "interval", interval)
	return t.id, nil
}

// AddRealtimeTask registers a task that backs up src into dst whenever
// the filesystem under src changes, debounced. Registration fails if the
// filesystem watch cannot be established; no half-functional task is left
// behind.
func (s *Scheduler) AddRealtimeTask(src, dst, prefix string, keepCount int) (int, error) {
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return 0, errors.Wrapf(err, "creating destination %s", dst)
	}

	watcher, err := newTreeWatcher(src)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.register(Realtime, src, dst, prefix, keepCount)
	t.watcher = watcher
	if s.running {
		s.launch(t)
	}
	s.logger.Info("task registered", "task", t.id, "kind", t.kind.String(), "src", src)
	return t.id, nil
}

// register allocates an id and stores the task. Caller holds s.mu.
func (s *Scheduler) register(kind TaskKind, src, dst, prefix string, keepCount int) *task {
	t := &task{
		id:        s.nextID,
		kind:      kind,
		src:       src,
		dst:       dst,
		prefix:    prefix,
		keepCount: keepCount,
		algorithm: compress.Huffman,
		engine:    engine.New(engine.WithLogger(s.logger)),
	}
	s.nextID++
	s.tasks[t.id] = t
	return t
}

// SetTaskPassword sets the password used for the task's subsequent
// archives. Already-produced archives are unaffected.
func (s *Scheduler) SetTaskPassword(id int, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return errors.Wrapf(errors.ErrTaskNotFound, "id %d", id)
	}
	t.engine.SetPassword(password)
	t.encrypted = password != ""
	return nil
}

// SetTaskCompressionAlgorithm sets the algorithm for the task's
// subsequent archives.
func (s *Scheduler) SetTaskCompressionAlgorithm(id int, algo compress.Algorithm) error {
	if !algo.Valid() {
		return errors.Newf("unknown compression algorithm %d", algo)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return errors.Wrapf(errors.ErrTaskNotFound, "id %d", id)
	}
	t.engine.SetCompressionAlgorithm(algo)
	t.algorithm = algo
	return nil
}

// SetTaskFilter sets the file selection rules for the task's subsequent
// archives. A malformed regex is rejected here, not at trigger time.
func (s *Scheduler) SetTaskFilter(id int, opts filter.Options) error {
	if _, err := filter.New(opts); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return errors.Wrapf(errors.ErrTaskNotFound, "id %d", id)
	}
	t.engine.SetFilter(opts)
	return nil
}

// RemoveTask unregisters a task and stops its trigger. Removing an
// unknown id is a no-op.
func (s *Scheduler) RemoveTask(id int) {
	s.mu.Lock()
	t, ok := s.tasks[id]
	if ok {
		delete(s.tasks, id)
	}
	s.mu.Unlock()
	if !ok {
		return
	}

	if t.cancel != nil {
		t.cancel()
	}
	if t.watcher != nil {
		_ = t.watcher.Close()
	}
	s.logger.Info("task removed", "task", id)
}

// Tasks returns snapshots of all registered tasks, ordered by id.
func (s *Scheduler) Tasks() []TaskInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]TaskInfo, 0, len(s.tasks))
	for _, t := range s.tasks {
		infos = append(infos, t.info())
	}
	slices.SortFunc(infos, func(a, b TaskInfo) int { return a.ID - b.ID })
	return infos
}

// Start brings up the execution substrate: a runner goroutine per
// registered task, and one for each task added later. Watches torn down
// by a previous Stop are re-established first, so a restarted scheduler
// serves its realtime tasks again. Calling Start on a running scheduler
// is a no-op. On error no runner has been launched; watchers already
// re-established stay with their tasks for the next attempt.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	for _, t := range s.tasks {
		if t.kind != Realtime || t.watcher != nil {
			continue
		}
		watcher, err := newTreeWatcher(t.src)
		if err != nil {
			return errors.Wrapf(err, "re-establishing watch for task %d", t.id)
		}
		t.watcher = watcher
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.running = true

	for _, t := range s.tasks {
		s.launch(t)
	}
	s.logger.Info("scheduler started", "tasks", len(s.tasks))
	return nil
}

// launch starts the runner goroutine for a task. Caller holds s.mu and
// the scheduler is running.
func (s *Scheduler) launch(t *task) {
	ctx, cancel := context.WithCancel(s.ctx)
	t.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		switch t.kind {
		case Interval:
			s.runInterval(ctx, t)
		case Realtime:
			s.runRealtime(ctx, t)
		}
	}()
}

// Stop cancels every timer and watcher and waits until all in-flight
// trigger executions have finished. No background work survives Stop.
// A backup already in flight completes rather than being interrupted
// mid-write. Stopping a stopped scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	watchers := make([]*task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if t.watcher != nil {
			watchers = append(watchers, t)
		}
	}
	s.mu.Unlock()

	cancel()
	for _, t := range watchers {
		_ = t.watcher.Close()
	}
	s.wg.Wait()

	// The closed watchers are useless now; drop them so the next Start
	// knows to re-establish the watches.
	s.mu.Lock()
	for _, t := range watchers {
		t.watcher = nil
	}
	s.mu.Unlock()
	s.logger.Info("scheduler stopped")
}

// runInterval fires the task every interval until cancelled.
func (s *Scheduler) runInterval(ctx context.Context, t *task) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.trigger(ctx, t)
		}
	}
}

// trigger executes one backup+prune for the task. Overlapping triggers
// for the same task are skipped; distinct tasks run concurrently, but
// backup and prune against the same dst+prefix are serialized.
func (s *Scheduler) trigger(ctx context.Context, t *task) {
	if ctx.Err() != nil {
		return
	}
	if !t.runMu.TryLock() {
		s.logger.Warn("trigger skipped", "task", t.id, "err", errors.ErrAlreadyRunning)
		return
	}
	defer t.runMu.Unlock()

	lock := s.destLock(t.dst, t.prefix)
	lock.Lock()
	defer lock.Unlock()

	dstPath, err := s.nextArchivePath(t)
	if err != nil {
		s.logger.Error("trigger failed", "task", t.id, "err", err)
		return
	}

	if err := t.engine.Backup(t.src, dstPath); err != nil {
		// Failures are scoped to this trigger; the task keeps its cadence.
		s.logger.Error("trigger failed", "task", t.id, "src", t.src, "err", err)
		return
	}

	if err := retention.Prune(t.dst, t.prefix, t.keepCount); err != nil {
		s.logger.Error("prune failed", "task", t.id, "dst", t.dst, "err", err)
		return
	}
	s.logger.Debug("trigger complete", "task", t.id, "archive", dstPath)
}

// nextArchivePath generates the destination file name, dodging
// same-second collisions with a sequence suffix.
func (s *Scheduler) nextArchivePath(t *task) (string, error) {
	now := time.Now()
	for seq := 0; seq < 1000; seq++ {
		p := filepath.Join(t.dst, retention.ArchiveName(t.prefix, now, seq))
		if _, err := os.Lstat(p); os.IsNotExist(err) {
			return p, nil
		}
	}
	return "", errors.Newf("could not find a free archive name under %s", t.dst)
}

// destLock returns the mutex serializing writes and prunes for a
// dst+prefix pair.
func (s *Scheduler) destLock(dst, prefix string) *sync.Mutex {
	key := dst + "\x00" + prefix
	s.destMu.Lock()
	defer s.destMu.Unlock()
	lock, ok := s.destLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.destLocks[key] = lock
	}
	return lock
}

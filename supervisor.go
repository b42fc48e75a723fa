package tether

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/arloliu/tether/internal/grace"
	"github.com/arloliu/tether/internal/hooks"
	"github.com/arloliu/tether/internal/job"
	"github.com/arloliu/tether/internal/lifecycle"
	"github.com/arloliu/tether/internal/live"
	"github.com/arloliu/tether/internal/logger"
	"github.com/arloliu/tether/internal/metrics"
	"github.com/arloliu/tether/internal/store"
	"github.com/arloliu/tether/types"
)

// TaskFunc computes the result for one key.
//
// The task runs in its own goroutine for as long as the key is tracked. values
// holds the key's current items and is updated in place on every snapshot.
// ctx is cancelled when the key is retired; context.Cause(ctx) then reports
// a *KeyRemovedError or ErrSourceExhausted.
//
// A returned error (or a panic) becomes the key's Outcome; it does not stop the supervisor.
type TaskFunc[K comparable, T comparable, R any] func(ctx context.Context, key K, values *View[T]) (R, error)

// Supervisor keeps exactly one task running per key of a stream of snapshots.
//
// For every snapshot the supervisor groups items by key and diffs the key set
// against the previous snapshot:
//   - a new key gets a fresh task
//   - a removed key enters its grace period and its task is cancelled when the
//     grace period elapses
//   - a removed key that comes back within its grace period keeps its task
//   - a kept key gets its new items pushed into its View
//
// Results are published as Snapshot values through Updates and Subscribe.
// A Supervisor runs once.
type Supervisor[T comparable, K comparable, R any] struct {
	cfg     Config
	keyOf   func(T) K
	task    TaskFunc[K, T, R]
	runID   string
	logger  Logger
	metrics MetricsCollector
	hooks   *hooks.Dispatcher

	store   *store.Store[K, lifecycle.Entry[T, R]]
	machine *lifecycle.Machine[K, T, R]
	pub     *publisher[K, R]

	started atomic.Bool

	// Set by Run before the first snapshot is processed.
	runCtx context.Context
	grace  *grace.Group
	tasks  sync.WaitGroup
}

// New creates a Supervisor.
//
// Parameters:
//   - cfg: Configuration (nil means DefaultConfig); missing values are defaulted
//   - keyOf: Key selector grouping items into keys
//   - task: Per-key task
//   - opts: Optional logger, metrics and hooks
//
// Returns:
//   - *Supervisor[T, K, R]: A supervisor ready to Run
//   - error: ErrKeySelectorRequired, ErrTaskRequired or a wrapped ErrInvalidConfig
//
// Example:
//
//	cfg := tether.DefaultConfig()
//	cfg.GracePeriod = time.Second
//	sup, err := tether.New(&cfg, func(e Editor) string { return e.File() },
//	    func(ctx context.Context, file string, editors *tether.View[Editor]) (int, error) {
//	        <-ctx.Done()
//	        return 0, nil
//	    })
func New[T comparable, K comparable, R any](cfg *Config, keyOf func(T) K, task TaskFunc[K, T, R], opts ...Option) (*Supervisor[T, K, R], error) {
	if keyOf == nil {
		return nil, ErrKeySelectorRequired
	}
	if task == nil {
		return nil, ErrTaskRequired
	}

	c := DefaultConfig()
	if cfg != nil {
		c = *cfg
	}
	ApplyDefaults(&c)
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var o supervisorOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.NewNop()
	}
	if o.metrics == nil {
		o.metrics = metrics.NewNop()
	}

	runID := uuid.NewString()
	log := &runLogger{Logger: o.logger, fields: []any{"run_id", runID}}

	s := &Supervisor[T, K, R]{
		cfg:     c,
		keyOf:   keyOf,
		task:    task,
		runID:   runID,
		logger:  log,
		metrics: o.metrics,
		hooks:   hooks.NewDispatcher(o.hooks, log),
		store:   store.New[K, lifecycle.Entry[T, R]](),
		pub:     newPublisher[K, R](c.UpdateBuffer, c.SubscriberBuffer, o.metrics),
	}
	s.machine = lifecycle.NewMachine[K, T, R](supervisorRuntime[T, K, R]{s: s}, c.GracePeriod)

	return s, nil
}

// RunID returns the unique identifier attached to this supervisor's log lines.
func (s *Supervisor[T, K, R]) RunID() string {
	return s.runID
}

// Updates returns the stream of published snapshots.
//
// A snapshot is published when a task result is installed for a key that is
// still in the snapshots, and when a key is removed for good. Versions are
// strictly increasing; a consumer that falls behind skips intermediate versions.
//
// Call Updates before Run and keep reading it: once attached, the supervisor
// waits for the consumer before delivering the final snapshot. The channel is
// closed when Run returns.
func (s *Supervisor[T, K, R]) Updates() <-chan Snapshot[K, R] {
	return s.pub.updates()
}

// Subscribe registers an additional snapshot observer.
//
// Delivery never blocks the supervisor: a snapshot is dropped for a subscriber
// whose buffer (Config.SubscriberBuffer) is full. The channel is closed by the
// returned unsubscribe function or when Run returns.
//
// Example:
//
//	ch, unsubscribe := sup.Subscribe()
//	defer unsubscribe()
//	for snap := range ch {
//	    fmt.Println(snap.Version(), snap.Len())
//	}
func (s *Supervisor[T, K, R]) Subscribe() (<-chan Snapshot[K, R], func()) {
	return s.pub.subscribe()
}

// Current returns the latest state, including keys that are still loading.
func (s *Supervisor[T, K, R]) Current() Snapshot[K, R] {
	st := s.store.Load()

	return newSnapshot[K, T, R](st.Version, st.Map)
}

// RunSource watches src and runs the supervisor over its snapshots.
//
// Parameters:
//   - ctx: Context bounding the watch and the run
//   - src: Snapshot source
//
// Returns:
//   - error: Watch error, ErrAlreadyStarted, or ctx's error when cancelled
func (s *Supervisor[T, K, R]) RunSource(ctx context.Context, src SnapshotSource[T]) error {
	if src == nil {
		return ErrSourceRequired
	}
	if s.started.Load() {
		return ErrAlreadyStarted
	}

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch, err := src.Watch(watchCtx)
	if err != nil {
		return fmt.Errorf("watch snapshot source: %w", err)
	}

	return s.Run(watchCtx, ch)
}

// Run consumes snapshots until source is closed or ctx is cancelled.
//
// When source is closed, keys still waiting out their grace period are
// cancelled with ErrSourceExhausted and joined, and tasks of keys present in the
// last snapshot run to completion. When ctx is cancelled, every task and pending
// cancellation is stopped. In both cases Run returns only after every goroutine
// it started has returned and the Updates channel is closed.
//
// Returns:
//   - error: nil when source was exhausted, ctx's error when cancelled,
//     ErrSourceRequired or ErrAlreadyStarted
func (s *Supervisor[T, K, R]) Run(ctx context.Context, source <-chan []T) error {
	if source == nil {
		return ErrSourceRequired
	}
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(context.Canceled)

	s.runCtx = runCtx
	s.grace = grace.NewGroup(runCtx)
	go s.pub.run(runCtx)

	s.logger.Info("supervisor started", "grace_period", s.cfg.GracePeriod)

	err := s.consume(runCtx, source)
	if err != nil {
		cancel(err)
		s.grace.Shutdown(err)
	} else {
		s.logger.Debug("snapshot source exhausted")
		s.grace.Shutdown(types.ErrSourceExhausted)
	}

	s.tasks.Wait()
	s.pub.close()
	s.hooks.Wait()

	s.logger.Info("supervisor stopped", "keys", s.store.Load().Map.Len(), "error", err)

	return err
}

func (s *Supervisor[T, K, R]) consume(ctx context.Context, source <-chan []T) error {
	previous := make(map[K]struct{})
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case items, ok := <-source:
			if !ok {
				return nil
			}

			current, err := s.apply(ctx, items, previous)
			if err != nil {
				return err
			}
			previous = current
		}
	}
}

// apply diffs one snapshot against the previous key set.
func (s *Supervisor[T, K, R]) apply(ctx context.Context, items []T, previous map[K]struct{}) (map[K]struct{}, error) {
	start := time.Now()
	groups := groupByKey(items, s.keyOf)
	current := make(map[K]struct{}, len(groups))

	var added, removed int
	for key, values := range groups {
		current[key] = struct{}{}
		if _, kept := previous[key]; kept {
			s.refreshKey(key, values)
			continue
		}

		if err := s.addKey(ctx, key, values); err != nil {
			return nil, err
		}
		added++
	}

	for key := range previous {
		if _, kept := current[key]; kept {
			continue
		}

		if err := s.removeKey(ctx, key); err != nil {
			return nil, err
		}
		removed++
	}

	s.metrics.RecordSnapshotProcessed(added, removed, time.Since(start).Seconds())
	s.metrics.SetTrackedKeys(s.store.Load().Map.Len())

	return current, nil
}

func (s *Supervisor[T, K, R]) addKey(ctx context.Context, key K, values []T) error {
	var t lifecycle.Transition
	_, err := s.store.Update(ctx, func(m *lifecycle.Map[K, T, R]) *lifecycle.Map[K, T, R] {
		var next *lifecycle.Map[K, T, R]
		next, t = s.machine.AddKey(m, key, values)

		return next
	})
	if err != nil {
		return err
	}

	switch t.Change {
	case lifecycle.ChangeAdded:
		s.logger.Debug("key added", "key", key)
		s.hooks.KeyAdded(s.runCtx, key)
	case lifecycle.ChangeResumed, lifecycle.ChangeRestarted:
		restarted := t.Change == lifecycle.ChangeRestarted
		s.logger.Debug("key revived", "key", key, "restarted", restarted)
		s.metrics.RecordRevival(restarted)
		s.hooks.KeyRevived(s.runCtx, key, restarted)
	}

	return nil
}

// refreshKey pushes new items to a key that stayed in the snapshot.
//
// The entry is read without the lock: a kept key is Loading or Done, and both
// the task completion and a restart keep the same View.
func (s *Supervisor[T, K, R]) refreshKey(key K, values []T) {
	entry, ok := s.store.Load().Map.Get(key)
	if !ok {
		panic(fmt.Errorf("%w: kept key %v has no entry", types.ErrProtocolViolation, key))
	}
	entry.Values().Store(values)
}

func (s *Supervisor[T, K, R]) removeKey(ctx context.Context, key K) error {
	var t lifecycle.Transition
	st, err := s.store.Update(ctx, func(m *lifecycle.Map[K, T, R]) *lifecycle.Map[K, T, R] {
		var next *lifecycle.Map[K, T, R]
		next, t = s.machine.RemoveKey(m, key)

		return next
	})
	if err != nil {
		return err
	}

	switch t.Change {
	case lifecycle.ChangeRemoved:
		// The task was cancelled under the lock; join it before the next snapshot.
		if t.Join != nil {
			<-t.Join.Done()
		}
		s.logger.Debug("key removed", "key", key)
		s.publish(st)
		s.metrics.RecordKeyRetired(false)
		s.hooks.KeyRemoved(s.runCtx, key, 0)
	case lifecycle.ChangeGraceStarted:
		s.logger.Debug("key entered grace period", "key", key, "grace_period", s.cfg.GracePeriod)
		s.metrics.RecordGracePeriodStarted()
		s.hooks.KeyRemoved(s.runCtx, key, s.cfg.GracePeriod)
	}

	return nil
}

// runTask is the body of a key's task goroutine.
func (s *Supervisor[T, K, R]) runTask(ctx context.Context, self *job.Job, key K, view *live.View[T], predecessor *job.Job) {
	if predecessor != nil {
		<-predecessor.Done()
	}
	if self.IsCancelled() {
		s.metrics.RecordTaskFinished("cancelled", 0)
		return
	}

	start := time.Now()
	s.metrics.RecordTaskStarted()
	value, err := s.invoke(ctx, key, view)
	elapsed := time.Since(start).Seconds()

	if self.IsCancelled() {
		s.logger.Debug("task cancelled", "key", key, "cause", context.Cause(ctx))
		s.metrics.RecordTaskFinished("cancelled", elapsed)

		return
	}

	outcome := types.Outcome[R]{Value: value, Err: err}
	var t lifecycle.Transition
	st, uerr := s.store.Update(ctx, func(m *lifecycle.Map[K, T, R]) *lifecycle.Map[K, T, R] {
		var next *lifecycle.Map[K, T, R]
		next, t = s.machine.Complete(m, key, self, outcome)

		return next
	})
	if uerr != nil || t.Change == lifecycle.ChangeDiscarded {
		s.logger.Debug("task result discarded", "key", key, "cause", context.Cause(ctx))
		s.metrics.RecordTaskFinished("cancelled", elapsed)

		return
	}

	if err != nil {
		s.logger.Warn("task failed", "key", key, "error", err)
		s.metrics.RecordTaskFinished("failed", elapsed)
		s.hooks.TaskFailed(s.runCtx, key, err)
	} else {
		s.logger.Debug("task finished", "key", key, "in_grace", t.Change == lifecycle.ChangeCompletedInGrace)
		s.metrics.RecordTaskFinished("done", elapsed)
	}

	if t.Publishes() {
		s.publish(st)
	}
}

// invoke calls the task, turning a panic into an error outcome.
func (s *Supervisor[T, K, R]) invoke(ctx context.Context, key K, view *live.View[T]) (value R, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrTaskPanicked, p)
		}
	}()

	return s.task(ctx, key, view)
}

// retire removes a key whose grace period elapsed, on behalf of its canceller.
func (s *Supervisor[T, K, R]) retire(ctx context.Context, key K, canceller *job.Job) error {
	st, err := s.store.Update(ctx, func(m *lifecycle.Map[K, T, R]) *lifecycle.Map[K, T, R] {
		next, _ := s.machine.Retire(m, key, canceller)
		return next
	})
	if err != nil {
		return err
	}

	s.logger.Debug("key retired", "key", key)
	s.publish(st)
	s.metrics.RecordKeyRetired(true)
	s.hooks.KeyRetired(s.runCtx, key)

	return nil
}

func (s *Supervisor[T, K, R]) publish(st store.State[K, lifecycle.Entry[T, R]]) {
	s.pub.offer(newSnapshot[K, T, R](st.Version, st.Map))
	s.metrics.SetTrackedKeys(st.Map.Len())
}

// supervisorRuntime launches the goroutines requested by the state machine.
type supervisorRuntime[T comparable, K comparable, R any] struct {
	s *Supervisor[T, K, R]
}

func (rt supervisorRuntime[T, K, R]) StartTask(key K, view *live.View[T], predecessor *job.Job) *job.Job {
	s := rt.s
	return job.Start(s.runCtx, &s.tasks, func(ctx context.Context, self *job.Job) {
		s.runTask(ctx, self, key, view, predecessor)
	})
}

func (rt supervisorRuntime[T, K, R]) StartCanceller(key K, task *job.Job) *job.Job {
	s := rt.s
	c := &grace.Canceller{
		Key:    key,
		Period: s.cfg.GracePeriod,
		Task:   task,
		Lock:   s.store,
		Logger: s.logger,
		Retire: func(ctx context.Context, self *job.Job) error {
			return s.retire(ctx, key, self)
		},
	}

	return s.grace.Go(c.Run)
}

// groupByKey groups the distinct items of a snapshot by key, keeping their order.
func groupByKey[T comparable, K comparable](items []T, keyOf func(T) K) map[K][]T {
	groups := make(map[K][]T)
	seen := make(map[T]struct{}, len(items))
	for _, item := range items {
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}

		key := keyOf(item)
		groups[key] = append(groups[key], item)
	}

	return groups
}

// runLogger appends the supervisor's run ID to every log line.
type runLogger struct {
	types.Logger
	fields []any
}

func (l *runLogger) Debug(msg string, keysAndValues ...any) {
	l.Logger.Debug(msg, slices.Concat(keysAndValues, l.fields)...)
}

func (l *runLogger) Info(msg string, keysAndValues ...any) {
	l.Logger.Info(msg, slices.Concat(keysAndValues, l.fields)...)
}

func (l *runLogger) Warn(msg string, keysAndValues ...any) {
	l.Logger.Warn(msg, slices.Concat(keysAndValues, l.fields)...)
}

func (l *runLogger) Error(msg string, keysAndValues ...any) {
	l.Logger.Error(msg, slices.Concat(keysAndValues, l.fields)...)
}

func (l *runLogger) Fatal(msg string, keysAndValues ...any) {
	l.Logger.Fatal(msg, slices.Concat(keysAndValues, l.fields)...)
}

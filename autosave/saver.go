package autosave

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/arloliu/tether"
	"github.com/arloliu/tether/internal/backoff"
	"github.com/arloliu/tether/internal/logger"
	"github.com/arloliu/tether/internal/metrics"
	"github.com/arloliu/tether/types"
)

// Option configures a Saver.
type Option func(*Saver)

// WithLogger sets the logger for the Saver and its supervisor.
func WithLogger(l types.Logger) Option {
	return func(s *Saver) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the metrics collector for the Saver and its supervisor.
func WithMetrics(m types.MetricsCollector) Option {
	return func(s *Saver) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithHooks sets lifecycle hooks on the underlying supervisor.
func WithHooks(h *types.Hooks) Option {
	return func(s *Saver) { s.hooks = h }
}

// Saver saves documents of open editors shortly after they change.
type Saver struct {
	cfg     Config
	logger  types.Logger
	metrics types.MetricsCollector
	hooks   *types.Hooks
	retry   *backoff.Policy

	dirty   *xsync.Map[string, Document]
	signal  chan struct{}
	closed  chan struct{}
	started atomic.Bool
}

// New creates a Saver. A nil cfg uses DefaultConfig.
func New(cfg *Config, opts ...Option) (*Saver, error) {
	c := DefaultConfig()
	if cfg != nil {
		c = *cfg
		ApplyDefaults(&c)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	s := &Saver{
		cfg:     c,
		logger:  logger.NewNop(),
		metrics: metrics.NewNop(),
		retry:   backoff.New(c.RetryBackoff, 2, 20*c.RetryBackoff, 0),
		dirty:   xsync.NewMap[string, Document](),
		signal:  make(chan struct{}, 1),
		closed:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Run supervises one change listener per open file until editors is closed
// or ctx is cancelled, saving changed documents as it goes. A Saver runs once.
//
// Closing editors detaches every listener. Documents still dirty when the
// supervisor stops are saved within Config.FlushTimeout before Run returns,
// even after ctx is cancelled.
//
// Returns:
//   - error: nil when editors was closed, ctx's error when cancelled,
//     types.ErrAlreadyStarted, or the flush failures
func (s *Saver) Run(ctx context.Context, editors <-chan []Editor) error {
	if editors == nil {
		return types.ErrSourceRequired
	}
	if !s.started.CompareAndSwap(false, true) {
		return types.ErrAlreadyStarted
	}

	supCfg := tether.DefaultConfig()
	supCfg.GracePeriod = s.cfg.GracePeriod

	opts := []tether.Option{tether.WithLogger(s.logger), tether.WithMetrics(s.metrics)}
	if s.hooks != nil {
		opts = append(opts, tether.WithHooks(s.hooks))
	}

	sup, err := tether.New[Editor, string, struct{}](&supCfg, Editor.File, s.listen, opts...)
	if err != nil {
		return err
	}

	saveCtx, stopSaving := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Go(func() { s.saveLoop(saveCtx) })

	runErr := sup.Run(ctx, s.forward(ctx, editors))

	stopSaving()
	wg.Wait()

	flushErr := s.flush(ctx)

	return errors.Join(runErr, flushErr)
}

// forward relays editor snapshots and closes s.closed once editors is exhausted,
// so listeners of files that are still open can return.
func (s *Saver) forward(ctx context.Context, editors <-chan []Editor) <-chan []Editor {
	out := make(chan []Editor)

	go func() {
		defer close(out)
		defer close(s.closed)

		for {
			select {
			case <-ctx.Done():
				return
			case items, ok := <-editors:
				if !ok {
					return
				}
				select {
				case out <- items:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

// listen keeps a change listener on the file's document until the file's
// editors are gone.
func (s *Saver) listen(ctx context.Context, file string, editors *tether.View[Editor]) (struct{}, error) {
	doc, ok := documentOf(editors.Load())
	if !ok {
		s.logger.Debug("editor has no document", "file", file)
		return struct{}{}, nil
	}

	remove := doc.AddListener(func() { s.markDirty(file, doc) })
	defer remove()

	s.logger.Debug("listening for changes", "file", file)
	select {
	case <-ctx.Done():
	case <-s.closed:
	}

	return struct{}{}, nil
}

func documentOf(editors []Editor) (Document, bool) {
	for _, e := range editors {
		if doc, ok := e.Document(); ok {
			return doc, true
		}
	}

	return nil, false
}

func (s *Saver) markDirty(file string, doc Document) {
	s.dirty.Store(file, doc)

	select {
	case s.signal <- struct{}{}:
	default:
	}
}

// Pending returns the number of documents waiting to be saved.
func (s *Saver) Pending() int {
	return s.dirty.Size()
}

func (s *Saver) saveLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.signal:
		}

		if err := s.saveRound(ctx); err != nil {
			s.logger.Error("save round gave up on documents", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.cfg.Debounce):
		}
	}
}

// saveRound saves every document that is dirty at the start of the round.
// A document changed again while saving is picked up by the next round. The
// returned error joins the documents given up on after MaxRetries.
func (s *Saver) saveRound(ctx context.Context) error {
	var errs []error

	s.dirty.Range(func(file string, _ Document) bool {
		doc, ok := s.dirty.LoadAndDelete(file)
		if !ok {
			return true
		}

		if err := s.save(ctx, file, doc); err != nil {
			if ctx.Err() != nil {
				// Keep it for the shutdown flush.
				s.dirty.LoadOrStore(file, doc)
				return false
			}
			errs = append(errs, fmt.Errorf("save %s: %w", file, err))
		}

		return true
	})

	return errors.Join(errs...)
}

func (s *Saver) save(ctx context.Context, file string, doc Document) error {
	var delay time.Duration

	for attempt := 0; ; attempt++ {
		start := time.Now()
		err := doc.Save(ctx)
		s.metrics.RecordSave(err == nil, time.Since(start).Seconds())

		if err == nil {
			s.logger.Debug("document saved", "file", file, "attempt", attempt+1)
			return nil
		}
		if attempt >= s.cfg.MaxRetries || ctx.Err() != nil {
			return fmt.Errorf("save %s: %w", file, err)
		}

		delay = s.retry.Next(delay)
		s.metrics.RecordSaveRetry()
		s.logger.Warn("save failed, retrying", "file", file, "attempt", attempt+1, "retry_in", delay, "error", err)

		select {
		case <-ctx.Done():
			return fmt.Errorf("save %s: %w", file, ctx.Err())
		case <-time.After(delay):
		}
	}
}

func (s *Saver) flush(ctx context.Context) error {
	if s.dirty.Size() == 0 {
		return nil
	}

	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.FlushTimeout)
	defer cancel()

	s.logger.Info("flushing dirty documents", "count", s.dirty.Size())

	if err := s.saveRound(flushCtx); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	if left := s.dirty.Size(); left > 0 {
		return fmt.Errorf("flush: %d documents left unsaved: %w", left, flushCtx.Err())
	}

	return nil
}

package outbound

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wishlify/wishlify-backend/pkg/logger"
	"github.com/wishlify/wishlify-backend/pkg/metrics"
)

// Click is one outbound click as handed to the click log store.
type Click struct {
	Hostname   string
	URL        string
	WishID     string
	WishlistID string
	Referrer   *string
	UserAgent  *string
	CreatedAt  time.Time
}

// ClickStore appends click records.
type ClickStore interface {
	RecordClick(ctx context.Context, click Click) error
}

const (
	defaultQueueSize    = 1024
	defaultWorkers      = 4
	defaultWriteTimeout = 3 * time.Second
)

type RecorderOptions struct {
	QueueSize    int
	Workers      int
	WriteTimeout time.Duration
	Logger       *logger.Logger
	Metrics      *metrics.OutboundMetrics
}

// Recorder persists clicks off the request path through a bounded queue. Writes
// are best effort: a full queue or a failed write drops the click.
type Recorder struct {
	store   ClickStore
	queue   chan Click
	timeout time.Duration
	logg    *logger.Logger
	metrics *metrics.OutboundMetrics

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewRecorder starts the worker pool; call Shutdown to stop it.
func NewRecorder(store ClickStore, opts RecorderOptions) *Recorder {
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}

	r := &Recorder{
		store:   store,
		queue:   make(chan Click, opts.QueueSize),
		timeout: opts.WriteTimeout,
		logg:    opts.Logger,
		metrics: opts.Metrics,
	}
	for i := 0; i < opts.Workers; i++ {
		r.wg.Add(1)
		go r.work()
	}
	return r
}

// Enqueue hands click to the workers without blocking. It reports false when the
// click was dropped because the queue is full or the recorder is shut down.
func (r *Recorder) Enqueue(click Click) bool {
	if click.CreatedAt.IsZero() {
		click.CreatedAt = time.Now().UTC()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.drop(click, "recorder closed")
		return false
	}
	select {
	case r.queue <- click:
		return true
	default:
		r.drop(click, "queue full")
		return false
	}
}

// Shutdown stops accepting clicks and waits for queued ones to be written or for
// ctx to end, whichever comes first.
func (r *Recorder) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("draining click queue: %w", ctx.Err())
	}
}

func (r *Recorder) work() {
	defer r.wg.Done()
	for click := range r.queue {
		if err := r.write(click); err != nil {
			r.metrics.IncClickLog(metrics.ClickFailed)
			ctx := r.logg.WithWishRef(context.Background(), click.WishlistID, click.WishID)
			r.logg.Error(r.logg.WithField(ctx, "hostname", click.Hostname), "outbound.click_log_failed", err)
			continue
		}
		r.metrics.IncClickLog(metrics.ClickStored)
	}
}

// write runs on a fresh context: the request that produced the click is usually
// gone by the time a worker picks it up.
func (r *Recorder) write(click Click) (err error) {
	if r.store == nil {
		return errors.New("click store not configured")
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("click store panic: %v", rec)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	return r.store.RecordClick(ctx, click)
}

func (r *Recorder) drop(click Click, why string) {
	r.metrics.IncClickLog(metrics.ClickDropped)
	ctx := r.logg.WithWishRef(context.Background(), click.WishlistID, click.WishID)
	r.logg.Warn(r.logg.WithField(ctx, "cause", why), "outbound.click_dropped")
}

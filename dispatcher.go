package catalyst

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DispatcherState is the observable phase of the dispatch loop.
type DispatcherState int

const (
	StateIdle DispatcherState = iota
	StateWaiting
	StateSending
	StateStopped
)

func (s DispatcherState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWaiting:
		return "waiting"
	case StateSending:
		return "sending"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// maxDrainFailures bounds consecutive retryable failures while draining, so
// Drain and Shutdown terminate against an endpoint that never recovers.
const maxDrainFailures = 3

var errStopped = errors.New("catalyst: dispatcher stopped after a fatal error")

type phase int

const (
	phaseNone phase = iota
	phaseWaiting
	phaseSending
)

// Dispatcher drains the queue in bounded batches, at most one request per
// MinInterval. At most one loop goroutine runs at a time and every cycle,
// whether started by the loop or by Flush, holds cycleMu.
type Dispatcher struct {
	config     DispatcherConfig
	queue      *Queue
	transport  *Transport
	classifier *Classifier
	logger     LoggerAdapter
	metrics    *Metrics
	limiter    *rate.Limiter
	cycleMu    *Mutex

	mu         sync.Mutex
	phase      phase
	processing bool
	stopped    bool
	closed     bool
	generation uint64
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

func NewDispatcher(config DispatcherConfig, queue *Queue, transport *Transport, classifier *Classifier, logger LoggerAdapter, metrics *Metrics) *Dispatcher {
	return &Dispatcher{
		config:     config,
		queue:      queue,
		transport:  transport,
		classifier: classifier,
		logger:     logger,
		metrics:    metrics,
		limiter:    rate.NewLimiter(rate.Every(config.MinInterval()), 1),
		cycleMu:    NewMutex(),
	}
}

// Enqueue appends event and starts the loop if it is idle.
func (d *Dispatcher) Enqueue(event Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	if d.stopped {
		return errStopped
	}

	depth := d.queue.Enqueue(event)
	d.metrics.tracked(depth)
	d.startLocked()
	return nil
}

func (d *Dispatcher) startLocked() {
	if d.processing || d.stopped || d.closed || d.queue.IsEmpty() {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.processing = true
	d.cancel = cancel
	gen := d.generation
	d.wg.Go(func() {
		d.loop(ctx, gen)
	})
}

func (d *Dispatcher) loop(ctx context.Context, gen uint64) {
	for d.shouldContinue(ctx, gen) {
		err := d.cycleMu.RunAtomic(ctx, func() error {
			// a request already on the wire is allowed to finish so its
			// outcome is known; Restart discards it by generation
			d.cycle(ctx, context.WithoutCancel(ctx))
			return nil
		})
		if err != nil {
			return
		}
	}
}

// shouldContinue ends the loop when the queue is empty or dispatch has halted.
// A loop that was cancelled or superseded leaves the flags to whoever
// cancelled it.
func (d *Dispatcher) shouldContinue(ctx context.Context, gen uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if ctx.Err() != nil || gen != d.generation {
		return false
	}
	if d.stopped || d.queue.IsEmpty() {
		d.processing = false
		if d.cancel != nil {
			d.cancel()
			d.cancel = nil
		}
		return false
	}
	return true
}

// cycle performs one wait-dequeue-send-handle pass. Callers hold cycleMu.
// ctx bounds the wait and sendCtx the request. It returns the number of
// events acknowledged and the failure, if any.
func (d *Dispatcher) cycle(ctx, sendCtx context.Context) (int, error) {
	d.mu.Lock()
	if d.stopped || d.queue.IsEmpty() {
		d.mu.Unlock()
		return 0, nil
	}
	d.phase = phaseWaiting
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.phase = phaseNone
		d.mu.Unlock()
	}()

	if err := d.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return 0, nil
	}
	gen := d.generation
	batch := d.queue.DequeueBatch(d.config.MaxBatchSize)
	if len(batch) == 0 {
		d.mu.Unlock()
		return 0, nil
	}
	d.phase = phaseSending
	remaining := d.queue.Len()
	d.mu.Unlock()
	d.metrics.depth(remaining)

	d.logger.Debug("Sending batch", "count", len(batch))
	start := time.Now()
	err := d.transport.SendEvents(sendCtx, batch)
	elapsed := time.Since(start)

	d.mu.Lock()
	defer d.mu.Unlock()

	if gen != d.generation {
		d.metrics.dropped("restart", len(batch))
		return 0, err
	}

	if err == nil {
		d.metrics.batch("success", len(batch), elapsed)
		d.logger.Info("Successfully tracked", "count", len(batch))
		return len(batch), nil
	}

	d.logger.Error("Failed to send events", "count", len(batch), "error", err)

	if d.classifier.IsFatal(err) {
		var terr *TransportError
		if errors.As(err, &terr) {
			terr.Fatal = true
		}
		dropped := len(batch) + d.queue.Clear()
		d.stopped = true
		d.metrics.batch("fatal", len(batch), elapsed)
		d.metrics.dropped("fatal", dropped)
		d.metrics.depth(0)
		d.logger.Error("Fatal error detected. Stopping SDK.", "dropped", dropped, "error", err)
		return 0, err
	}

	d.queue.PushFront(batch)
	d.metrics.batch("retryable", len(batch), elapsed)
	d.metrics.depth(d.queue.Len())
	d.logger.Warn("Retryable error. Events will be retried.", "count", len(batch))
	return 0, err
}

// Flush forces one dispatch cycle and waits for it. It is a logged no-op
// when dispatch is stopped. Delivery failures are handled by the dispatcher
// and are not returned; only a failure to run the cycle at all is.
func (d *Dispatcher) Flush(ctx context.Context) error {
	d.mu.Lock()
	stopped := d.stopped
	pending := d.queue.Len()
	d.mu.Unlock()

	if stopped {
		d.logger.Error("SDK stopped. Cannot flush.")
		return nil
	}
	if pending == 0 {
		return nil
	}

	d.logger.Info("Flushing queued events", "count", pending)
	err := d.cycleMu.RunAtomic(ctx, func() error {
		_, err := d.cycle(ctx, ctx)
		return err
	})

	d.mu.Lock()
	d.startLocked()
	d.mu.Unlock()

	var terr *TransportError
	if errors.As(err, &terr) {
		return nil
	}
	return err
}

// Drain runs cycles until the queue is empty, dispatch halts, ctx ends, or
// maxDrainFailures retryable failures happen in a row.
func (d *Dispatcher) Drain(ctx context.Context) error {
	failures := 0
	for {
		d.mu.Lock()
		done := d.stopped || d.queue.IsEmpty()
		d.mu.Unlock()
		if done {
			return nil
		}

		var sent int
		err := d.cycleMu.RunAtomic(ctx, func() error {
			var err error
			sent, err = d.cycle(ctx, ctx)
			return err
		})

		var terr *TransportError
		switch {
		case err == nil:
			if sent > 0 {
				failures = 0
			}
		case errors.As(err, &terr):
			if terr.Fatal {
				return nil
			}
			failures++
			if failures >= maxDrainFailures {
				d.logger.Warn("Giving up draining after repeated failures", "failures", failures, "pending", d.queue.Len())
				return err
			}
		default:
			return err
		}
	}
}

// Restart clears the stopped flag, empties the queue and abandons any loop or
// in-flight request from before the call.
func (d *Dispatcher) Restart() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.logger.Info("Restarting SDK...")
	d.generation++
	d.stopped = false
	dropped := d.queue.Clear()
	d.metrics.dropped("restart", dropped)
	d.metrics.depth(0)
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.processing = false
}

// Shutdown stops the loop for good, lets an in-flight request finish and
// drains what it can before ctx ends.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.processing = false
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return d.Drain(ctx)
}

// Stopped reports whether a fatal error has halted dispatch.
func (d *Dispatcher) Stopped() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopped
}

// Closed reports whether Shutdown has been called.
func (d *Dispatcher) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// State reports the current dispatcher phase.
func (d *Dispatcher) State() DispatcherState {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch {
	case d.stopped:
		return StateStopped
	case d.phase == phaseSending:
		return StateSending
	case d.phase == phaseWaiting, d.processing:
		return StateWaiting
	default:
		return StateIdle
	}
}

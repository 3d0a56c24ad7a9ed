package admission

import (
	"context"
	"errors"
	"fmt"
	reservationserrors "roomres/internal/reservations/errors"
	"roomres/internal/reservations/metrics"
	"roomres/internal/reservations/registry"
	"roomres/internal/reservations/validator"
	"roomres/pkg/logger"
	"roomres/pkg/model"
	"sync"
	"time"
)

// Worker is the single point where reservations are created. Requests are
// processed one at a time in enqueue order, so the overlap check and the
// insert that follows it are never interleaved with another admission.
type Worker struct {
	registry     *registry.Registry
	log          *logger.Logger
	queue        chan *ticket
	writeTimeout time.Duration
	now          func() time.Time

	mu      sync.RWMutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

func NewWorker(reg *registry.Registry, log *logger.Logger, queueSize int, writeTimeout time.Duration) *Worker {
	return &Worker{
		registry:     reg,
		log:          log,
		queue:        make(chan *ticket, queueSize),
		writeTimeout: writeTimeout,
		now:          time.Now,
	}
}

func (w *Worker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}

	w.running = true
	w.stop = make(chan struct{})
	w.done = make(chan struct{})
	go w.loop(w.stop, w.done)

	w.log.Info("Admission worker started", "queue_size", cap(w.queue))
}

// Stop halts the loop after the request in progress. Requests still queued
// are resolved with ErrWorkerStopped.
func (w *Worker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	close(w.stop)
	done := w.done
	w.mu.Unlock()

	select {
	case <-done:
		w.log.Info("Admission worker stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("admission worker did not stop in time: %w", ctx.Err())
	}
}

// Pending returns the number of queued requests not yet claimed.
func (w *Worker) Pending() int {
	return len(w.queue)
}

// Submit enqueues req and blocks until the worker resolves it. If ctx ends
// before the worker claims the request, the request is withdrawn and never
// committed. Once claimed, Submit waits for the real outcome.
func (w *Worker) Submit(ctx context.Context, req Request) (*model.Reservation, error) {
	t := newTicket(req)
	if err := w.enqueue(t); err != nil {
		return nil, err
	}

	select {
	case out := <-t.done:
		return out.Reservation, out.Err
	case <-ctx.Done():
		if t.abandon() {
			return nil, fmt.Errorf("%w: %w", reservationserrors.ErrCancelled, ctx.Err())
		}
		out := <-t.done
		return out.Reservation, out.Err
	}
}

func (w *Worker) enqueue(t *ticket) error {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if !w.running {
		metrics.RecordOutcome(metrics.OutcomeWorkerStopped)
		return reservationserrors.ErrWorkerStopped
	}

	select {
	case w.queue <- t:
		return nil
	default:
		w.log.Warn("Admission queue full, rejecting request", "resource", t.req.Resource)
		metrics.RecordOutcome(metrics.OutcomeQueueFull)
		return reservationserrors.ErrQueueFull
	}
}

func (w *Worker) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		// Stop wins over queued work.
		select {
		case <-stop:
			w.drain()
			return
		default:
		}

		select {
		case <-stop:
			w.drain()
			return
		case t := <-w.queue:
			w.process(t)
		}
	}
}

func (w *Worker) drain() {
	for {
		select {
		case t := <-w.queue:
			if t.claim() {
				metrics.RecordOutcome(metrics.OutcomeWorkerStopped)
				t.resolve(Outcome{Err: reservationserrors.ErrWorkerStopped})
			}
		default:
			return
		}
	}
}

func (w *Worker) process(t *ticket) {
	if !t.claim() {
		w.log.Debug("Skipping withdrawn request", "resource", t.req.Resource)
		metrics.RecordOutcome(metrics.OutcomeWithdrawn)
		return
	}

	started := w.now()
	out := w.admit(t.req)
	metrics.ObserveDuration(w.now().Sub(started))
	metrics.RecordOutcome(outcomeLabel(out.Err))
	t.resolve(out)
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeCommitted
	case errors.Is(err, reservationserrors.ErrInvalidRange):
		return metrics.OutcomeInvalidRange
	case errors.Is(err, reservationserrors.ErrOverlap):
		return metrics.OutcomeOverlap
	default:
		return metrics.OutcomeStorageError
	}
}

func (w *Worker) admit(req Request) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("Recovered from panic during admission",
				"resource", req.Resource,
				"panic", r,
			)
			out = Outcome{Err: fmt.Errorf("%w: panic: %v", reservationserrors.ErrStorage, r)}
		}
	}()

	candidate := model.Interval{Start: model.StoredTime(req.Start), End: model.StoredTime(req.End)}
	if err := validator.CheckRange(candidate.Start, candidate.End); err != nil {
		return Outcome{Err: err}
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.writeTimeout)
	defer cancel()

	day := model.DayOf(candidate.Start)

	var existing []*model.Reservation
	if ns, ok := w.registry.Lookup(req.Resource); ok {
		var err error
		existing, err = ns.FindByDay(ctx, day)
		if err != nil {
			return w.storageFailure(req, err)
		}
	}

	if !validator.Admit(existing, candidate) {
		w.log.Info("Reservation rejected",
			"resource", req.Resource,
			"day", day,
			"reason", "overlap",
		)
		return Outcome{Err: reservationserrors.ErrOverlap}
	}

	ns, err := w.registry.Ensure(ctx, req.Resource)
	if err != nil {
		return w.storageFailure(req, err)
	}

	reservation := &model.Reservation{
		Resource:    req.Resource,
		Day:         day,
		StartTime:   candidate.Start,
		EndTime:     candidate.End,
		ReservedBy:  req.ReservedBy,
		RequesterID: req.RequesterID,
		Title:       req.Title,
		CreatedAt:   model.StoredTime(w.now()),
	}
	if err := ns.Insert(ctx, reservation); err != nil {
		return w.storageFailure(req, err)
	}

	w.log.Info("Reservation committed",
		"resource", req.Resource,
		"id", reservation.ID,
		"day", day,
	)
	return Outcome{Reservation: reservation}
}

func (w *Worker) storageFailure(req Request, err error) Outcome {
	w.log.Error("Admission storage failure",
		"resource", req.Resource,
		"error", err,
	)
	return Outcome{Err: fmt.Errorf("%w: %w", reservationserrors.ErrStorage, err)}
}

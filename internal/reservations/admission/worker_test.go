package admission

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	reservationserrors "roomres/internal/reservations/errors"
	"roomres/internal/reservations/metrics"
	"roomres/internal/reservations/registry"
	"roomres/internal/reservations/repository"
	"roomres/internal/reservations/validator"
	"roomres/pkg/logger"
	"roomres/pkg/model"
	"sync"
	"testing"
	"time"
)

type hookStore struct {
	repository.Store
	insertHook func(r *model.Reservation) error
}

func (s *hookStore) CreateNamespace(ctx context.Context, name string) (repository.Namespace, error) {
	ns, err := s.Store.CreateNamespace(ctx, name)
	if err != nil {
		return nil, err
	}
	return &hookNamespace{Namespace: ns, store: s}, nil
}

type hookNamespace struct {
	repository.Namespace
	store *hookStore
}

func (n *hookNamespace) Insert(ctx context.Context, r *model.Reservation) error {
	if n.store.insertHook != nil {
		if err := n.store.insertHook(r); err != nil {
			return err
		}
	}
	return n.Namespace.Insert(ctx, r)
}

func newTestWorker(t *testing.T, queueSize int, hook func(r *model.Reservation) error) (*Worker, *registry.Registry) {
	t.Helper()
	store := &hookStore{Store: repository.NewMemoryStore(), insertHook: hook}
	reg := registry.New(store, logger.Discard())
	w := NewWorker(reg, logger.Discard(), queueSize, time.Second)
	w.Start()
	t.Cleanup(func() {
		_ = w.Stop(context.Background())
	})
	return w, reg
}

func slot(resource string, startHour, endHour int) Request {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return Request{
		Resource:    resource,
		Start:       day.Add(time.Duration(startHour) * time.Hour),
		End:         day.Add(time.Duration(endHour) * time.Hour),
		ReservedBy:  "alice",
		RequesterID: "u-1",
		Title:       model.DefaultTitle,
	}
}

// gate blocks the worker inside the first insert on the "gate" resource until released.
type gate struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gate) hook(r *model.Reservation) error {
	if r.Resource == "gate" {
		g.once.Do(func() {
			close(g.entered)
			<-g.release
		})
	}
	return nil
}

// hold submits a request on the gate resource and waits until the worker is blocked on it.
func (g *gate) hold(t *testing.T, w *Worker) {
	t.Helper()
	go func() {
		_, _ = w.Submit(context.Background(), slot("gate", 9, 10))
	}()
	select {
	case <-g.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never reached the gate")
	}
}

func (w *Worker) isRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

func waitForPending(t *testing.T, w *Worker, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for w.Pending() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d pending requests, got %d", n, w.Pending())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSubmit_CommitsWithSequentialIDs(t *testing.T) {
	w, reg := newTestWorker(t, 8, nil)
	ctx := context.Background()

	for i, hours := range [][2]int{{9, 10}, {11, 12}, {14, 15}} {
		r, err := w.Submit(ctx, slot("room-A", hours[0], hours[1]))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.ID != int64(i+1) {
			t.Errorf("expected id %d, got %d", i+1, r.ID)
		}
		if r.Day != "2024-03-01" {
			t.Errorf("expected day 2024-03-01, got %s", r.Day)
		}
		if r.CreatedAt.IsZero() {
			t.Error("expected created_at to be set")
		}
	}

	if _, ok := reg.Lookup("room-A"); !ok {
		t.Error("expected resource to be created on first commit")
	}
}

func TestSubmit_InvalidRange(t *testing.T) {
	w, reg := newTestWorker(t, 8, nil)

	tests := []struct {
		name string
		req  Request
	}{
		{"equal bounds", slot("room-A", 9, 9)},
		{"reversed", slot("room-A", 10, 9)},
		{"crosses midnight", slot("room-A", 23, 25)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := w.Submit(context.Background(), tt.req)
			if !errors.Is(err, reservationserrors.ErrInvalidRange) {
				t.Errorf("expected ErrInvalidRange, got %v", err)
			}
		})
	}

	if _, ok := reg.Lookup("room-A"); ok {
		t.Error("rejected requests must not create the resource")
	}
}

func TestSubmit_StoresMillisecondPrecision(t *testing.T) {
	w, reg := newTestWorker(t, 8, nil)
	ctx := context.Background()

	req := slot("room-A", 9, 10)
	req.Start = req.Start.Add(1500 * time.Microsecond)
	req.End = req.End.Add(999 * time.Microsecond)

	r, err := w.Submit(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.StartTime.Nanosecond() != 1000000 || r.EndTime.Nanosecond() != 0 {
		t.Errorf("expected millisecond bounds, got %s - %s", r.StartTime, r.EndTime)
	}
	if r.CreatedAt.Nanosecond()%int(time.Millisecond) != 0 {
		t.Errorf("expected millisecond created_at, got %s", r.CreatedAt)
	}

	ns, _ := reg.Lookup("room-A")
	stored, err := ns.FindByID(ctx, r.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if !stored.StartTime.Equal(r.StartTime) || !stored.EndTime.Equal(r.EndTime) {
		t.Errorf("stored bounds %s - %s differ from reply %s - %s",
			stored.StartTime, stored.EndTime, r.StartTime, r.EndTime)
	}

	sub := slot("room-B", 9, 9)
	sub.End = sub.Start.Add(500 * time.Microsecond)
	if _, err := w.Submit(ctx, sub); !errors.Is(err, reservationserrors.ErrInvalidRange) {
		t.Errorf("expected sub-millisecond range to be ErrInvalidRange, got %v", err)
	}
}

func TestSubmit_BoundaryAdmission(t *testing.T) {
	w, _ := newTestWorker(t, 8, nil)
	ctx := context.Background()

	if _, err := w.Submit(ctx, slot("room-A", 9, 10)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := w.Submit(ctx, slot("room-A", 10, 11)); err != nil {
		t.Errorf("back-to-back reservation should be admitted, got %v", err)
	}
	if _, err := w.Submit(ctx, slot("room-A", 8, 9)); err != nil {
		t.Errorf("reservation ending at an existing start should be admitted, got %v", err)
	}
}

func TestSubmit_Overlap(t *testing.T) {
	w, _ := newTestWorker(t, 8, nil)
	ctx := context.Background()

	if _, err := w.Submit(ctx, slot("room-A", 9, 11)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := w.Submit(ctx, slot("room-A", 10, 12)); !errors.Is(err, reservationserrors.ErrOverlap) {
		t.Errorf("expected ErrOverlap, got %v", err)
	}
	if _, err := w.Submit(ctx, slot("room-B", 10, 12)); err != nil {
		t.Errorf("other resources are independent, got %v", err)
	}
}

func TestSubmit_FIFOTieBreak(t *testing.T) {
	g := newGate()
	w, _ := newTestWorker(t, 8, g.hook)
	g.hold(t, w)

	type result struct {
		who string
		err error
	}
	results := make(chan result, 2)

	first := slot("room-A", 9, 10)
	first.ReservedBy = "first"
	go func() {
		_, err := w.Submit(context.Background(), first)
		results <- result{"first", err}
	}()
	waitForPending(t, w, 1)

	second := slot("room-A", 9, 10)
	second.ReservedBy = "second"
	go func() {
		_, err := w.Submit(context.Background(), second)
		results <- result{"second", err}
	}()
	waitForPending(t, w, 2)

	close(g.release)

	for i := 0; i < 2; i++ {
		res := <-results
		switch res.who {
		case "first":
			if res.err != nil {
				t.Errorf("first enqueued request should win, got %v", res.err)
			}
		case "second":
			if !errors.Is(res.err, reservationserrors.ErrOverlap) {
				t.Errorf("second enqueued request should be rejected, got %v", res.err)
			}
		}
	}
}

func TestSubmit_ConcurrencyStress(t *testing.T) {
	const n = 64
	w, reg := newTestWorker(t, n, nil)

	var wg sync.WaitGroup
	var mu sync.Mutex
	committed, overlaps := 0, 0

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := slot("room-A", 9, 10)
			req.RequesterID = fmt.Sprintf("u-%d", i)
			_, err := w.Submit(context.Background(), req)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				committed++
			case errors.Is(err, reservationserrors.ErrOverlap):
				overlaps++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if committed != 1 || overlaps != n-1 {
		t.Errorf("expected 1 committed and %d overlaps, got %d and %d", n-1, committed, overlaps)
	}

	ns, _ := reg.Lookup("room-A")
	stored, err := ns.FindByDay(context.Background(), "2024-03-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stored) != 1 {
		t.Errorf("expected exactly one stored reservation, got %d", len(stored))
	}
}

func TestSubmit_NoOverlapUnderRandomLoad(t *testing.T) {
	const n = 200
	w, reg := newTestWorker(t, n, nil)
	rng := rand.New(rand.NewSource(42))

	requests := make([]Request, n)
	for i := range requests {
		start := rng.Intn(23)
		requests[i] = slot("room-A", start, start+1+rng.Intn(24-start))
	}

	var wg sync.WaitGroup
	for _, req := range requests {
		wg.Add(1)
		go func(req Request) {
			defer wg.Done()
			_, err := w.Submit(context.Background(), req)
			if err != nil && !errors.Is(err, reservationserrors.ErrOverlap) {
				t.Errorf("unexpected error: %v", err)
			}
		}(req)
	}
	wg.Wait()

	ns, _ := reg.Lookup("room-A")
	stored, _ := ns.FindByDay(context.Background(), "2024-03-01")
	if len(stored) == 0 {
		t.Fatal("expected at least one committed reservation")
	}
	for i := range stored {
		for j := i + 1; j < len(stored); j++ {
			a, b := stored[i], stored[j]
			if validator.Overlaps(a.StartTime, a.EndTime, b.StartTime, b.EndTime) {
				t.Errorf("committed reservations %d and %d overlap", a.ID, b.ID)
			}
		}
	}
}

func TestSubmit_StorageFailureIsolated(t *testing.T) {
	hook := func(r *model.Reservation) error {
		if r.Resource == "broken" {
			return errors.New("write concern timeout")
		}
		return nil
	}
	w, _ := newTestWorker(t, 8, hook)
	ctx := context.Background()

	if _, err := w.Submit(ctx, slot("broken", 9, 10)); !errors.Is(err, reservationserrors.ErrStorage) {
		t.Errorf("expected ErrStorage, got %v", err)
	}
	if _, err := w.Submit(ctx, slot("room-A", 9, 10)); err != nil {
		t.Errorf("worker should keep serving after a storage failure, got %v", err)
	}
}

func TestSubmit_PanicIsolated(t *testing.T) {
	hook := func(r *model.Reservation) error {
		if r.Resource == "explosive" {
			panic("nil map write")
		}
		return nil
	}
	w, _ := newTestWorker(t, 8, hook)
	ctx := context.Background()

	if _, err := w.Submit(ctx, slot("explosive", 9, 10)); !errors.Is(err, reservationserrors.ErrStorage) {
		t.Errorf("expected ErrStorage after panic, got %v", err)
	}
	if _, err := w.Submit(ctx, slot("room-A", 9, 10)); err != nil {
		t.Errorf("worker should survive a panic, got %v", err)
	}
}

func TestSubmit_QueueFull(t *testing.T) {
	g := newGate()
	w, _ := newTestWorker(t, 1, g.hook)
	g.hold(t, w)

	go func() {
		_, _ = w.Submit(context.Background(), slot("room-A", 9, 10))
	}()
	waitForPending(t, w, 1)

	if _, err := w.Submit(context.Background(), slot("room-A", 11, 12)); !errors.Is(err, reservationserrors.ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
	close(g.release)
}

func TestSubmit_CancelledBeforeClaimIsNeverCommitted(t *testing.T) {
	g := newGate()
	w, reg := newTestWorker(t, 8, g.hook)
	g.hold(t, w)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := w.Submit(ctx, slot("room-A", 9, 10))
		errCh <- err
	}()
	waitForPending(t, w, 1)
	cancel()

	err := <-errCh
	if !errors.Is(err, reservationserrors.ErrCancelled) || !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancellation error, got %v", err)
	}

	close(g.release)

	r, err := w.Submit(context.Background(), slot("room-A", 9, 10))
	if err != nil {
		t.Fatalf("withdrawn request must not hold the slot, got %v", err)
	}
	if r.ID != 1 {
		t.Errorf("expected the first committed id, got %d", r.ID)
	}
	ns, _ := reg.Lookup("room-A")
	stored, _ := ns.FindByDay(context.Background(), "2024-03-01")
	if len(stored) != 1 {
		t.Errorf("expected one stored reservation, got %d", len(stored))
	}
}

func TestSubmit_WorkerNotRunning(t *testing.T) {
	reg := registry.New(repository.NewMemoryStore(), logger.Discard())
	w := NewWorker(reg, logger.Discard(), 4, time.Second)

	if _, err := w.Submit(context.Background(), slot("room-A", 9, 10)); !errors.Is(err, reservationserrors.ErrWorkerStopped) {
		t.Errorf("expected ErrWorkerStopped before Start, got %v", err)
	}

	w.Start()
	if err := w.Stop(context.Background()); err != nil {
		t.Fatalf("unexpected stop error: %v", err)
	}
	if _, err := w.Submit(context.Background(), slot("room-A", 9, 10)); !errors.Is(err, reservationserrors.ErrWorkerStopped) {
		t.Errorf("expected ErrWorkerStopped after Stop, got %v", err)
	}
}

func TestStop_ResolvesQueuedRequests(t *testing.T) {
	g := newGate()
	w, _ := newTestWorker(t, 8, g.hook)
	g.hold(t, w)

	errCh := make(chan error, 1)
	go func() {
		_, err := w.Submit(context.Background(), slot("room-A", 9, 10))
		errCh <- err
	}()
	waitForPending(t, w, 1)

	stopped := make(chan error, 1)
	go func() {
		stopped <- w.Stop(context.Background())
	}()
	deadline := time.Now().Add(2 * time.Second)
	for w.isRunning() {
		if time.Now().After(deadline) {
			t.Fatal("worker never began stopping")
		}
		time.Sleep(time.Millisecond)
	}
	close(g.release)

	if err := <-stopped; err != nil {
		t.Fatalf("unexpected stop error: %v", err)
	}
	if err := <-errCh; !errors.Is(err, reservationserrors.ErrWorkerStopped) {
		t.Errorf("expected queued request to be resolved with ErrWorkerStopped, got %v", err)
	}
}

func TestOutcomeLabel(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, metrics.OutcomeCommitted},
		{reservationserrors.ErrInvalidRange, metrics.OutcomeInvalidRange},
		{reservationserrors.ErrOverlap, metrics.OutcomeOverlap},
		{fmt.Errorf("%w: disk", reservationserrors.ErrStorage), metrics.OutcomeStorageError},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := outcomeLabel(tt.err); got != tt.want {
				t.Errorf("outcomeLabel(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}

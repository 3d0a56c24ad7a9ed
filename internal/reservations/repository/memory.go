package repository

import (
	"context"
	reservationserrors "roomres/internal/reservations/errors"
	"roomres/pkg/model"
	"sort"
	"sync"
)

type memoryStore struct {
	mu         sync.Mutex
	namespaces map[string]*memoryNamespace
}

// NewMemoryStore returns a process-local Store. Reservations are lost on exit.
func NewMemoryStore() Store {
	return &memoryStore{namespaces: make(map[string]*memoryNamespace)}
}

func (s *memoryStore) CreateNamespace(ctx context.Context, name string) (Namespace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ns, ok := s.namespaces[name]
	if !ok {
		ns = &memoryNamespace{name: name, rows: make(map[int64]model.Reservation)}
		s.namespaces[name] = ns
	}
	return ns, nil
}

func (s *memoryStore) Namespaces(ctx context.Context) ([]Namespace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	namespaces := make([]Namespace, 0, len(s.namespaces))
	for _, ns := range s.namespaces {
		namespaces = append(namespaces, ns)
	}
	sort.Slice(namespaces, func(i, j int) bool {
		return namespaces[i].Name() < namespaces[j].Name()
	})
	return namespaces, nil
}

func (s *memoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

type memoryNamespace struct {
	mu     sync.RWMutex
	name   string
	lastID int64
	rows   map[int64]model.Reservation
}

func (n *memoryNamespace) Name() string {
	return n.name
}

func (n *memoryNamespace) Insert(ctx context.Context, r *model.Reservation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	n.lastID++
	r.ID = n.lastID
	r.Resource = n.name
	n.rows[r.ID] = *r
	return nil
}

func (n *memoryNamespace) collect(ctx context.Context, keep func(*model.Reservation) bool) ([]*model.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n.mu.RLock()
	defer n.mu.RUnlock()

	reservations := []*model.Reservation{}
	for _, row := range n.rows {
		r := row
		if keep(&r) {
			reservations = append(reservations, &r)
		}
	}
	sort.Slice(reservations, func(i, j int) bool {
		if reservations[i].Day != reservations[j].Day {
			return reservations[i].Day < reservations[j].Day
		}
		return reservations[i].StartTime.Before(reservations[j].StartTime)
	})
	return reservations, nil
}

func (n *memoryNamespace) FindByDay(ctx context.Context, day string) ([]*model.Reservation, error) {
	return n.collect(ctx, func(r *model.Reservation) bool {
		return r.Day == day
	})
}

func (n *memoryNamespace) FindBetween(ctx context.Context, fromDay, toDay string) ([]*model.Reservation, error) {
	return n.collect(ctx, func(r *model.Reservation) bool {
		return r.Day >= fromDay && r.Day <= toDay
	})
}

func (n *memoryNamespace) FindByID(ctx context.Context, id int64) (*model.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n.mu.RLock()
	defer n.mu.RUnlock()

	row, ok := n.rows[id]
	if !ok {
		return nil, reservationserrors.ErrNotFound
	}
	return &row, nil
}

func (n *memoryNamespace) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.rows[id]; !ok {
		return reservationserrors.ErrNotFound
	}
	delete(n.rows, id)
	return nil
}

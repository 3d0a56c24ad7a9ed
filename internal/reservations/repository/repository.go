package repository

import (
	"context"
	"roomres/pkg/model"
)

// Namespace holds the reservations of a single resource.
type Namespace interface {
	Name() string
	// Insert assigns the next sequential id of the namespace and persists r.
	Insert(ctx context.Context, r *model.Reservation) error
	FindByDay(ctx context.Context, day string) ([]*model.Reservation, error)
	// FindBetween returns reservations whose day lies in [fromDay, toDay],
	// ordered by day then start time.
	FindBetween(ctx context.Context, fromDay, toDay string) ([]*model.Reservation, error)
	FindByID(ctx context.Context, id int64) (*model.Reservation, error)
	Delete(ctx context.Context, id int64) error
}

// Store creates and enumerates namespaces.
type Store interface {
	// CreateNamespace is idempotent: an existing namespace is returned as is.
	CreateNamespace(ctx context.Context, name string) (Namespace, error)
	Namespaces(ctx context.Context) ([]Namespace, error)
	Ping(ctx context.Context) error
}

package repository

import (
	"context"
	"errors"
	"fmt"
	migrations "roomres/internal/migrations/mongo"
	reservationserrors "roomres/internal/reservations/errors"
	"roomres/pkg/config"
	"roomres/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CatalogCollectionName  = migrations.CatalogCollectionName
	reservationsCollPrefix = "Reservations_"
)

type mongoStore struct {
	cfg     *config.Config
	db      *mongo.Database
	catalog *mongo.Collection
}

func NewMongoStore(cfg *config.Config) Store {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoStore{
		cfg:     cfg,
		db:      db,
		catalog: db.Collection(CatalogCollectionName),
	}
}

// withTimeout wraps the context with the configured timeout unless the caller
// already carries a shorter deadline.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (s *mongoStore) CreateNamespace(ctx context.Context, name string) (Namespace, error) {
	ctx, cancel := withTimeout(ctx, s.cfg.WriteTimeout)
	defer cancel()

	resource := model.Resource{
		Name:       name,
		Collection: reservationsCollPrefix + name,
		CreatedAt:  model.StoredTime(time.Now()),
	}

	filter := bson.M{"_id": name}
	update := bson.M{"$setOnInsert": bson.M{
		"collection": resource.Collection,
		"last_id":    int64(0),
		"created_at": resource.CreatedAt,
	}}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var stored model.Resource
	if err := s.catalog.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored); err != nil {
		return nil, fmt.Errorf("failed to register resource %s: %w", name, err)
	}

	if err := migrations.EnsureReservationCollection(ctx, s.db, stored.Collection, s.cfg.Log); err != nil {
		return nil, fmt.Errorf("failed to prepare collection for resource %s: %w", name, err)
	}

	return s.namespace(&stored), nil
}

func (s *mongoStore) Namespaces(ctx context.Context) ([]Namespace, error) {
	ctx, cancel := withTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	cursor, err := s.catalog.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}
	defer cursor.Close(ctx)

	var resources []*model.Resource
	if err = cursor.All(ctx, &resources); err != nil {
		return nil, fmt.Errorf("failed to decode resources: %w", err)
	}

	namespaces := make([]Namespace, 0, len(resources))
	for _, r := range resources {
		namespaces = append(namespaces, s.namespace(r))
	}
	return namespaces, nil
}

func (s *mongoStore) Ping(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()
	return s.db.Client().Ping(ctx, nil)
}

func (s *mongoStore) namespace(r *model.Resource) *mongoNamespace {
	return &mongoNamespace{
		cfg:        s.cfg,
		name:       r.Name,
		catalog:    s.catalog,
		collection: s.db.Collection(r.Collection),
	}
}

type mongoNamespace struct {
	cfg        *config.Config
	name       string
	catalog    *mongo.Collection
	collection *mongo.Collection
}

func (n *mongoNamespace) Name() string {
	return n.name
}

func (n *mongoNamespace) nextID(ctx context.Context) (int64, error) {
	filter := bson.M{"_id": n.name}
	update := bson.M{"$inc": bson.M{"last_id": int64(1)}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var resource model.Resource
	if err := n.catalog.FindOneAndUpdate(ctx, filter, update, opts).Decode(&resource); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, reservationserrors.ErrResourceNotFound
		}
		return 0, err
	}
	return resource.LastID, nil
}

func (n *mongoNamespace) Insert(ctx context.Context, r *model.Reservation) error {
	ctx, cancel := withTimeout(ctx, n.cfg.WriteTimeout)
	defer cancel()

	id, err := n.nextID(ctx)
	if err != nil {
		return fmt.Errorf("failed to allocate reservation id: %w", err)
	}

	r.ID = id
	r.Resource = n.name
	r.CreatedAt = model.StoredTime(r.CreatedAt)
	if _, err := n.collection.InsertOne(ctx, r); err != nil {
		return fmt.Errorf("failed to create reservation: %w", err)
	}
	return nil
}

func (n *mongoNamespace) find(ctx context.Context, filter bson.M) ([]*model.Reservation, error) {
	ctx, cancel := withTimeout(ctx, n.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{
		{Key: "day", Value: 1},
		{Key: "start_time", Value: 1},
	})

	cursor, err := n.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find reservations: %w", err)
	}
	defer cursor.Close(ctx)

	reservations := []*model.Reservation{}
	if err = cursor.All(ctx, &reservations); err != nil {
		return nil, fmt.Errorf("failed to decode reservations: %w", err)
	}
	return reservations, nil
}

func (n *mongoNamespace) FindByDay(ctx context.Context, day string) ([]*model.Reservation, error) {
	return n.find(ctx, bson.M{"day": day})
}

func (n *mongoNamespace) FindBetween(ctx context.Context, fromDay, toDay string) ([]*model.Reservation, error) {
	return n.find(ctx, bson.M{"day": bson.M{"$gte": fromDay, "$lte": toDay}})
}

func (n *mongoNamespace) FindByID(ctx context.Context, id int64) (*model.Reservation, error) {
	ctx, cancel := withTimeout(ctx, n.cfg.ReadTimeout)
	defer cancel()

	var reservation model.Reservation
	err := n.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&reservation)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, reservationserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find reservation: %w", err)
	}
	return &reservation, nil
}

func (n *mongoNamespace) Delete(ctx context.Context, id int64) error {
	ctx, cancel := withTimeout(ctx, n.cfg.WriteTimeout)
	defer cancel()

	result, err := n.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete reservation: %w", err)
	}
	if result.DeletedCount == 0 {
		return reservationserrors.ErrNotFound
	}
	return nil
}

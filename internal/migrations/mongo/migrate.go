package mongo

import (
	"context"
	"fmt"
	"roomres/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"roomres/internal/migrations/mongo/validators"
)

const (
	CatalogCollectionName = "Resources"
)

var (
	CatalogIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "collection", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	ReservationIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "day", Value: 1},
			{Key: "start_time", Value: 1},
		}},
		{Keys: bson.D{{Key: "requester_id", Value: 1}}},
	}
)

// RunMigration prepares the resource catalog and every reservation
// collection it references.
func RunMigration(ctx context.Context, db *mongo.Database, log *logger.Logger) error {
	log.Info("Running Mongo migrations", "database", db.Name())

	if err := ensureCollection(ctx, db, CatalogCollectionName, validators.ResourceValidator, log); err != nil {
		return fmt.Errorf("failed to ensure collection %s: %w", CatalogCollectionName, err)
	}
	if err := ensureIndexes(ctx, db, CatalogCollectionName, CatalogIndexes, log); err != nil {
		return fmt.Errorf("failed to ensure indexes for %s: %w", CatalogCollectionName, err)
	}

	collections, err := reservationCollections(ctx, db)
	if err != nil {
		return err
	}
	for _, name := range collections {
		if err := EnsureReservationCollection(ctx, db, name, log); err != nil {
			return err
		}
	}

	log.Info("All migrations applied successfully", "reservation_collections", len(collections))
	return nil
}

// EnsureReservationCollection creates (or updates) the collection backing a
// single resource with its schema validator and indexes.
func EnsureReservationCollection(ctx context.Context, db *mongo.Database, name string, log *logger.Logger) error {
	if err := ensureCollection(ctx, db, name, validators.ReservationValidator, log); err != nil {
		return fmt.Errorf("failed to ensure collection %s: %w", name, err)
	}
	if err := ensureIndexes(ctx, db, name, ReservationIndexes, log); err != nil {
		return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
	}
	return nil
}

func reservationCollections(ctx context.Context, db *mongo.Database) ([]string, error) {
	cursor, err := db.Collection(CatalogCollectionName).Find(ctx, bson.M{},
		options.Find().SetProjection(bson.M{"collection": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to read resource catalog: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []struct {
		Collection string `bson:"collection"`
	}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode resource catalog: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Collection)
	}
	return names, nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
	} else {
		log.Debug("Collection already exists, updating validator if needed", "collection", name)
		command := bson.D{
			{Key: "collMod", Value: name},
			{Key: "validator", Value: validator},
		}
		if err := db.RunCommand(ctx, command).Err(); err != nil {
			log.Warn("Failed updating validator", "collection", name, "error", err)
		}
	}

	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	coll := db.Collection(name)
	_, err := coll.Indexes().CreateMany(ctx, models)
	if err != nil {
		return err
	}
	log.Debug("Ensured indexes", "collection", name)
	return nil
}

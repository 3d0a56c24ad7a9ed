package model

import "time"

// Resource is a catalog entry for a bookable resource. Collection is the
// storage namespace holding its reservations; LastID is the id sequence.
type Resource struct {
	Name       string    `json:"name" bson:"_id"`
	Collection string    `json:"-" bson:"collection"`
	LastID     int64     `json:"-" bson:"last_id"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}

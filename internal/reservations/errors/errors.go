package errors

import "errors"

var (
	ErrNotFound = errors.New("reservation not found")

	ErrResourceNotFound = errors.New("resource not found")

	ErrInvalidRange = errors.New("end time must be after start time on the same day")

	ErrOverlap = errors.New("reservation overlaps an existing reservation")

	ErrUnauthorized = errors.New("not authorized to modify this reservation")

	ErrStorage = errors.New("reservation storage failure")

	ErrQueueFull = errors.New("admission queue is full")

	ErrWorkerStopped = errors.New("admission worker is not running")

	ErrCancelled = errors.New("reservation request cancelled before admission")
)

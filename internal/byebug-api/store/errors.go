package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrNotFound indicates the referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a create collided with an existing id.
	ErrConflict = errors.New("already exists")
	// ErrUnavailable indicates the backing store failed or is unreachable.
	ErrUnavailable = errors.New("store unavailable")
	// ErrInvalidTransition indicates a status update the state machine rejects.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// wrapDBErr maps raw gorm errors onto the store taxonomy. Callers
// annotate with the entity kind and id.
func wrapDBErr(err error, kind, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
	}
	return fmt.Errorf("%s %q: %w: %v", kind, id, ErrUnavailable, err)
}

package job

import (
	"context"
	"errors"
)

// ErrJobNotFound is returned when a work item cannot be found by ID.
var ErrJobNotFound = errors.New("job not found")

// Repository defines the interface for work item persistence.
// It acts as a port in the hexagonal architecture pattern.
type Repository interface {
	// Save persists a work item to the storage.
	// If the work item already exists, it should be updated.
	Save(ctx context.Context, job *Job) error

	// FindByID retrieves a work item by its unique identifier.
	// Returns ErrJobNotFound if the work item does not exist.
	FindByID(ctx context.Context, id string) (*Job, error)

	// List returns all work items.
	List(ctx context.Context) ([]*Job, error)

	// Delete removes a work item from storage.
	// Returns ErrJobNotFound if the work item does not exist.
	Delete(ctx context.Context, id string) error
}

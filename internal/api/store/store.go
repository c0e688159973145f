package store

import (
	"context"
	"errors"

	"github.com/strideworks/fittrack/internal/api/domain"
	"github.com/strideworks/fittrack/pkg/idx"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrUnavailable covers transient failures (timeouts, busy locks).
	// Callers may retry with backoff.
	ErrUnavailable = errors.New("store: unavailable")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// memory) implement this.
//
// The contract is deliberately weaker than a relational store's: every
// operation is atomic over a single record, and there is no
// multi-record transaction. The registrar protocol is written against
// exactly this contract, so drivers must not quietly strengthen it
// (and callers must not assume more).
type Store interface {
	Users() Users
	Goals() Goals
	Workouts() Workouts

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id idx.ID) (domain.User, error)

	// GetUserByEmail matches case-insensitively. Returns ErrNotFound on
	// miss; the caller decides whether a miss is an error.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the app via ULID).
	// Returns ErrAlreadyExists when the email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// ListUsers returns all users. Used by the reconciliation sweep.
	ListUsers(ctx context.Context) ([]domain.User, error)

	// AttachGoal appends goalID to the user's goal list as a single
	// targeted, idempotent write: appending an id already present is a
	// no-op. Never a whole-list read-modify-write.
	AttachGoal(ctx context.Context, userID, goalID idx.ID) error

	// DetachGoal removes goalID from the user's goal list as a single
	// targeted, idempotent write: removing an absent id is a no-op.
	DetachGoal(ctx context.Context, userID, goalID idx.ID) error

	AttachWorkout(ctx context.Context, userID, workoutID idx.ID) error
	DetachWorkout(ctx context.Context, userID, workoutID idx.ID) error

	// ReplaceGoalIDs overwrites the whole goal list. Reserved for the
	// reconciliation sweep, which rebuilds the list from ground truth;
	// request paths must use the targeted operations above.
	ReplaceGoalIDs(ctx context.Context, userID idx.ID, ids []idx.ID) error
	ReplaceWorkoutIDs(ctx context.Context, userID idx.ID, ids []idx.ID) error
}

// Resources is keyed storage for an owned child entity. The child
// record is the durable source of truth for ownership.
type Resources[T domain.Owned] interface {
	// Get returns the entity by id.
	Get(ctx context.Context, id idx.ID) (T, error)

	// Create inserts a new entity.
	Create(ctx context.Context, v T) error

	// Update overwrites the entity's mutable fields and bumps its
	// updated timestamp, returning the stored result.
	Update(ctx context.Context, v T) (T, error)

	// Delete removes the entity and returns the record as it was at the
	// moment of deletion, so the caller can read the owner id off a
	// record that no longer exists.
	Delete(ctx context.Context, id idx.ID) (T, error)

	// ListAll returns every entity. Used by the reconciliation sweep.
	ListAll(ctx context.Context) ([]T, error)
}

type Goals interface {
	Resources[domain.Goal]
}

type Workouts interface {
	Resources[domain.Workout]
}

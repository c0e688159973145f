package service

import (
	"context"
	"errors"

	"github.com/strideworks/fittrack/internal/api/domain"
	"github.com/strideworks/fittrack/internal/api/store"
	"github.com/strideworks/fittrack/pkg/idx"
	"github.com/strideworks/fittrack/pkg/slogx"
)

// Registrar keeps a user's denormalized back-reference list in step with
// the owned child records, without any multi-record transaction. The
// child record is the durable ground truth for ownership; the owner's
// list is a cache of it.
//
// The ordering rules are fixed:
//
//   - Create persists the child BEFORE touching the owner's list. A
//     crash in between leaves an orphan (child exists, list lacks it),
//     never a dangling reference.
//   - Delete removes the child BEFORE touching the owner's list. A
//     crash in between leaves a dangling reference (list names a child
//     that is gone), which readers filter out.
//
// Both residues are bounded and repaired by the reconciliation sweep,
// so a failed list write is logged and absorbed rather than surfaced.
type Registrar[T domain.Owned] struct {
	// Kind names the child entity in log lines ("goal", "workout").
	Kind string

	Users    store.Users
	Children store.Resources[T]

	// Attach and Detach are the targeted single-element list writes for
	// this kind, e.g. store.Users.AttachGoal. They must be idempotent.
	Attach func(ctx context.Context, userID, childID idx.ID) error
	Detach func(ctx context.Context, userID, childID idx.ID) error

	// OwnedIDs reads this kind's back-reference list off a user.
	OwnedIDs func(u domain.User) []idx.ID
}

// Create persists a new child under its owner. The owner must exist at
// the moment of the check; the child is never written first.
func (r *Registrar[T]) Create(ctx context.Context, v T) (T, error) {
	var zero T

	if _, err := r.Users.GetUserByID(ctx, v.Owner()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return zero, ErrOwnerNotFound
		}
		return zero, mapStoreErr(err)
	}

	if err := r.Children.Create(ctx, v); err != nil {
		return zero, mapStoreErr(err)
	}

	// The child is durable from here on. A failed attach is an orphan,
	// not a failed create; the sweep re-attaches it.
	if err := r.Attach(ctx, v.Owner(), v.Key()); err != nil {
		slogx.FromContext(ctx).Warn("attach after create failed, record is orphaned until next sweep",
			"kind", r.Kind, "id", v.Key(), "user_id", v.Owner(), "error", err)
	}

	return v, nil
}

// Get returns a child by id.
func (r *Registrar[T]) Get(ctx context.Context, id idx.ID) (T, error) {
	v, err := r.Children.Get(ctx, id)
	if err != nil {
		var zero T
		return zero, mapStoreErr(err)
	}
	return v, nil
}

// Update overwrites a child's mutable fields. Only the owner may update;
// anyone else sees ErrNotFound, the same as for a missing record.
func (r *Registrar[T]) Update(ctx context.Context, callerID idx.ID, v T) (T, error) {
	var zero T

	existing, err := r.Children.Get(ctx, v.Key())
	if err != nil {
		return zero, mapStoreErr(err)
	}
	if existing.Owner() != callerID {
		return zero, ErrNotFound
	}

	updated, err := r.Children.Update(ctx, v)
	if err != nil {
		return zero, mapStoreErr(err)
	}
	return updated, nil
}

// Delete removes a child and detaches it from its owner's list. The
// owner id is read off the record the delete itself returns, never off a
// prior read, so concurrent deletes cannot detach the wrong owner.
//
// Delete never rolls back: once the child row is gone the operation has
// succeeded, and any detach failure only leaves a dangling reference for
// the sweep.
func (r *Registrar[T]) Delete(ctx context.Context, callerID, id idx.ID) error {
	existing, err := r.Children.Get(ctx, id)
	if err != nil {
		return mapStoreErr(err)
	}
	if existing.Owner() != callerID {
		return ErrNotFound
	}

	deleted, err := r.Children.Delete(ctx, id)
	if err != nil {
		// A concurrent delete winning the race still means the record
		// is gone.
		return mapStoreErr(err)
	}

	if err := r.Detach(ctx, deleted.Owner(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Owner was deleted out from under us; there is no list
			// left to repair.
			slogx.FromContext(ctx).Info("detach skipped, owner no longer exists",
				"kind", r.Kind, "id", id, "user_id", deleted.Owner())
			return nil
		}
		slogx.FromContext(ctx).Warn("detach after delete failed, reference dangles until next sweep",
			"kind", r.Kind, "id", id, "user_id", deleted.Owner(), "error", err)
	}

	return nil
}

// ListOwned resolves a user's back-reference list into records. A
// reference whose record is missing, or whose record names a different
// owner, is a residue of an interrupted operation and is skipped.
func (r *Registrar[T]) ListOwned(ctx context.Context, userID idx.ID) ([]T, error) {
	u, err := r.Users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	ids := r.OwnedIDs(u)
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		v, err := r.Children.Get(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				slogx.FromContext(ctx).Warn("skipping dangling reference",
					"kind", r.Kind, "id", id, "user_id", userID)
				continue
			}
			return nil, mapStoreErr(err)
		}
		if v.Owner() != userID {
			slogx.FromContext(ctx).Warn("skipping reference owned elsewhere",
				"kind", r.Kind, "id", id, "user_id", userID, "owner_id", v.Owner())
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrUnavailable):
		return ErrStoreUnavailable
	}
	return err
}

// Package memory is an in-process store driver. It backs unit tests and
// offers the same single-record atomicity contract as the sqlite driver:
// every operation holds the store lock for exactly one record mutation,
// and nothing spans two records.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/strideworks/fittrack/internal/api/domain"
	"github.com/strideworks/fittrack/internal/api/store"
	"github.com/strideworks/fittrack/pkg/idx"
)

type Store struct {
	mu       sync.Mutex
	users    map[idx.ID]domain.User
	emails   map[string]idx.ID
	goals    map[idx.ID]domain.Goal
	workouts map[idx.ID]domain.Workout

	// One-shot fault injection for exercising partial-failure paths.
	// Each error is returned by the next matching operation and then
	// cleared.
	FailNextAttach      error
	FailNextDetach      error
	FailNextChildCreate error
	FailNextChildDelete error
}

func NewStore() *Store {
	return &Store{
		users:    make(map[idx.ID]domain.User),
		emails:   make(map[string]idx.ID),
		goals:    make(map[idx.ID]domain.Goal),
		workouts: make(map[idx.ID]domain.Workout),
	}
}

func (s *Store) Users() store.Users { return &usersRepo{s: s} }

func (s *Store) Goals() store.Goals {
	return &childRepo[domain.Goal]{
		s:       s,
		records: s.goals,
		touch: func(g domain.Goal, at time.Time) domain.Goal {
			g.UpdatedAt = at
			return g
		},
	}
}

func (s *Store) Workouts() store.Workouts {
	return &childRepo[domain.Workout]{
		s:       s,
		records: s.workouts,
		touch: func(w domain.Workout, at time.Time) domain.Workout {
			w.UpdatedAt = at
			return w
		},
	}
}

func (s *Store) ApplyMigrations() error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) Ping(ctx context.Context) error { return nil }

// CountUsers reports the number of stored users. Test helper.
func (s *Store) CountUsers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

type usersRepo struct {
	s *Store
}

func (r *usersRepo) GetUserByID(ctx context.Context, id idx.ID) (domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return domain.User{}, store.ErrNotFound
	}
	return copyUser(u), nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id, ok := r.s.emails[strings.ToLower(email)]
	if !ok {
		return domain.User{}, store.ErrNotFound
	}
	return copyUser(r.s.users[id]), nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := strings.ToLower(u.Email)
	if _, taken := r.s.emails[key]; taken {
		return store.ErrAlreadyExists
	}
	if _, taken := r.s.users[u.ID]; taken {
		return store.ErrAlreadyExists
	}

	r.s.users[u.ID] = copyUser(u)
	r.s.emails[key] = u.ID
	return nil
}

func (r *usersRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	users := make([]domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		users = append(users, copyUser(u))
	}
	return users, nil
}

func (r *usersRepo) AttachGoal(ctx context.Context, userID, goalID idx.ID) error {
	return r.attach(userID, goalID, false)
}

func (r *usersRepo) DetachGoal(ctx context.Context, userID, goalID idx.ID) error {
	return r.detach(userID, goalID, false)
}

func (r *usersRepo) AttachWorkout(ctx context.Context, userID, workoutID idx.ID) error {
	return r.attach(userID, workoutID, true)
}

func (r *usersRepo) DetachWorkout(ctx context.Context, userID, workoutID idx.ID) error {
	return r.detach(userID, workoutID, true)
}

func (r *usersRepo) ReplaceGoalIDs(ctx context.Context, userID idx.ID, ids []idx.ID) error {
	return r.replace(userID, ids, false)
}

func (r *usersRepo) ReplaceWorkoutIDs(ctx context.Context, userID idx.ID, ids []idx.ID) error {
	return r.replace(userID, ids, true)
}

func (r *usersRepo) attach(userID, childID idx.ID, workout bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.FailNextAttach; err != nil {
		r.s.FailNextAttach = nil
		return err
	}

	u, ok := r.s.users[userID]
	if !ok {
		return store.ErrNotFound
	}

	list := u.GoalIDs
	if workout {
		list = u.WorkoutIDs
	}
	for _, id := range list {
		if id == childID {
			return nil
		}
	}
	list = append(list, childID)

	if workout {
		u.WorkoutIDs = list
	} else {
		u.GoalIDs = list
	}
	u.UpdatedAt = time.Now().UTC()
	r.s.users[userID] = u
	return nil
}

func (r *usersRepo) detach(userID, childID idx.ID, workout bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.FailNextDetach; err != nil {
		r.s.FailNextDetach = nil
		return err
	}

	u, ok := r.s.users[userID]
	if !ok {
		return store.ErrNotFound
	}

	list := u.GoalIDs
	if workout {
		list = u.WorkoutIDs
	}
	kept := make([]idx.ID, 0, len(list))
	for _, id := range list {
		if id != childID {
			kept = append(kept, id)
		}
	}

	if workout {
		u.WorkoutIDs = kept
	} else {
		u.GoalIDs = kept
	}
	u.UpdatedAt = time.Now().UTC()
	r.s.users[userID] = u
	return nil
}

func (r *usersRepo) replace(userID idx.ID, ids []idx.ID, workout bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[userID]
	if !ok {
		return store.ErrNotFound
	}

	fresh := append([]idx.ID(nil), ids...)
	if workout {
		u.WorkoutIDs = fresh
	} else {
		u.GoalIDs = fresh
	}
	u.UpdatedAt = time.Now().UTC()
	r.s.users[userID] = u
	return nil
}

// childRepo implements store.Resources over one of the store's child
// maps. Goal and workout records are plain values, so map reads already
// hand out copies.
type childRepo[T domain.Owned] struct {
	s       *Store
	records map[idx.ID]T
	touch   func(T, time.Time) T
}

func (r *childRepo[T]) Get(ctx context.Context, id idx.ID) (T, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var zero T
	v, ok := r.records[id]
	if !ok {
		return zero, store.ErrNotFound
	}
	return v, nil
}

func (r *childRepo[T]) Create(ctx context.Context, v T) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.FailNextChildCreate; err != nil {
		r.s.FailNextChildCreate = nil
		return err
	}

	if _, taken := r.records[v.Key()]; taken {
		return store.ErrAlreadyExists
	}
	r.records[v.Key()] = v
	return nil
}

func (r *childRepo[T]) Update(ctx context.Context, v T) (T, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var zero T
	if _, ok := r.records[v.Key()]; !ok {
		return zero, store.ErrNotFound
	}
	updated := r.touch(v, time.Now().UTC())
	r.records[v.Key()] = updated
	return updated, nil
}

func (r *childRepo[T]) Delete(ctx context.Context, id idx.ID) (T, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var zero T
	if err := r.s.FailNextChildDelete; err != nil {
		r.s.FailNextChildDelete = nil
		return zero, err
	}

	v, ok := r.records[id]
	if !ok {
		return zero, store.ErrNotFound
	}
	delete(r.records, id)
	return v, nil
}

func (r *childRepo[T]) ListAll(ctx context.Context) ([]T, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	all := make([]T, 0, len(r.records))
	for _, v := range r.records {
		all = append(all, v)
	}
	return all, nil
}

func copyUser(u domain.User) domain.User {
	u.GoalIDs = append([]idx.ID(nil), u.GoalIDs...)
	u.WorkoutIDs = append([]idx.ID(nil), u.WorkoutIDs...)
	return u
}

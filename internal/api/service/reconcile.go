package service

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/strideworks/fittrack/internal/api/domain"
	"github.com/strideworks/fittrack/internal/api/store"
	"github.com/strideworks/fittrack/pkg/idx"
)

// ReconcilerService periodically rebuilds every user's back-reference
// lists from the child records, which are the ground truth. This is the
// repair half of the registrar protocol: it re-attaches orphans, drops
// dangling references, and removes child records whose owning user no
// longer exists.
type ReconcilerService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// SweepStats summarizes one reconciliation pass.
type SweepStats struct {
	UsersChecked    int
	ListsRepaired   int
	StrayGoals      int
	StrayWorkouts   int
	DeletionsFailed int
}

// NewReconcilerService creates a reconciler with the given interval.
// If interval is 0 or negative, defaults to 1 hour.
func NewReconcilerService(store store.Store, logger *slog.Logger, interval time.Duration) *ReconcilerService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &ReconcilerService{
		Store:    store,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker that periodically runs the sweep.
// Non-blocking; call Stop() to shut the worker down.
func (s *ReconcilerService) Start() {
	go s.run()
	s.Logger.Info("reconciler started", "interval", s.Interval)
}

// Stop gracefully shuts down the background worker. Blocks until any
// in-progress sweep has finished.
func (s *ReconcilerService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("reconciler stopped")
}

func (s *ReconcilerService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Sweep once at startup to pick up residue from a previous crash.
	s.sweepAndLog()

	for {
		select {
		case <-ticker.C:
			s.sweepAndLog()
		case <-s.stopCh:
			return
		}
	}
}

func (s *ReconcilerService) sweepAndLog() {
	stats, err := s.Sweep(context.Background())
	if err != nil {
		s.Logger.Error("reconciliation sweep failed", "error", err)
		return
	}
	s.Logger.Info("reconciliation sweep completed",
		"users_checked", stats.UsersChecked,
		"lists_repaired", stats.ListsRepaired,
		"stray_goals", stats.StrayGoals,
		"stray_workouts", stats.StrayWorkouts)
}

// Sweep runs a single reconciliation pass.
//
// The pass reads a snapshot of users and children, so records mutated
// concurrently may be repaired one interval late. That is fine: the
// registrar only ever leaves bounded residue, and the next pass sees it.
func (s *ReconcilerService) Sweep(ctx context.Context) (SweepStats, error) {
	var stats SweepStats

	users, err := s.Store.Users().ListUsers(ctx)
	if err != nil {
		return stats, err
	}
	goals, err := s.Store.Goals().ListAll(ctx)
	if err != nil {
		return stats, err
	}
	workouts, err := s.Store.Workouts().ListAll(ctx)
	if err != nil {
		return stats, err
	}

	known := make(map[idx.ID]bool, len(users))
	for _, u := range users {
		known[u.ID] = true
	}

	goalsByOwner := make(map[idx.ID]map[idx.ID]bool)
	for _, g := range goals {
		if !known[g.UserID] {
			stats.StrayGoals++
			s.deleteStray(ctx, "goal", g.ID, g.UserID, &stats)
			continue
		}
		addOwned(goalsByOwner, g.UserID, g.ID)
	}

	workoutsByOwner := make(map[idx.ID]map[idx.ID]bool)
	for _, w := range workouts {
		if !known[w.UserID] {
			stats.StrayWorkouts++
			s.deleteStrayWorkout(ctx, w.ID, w.UserID, &stats)
			continue
		}
		addOwned(workoutsByOwner, w.UserID, w.ID)
	}

	for _, u := range users {
		stats.UsersChecked++

		if repaired := s.repairList(ctx, u, "goal", u.GoalIDs, goalsByOwner[u.ID],
			s.Store.Users().ReplaceGoalIDs); repaired {
			stats.ListsRepaired++
		}
		if repaired := s.repairList(ctx, u, "workout", u.WorkoutIDs, workoutsByOwner[u.ID],
			s.Store.Users().ReplaceWorkoutIDs); repaired {
			stats.ListsRepaired++
		}
	}

	return stats, nil
}

func (s *ReconcilerService) repairList(
	ctx context.Context,
	u domain.User,
	kind string,
	current []idx.ID,
	truth map[idx.ID]bool,
	replace func(ctx context.Context, userID idx.ID, ids []idx.ID) error,
) bool {
	desired, changed := reconcileList(current, truth)
	if !changed {
		return false
	}

	if err := replace(ctx, u.ID, desired); err != nil {
		s.Logger.Warn("list repair failed",
			"kind", kind, "user_id", u.ID, "error", err)
		return false
	}

	s.Logger.Info("repaired back-reference list",
		"kind", kind, "user_id", u.ID,
		"before", len(current), "after", len(desired))
	return true
}

func (s *ReconcilerService) deleteStray(ctx context.Context, kind string, id, ownerID idx.ID, stats *SweepStats) {
	if _, err := s.Store.Goals().Delete(ctx, id); err != nil {
		s.Logger.Warn("stray record delete failed",
			"kind", kind, "id", id, "user_id", ownerID, "error", err)
		stats.DeletionsFailed++
		return
	}
	s.Logger.Info("deleted stray record, owner no longer exists",
		"kind", kind, "id", id, "user_id", ownerID)
}

func (s *ReconcilerService) deleteStrayWorkout(ctx context.Context, id, ownerID idx.ID, stats *SweepStats) {
	if _, err := s.Store.Workouts().Delete(ctx, id); err != nil {
		s.Logger.Warn("stray record delete failed",
			"kind", "workout", "id", id, "user_id", ownerID, "error", err)
		stats.DeletionsFailed++
		return
	}
	s.Logger.Info("deleted stray record, owner no longer exists",
		"kind", "workout", "id", id, "user_id", ownerID)
}

func addOwned(m map[idx.ID]map[idx.ID]bool, owner, child idx.ID) {
	set, ok := m[owner]
	if !ok {
		set = make(map[idx.ID]bool)
		m[owner] = set
	}
	set[child] = true
}

// reconcileList rebuilds a back-reference list against the ground-truth
// set of children. Surviving ids keep their relative order; re-attached
// orphans are appended in id order, which for ULIDs is creation order.
func reconcileList(current []idx.ID, truth map[idx.ID]bool) ([]idx.ID, bool) {
	desired := make([]idx.ID, 0, len(truth))
	seen := make(map[idx.ID]bool, len(current))

	for _, id := range current {
		if truth[id] && !seen[id] {
			desired = append(desired, id)
			seen[id] = true
		}
	}

	var missing []idx.ID
	for id := range truth {
		if !seen[id] {
			missing = append(missing, id)
		}
	}
	slices.Sort(missing)
	desired = append(desired, missing...)

	return desired, !slices.Equal(current, desired)
}

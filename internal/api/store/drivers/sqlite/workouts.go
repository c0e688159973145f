package sqlite

import (
	"context"
	"database/sql"

	"github.com/strideworks/fittrack/internal/api/domain"
	"github.com/strideworks/fittrack/pkg/idx"
)

type workoutsRepo struct {
	db *sql.DB
}

const workoutColumns = `id, user_id, workout_type, duration_minutes, calories_burned, performed_at, created_at, updated_at`

func scanWorkout(row interface{ Scan(...any) error }) (domain.Workout, error) {
	var w domain.Workout
	var id, userID string
	err := row.Scan(&id, &userID, &w.WorkoutType, &w.DurationMinutes, &w.CaloriesBurned,
		&w.PerformedAt, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return domain.Workout{}, err
	}
	w.ID = idx.ID(id)
	w.UserID = idx.ID(userID)
	return w, nil
}

func (r *workoutsRepo) Get(ctx context.Context, id idx.ID) (domain.Workout, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+workoutColumns+` FROM workouts WHERE id = ?`, id.String())
	w, err := scanWorkout(row)
	if err != nil {
		return domain.Workout{}, mapErr(err)
	}
	return w, nil
}

func (r *workoutsRepo) Create(ctx context.Context, w domain.Workout) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO workouts (id, user_id, workout_type, duration_minutes, calories_burned, performed_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID.String(), w.UserID.String(), w.WorkoutType, w.DurationMinutes, w.CaloriesBurned,
		w.PerformedAt, w.CreatedAt, w.UpdatedAt,
	)
	return mapErr(err)
}

func (r *workoutsRepo) Update(ctx context.Context, w domain.Workout) (domain.Workout, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE workouts
		 SET workout_type = ?, duration_minutes = ?, calories_burned = ?, performed_at = ?, updated_at = ?
		 WHERE id = ?
		 RETURNING `+workoutColumns,
		w.WorkoutType, w.DurationMinutes, w.CaloriesBurned, w.PerformedAt, now(), w.ID.String(),
	)
	updated, err := scanWorkout(row)
	if err != nil {
		return domain.Workout{}, mapErr(err)
	}
	return updated, nil
}

// Delete removes the workout and returns the deleted row, capturing the
// owner id atomically with the delete.
func (r *workoutsRepo) Delete(ctx context.Context, id idx.ID) (domain.Workout, error) {
	row := r.db.QueryRowContext(ctx,
		`DELETE FROM workouts WHERE id = ? RETURNING `+workoutColumns, id.String())
	w, err := scanWorkout(row)
	if err != nil {
		return domain.Workout{}, mapErr(err)
	}
	return w, nil
}

func (r *workoutsRepo) ListAll(ctx context.Context) ([]domain.Workout, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+workoutColumns+` FROM workouts ORDER BY id`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var workouts []domain.Workout
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, mapErr(err)
		}
		workouts = append(workouts, w)
	}
	return workouts, mapErr(rows.Err())
}

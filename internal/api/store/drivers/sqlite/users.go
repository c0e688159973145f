package sqlite

import (
	"context"
	"database/sql"

	"github.com/strideworks/fittrack/internal/api/domain"
	"github.com/strideworks/fittrack/internal/api/store"
	"github.com/strideworks/fittrack/pkg/idx"
)

type usersRepo struct {
	db *sql.DB
}

const userColumns = `id, fullname, email, password_hash, goal_ids, workout_ids, date_joined, updated_at`

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var u domain.User
	var id, goalIDs, workoutIDs string
	err := row.Scan(&id, &u.Fullname, &u.Email, &u.PasswordHash, &goalIDs, &workoutIDs, &u.DateJoined, &u.UpdatedAt)
	if err != nil {
		return domain.User{}, err
	}
	u.ID = idx.ID(id)
	u.GoalIDs = decodeIDs(goalIDs)
	u.WorkoutIDs = decodeIDs(workoutIDs)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id idx.ID) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id.String())
	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapErr(err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	// email is UNIQUE COLLATE NOCASE, so the comparison here is
	// case-insensitive as well.
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapErr(err)
	}
	return u, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, fullname, email, password_hash, goal_ids, workout_ids, date_joined, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID.String(), u.Fullname, u.Email, u.PasswordHash,
		encodeIDs(u.GoalIDs), encodeIDs(u.WorkoutIDs), u.DateJoined, u.UpdatedAt,
	)
	return mapErr(err)
}

func (r *usersRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, mapErr(err)
		}
		users = append(users, u)
	}
	return users, mapErr(rows.Err())
}

func (r *usersRepo) AttachGoal(ctx context.Context, userID, goalID idx.ID) error {
	return r.attach(ctx, "goal_ids", userID, goalID)
}

func (r *usersRepo) DetachGoal(ctx context.Context, userID, goalID idx.ID) error {
	return r.detach(ctx, "goal_ids", userID, goalID)
}

func (r *usersRepo) AttachWorkout(ctx context.Context, userID, workoutID idx.ID) error {
	return r.attach(ctx, "workout_ids", userID, workoutID)
}

func (r *usersRepo) DetachWorkout(ctx context.Context, userID, workoutID idx.ID) error {
	return r.detach(ctx, "workout_ids", userID, workoutID)
}

func (r *usersRepo) ReplaceGoalIDs(ctx context.Context, userID idx.ID, ids []idx.ID) error {
	return r.replace(ctx, "goal_ids", userID, ids)
}

func (r *usersRepo) ReplaceWorkoutIDs(ctx context.Context, userID idx.ID, ids []idx.ID) error {
	return r.replace(ctx, "workout_ids", userID, ids)
}

// attach appends childID to the named list column in a single UPDATE
// statement. The statement itself skips the append when the id is
// already present, so concurrent attaches of different ids cannot undo
// each other and re-attaching is a no-op.
func (r *usersRepo) attach(ctx context.Context, column string, userID, childID idx.ID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET `+column+` = json_insert(`+column+`, '$[#]', ?1), updated_at = ?2
		 WHERE id = ?3
		   AND NOT EXISTS (SELECT 1 FROM json_each(users.`+column+`) WHERE value = ?1)`,
		childID.String(), now(), userID.String(),
	)
	if err != nil {
		return mapErr(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return mapErr(err)
	}
	if n == 0 {
		// Either the user is gone or the id was already present.
		return r.exists(ctx, userID)
	}
	return nil
}

// detach rewrites the named list column without childID in a single
// UPDATE statement. Removing an absent id leaves the list unchanged.
func (r *usersRepo) detach(ctx context.Context, column string, userID, childID idx.ID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET `+column+` = (SELECT coalesce(json_group_array(value), '[]')
		                   FROM json_each(users.`+column+`) WHERE value <> ?1),
		     updated_at = ?2
		 WHERE id = ?3`,
		childID.String(), now(), userID.String(),
	)
	if err != nil {
		return mapErr(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return mapErr(err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) replace(ctx context.Context, column string, userID idx.ID, ids []idx.ID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET `+column+` = ?, updated_at = ? WHERE id = ?`,
		encodeIDs(ids), now(), userID.String(),
	)
	if err != nil {
		return mapErr(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return mapErr(err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) exists(ctx context.Context, userID idx.ID) error {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, userID.String()).Scan(&one)
	return mapErr(err)
}

package sqlite

import (
	"context"
	"database/sql"

	"github.com/strideworks/fittrack/internal/api/domain"
	"github.com/strideworks/fittrack/pkg/idx"
)

type goalsRepo struct {
	db *sql.DB
}

const goalColumns = `id, user_id, target_calories, target_steps, target_minutes, created_at, updated_at`

func scanGoal(row interface{ Scan(...any) error }) (domain.Goal, error) {
	var g domain.Goal
	var id, userID string
	err := row.Scan(&id, &userID, &g.TargetCalories, &g.TargetSteps, &g.TargetMinutes, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return domain.Goal{}, err
	}
	g.ID = idx.ID(id)
	g.UserID = idx.ID(userID)
	return g, nil
}

func (r *goalsRepo) Get(ctx context.Context, id idx.ID) (domain.Goal, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = ?`, id.String())
	g, err := scanGoal(row)
	if err != nil {
		return domain.Goal{}, mapErr(err)
	}
	return g, nil
}

func (r *goalsRepo) Create(ctx context.Context, g domain.Goal) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO goals (id, user_id, target_calories, target_steps, target_minutes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID.String(), g.UserID.String(), g.TargetCalories, g.TargetSteps, g.TargetMinutes,
		g.CreatedAt, g.UpdatedAt,
	)
	return mapErr(err)
}

func (r *goalsRepo) Update(ctx context.Context, g domain.Goal) (domain.Goal, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE goals
		 SET target_calories = ?, target_steps = ?, target_minutes = ?, updated_at = ?
		 WHERE id = ?
		 RETURNING `+goalColumns,
		g.TargetCalories, g.TargetSteps, g.TargetMinutes, now(), g.ID.String(),
	)
	updated, err := scanGoal(row)
	if err != nil {
		return domain.Goal{}, mapErr(err)
	}
	return updated, nil
}

// Delete removes the goal and returns the deleted row. RETURNING makes
// the owner-id capture atomic with the delete itself.
func (r *goalsRepo) Delete(ctx context.Context, id idx.ID) (domain.Goal, error) {
	row := r.db.QueryRowContext(ctx,
		`DELETE FROM goals WHERE id = ? RETURNING `+goalColumns, id.String())
	g, err := scanGoal(row)
	if err != nil {
		return domain.Goal{}, mapErr(err)
	}
	return g, nil
}

func (r *goalsRepo) ListAll(ctx context.Context) ([]domain.Goal, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+goalColumns+` FROM goals ORDER BY id`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var goals []domain.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, mapErr(err)
		}
		goals = append(goals, g)
	}
	return goals, mapErr(rows.Err())
}

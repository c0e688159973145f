package domain

import (
	"time"

	"github.com/strideworks/fittrack/pkg/idx"
)

// Workout is a logged exercise session owned by a single user.
type Workout struct {
	ID              idx.ID
	UserID          idx.ID
	WorkoutType     string // e.g. "Running", "Cycling"
	DurationMinutes int
	CaloriesBurned  int
	PerformedAt     time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (w Workout) Key() idx.ID   { return w.ID }
func (w Workout) Owner() idx.ID { return w.UserID }

package domain

import (
	"time"

	"github.com/strideworks/fittrack/pkg/idx"
)

// User is the account record. GoalIDs and WorkoutIDs are denormalized
// back-reference lists: each id must point at a Goal/Workout whose own
// UserID equals this user's ID. The child's UserID is the ground truth;
// these lists are a rebuildable index over it, maintained by the
// registrar and repaired by the reconciler.
type User struct {
	ID           idx.ID
	Fullname     string
	Email        string // stored lowercased; compared case-insensitively
	PasswordHash string // argon2id encoded
	GoalIDs      []idx.ID
	WorkoutIDs   []idx.ID
	DateJoined   time.Time
	UpdatedAt    time.Time
}

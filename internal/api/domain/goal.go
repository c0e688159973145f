package domain

import (
	"time"

	"github.com/strideworks/fittrack/pkg/idx"
)

// Goal is a fitness target owned by a single user.
type Goal struct {
	ID             idx.ID
	UserID         idx.ID
	TargetCalories int
	TargetSteps    int
	TargetMinutes  int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (g Goal) Key() idx.ID   { return g.ID }
func (g Goal) Owner() idx.ID { return g.UserID }

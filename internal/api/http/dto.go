package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/strideworks/fittrack/internal/api/domain"
	"github.com/strideworks/fittrack/internal/api/service"
	"github.com/strideworks/fittrack/pkg/httpx"
	"github.com/strideworks/fittrack/pkg/slogx"
)

// MessageResponse is the generic envelope for errors and confirmations.
type MessageResponse struct {
	Message string `json:"message"`
}

// TokenResponse carries a freshly issued access token.
type TokenResponse struct {
	Token   string `json:"token"`
	Message string `json:"message"`
}

// ProfileResponse is the authenticated user's own view of their record.
// The password hash never leaves the service.
type ProfileResponse struct {
	ID         string    `json:"id"`
	Fullname   string    `json:"fullname"`
	Email      string    `json:"email"`
	GoalIDs    []string  `json:"goalIds"`
	WorkoutIDs []string  `json:"workoutIds"`
	DateJoined time.Time `json:"dateJoined"`
}

func profileFromUser(u domain.User) ProfileResponse {
	return ProfileResponse{
		ID:         u.ID.String(),
		Fullname:   u.Fullname,
		Email:      u.Email,
		GoalIDs:    idStrings(u.GoalIDs),
		WorkoutIDs: idStrings(u.WorkoutIDs),
		DateJoined: u.DateJoined,
	}
}

// GoalResponse is the wire form of a goal.
type GoalResponse struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	TargetCalories int       `json:"targetCalories"`
	TargetSteps    int       `json:"targetSteps"`
	TargetMinutes  int       `json:"targetMinutes"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// GoalEnvelope wraps a single goal with a confirmation message.
type GoalEnvelope struct {
	Goal    GoalResponse `json:"goal"`
	Message string       `json:"message"`
}

// GoalsListResponse wraps a goal listing.
type GoalsListResponse struct {
	Goals []GoalResponse `json:"goals"`
}

func goalResponse(g domain.Goal) GoalResponse {
	return GoalResponse{
		ID:             g.ID.String(),
		UserID:         g.UserID.String(),
		TargetCalories: g.TargetCalories,
		TargetSteps:    g.TargetSteps,
		TargetMinutes:  g.TargetMinutes,
		CreatedAt:      g.CreatedAt,
		UpdatedAt:      g.UpdatedAt,
	}
}

// WorkoutResponse is the wire form of a workout.
type WorkoutResponse struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	WorkoutType     string    `json:"workoutType"`
	DurationMinutes int       `json:"durationMinutes"`
	CaloriesBurned  int       `json:"caloriesBurned"`
	PerformedAt     time.Time `json:"performedAt"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// WorkoutEnvelope wraps a single workout with a confirmation message.
type WorkoutEnvelope struct {
	Workout WorkoutResponse `json:"workout"`
	Message string          `json:"message"`
}

// WorkoutsListResponse wraps a workout listing.
type WorkoutsListResponse struct {
	Workouts []WorkoutResponse `json:"workouts"`
}

func workoutResponse(w domain.Workout) WorkoutResponse {
	return WorkoutResponse{
		ID:              w.ID.String(),
		UserID:          w.UserID.String(),
		WorkoutType:     w.WorkoutType,
		DurationMinutes: w.DurationMinutes,
		CaloriesBurned:  w.CaloriesBurned,
		PerformedAt:     w.PerformedAt,
		CreatedAt:       w.CreatedAt,
		UpdatedAt:       w.UpdatedAt,
	}
}

func idStrings[T ~string](ids []T) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

// writeServiceError maps service-layer sentinel errors onto HTTP status
// codes. Anything unrecognized is a 500 with a generic body; the real
// error goes to the log, not the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		httpx.WriteJSON(w, http.StatusBadRequest, MessageResponse{Message: err.Error()})
	case errors.Is(err, service.ErrDuplicateEmail):
		httpx.WriteJSON(w, http.StatusBadRequest, MessageResponse{Message: "Email already registered."})
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteJSON(w, http.StatusBadRequest, MessageResponse{Message: "Invalid email or password."})
	case errors.Is(err, service.ErrOwnerNotFound), errors.Is(err, service.ErrNotFound):
		httpx.WriteJSON(w, http.StatusNotFound, MessageResponse{Message: "Not found."})
	case errors.Is(err, service.ErrThrottled):
		httpx.WriteJSON(w, http.StatusTooManyRequests, MessageResponse{Message: "Too many login attempts. Please try again later."})
	case errors.Is(err, service.ErrStoreUnavailable):
		httpx.WriteJSON(w, http.StatusServiceUnavailable, MessageResponse{Message: "Service temporarily unavailable."})
	default:
		slogx.FromContext(r.Context()).Error("unhandled service error", "path", r.URL.Path, "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, MessageResponse{Message: "Internal server error."})
	}
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	httpx.WriteJSON(w, http.StatusBadRequest, MessageResponse{Message: msg})
}

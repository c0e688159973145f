package http

import (
	"net/http"
	"time"

	"github.com/strideworks/fittrack/internal/api/domain"
	"github.com/strideworks/fittrack/internal/api/service"
	"github.com/strideworks/fittrack/pkg/httpx"
	"github.com/strideworks/fittrack/pkg/idx"
)

type WorkoutsHandler struct {
	Workouts *service.Registrar[domain.Workout]
}

type workoutRequest struct {
	WorkoutType     string     `json:"workoutType"`
	DurationMinutes int        `json:"durationMinutes"`
	CaloriesBurned  int        `json:"caloriesBurned"`
	PerformedAt     *time.Time `json:"performedAt"`
}

func (req workoutRequest) validate() string {
	if req.WorkoutType == "" {
		return "Workout type is required."
	}
	if req.DurationMinutes <= 0 {
		return "Duration must be positive."
	}
	if req.CaloriesBurned < 0 {
		return "Calories burned must not be negative."
	}
	return ""
}

// HandleCreate records a workout for the authenticated user. PerformedAt
// defaults to now for workouts logged as they happen.
func (h *WorkoutsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	callerID, ok := caller(w, r)
	if !ok {
		return
	}

	var req workoutRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Malformed request body.")
		return
	}
	if msg := req.validate(); msg != "" {
		writeBadRequest(w, msg)
		return
	}

	now := time.Now().UTC()
	performedAt := now
	if req.PerformedAt != nil {
		performedAt = req.PerformedAt.UTC()
	}

	workout, err := h.Workouts.Create(r.Context(), domain.Workout{
		ID:              idx.New(),
		UserID:          callerID,
		WorkoutType:     req.WorkoutType,
		DurationMinutes: req.DurationMinutes,
		CaloriesBurned:  req.CaloriesBurned,
		PerformedAt:     performedAt,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, WorkoutEnvelope{
		Workout: workoutResponse(workout),
		Message: "Workout logged.",
	})
}

// HandleList returns the workouts referenced by a user's workout list.
func (h *WorkoutsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, err := idx.Parse(r.PathValue("userID"))
	if err != nil {
		writeBadRequest(w, "Malformed user id.")
		return
	}

	workouts, err := h.Workouts.ListOwned(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]WorkoutResponse, len(workouts))
	for i, v := range workouts {
		out[i] = workoutResponse(v)
	}
	httpx.WriteJSON(w, http.StatusOK, WorkoutsListResponse{Workouts: out})
}

// HandleGet returns a single workout by id.
func (h *WorkoutsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	workoutID, err := idx.Parse(r.PathValue("workoutID"))
	if err != nil {
		writeBadRequest(w, "Malformed workout id.")
		return
	}

	workout, err := h.Workouts.Get(r.Context(), workoutID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, WorkoutEnvelope{Workout: workoutResponse(workout)})
}

// HandleUpdate overwrites a workout's fields. Only the owner may update.
func (h *WorkoutsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	callerID, ok := caller(w, r)
	if !ok {
		return
	}

	workoutID, err := idx.Parse(r.PathValue("workoutID"))
	if err != nil {
		writeBadRequest(w, "Malformed workout id.")
		return
	}

	var req workoutRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Malformed request body.")
		return
	}
	if msg := req.validate(); msg != "" {
		writeBadRequest(w, msg)
		return
	}

	workout, err := h.Workouts.Get(r.Context(), workoutID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	workout.WorkoutType = req.WorkoutType
	workout.DurationMinutes = req.DurationMinutes
	workout.CaloriesBurned = req.CaloriesBurned
	if req.PerformedAt != nil {
		workout.PerformedAt = req.PerformedAt.UTC()
	}

	updated, err := h.Workouts.Update(r.Context(), callerID, workout)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, WorkoutEnvelope{
		Workout: workoutResponse(updated),
		Message: "Workout updated.",
	})
}

// HandleDelete removes a workout. Only the owner may delete.
func (h *WorkoutsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	callerID, ok := caller(w, r)
	if !ok {
		return
	}

	workoutID, err := idx.Parse(r.PathValue("workoutID"))
	if err != nil {
		writeBadRequest(w, "Malformed workout id.")
		return
	}

	if err := h.Workouts.Delete(r.Context(), callerID, workoutID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Workout deleted."})
}

package http

import (
	"net/http"
	"time"

	"github.com/strideworks/fittrack/internal/api/domain"
	"github.com/strideworks/fittrack/internal/api/service"
	"github.com/strideworks/fittrack/pkg/httpx"
	"github.com/strideworks/fittrack/pkg/idx"
)

type GoalsHandler struct {
	Goals *service.Registrar[domain.Goal]
}

type goalRequest struct {
	TargetCalories int `json:"targetCalories"`
	TargetSteps    int `json:"targetSteps"`
	TargetMinutes  int `json:"targetMinutes"`
}

func (req goalRequest) validate() string {
	if req.TargetCalories < 0 || req.TargetSteps < 0 || req.TargetMinutes < 0 {
		return "Targets must not be negative."
	}
	if req.TargetCalories == 0 && req.TargetSteps == 0 && req.TargetMinutes == 0 {
		return "At least one target is required."
	}
	return ""
}

// HandleCreate creates a goal owned by the authenticated user.
func (h *GoalsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	callerID, ok := caller(w, r)
	if !ok {
		return
	}

	var req goalRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Malformed request body.")
		return
	}
	if msg := req.validate(); msg != "" {
		writeBadRequest(w, msg)
		return
	}

	now := time.Now().UTC()
	goal, err := h.Goals.Create(r.Context(), domain.Goal{
		ID:             idx.New(),
		UserID:         callerID,
		TargetCalories: req.TargetCalories,
		TargetSteps:    req.TargetSteps,
		TargetMinutes:  req.TargetMinutes,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, GoalEnvelope{
		Goal:    goalResponse(goal),
		Message: "Goal created.",
	})
}

// HandleList returns the goals referenced by a user's goal list.
func (h *GoalsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, err := idx.Parse(r.PathValue("userID"))
	if err != nil {
		writeBadRequest(w, "Malformed user id.")
		return
	}

	goals, err := h.Goals.ListOwned(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]GoalResponse, len(goals))
	for i, g := range goals {
		out[i] = goalResponse(g)
	}
	httpx.WriteJSON(w, http.StatusOK, GoalsListResponse{Goals: out})
}

// HandleGet returns a single goal by id.
func (h *GoalsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	goalID, err := idx.Parse(r.PathValue("goalID"))
	if err != nil {
		writeBadRequest(w, "Malformed goal id.")
		return
	}

	goal, err := h.Goals.Get(r.Context(), goalID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, GoalEnvelope{Goal: goalResponse(goal)})
}

// HandleUpdate overwrites a goal's targets. Only the owner may update.
func (h *GoalsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	callerID, ok := caller(w, r)
	if !ok {
		return
	}

	goalID, err := idx.Parse(r.PathValue("goalID"))
	if err != nil {
		writeBadRequest(w, "Malformed goal id.")
		return
	}

	var req goalRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Malformed request body.")
		return
	}
	if msg := req.validate(); msg != "" {
		writeBadRequest(w, msg)
		return
	}

	goal, err := h.Goals.Get(r.Context(), goalID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	goal.TargetCalories = req.TargetCalories
	goal.TargetSteps = req.TargetSteps
	goal.TargetMinutes = req.TargetMinutes

	updated, err := h.Goals.Update(r.Context(), callerID, goal)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, GoalEnvelope{
		Goal:    goalResponse(updated),
		Message: "Goal updated.",
	})
}

// HandleDelete removes a goal. Only the owner may delete.
func (h *GoalsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	callerID, ok := caller(w, r)
	if !ok {
		return
	}

	goalID, err := idx.Parse(r.PathValue("goalID"))
	if err != nil {
		writeBadRequest(w, "Malformed goal id.")
		return
	}

	if err := h.Goals.Delete(r.Context(), callerID, goalID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Goal deleted."})
}

// caller reads the authenticated user id injected by the authn
// middleware.
func caller(w http.ResponseWriter, r *http.Request) (idx.ID, bool) {
	id, err := idx.Parse(httpx.UserIDFromCtx(r.Context()))
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return idx.Zero, false
	}
	return id, true
}

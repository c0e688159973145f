package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/strideworks/fittrack/internal/api/domain"
	"github.com/strideworks/fittrack/internal/api/service"
	"github.com/strideworks/fittrack/internal/api/store/drivers/memory"
	"github.com/strideworks/fittrack/pkg/cryptox"
	"github.com/strideworks/fittrack/pkg/idx"
	"github.com/strideworks/fittrack/pkg/jwtx"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestRouter(t *testing.T) (*Router, *memory.Store) {
	t.Helper()

	cryptox.SetPepperPath(filepath.Join(t.TempDir(), "pepper"))

	signer, err := jwtx.NewSignerHS256(testSecret)
	require.NoError(t, err)
	verifier := jwtx.NewVerifierHS256(testSecret, "fittrack-test")

	s := memory.NewStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := NewRouter(verifier, "test", s, logger)
	r.AuthService = &service.AuthService{
		Store:  s,
		Signer: signer,
		Issuer: "fittrack-test",
	}
	r.Goals = &service.Registrar[domain.Goal]{
		Kind:     "goal",
		Users:    s.Users(),
		Children: s.Goals(),
		Attach:   s.Users().AttachGoal,
		Detach:   s.Users().DetachGoal,
		OwnedIDs: func(u domain.User) []idx.ID { return u.GoalIDs },
	}
	r.Workouts = &service.Registrar[domain.Workout]{
		Kind:     "workout",
		Users:    s.Users(),
		Children: s.Workouts(),
		Attach:   s.Users().AttachWorkout,
		Detach:   s.Users().DetachWorkout,
		OwnedIDs: func(u domain.User) []idx.ID { return u.WorkoutIDs },
	}
	r.ApplyRoutes()

	return r, s
}

func doJSON(t *testing.T, r *Router, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func registerUser(t *testing.T, r *Router, email string) string {
	t.Helper()

	rec := doJSON(t, r, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"fullname": "Test User",
		"email":    email,
		"password": "a strong password",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	resp := decodeBody[TokenResponse](t, rec)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestRegisterLoginProfile(t *testing.T) {
	r, _ := newTestRouter(t)

	token := registerUser(t, r, "alice@example.com")

	rec := doJSON(t, r, http.MethodGet, "/v1/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	profile := decodeBody[ProfileResponse](t, rec)
	require.Equal(t, "alice@example.com", profile.Email)
	require.Empty(t, profile.GoalIDs)

	rec = doJSON(t, r, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "a strong password",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, decodeBody[TokenResponse](t, rec).Token)
}

func TestRegisterRejectsBadInput(t *testing.T) {
	r, s := newTestRouter(t)

	cases := []struct {
		name string
		body map[string]string
	}{
		{"ShortPassword", map[string]string{"fullname": "A", "email": "a@b.com", "password": "short"}},
		{"BadEmail", map[string]string{"fullname": "A", "email": "nope", "password": "a strong password"}},
		{"MissingFullname", map[string]string{"email": "a@b.com", "password": "a strong password"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, r, http.MethodPost, "/v1/auth/register", "", tc.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	require.Equal(t, 0, s.CountUsers())
}

func TestRegisterDuplicateEmail(t *testing.T) {
	r, s := newTestRouter(t)
	registerUser(t, r, "alice@example.com")

	rec := doJSON(t, r, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"fullname": "Other",
		"email":    "ALICE@example.com",
		"password": "a strong password",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, 1, s.CountUsers())
}

func TestLoginWrongCredentials(t *testing.T) {
	r, _ := newTestRouter(t)
	registerUser(t, r, "alice@example.com")

	wrongPass := doJSON(t, r, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "not the password",
	})
	require.Equal(t, http.StatusBadRequest, wrongPass.Code)

	unknownEmail := doJSON(t, r, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email":    "nobody@example.com",
		"password": "a strong password",
	})
	require.Equal(t, http.StatusBadRequest, unknownEmail.Code)

	// Both failure modes must present identically on the wire.
	require.Equal(t, wrongPass.Body.String(), unknownEmail.Body.String())
}

func TestProfileRequiresToken(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/v1/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/v1/me", "garbage-token", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGoalLifecycle(t *testing.T) {
	r, _ := newTestRouter(t)
	token := registerUser(t, r, "alice@example.com")

	rec := doJSON(t, r, http.MethodPost, "/v1/goals", token, map[string]int{
		"targetSteps": 10000,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	goal := decodeBody[GoalEnvelope](t, rec).Goal
	require.Equal(t, 10000, goal.TargetSteps)

	me := decodeBody[ProfileResponse](t, doJSON(t, r, http.MethodGet, "/v1/me", token, nil))
	require.Equal(t, []string{goal.ID}, me.GoalIDs)

	listPath := fmt.Sprintf("/v1/users/%s/goals", me.ID)
	rec = doJSON(t, r, http.MethodGet, listPath, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeBody[GoalsListResponse](t, rec).Goals, 1)

	rec = doJSON(t, r, http.MethodPut, "/v1/goals/"+goal.ID, token, map[string]int{
		"targetSteps":    12000,
		"targetCalories": 2000,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 12000, decodeBody[GoalEnvelope](t, rec).Goal.TargetSteps)

	rec = doJSON(t, r, http.MethodDelete, "/v1/goals/"+goal.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodGet, listPath, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, decodeBody[GoalsListResponse](t, rec).Goals)

	rec = doJSON(t, r, http.MethodGet, "/v1/goals/"+goal.ID, token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGoalValidation(t *testing.T) {
	r, _ := newTestRouter(t)
	token := registerUser(t, r, "alice@example.com")

	rec := doJSON(t, r, http.MethodPost, "/v1/goals", token, map[string]int{})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/v1/goals", token, map[string]int{"targetSteps": -1})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/v1/goals", token, map[string]any{
		"targetSteps": 1000,
		"bogusField":  true,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code, "unknown fields are rejected")
}

func TestGoalOwnershipEnforced(t *testing.T) {
	r, _ := newTestRouter(t)
	aliceToken := registerUser(t, r, "alice@example.com")
	bobToken := registerUser(t, r, "bob@example.com")

	rec := doJSON(t, r, http.MethodPost, "/v1/goals", aliceToken, map[string]int{"targetSteps": 10000})
	require.Equal(t, http.StatusCreated, rec.Code)
	goal := decodeBody[GoalEnvelope](t, rec).Goal

	rec = doJSON(t, r, http.MethodDelete, "/v1/goals/"+goal.ID, bobToken, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, r, http.MethodPut, "/v1/goals/"+goal.ID, bobToken, map[string]int{"targetSteps": 1})
	require.Equal(t, http.StatusNotFound, rec.Code)

	// Still alive and unchanged for the owner.
	rec = doJSON(t, r, http.MethodGet, "/v1/goals/"+goal.ID, aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 10000, decodeBody[GoalEnvelope](t, rec).Goal.TargetSteps)
}

func TestWorkoutLifecycle(t *testing.T) {
	r, _ := newTestRouter(t)
	token := registerUser(t, r, "alice@example.com")

	rec := doJSON(t, r, http.MethodPost, "/v1/workouts", token, map[string]any{
		"workoutType":     "run",
		"durationMinutes": 30,
		"caloriesBurned":  320,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	workout := decodeBody[WorkoutEnvelope](t, rec).Workout
	require.Equal(t, "run", workout.WorkoutType)
	require.False(t, workout.PerformedAt.IsZero())

	me := decodeBody[ProfileResponse](t, doJSON(t, r, http.MethodGet, "/v1/me", token, nil))
	require.Equal(t, []string{workout.ID}, me.WorkoutIDs)

	rec = doJSON(t, r, http.MethodGet, "/v1/workouts/"+workout.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodDelete, "/v1/workouts/"+workout.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodGet, fmt.Sprintf("/v1/users/%s/workouts", me.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, decodeBody[WorkoutsListResponse](t, rec).Workouts)
}

func TestWorkoutValidation(t *testing.T) {
	r, _ := newTestRouter(t)
	token := registerUser(t, r, "alice@example.com")

	rec := doJSON(t, r, http.MethodPost, "/v1/workouts", token, map[string]any{
		"durationMinutes": 30,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/v1/workouts", token, map[string]any{
		"workoutType":     "run",
		"durationMinutes": 0,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthProbes(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/livez", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", decodeBody[HealthResponse](t, rec).Status)

	rec = doJSON(t, r, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

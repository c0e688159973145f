package api_test

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
	"time"

	"github.com/stretchr/testify/require"

	"github.com/strideworks/fittrack/internal/api/domain"
	httpapi "github.com/strideworks/fittrack/internal/api/http"
	"github.com/strideworks/fittrack/internal/api/service"
	"github.com/strideworks/fittrack/internal/api/store/drivers/sqlite"
	"github.com/strideworks/fittrack/pkg/cryptox"
	"github.com/strideworks/fittrack/pkg/idx"
	"github.com/strideworks/fittrack/pkg/jwtx"
)

const (
	testIssuer = "fittrack-e2e"
	password   = "a strong password"
)

var secret = []byte("e2e-secret-0123456789abcdef01234")

// env is a fully wired service over a real sqlite file, served over a
// real TCP listener.
type env struct {
	baseURL string
	store   *sqlite.Store
	rec     *service.ReconcilerService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	dir := t.TempDir()
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	st, err := sqlite.NewStore(filepath.Join(dir, "fittrack.db"))
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	signer, err := jwtx.NewSignerHS256(secret)
	require.NoError(t, err)
	verifier := jwtx.NewVerifierHS256(secret, testIssuer)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := httpapi.NewRouter(verifier, "e2e", st, logger)
	router.AuthService = &service.AuthService{Store: st, Signer: signer, Issuer: testIssuer}
	router.Goals = &service.Registrar[domain.Goal]{
		Kind:     "goal",
		Users:    st.Users(),
		Children: st.Goals(),
		Attach:   st.Users().AttachGoal,
		Detach:   st.Users().DetachGoal,
		OwnedIDs: func(u domain.User) []idx.ID { return u.GoalIDs },
	}
	router.Workouts = &service.Registrar[domain.Workout]{
		Kind:     "workout",
		Users:    st.Users(),
		Children: st.Workouts(),
		Attach:   st.Users().AttachWorkout,
		Detach:   st.Users().DetachWorkout,
		OwnedIDs: func(u domain.User) []idx.ID { return u.WorkoutIDs },
	}
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &env{
		baseURL: srv.URL,
		store:   st,
		rec:     service.NewReconcilerService(st, logger, time.Hour),
	}
}

func (e *env) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, e.baseURL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func (e *env) register(t *testing.T, email string) string {
	t.Helper()

	resp, raw := e.do(t, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"fullname": "Alice Example",
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	var tok httpapi.TokenResponse
	require.NoError(t, json.Unmarshal(raw, &tok))
	require.NotEmpty(t, tok.Token)
	return tok.Token
}

func TestGoalRoundtrip(t *testing.T) {
	e := newEnv(t)

	token := e.register(t, "alice@example.com")

	// Login again with the same credentials.
	resp, raw := e.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": password,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	// Create a goal.
	resp, raw = e.do(t, http.MethodPost, "/v1/goals", token, map[string]int{
		"targetSteps": 10000,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	var created httpapi.GoalEnvelope
	require.NoError(t, json.Unmarshal(raw, &created))
	goal := created.Goal
	require.Equal(t, 10000, goal.TargetSteps)

	// The profile now references exactly that goal.
	resp, raw = e.do(t, http.MethodGet, "/v1/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var me httpapi.ProfileResponse
	require.NoError(t, json.Unmarshal(raw, &me))
	require.Equal(t, []string{goal.ID}, me.GoalIDs)

	// Listing returns exactly one goal.
	listPath := fmt.Sprintf("/v1/users/%s/goals", me.ID)
	resp, raw = e.do(t, http.MethodGet, listPath, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listing httpapi.GoalsListResponse
	require.NoError(t, json.Unmarshal(raw, &listing))
	require.Len(t, listing.Goals, 1)
	require.Equal(t, goal.ID, listing.Goals[0].ID)

	// Delete, then the list is empty and the back-reference is gone.
	resp, _ = e.do(t, http.MethodDelete, "/v1/goals/"+goal.ID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, raw = e.do(t, http.MethodGet, listPath, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &listing))
	require.Empty(t, listing.Goals)

	resp, raw = e.do(t, http.MethodGet, "/v1/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &me))
	require.Empty(t, me.GoalIDs)
}

func TestWorkoutRoundtrip(t *testing.T) {
	e := newEnv(t)
	token := e.register(t, "alice@example.com")

	resp, raw := e.do(t, http.MethodPost, "/v1/workouts", token, map[string]any{
		"workoutType":     "cycling",
		"durationMinutes": 45,
		"caloriesBurned":  500,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	var logged httpapi.WorkoutEnvelope
	require.NoError(t, json.Unmarshal(raw, &logged))
	workout := logged.Workout

	resp, raw = e.do(t, http.MethodGet, "/v1/workouts/"+workout.ID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	resp, raw = e.do(t, http.MethodPut, "/v1/workouts/"+workout.ID, token, map[string]any{
		"workoutType":     "cycling",
		"durationMinutes": 50,
		"caloriesBurned":  550,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	require.NoError(t, json.Unmarshal(raw, &logged))
	require.Equal(t, 50, logged.Workout.DurationMinutes)

	resp, _ = e.do(t, http.MethodDelete, "/v1/workouts/"+workout.ID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSweepRepairsInjectedResidue(t *testing.T) {
	ctx := t.Context()
	e := newEnv(t)
	token := e.register(t, "alice@example.com")

	_, raw := e.do(t, http.MethodGet, "/v1/me", token, nil)
	var me httpapi.ProfileResponse
	require.NoError(t, json.Unmarshal(raw, &me))
	userID := idx.MustParse(me.ID)

	// Inject the two residue shapes directly: an orphaned goal (record
	// without a back-reference) and a dangling reference.
	now := time.Now().UTC()
	orphan := domain.Goal{ID: idx.New(), UserID: userID, TargetSteps: 7000, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, e.store.Goals().Create(ctx, orphan))
	require.NoError(t, e.store.Users().AttachGoal(ctx, userID, idx.New()))

	// Readers tolerate the residue before any repair.
	resp, raw := e.do(t, http.MethodGet, fmt.Sprintf("/v1/users/%s/goals", me.ID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listing httpapi.GoalsListResponse
	require.NoError(t, json.Unmarshal(raw, &listing))
	require.Empty(t, listing.Goals, "the orphan is invisible and the dangling ref is filtered")

	stats, err := e.rec.Sweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.ListsRepaired, "goal list loses the dangling ref and gains the orphan")

	resp, raw = e.do(t, http.MethodGet, fmt.Sprintf("/v1/users/%s/goals", me.ID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &listing))
	require.Len(t, listing.Goals, 1)
	require.Equal(t, orphan.ID.String(), listing.Goals[0].ID)
}

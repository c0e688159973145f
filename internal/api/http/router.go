package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/strideworks/fittrack/internal/api/domain"
	"github.com/strideworks/fittrack/internal/api/service"
	"github.com/strideworks/fittrack/internal/api/store"
	"github.com/strideworks/fittrack/pkg/httpx"
	"github.com/strideworks/fittrack/pkg/jwtx"
	"github.com/strideworks/fittrack/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	AuthService *service.AuthService
	Goals       *service.Registrar[domain.Goal]
	Workouts    *service.Registrar[domain.Workout]
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerProfile()
	r.registerGoals()
	r.registerWorkouts()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{AuthService: r.AuthService}

	// Credential endpoints get the strict per-IP limit on top of the
	// per-account Redis throttle inside the service.
	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerProfile() {
	h := &ProfileHandler{AuthService: r.AuthService}

	r.Mux.Handle("GET /v1/me",
		httpx.Chain(h,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerGoals() {
	h := &GoalsHandler{Goals: r.Goals}

	secured := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.LenientLimit),
		)
	}

	r.Mux.Handle("POST /v1/goals", secured(h.HandleCreate))
	r.Mux.Handle("GET /v1/goals/{goalID}", secured(h.HandleGet))
	r.Mux.Handle("PUT /v1/goals/{goalID}", secured(h.HandleUpdate))
	r.Mux.Handle("DELETE /v1/goals/{goalID}", secured(h.HandleDelete))
	r.Mux.Handle("GET /v1/users/{userID}/goals", secured(h.HandleList))
}

func (r *Router) registerWorkouts() {
	h := &WorkoutsHandler{Workouts: r.Workouts}

	secured := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.LenientLimit),
		)
	}

	r.Mux.Handle("POST /v1/workouts", secured(h.HandleCreate))
	r.Mux.Handle("GET /v1/workouts/{workoutID}", secured(h.HandleGet))
	r.Mux.Handle("PUT /v1/workouts/{workoutID}", secured(h.HandleUpdate))
	r.Mux.Handle("DELETE /v1/workouts/{workoutID}", secured(h.HandleDelete))
	r.Mux.Handle("GET /v1/users/{userID}/workouts", secured(h.HandleList))
}

func (r *Router) registerSystem() {
	// Health probes are polled by monitors; keep the limits lenient.
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

package http

import (
	"net/http"

	"github.com/strideworks/fittrack/internal/api/service"
	"github.com/strideworks/fittrack/pkg/httpx"
	"github.com/strideworks/fittrack/pkg/idx"
)

type ProfileHandler struct {
	AuthService *service.AuthService
}

// ServeHTTP returns the authenticated user's own profile.
func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, err := idx.Parse(httpx.UserIDFromCtx(r.Context()))
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	user, err := h.AuthService.Profile(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, profileFromUser(user))
}

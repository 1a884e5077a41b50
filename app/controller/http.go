package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"salesdesk/apiclient"
	"salesdesk/logger"
	"salesdesk/models"
	"salesdesk/session"
)

// SessionHeader carries the UI session id in both directions
const SessionHeader = "X-Session-ID"

// currentSession resolves the caller's session, creating one when needed,
// and echoes its id back in the response.
func currentSession(store *session.Store, w http.ResponseWriter, r *http.Request) *session.Session {
	s, created := store.GetOrCreate(strings.TrimSpace(r.Header.Get(SessionHeader)))
	if created {
		logger.L().Infow("🔑 Session: new session", "session", s.ID, "path", r.URL.Path)
	}
	w.Header().Set(SessionHeader, s.ID)
	return s
}

// requestContext forwards the caller's bearer credential to the backend
func requestContext(r *http.Request) context.Context {
	ctx := r.Context()
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok && strings.TrimSpace(token) != "" {
		ctx = apiclient.WithBearerToken(ctx, strings.TrimSpace(token))
	}
	return ctx
}

func writeJSON(w http.ResponseWriter, status int, v interface{}, op string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L().Errorw("❌ "+op+": Error encoding response", "error", err)
	}
}

// statusFor maps domain errors to HTTP statuses
func statusFor(err error) int {
	var oos *models.OutOfStockError
	switch {
	case models.IsValidation(err, ""):
		return http.StatusBadRequest
	case errors.As(err, &oos),
		errors.Is(err, models.ErrAlreadySubmitting),
		errors.Is(err, models.ErrStaleResult):
		return http.StatusConflict
	case errors.Is(err, models.ErrLineNotFound), errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrNetwork):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeError logs err at the level it deserves and writes it as plain text
func writeError(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	switch {
	case status == http.StatusInternalServerError:
		logger.L().Errorw("❌ "+op+": failed", "error", err)
	case status != http.StatusBadRequest:
		logger.L().Warnw("⚠️ "+op+": rejected", "status", status, "error", err)
	}
	http.Error(w, err.Error(), status)
}

func methodNotAllowed(w http.ResponseWriter, op string, r *http.Request) {
	logger.L().Warnw("❌ "+op+": Method not allowed", "method", r.Method)
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
}

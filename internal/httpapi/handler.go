package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/evently/webhook-service/internal/user"
	sharedauth "github.com/evently/webhook-service/pkg/auth"
	apperrors "github.com/evently/webhook-service/pkg/errors"
	"github.com/evently/webhook-service/pkg/logging"
	"github.com/evently/webhook-service/pkg/server"
)

const serviceTimeout = 8 * time.Second

// RegisterRoutes registers the read-only user routes. Callers must install auth middleware.
func RegisterRoutes(r chi.Router, service user.Service, logger *slog.Logger) {
	r.Route("/v1/users", func(r chi.Router) {
		r.Get("/me", getMe(service, logger))
		r.Get("/{clerkId}", getByClerkID(service, logger))
	})
}

func getMe(service user.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := sharedauth.UserFromContext(r.Context())
		if !ok || principal.ClerkID == "" {
			writeError(w, apperrors.CodeUnauthorized, "missing user ID")
			return
		}
		lookup(w, r, service, logger, principal.ClerkID)
	}
}

func getByClerkID(service user.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clerkID := strings.TrimSpace(chi.URLParam(r, "clerkId"))
		if clerkID == "" {
			writeError(w, apperrors.CodeBadRequest, "missing clerk id")
			return
		}
		lookup(w, r, service, logger, clerkID)
	}
}

func lookup(w http.ResponseWriter, r *http.Request, service user.Service, logger *slog.Logger, clerkID string) {
	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	u, err := service.Get(ctx, clerkID)
	switch {
	case errors.Is(err, user.ErrNotFound):
		writeError(w, apperrors.CodeNotFound, "user not synced")
	case err != nil:
		logging.WithRequestID(r.Context(), logger).Error("failed to load user",
			slog.String("clerkId", clerkID), slog.Any("error", err))
		writeError(w, apperrors.CodeInternal, "failed to load user")
	default:
		server.WriteJSON(w, http.StatusOK, u)
	}
}

func writeError(w http.ResponseWriter, code, message string) {
	server.WriteJSON(w, apperrors.ToStatusCode(code), apperrors.ErrorResponse{Error: message, Code: code})
}

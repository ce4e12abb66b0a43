package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/shared-tracker/internal/application"
	"github.com/example/shared-tracker/internal/persistence"
)

type userService interface {
	ListUsers(ctx context.Context) ([]persistence.User, error)
}

type UserHandler struct {
	service   userService
	responder responder
	logger    *slog.Logger
}

func NewUserHandler(service userService, logger *slog.Logger) *UserHandler {
	resp := newResponder(logger)
	return &UserHandler{service: service, responder: resp, logger: resp.logger}
}

func (h *UserHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "UserHandler", operation, attrs...)
}

type userDTO struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Theme       string `json:"theme"`
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "List")

	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "user list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	response := make([]userDTO, 0, len(users))
	for _, user := range users {
		response = append(response, userDTO{ID: user.ID, DisplayName: user.DisplayName, Theme: user.Theme})
	}

	logger.InfoContext(r.Context(), "users listed", "count", len(response))
	h.responder.writeJSON(r.Context(), w, http.StatusOK, response)
}

// internal/handlers/user_handler.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"lingo_context/internal/middleware"
	"lingo_context/internal/model"
	"lingo_context/internal/service"
	"lingo_context/internal/webutil"

	"github.com/go-playground/validator/v10"
)

type UserHandler struct {
	service service.UserService
	logger  *slog.Logger
}

func NewUserHandler(s service.UserService, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{
		service: s,
		logger:  logger,
	}
}

// GetUser は現在のセッションユーザーを返すハンドラ
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetUser"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		webutil.RespondWithJSON(w, http.StatusOK, model.GetUserResponse{Authenticated: false}, logger)
		return
	}

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			// トークンは有効だがユーザー行が消えている場合
			logger.Warn("Authenticated user not found in store")
			webutil.RespondWithJSON(w, http.StatusOK, model.GetUserResponse{Authenticated: false}, logger)
			return
		}
		logger.Error("Error getting user in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, model.GetUserResponse{Authenticated: true, User: user}, logger)
}

// UpdatePreferences は対象言語の設定を更新するハンドラ
func (h *UserHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "UpdatePreferences"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "Unauthorized. Please login.", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("user_id", userID.String()))

	var req model.UpdatePreferencesRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode request body", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "Request body is not valid JSON.", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	if err := webutil.Validator.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			logger.Warn("Validation failed", slog.String("errors", validationErrors.Error()))
			firstErr := validationErrors[0]
			appErr := model.NewAppError(
				"VALIDATION_ERROR",
				firstErr.Translate(webutil.Trans),
				firstErr.Field(),
				model.ErrInvalidInput,
			)
			webutil.HandleError(w, logger, appErr)
		} else {
			logger.Error("Unexpected error during validation", slog.Any("error", err))
			webutil.HandleError(w, logger, err)
		}
		return
	}

	if err := h.service.UpdatePreferences(r.Context(), userID, req.TargetLanguage); err != nil {
		logger.Error("Error updating preferences in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Preferences updated", slog.String("target_language", req.TargetLanguage))
	webutil.RespondWithJSON(w, http.StatusOK, model.UpdatePreferencesResponse{
		Success:        true,
		TargetLanguage: req.TargetLanguage,
	}, logger)
}

// GetStats は使用量と保存済み語彙数の統計を返すハンドラ
func (h *UserHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetStats"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "Unauthorized. Please login.", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}

	stats, err := h.service.GetStats(r.Context(), userID)
	if err != nil {
		logger.Error("Error getting stats in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, stats, logger)
}

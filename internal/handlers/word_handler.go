// internal/handlers/word_handler.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"lingo_context/internal/middleware"
	"lingo_context/internal/model"
	"lingo_context/internal/service"
	"lingo_context/internal/webutil"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type WordHandler struct {
	service service.WordService
	logger  *slog.Logger
}

func NewWordHandler(s service.WordService, logger *slog.Logger) *WordHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WordHandler{
		service: s,
		logger:  logger,
	}
}

// SaveWord は選択テキストの保存リクエストを処理するハンドラ。
// 結果は created / lifted / context_added のいずれかで返ります。
func (h *WordHandler) SaveWord(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "SaveWord"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "Unauthorized. Please login.", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("user_id", userID.String()))

	var req model.SaveWordRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode request body", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "Request body is not valid JSON.", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	// text のバリデーション (必須・上限5000文字) はユースケース側で行い、
	// 違反時はストアに触れずに正確なメッセージを返す
	result, err := h.service.SaveWord(r.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, model.ErrInvalidInput) {
			logger.Warn("Save word validation failed", slog.Any("error", err))
		} else {
			logger.Error("Error saving word in service", slog.Any("error", err))
		}
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Word saved",
		slog.String("action", string(result.Action)),
		slog.String("word_id", result.WordID.String()),
	)
	webutil.RespondWithJSON(w, http.StatusOK, result, logger)
}

// GetWords は単語一覧を文脈付きで取得するためのハンドラ
func (h *WordHandler) GetWords(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetWords"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "Unauthorized. Please login.", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("user_id", userID.String()))

	var filter model.WordListFilter
	if language := r.URL.Query().Get("language"); language != "" {
		filter.Language = &language
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			logger.Warn("Invalid limit query parameter", slog.String("limit", limitStr))
			appErr := model.NewAppError("INVALID_URL_PARAM", "limit must be a non-negative integer", "limit", model.ErrInvalidInput)
			webutil.HandleError(w, logger, appErr)
			return
		}
		filter.Limit = limit
	}

	words, err := h.service.ListWords(r.Context(), userID, filter)
	if err != nil {
		logger.Error("Error listing words in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Words listed successfully", slog.Int("count", len(words)))
	webutil.RespondWithJSON(w, http.StatusOK, words, logger)
}

// DeleteWord は特定の単語リソースを削除するためのハンドラ。
// 所有者以外のIDを指定した場合は not-found として扱います。
func (h *WordHandler) DeleteWord(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "DeleteWord"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "Unauthorized. Please login.", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("user_id", userID.String()))

	wordIDStr := chi.URLParam(r, "word_id")
	wordID, err := uuid.Parse(wordIDStr)
	if err != nil {
		logger.Warn("Invalid word ID format in URL", slog.String("word_id_str", wordIDStr))
		appErr := model.NewAppError("INVALID_URL_PARAM", "word_id is not a valid ID.", "word_id", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("word_id", wordID.String()))

	if err := h.service.DeleteWord(r.Context(), userID, wordID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Info("Word not found for deletion")
			appErr := model.NewAppError("NOT_FOUND", "Word not found", "", model.ErrNotFound)
			webutil.HandleError(w, logger, appErr)
			return
		}
		logger.Error("Error deleting word in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Word deleted successfully")
	webutil.RespondWithJSON(w, http.StatusOK, model.DeleteWordResponse{Success: true}, logger)
}

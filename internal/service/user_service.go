// internal/service/user_service.go
package service

import (
	"context"
	"errors"

	"lingo_context/internal/middleware"
	"lingo_context/internal/model"
	"lingo_context/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserService interface {
	GetUser(ctx context.Context, userID uuid.UUID) (*model.User, error)
	UpdatePreferences(ctx context.Context, userID uuid.UUID, targetLanguage string) error
	GetStats(ctx context.Context, userID uuid.UUID) (*model.UserStatsResponse, error)
}

type userService struct {
	db        *gorm.DB
	userRepo  repository.UserRepository
	wordRepo  repository.WordRepository
	usageRepo repository.UsageLogRepository
	cache     *UserCache
}

func NewUserService(db *gorm.DB, userRepo repository.UserRepository, wordRepo repository.WordRepository, usageRepo repository.UsageLogRepository, cache *UserCache) UserService {
	return &userService{
		db:        db,
		userRepo:  userRepo,
		wordRepo:  wordRepo,
		usageRepo: usageRepo,
		cache:     cache,
	}
}

// GetUser はキャッシュ経由でユーザーを取得します
func (s *userService) GetUser(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	if cached, ok := s.cache.Get(userID); ok {
		return cached, nil
	}

	user, err := s.userRepo.FindByID(ctx, s.db, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		middleware.GetLogger(ctx).Error("Error getting user", "error", err)
		return nil, model.ErrInternalServer
	}

	s.cache.Set(userID, user)
	return user, nil
}

// UpdatePreferences は対象言語を更新し、キャッシュを破棄します
func (s *userService) UpdatePreferences(ctx context.Context, userID uuid.UUID, targetLanguage string) error {
	err := s.userRepo.UpdateTargetLanguage(ctx, s.db, userID, targetLanguage)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return err
		}
		middleware.GetLogger(ctx).Error("Error updating preferences", "error", err)
		return model.ErrInternalServer
	}

	// 古いプロフィールを返さないように更新後は必ず破棄する
	s.cache.Invalidate(userID)
	return nil
}

// GetStats は使用量ログの集計と保存済み語彙数を返します
func (s *userService) GetStats(ctx context.Context, userID uuid.UUID) (*model.UserStatsResponse, error) {
	logger := middleware.GetLogger(ctx)

	usage, err := s.usageRepo.TotalsByUser(ctx, s.db, userID)
	if err != nil {
		logger.Error("Error aggregating usage stats", "error", err)
		return nil, model.ErrInternalServer
	}

	savedWords, err := s.wordRepo.CountByUser(ctx, s.db, userID)
	if err != nil {
		logger.Error("Error counting saved words", "error", err)
		return nil, model.ErrInternalServer
	}

	return &model.UserStatsResponse{
		Usage:   *usage,
		Storage: model.StorageTotals{SavedWords: savedWords},
	}, nil
}

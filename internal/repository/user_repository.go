package repository

import (
	"context"
	"errors"
	"fmt"

	"lingo_context/internal/middleware"
	"lingo_context/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, db *gorm.DB, user *model.User) error
	FindByID(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*model.User, error)
	FindByGoogleID(ctx context.Context, db *gorm.DB, googleID string) (*model.User, error)
	UpdateTargetLanguage(ctx context.Context, db *gorm.DB, userID uuid.UUID, targetLanguage string) error
}

type gormUserRepository struct{}

func NewGormUserRepository() UserRepository {
	return &gormUserRepository{}
}

func (r *gormUserRepository) Create(ctx context.Context, db *gorm.DB, user *model.User) error {
	logger := middleware.GetLogger(ctx)
	result := db.WithContext(ctx).Create(user)
	if result.Error != nil {
		var pgErr *pgconn.PgError
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) ||
			(errors.As(result.Error, &pgErr) && pgErr.Code == "23505") {
			logger.Warn("Duplicate key error on create user",
				"error", result.Error,
				"email", user.Email,
			)
			return model.ErrConflict
		}
		logger.Error("Error creating user in DB",
			"error", result.Error,
			"email", user.Email,
		)
		return fmt.Errorf("gormUserRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormUserRepository) FindByID(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*model.User, error) {
	logger := middleware.GetLogger(ctx)
	var user model.User
	result := db.WithContext(ctx).Where("user_id = ?", userID).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding user by ID in DB",
			"error", result.Error,
			"user_id", userID.String(),
		)
		return nil, fmt.Errorf("gormUserRepository.FindByID: %w", result.Error)
	}
	return &user, nil
}

func (r *gormUserRepository) FindByGoogleID(ctx context.Context, db *gorm.DB, googleID string) (*model.User, error) {
	logger := middleware.GetLogger(ctx)
	var user model.User
	result := db.WithContext(ctx).Where("google_id = ?", googleID).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding user by Google ID in DB", "error", result.Error)
		return nil, fmt.Errorf("gormUserRepository.FindByGoogleID: %w", result.Error)
	}
	return &user, nil
}

func (r *gormUserRepository) UpdateTargetLanguage(ctx context.Context, db *gorm.DB, userID uuid.UUID, targetLanguage string) error {
	logger := middleware.GetLogger(ctx)
	result := db.WithContext(ctx).Model(&model.User{}).
		Where("user_id = ?", userID).
		Update("target_language", targetLanguage)
	if result.Error != nil {
		logger.Error("Error updating target language in DB",
			"error", result.Error,
			"user_id", userID.String(),
		)
		return fmt.Errorf("gormUserRepository.UpdateTargetLanguage: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

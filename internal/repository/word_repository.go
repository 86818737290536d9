package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	// middleware.GetLoggerが返す型として必要
	"lingo_context/internal/middleware"
	"lingo_context/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// WordRepository は語彙ストアのCRUDプリミティブです。業務分岐は持ちません。
type WordRepository interface {
	Create(ctx context.Context, tx *gorm.DB, word *model.Word) error
	FindByText(ctx context.Context, db *gorm.DB, userID uuid.UUID, textLower, language string) (*model.Word, error)
	FindDuplicateContext(ctx context.Context, db *gorm.DB, wordID uuid.UUID, passage, url *string) (*model.WordContext, error)
	Touch(ctx context.Context, tx *gorm.DB, wordID uuid.UUID) error
	TouchAndUpdate(ctx context.Context, tx *gorm.DB, wordID uuid.UUID, meaning string, grammar *string) error
	CreateContext(ctx context.Context, tx *gorm.DB, wordContext *model.WordContext) error
	FindByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID, filter model.WordListFilter) ([]*model.Word, error)
	FindContextsByWordIDs(ctx context.Context, db *gorm.DB, wordIDs []uuid.UUID) ([]*model.WordContext, error)
	Delete(ctx context.Context, tx *gorm.DB, userID, wordID uuid.UUID) error
	CountByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) (int64, error)
}

type gormWordRepository struct{}

func NewGormWordRepository() WordRepository {
	return &gormWordRepository{}
}

// Create は新規単語を挿入します。一意性キー (user_id, lower(text), language) の
// 制約違反は model.ErrConflict に変換して返します (同時作成レースの判定用)。
func (r *gormWordRepository) Create(ctx context.Context, tx *gorm.DB, word *model.Word) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(word)
	if result.Error != nil {
		var pgErr *pgconn.PgError
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) ||
			(errors.As(result.Error, &pgErr) && pgErr.Code == "23505") {
			logger.Warn("Duplicate key error on create word",
				"error", result.Error,
				"user_id", word.UserID.String(),
				"text", word.Text,
				"language", word.Language,
			)
			return model.ErrConflict
		}
		logger.Error("Error creating word in DB",
			"error", result.Error,
			"user_id", word.UserID.String(),
			"text", word.Text,
		)
		return fmt.Errorf("gormWordRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormWordRepository) FindByText(ctx context.Context, db *gorm.DB, userID uuid.UUID, textLower, language string) (*model.Word, error) {
	logger := middleware.GetLogger(ctx)
	var word model.Word
	result := db.WithContext(ctx).
		Where("user_id = ? AND LOWER(text) = ? AND language = ?", userID, textLower, language).
		First(&word)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding word by text in DB",
			"error", result.Error,
			"user_id", userID.String(),
			"language", language,
		)
		return nil, fmt.Errorf("gormWordRepository.FindByText: %w", result.Error)
	}
	return &word, nil
}

// FindDuplicateContext は passage と url の両方が一致する既存文脈を返します。
// NULL 同士は等しいものとして扱います (NULL-equals-NULL セマンティクス)。
func (r *gormWordRepository) FindDuplicateContext(ctx context.Context, db *gorm.DB, wordID uuid.UUID, passage, url *string) (*model.WordContext, error) {
	logger := middleware.GetLogger(ctx)
	var wordContext model.WordContext
	result := db.WithContext(ctx).
		Where("word_id = ?", wordID).
		Where("(context = ? OR (context IS NULL AND ? IS NULL))", passage, passage).
		Where("(url = ? OR (url IS NULL AND ? IS NULL))", url, url).
		First(&wordContext)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding duplicate context in DB",
			"error", result.Error,
			"word_id", wordID.String(),
		)
		return nil, fmt.Errorf("gormWordRepository.FindDuplicateContext: %w", result.Error)
	}
	return &wordContext, nil
}

// Touch は saved_at を現在時刻に更新し lookup_count をインクリメントします (内容は変更しない)
func (r *gormWordRepository) Touch(ctx context.Context, tx *gorm.DB, wordID uuid.UUID) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Model(&model.Word{}).
		Where("word_id = ?", wordID).
		Updates(map[string]interface{}{
			"saved_at":     time.Now(),
			"lookup_count": gorm.Expr("lookup_count + 1"),
		})
	if result.Error != nil {
		logger.Error("Error touching word in DB",
			"error", result.Error,
			"word_id", wordID.String(),
		)
		return fmt.Errorf("gormWordRepository.Touch: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

// TouchAndUpdate は Touch に加えて meaning/grammar を最新の解析結果で上書きします
func (r *gormWordRepository) TouchAndUpdate(ctx context.Context, tx *gorm.DB, wordID uuid.UUID, meaning string, grammar *string) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Model(&model.Word{}).
		Where("word_id = ?", wordID).
		Updates(map[string]interface{}{
			"saved_at":     time.Now(),
			"lookup_count": gorm.Expr("lookup_count + 1"),
			"meaning":      meaning,
			"grammar":      grammar,
		})
	if result.Error != nil {
		logger.Error("Error updating word in DB",
			"error", result.Error,
			"word_id", wordID.String(),
		)
		return fmt.Errorf("gormWordRepository.TouchAndUpdate: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *gormWordRepository) CreateContext(ctx context.Context, tx *gorm.DB, wordContext *model.WordContext) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(wordContext)
	if result.Error != nil {
		logger.Error("Error creating word context in DB",
			"error", result.Error,
			"word_id", wordContext.WordID.String(),
		)
		return fmt.Errorf("gormWordRepository.CreateContext: %w", result.Error)
	}
	return nil
}

func (r *gormWordRepository) FindByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID, filter model.WordListFilter) ([]*model.Word, error) {
	logger := middleware.GetLogger(ctx)
	var words []*model.Word
	query := db.WithContext(ctx).Where("user_id = ?", userID)
	if filter.Language != nil {
		query = query.Where("language = ?", *filter.Language)
	}
	query = query.Order("saved_at DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	result := query.Find(&words)
	if result.Error != nil {
		logger.Error("Error finding words by user in DB",
			"error", result.Error,
			"user_id", userID.String(),
		)
		return nil, fmt.Errorf("gormWordRepository.FindByUser: %w", result.Error)
	}
	return words, nil
}

func (r *gormWordRepository) FindContextsByWordIDs(ctx context.Context, db *gorm.DB, wordIDs []uuid.UUID) ([]*model.WordContext, error) {
	logger := middleware.GetLogger(ctx)
	var contexts []*model.WordContext
	result := db.WithContext(ctx).
		Where("word_id IN ?", wordIDs).
		Order("created_at DESC").
		Find(&contexts)
	if result.Error != nil {
		logger.Error("Error finding contexts by word IDs in DB",
			"error", result.Error,
			"word_count", len(wordIDs),
		)
		return nil, fmt.Errorf("gormWordRepository.FindContextsByWordIDs: %w", result.Error)
	}
	return contexts, nil
}

// Delete は所有者スコープで単語とその文脈を物理削除します。
// 所有していない・存在しない場合は model.ErrNotFound を返します。
func (r *gormWordRepository) Delete(ctx context.Context, tx *gorm.DB, userID, wordID uuid.UUID) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).
		Where("user_id = ? AND word_id = ?", userID, wordID).
		Delete(&model.Word{})
	if result.Error != nil {
		logger.Error("Error deleting word in DB",
			"error", result.Error,
			"user_id", userID.String(),
			"word_id", wordID.String(),
		)
		return fmt.Errorf("gormWordRepository.Delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	// 外部キーのカスケードが効かない環境 (テスト用sqliteなど) でも文脈を残さない
	if err := tx.WithContext(ctx).Where("word_id = ?", wordID).Delete(&model.WordContext{}).Error; err != nil {
		logger.Error("Error deleting word contexts in DB",
			"error", err,
			"word_id", wordID.String(),
		)
		return fmt.Errorf("gormWordRepository.Delete contexts: %w", err)
	}
	return nil
}

func (r *gormWordRepository) CountByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) (int64, error) {
	logger := middleware.GetLogger(ctx)
	var count int64
	result := db.WithContext(ctx).Model(&model.Word{}).Where("user_id = ?", userID).Count(&count)
	if result.Error != nil {
		logger.Error("Error counting words in DB",
			"error", result.Error,
			"user_id", userID.String(),
		)
		return 0, fmt.Errorf("gormWordRepository.CountByUser: %w", result.Error)
	}
	return count, nil
}

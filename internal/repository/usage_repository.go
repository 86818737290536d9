// internal/repository/usage_repository.go
package repository

import (
	"context"
	"fmt"

	"lingo_context/internal/middleware"
	"lingo_context/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UsageLogRepository はAIプロキシが書き込む使用量ログの読み書きです。
// このサービスからは統計用の集計読み取りが主です。
type UsageLogRepository interface {
	Create(ctx context.Context, db *gorm.DB, usageLog *model.UsageLog) error
	TotalsByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*model.UsageTotals, error)
}

type gormUsageLogRepository struct{}

func NewGormUsageLogRepository() UsageLogRepository {
	return &gormUsageLogRepository{}
}

func (r *gormUsageLogRepository) Create(ctx context.Context, db *gorm.DB, usageLog *model.UsageLog) error {
	logger := middleware.GetLogger(ctx)
	result := db.WithContext(ctx).Create(usageLog)
	if result.Error != nil {
		logger.Error("Error creating usage log in DB",
			"error", result.Error,
			"user_id", usageLog.UserID.String(),
		)
		return fmt.Errorf("gormUsageLogRepository.Create: %w", result.Error)
	}
	return nil
}

// TotalsByUser はレコードが無い場合もゼロ値の集計を返します (SUMのNULLはCOALESCEで潰す)
func (r *gormUsageLogRepository) TotalsByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*model.UsageTotals, error) {
	logger := middleware.GetLogger(ctx)
	var totals model.UsageTotals
	result := db.WithContext(ctx).Model(&model.UsageLog{}).
		Select("COUNT(*) AS total_requests, COALESCE(SUM(total_tokens), 0) AS total_tokens, COALESCE(SUM(cost_usd), 0) AS total_cost").
		Where("user_id = ?", userID).
		Scan(&totals)
	if result.Error != nil {
		logger.Error("Error aggregating usage logs in DB",
			"error", result.Error,
			"user_id", userID.String(),
		)
		return nil, fmt.Errorf("gormUsageLogRepository.TotalsByUser: %w", result.Error)
	}
	return &totals, nil
}

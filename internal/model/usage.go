// internal/model/usage.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// UsageLog はAIプロキシ側が書き込むトークン使用量の記録です。
// このサービスは統計エンドポイントのための集計読み取りだけを行います。
type UsageLog struct {
	UsageID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID           uuid.UUID `gorm:"type:uuid;not null;index"`
	Model            string    `gorm:"not null"`
	PromptTokens     int       `gorm:"not null"`
	CompletionTokens int       `gorm:"not null"`
	TotalTokens      int       `gorm:"not null"`
	CostUSD          float64   `gorm:"not null"`
	CreatedAt        time.Time `gorm:"not null;index"`
}

func (UsageLog) TableName() string {
	return "usage_logs"
}

// UsageTotals はユーザー単位の使用量集計です
type UsageTotals struct {
	TotalRequests int64   `json:"total_requests"`
	TotalTokens   int64   `json:"total_tokens"`
	TotalCost     float64 `json:"total_cost"`
}

// StorageTotals は保存済み語彙の件数です
type StorageTotals struct {
	SavedWords int64 `json:"saved_words"`
}

// UserStatsResponse は統計エンドポイントのレスポンスです
type UserStatsResponse struct {
	Usage   UsageTotals   `json:"usage"`
	Storage StorageTotals `json:"storage"`
}

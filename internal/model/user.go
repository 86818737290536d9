package model

import (
	"time"

	"github.com/google/uuid"
)

// ユーザーの基本情報。認証 (Google OAuth) は外部コラボレータが担い、
// このサービスはプロフィール・設定・統計の読み書きのみを行います。
type User struct {
	UserID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	GoogleID       string     `gorm:"unique;not null" json:"-"`
	Email          string     `gorm:"unique;not null" json:"email"`
	DisplayName    string     `json:"display_name"`
	AvatarURL      *string    `json:"avatar_url"`
	TargetLanguage string     `gorm:"not null;default:en" json:"target_language"`
	LastLogin      *time.Time `json:"last_login"`
	CreatedAt      time.Time  `json:"-"`
	UpdatedAt      time.Time  `json:"-"`
}

func (User) TableName() string {
	return "users"
}

type ContextKey string

const (
	UserIDKey ContextKey = "userID"
)

// 設定更新リクエストDTO (フィールド名は拡張側との既存契約)
type UpdatePreferencesRequest struct {
	TargetLanguage string `json:"targetLanguage" validate:"required,min=2,max=35"`
}

type UpdatePreferencesResponse struct {
	Success        bool   `json:"success"`
	TargetLanguage string `json:"targetLanguage"`
}

// GetUserResponse は現在のセッションユーザーを返すレスポンスです
type GetUserResponse struct {
	Authenticated bool  `json:"authenticated"`
	User          *User `json:"user,omitempty"`
}

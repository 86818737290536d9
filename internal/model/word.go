// internal/model/word.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// SaveAction は保存リクエストの結果として確定する3つの分岐を表します
type SaveAction string

const (
	ActionCreated      SaveAction = "created"       // 新規単語の作成
	ActionLifted       SaveAction = "lifted"        // 既存文脈の再遭遇 (リフトのみ)
	ActionContextAdded SaveAction = "context_added" // 既存単語への新規文脈追加
)

// Word はユーザーの (テキスト, 言語) ごとの語彙エントリを表します。
// 同一ユーザー内の一意性キーは (user_id, lower(text), language) です。
type Word struct {
	WordID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	Text        string    `gorm:"not null" json:"text"` // 表示用の元の大文字小文字を保持
	Meaning     string    `json:"meaning"`
	Grammar     *string   `json:"grammar"`
	Language    string    `gorm:"not null" json:"language"`
	LookupCount int       `gorm:"not null;default:1" json:"lookup_count"`
	SavedAt     time.Time `gorm:"not null;index" json:"saved_at"` // リフトで更新される並び順キー
	CreatedAt   time.Time `json:"-"`

	// 関連 (削除時のカスケード用)
	Contexts []WordContext `gorm:"foreignKey:WordID;references:WordID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Word) TableName() string {
	return "words"
}

// WordContext は単語が参照された1回分の出現記録です。
// 同一単語の下で passage と url が両方等しい (NULL 同士も等しい) 場合は重複とみなし、保存しません。
type WordContext struct {
	ContextID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	WordID    uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	Context   *string   `json:"context"`
	URL       *string   `json:"url"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (WordContext) TableName() string {
	return "word_contexts"
}

// 単語保存リクエストDTO
type SaveWordRequest struct {
	Text     string  `json:"text"`
	Meaning  string  `json:"meaning"`
	Grammar  *string `json:"grammar,omitempty"`
	Context  *string `json:"context,omitempty"`
	Language string  `json:"language"`
	URL      *string `json:"url,omitempty"`
}

// SaveWordResult は保存処理の確定結果です
type SaveWordResult struct {
	Success bool       `json:"success"`
	Action  SaveAction `json:"action"`
	WordID  uuid.UUID  `json:"id"`
}

// WordListFilter は一覧取得の絞り込み条件です
type WordListFilter struct {
	Language *string
	Limit    int // 0 は無制限
}

// WordWithContexts はダッシュボード向けの集約ビューです。
// 文脈は新しい順に並びます。
type WordWithContexts struct {
	Word
	Contexts []*WordContext `json:"contexts"`
}

// 単語削除レスポンスDTO
type DeleteWordResponse struct {
	Success bool `json:"success"`
}

// internal/service/word_service.go
package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"lingo_context/internal/config"
	"lingo_context/internal/middleware"
	"lingo_context/internal/model"
	"lingo_context/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WordService interface {
	SaveWord(ctx context.Context, userID uuid.UUID, req *model.SaveWordRequest) (*model.SaveWordResult, error)
	ListWords(ctx context.Context, userID uuid.UUID, filter model.WordListFilter) ([]*model.WordWithContexts, error)
	DeleteWord(ctx context.Context, userID, wordID uuid.UUID) error
}

type wordService struct {
	db       *gorm.DB // トランザクション用にDB接続を持つ
	wordRepo repository.WordRepository
}

func NewWordService(db *gorm.DB, wordRepo repository.WordRepository) WordService {
	return &wordService{
		db:       db,
		wordRepo: wordRepo,
	}
}

// SaveWord は保存リクエストを created / lifted / context_added のいずれかに確定させます。
//
//  1. (user_id, lower(text), language) で既存単語を検索
//  2. 無ければ CREATE: 単語 + 最初の文脈を1トランザクションで作成
//  3. 有れば文脈の重複判定:
//     重複あり → LIFT: saved_at/lookup_count のみ更新 (meaning/grammar は触らない)
//     重複なし → CONTEXT_ADDED: 文脈を追加し、meaning/grammar を最新で上書き
//
// 新規単語の同時保存では両方が「無し」を観測し得るため、作成が一意制約に
// 弾かれた側 (ErrConflict) は手続き全体を一度だけ再実行し、更新経路に合流します。
func (s *wordService) SaveWord(ctx context.Context, userID uuid.UUID, req *model.SaveWordRequest) (*model.SaveWordResult, error) {
	if err := validateSaveWordRequest(req); err != nil {
		// バリデーション違反ではストアに一切アクセスしない
		return nil, err
	}

	result, err := s.saveWordOnce(ctx, userID, req)
	if errors.Is(err, model.ErrConflict) {
		middleware.GetLogger(ctx).Warn("Lost create race for word, retrying as update path",
			"user_id", userID.String(),
			"language", req.Language,
		)
		result, err = s.saveWordOnce(ctx, userID, req)
	}
	if err != nil {
		if errors.Is(err, model.ErrInvalidInput) || errors.Is(err, model.ErrConflict) {
			return nil, err
		}
		middleware.GetLogger(ctx).Error("Transaction failed for SaveWord", "error", err)
		return nil, model.ErrInternalServer
	}
	return result, nil
}

func validateSaveWordRequest(req *model.SaveWordRequest) error {
	if req == nil || req.Text == "" {
		return model.NewAppError("VALIDATION_ERROR", "text is required and must be a string", "text", model.ErrInvalidInput)
	}
	if utf8.RuneCountInString(req.Text) > config.MaxWordTextLength {
		return model.NewAppError("VALIDATION_ERROR", "text must be 5000 characters or fewer", "text", model.ErrInvalidInput)
	}
	return nil
}

// saveWordOnce は状態機械の1パスを1トランザクションで実行します。
// CREATE の単語挿入と最初の文脈挿入、CONTEXT_ADDED の文脈挿入と単語更新は
// それぞれ all-or-nothing です (部分コミットは許容しない)。
func (s *wordService) saveWordOnce(ctx context.Context, userID uuid.UUID, req *model.SaveWordRequest) (*model.SaveWordResult, error) {
	var result *model.SaveWordResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		textLower := strings.ToLower(req.Text)

		existing, err := s.wordRepo.FindByText(ctx, tx, userID, textLower, req.Language)
		if err != nil && !errors.Is(err, model.ErrNotFound) {
			return err
		}

		if existing == nil {
			// CREATE経路
			word := &model.Word{
				WordID:      uuid.New(),
				UserID:      userID,
				Text:        req.Text, // 初回保存時の大文字小文字を表示用に保持
				Meaning:     req.Meaning,
				Grammar:     req.Grammar,
				Language:    req.Language,
				LookupCount: 1,
				SavedAt:     time.Now(),
			}
			if err := s.wordRepo.Create(ctx, tx, word); err != nil {
				return err // ErrConflict は呼び出し側でリトライ判定する
			}
			if err := s.wordRepo.CreateContext(ctx, tx, &model.WordContext{
				ContextID: uuid.New(),
				WordID:    word.WordID,
				Context:   req.Context,
				URL:       req.URL,
				CreatedAt: time.Now(),
			}); err != nil {
				return err
			}
			result = &model.SaveWordResult{Success: true, Action: model.ActionCreated, WordID: word.WordID}
			return nil
		}

		duplicate, err := s.wordRepo.FindDuplicateContext(ctx, tx, existing.WordID, req.Context, req.URL)
		if err != nil && !errors.Is(err, model.ErrNotFound) {
			return err
		}

		if duplicate != nil {
			// LIFT経路: 全く同じ文脈の再遭遇。meaning/grammar は上書きしない
			if err := s.wordRepo.Touch(ctx, tx, existing.WordID); err != nil {
				return err
			}
			result = &model.SaveWordResult{Success: true, Action: model.ActionLifted, WordID: existing.WordID}
			return nil
		}

		// CONTEXT_ADDED経路: 新しい文脈は新しい解析結果を伴うとみなして上書きする
		if err := s.wordRepo.CreateContext(ctx, tx, &model.WordContext{
			ContextID: uuid.New(),
			WordID:    existing.WordID,
			Context:   req.Context,
			URL:       req.URL,
			CreatedAt: time.Now(),
		}); err != nil {
			return err
		}
		if err := s.wordRepo.TouchAndUpdate(ctx, tx, existing.WordID, req.Meaning, req.Grammar); err != nil {
			return err
		}
		result = &model.SaveWordResult{Success: true, Action: model.ActionContextAdded, WordID: existing.WordID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListWords は単語とその文脈をダッシュボード向けに集約します。
// 文脈のバッチ取得は created_at 降順で返るため、グループ化は順序を保ったまま行います。
func (s *wordService) ListWords(ctx context.Context, userID uuid.UUID, filter model.WordListFilter) ([]*model.WordWithContexts, error) {
	logger := middleware.GetLogger(ctx)

	words, err := s.wordRepo.FindByUser(ctx, s.db, userID, filter)
	if err != nil {
		logger.Error("Error listing words", "error", err)
		return nil, model.ErrInternalServer
	}

	// 空なら文脈クエリ自体を打たない (空のIN句を避ける)
	if len(words) == 0 {
		return []*model.WordWithContexts{}, nil
	}

	wordIDs := make([]uuid.UUID, len(words))
	for i, word := range words {
		wordIDs[i] = word.WordID
	}

	contexts, err := s.wordRepo.FindContextsByWordIDs(ctx, s.db, wordIDs)
	if err != nil {
		logger.Error("Error listing word contexts", "error", err)
		return nil, model.ErrInternalServer
	}

	contextsByWordID := make(map[uuid.UUID][]*model.WordContext, len(words))
	for _, wordContext := range contexts {
		contextsByWordID[wordContext.WordID] = append(contextsByWordID[wordContext.WordID], wordContext)
	}

	views := make([]*model.WordWithContexts, len(words))
	for i, word := range words {
		grouped := contextsByWordID[word.WordID]
		if grouped == nil {
			grouped = []*model.WordContext{}
		}
		views[i] = &model.WordWithContexts{Word: *word, Contexts: grouped}
	}
	return views, nil
}

func (s *wordService) DeleteWord(ctx context.Context, userID, wordID uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.wordRepo.Delete(ctx, tx, userID, wordID)
	})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return err
		}
		middleware.GetLogger(ctx).Error("Transaction failed for DeleteWord", "error", err)
		return model.ErrInternalServer
	}
	return nil
}

// internal/service/user_cache.go
package service

import (
	"sync"
	"time"

	"lingo_context/internal/model"

	"github.com/google/uuid"
)

// UserCache はリクエスト毎のDBアクセスを避けるためのセッションユーザーの
// インメモリTTLキャッシュです。語彙ストアからは完全に独立しており、
// 設定更新時は呼び出し側が明示的に Invalidate します。
type UserCache struct {
	ttl     time.Duration
	maxSize int

	mu      sync.RWMutex
	entries map[uuid.UUID]userCacheEntry
}

type userCacheEntry struct {
	user     *model.User
	cachedAt time.Time
}

func NewUserCache(ttl time.Duration, maxSize int) *UserCache {
	return &UserCache{
		ttl:     ttl,
		maxSize: maxSize,
		entries: make(map[uuid.UUID]userCacheEntry),
	}
}

// Get は有効期限内のエントリを返します。期限切れはその場で破棄します。
func (c *UserCache) Get(userID uuid.UUID) (*model.User, bool) {
	c.mu.RLock()
	entry, ok := c.entries[userID]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Since(entry.cachedAt) >= c.ttl {
		c.Invalidate(userID)
		return nil, false
	}
	return entry.user, true
}

// Set は上限を超える場合、期限切れ→任意の1件の順で追い出してから格納します。
func (c *UserCache) Set(userID uuid.UUID, user *model.User) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxSize {
		evicted := false
		for id, entry := range c.entries {
			if time.Since(entry.cachedAt) >= c.ttl {
				delete(c.entries, id)
				evicted = true
			}
		}
		if !evicted {
			for id := range c.entries {
				delete(c.entries, id)
				break
			}
		}
	}
	c.entries[userID] = userCacheEntry{user: user, cachedAt: time.Now()}
}

func (c *UserCache) Invalidate(userID uuid.UUID) {
	c.mu.Lock()
	delete(c.entries, userID)
	c.mu.Unlock()
}

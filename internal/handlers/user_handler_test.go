// internal/handlers/user_handler_test.go
package handlers_test

import (
	"net/http"
	"testing"

	"lingo_context/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserAPI_GetUser(t *testing.T) {
	clearTables(t)

	// トークンは有効だがユーザー行が存在しない場合は authenticated:false を返す
	unknownID := uuid.New()
	rr := executeRequest(createRequest(t, "GET", "/api/v1/user", nil, &unknownID))
	require.Equal(t, http.StatusOK, rr.Code)
	var resp model.GetUserResponse
	decodeJSONResponse(t, rr, &resp)
	assert.False(t, resp.Authenticated)
	assert.Nil(t, resp.User)

	// 既存ユーザーはプロフィールが返る
	user := createTestUser(t)
	rr = executeRequest(createRequest(t, "GET", "/api/v1/user", nil, &user.UserID))
	require.Equal(t, http.StatusOK, rr.Code)
	decodeJSONResponse(t, rr, &resp)
	assert.True(t, resp.Authenticated)
	require.NotNil(t, resp.User)
	assert.Equal(t, user.UserID, resp.User.UserID)
	assert.Equal(t, user.Email, resp.User.Email)
	assert.Equal(t, "en", resp.User.TargetLanguage)
}

func TestUserAPI_UpdatePreferences(t *testing.T) {
	clearTables(t)
	user := createTestUser(t)

	// 一度取得してキャッシュに乗せる
	rr := executeRequest(createRequest(t, "GET", "/api/v1/user", nil, &user.UserID))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = executeRequest(createRequest(t, "PATCH", "/api/v1/user/preferences",
		map[string]string{"targetLanguage": "fr"}, &user.UserID))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var updated model.UpdatePreferencesResponse
	decodeJSONResponse(t, rr, &updated)
	assert.True(t, updated.Success)
	assert.Equal(t, "fr", updated.TargetLanguage)

	// キャッシュが破棄され、次の取得は更新後の値を返す
	rr = executeRequest(createRequest(t, "GET", "/api/v1/user", nil, &user.UserID))
	require.Equal(t, http.StatusOK, rr.Code)
	var resp model.GetUserResponse
	decodeJSONResponse(t, rr, &resp)
	require.NotNil(t, resp.User)
	assert.Equal(t, "fr", resp.User.TargetLanguage)

	// バリデーション: 空文字は 400
	rr = executeRequest(createRequest(t, "PATCH", "/api/v1/user/preferences",
		map[string]string{"targetLanguage": ""}, &user.UserID))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	verifyErrorDetail(t, rr, "VALIDATION_ERROR", "")

	// バリデーション: 1文字は min 違反で 400
	rr = executeRequest(createRequest(t, "PATCH", "/api/v1/user/preferences",
		map[string]string{"targetLanguage": "f"}, &user.UserID))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	verifyErrorDetail(t, rr, "VALIDATION_ERROR", "")

	// JSON形式が不正な場合は 400
	rr = executeRequest(createRequest(t, "PATCH", "/api/v1/user/preferences",
		`{"targetLanguage": `, &user.UserID))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	verifyErrorDetail(t, rr, "INVALID_REQUEST_BODY", "")
}

func TestUserAPI_GetStats(t *testing.T) {
	clearTables(t)
	user := createTestUser(t)

	// 何もない状態では全てゼロ
	rr := executeRequest(createRequest(t, "GET", "/api/v1/user/stats", nil, &user.UserID))
	require.Equal(t, http.StatusOK, rr.Code)
	var stats model.UserStatsResponse
	decodeJSONResponse(t, rr, &stats)
	assert.EqualValues(t, 0, stats.Usage.TotalRequests)
	assert.EqualValues(t, 0, stats.Usage.TotalTokens)
	assert.EqualValues(t, 0, stats.Storage.SavedWords)

	// 使用量ログと単語を投入
	seedUsageLog(t, user.UserID, 100, 0.01)
	seedUsageLog(t, user.UserID, 250, 0.02)
	for _, text := range []string{"alpha", "beta", "gamma"} {
		rr := executeRequest(createRequest(t, "POST", "/api/v1/words",
			map[string]interface{}{"text": text, "meaning": "m", "language": "en"}, &user.UserID))
		require.Equal(t, http.StatusOK, rr.Code)
	}

	// 他ユーザーの分は混ざらない
	other := createTestUser(t)
	seedUsageLog(t, other.UserID, 999, 9.99)

	rr = executeRequest(createRequest(t, "GET", "/api/v1/user/stats", nil, &user.UserID))
	require.Equal(t, http.StatusOK, rr.Code)
	decodeJSONResponse(t, rr, &stats)
	assert.EqualValues(t, 2, stats.Usage.TotalRequests)
	assert.EqualValues(t, 350, stats.Usage.TotalTokens)
	assert.InDelta(t, 0.03, stats.Usage.TotalCost, 0.0001)
	assert.EqualValues(t, 3, stats.Storage.SavedWords)
}

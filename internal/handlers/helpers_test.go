// internal/handlers/helpers_test.go
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lingo_context/internal/model"
	"lingo_context/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeRequest はテスト用のHTTPリクエストを共有ルーターで実行します
func executeRequest(req *http.Request) *httptest.ResponseRecorder {
	if testRouter == nil {
		log.Panic("executeRequest called before testRouter was initialized")
	}
	rr := httptest.NewRecorder()
	testRouter.ServeHTTP(rr, req)
	return rr
}

// createRequest はテスト用のHTTPリクエストを作成します。
// userID が指定されていれば X-User-ID ヘッダーを付与します。
func createRequest(t *testing.T, method, url string, body interface{}, userID *uuid.UUID) *http.Request {
	t.Helper()
	var reqBodyBytes []byte
	var err error

	if body != nil {
		switch b := body.(type) {
		case string:
			reqBodyBytes = []byte(b)
		case []byte:
			reqBodyBytes = b
		default:
			reqBodyBytes, err = json.Marshal(body)
			require.NoError(t, err, "Failed to marshal request body")
		}
	}

	req, err := http.NewRequest(method, url, bytes.NewBuffer(reqBodyBytes))
	require.NoError(t, err, "Failed to create request")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != nil {
		req.Header.Set("X-User-ID", userID.String())
	}
	return req
}

// decodeJSONResponse はレスポンスボディを指定の型にデコードします
func decodeJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), target),
		"Failed to unmarshal response body: %s", rr.Body.String())
}

// verifyErrorDetail はエラーレスポンスの code / message を検証します
func verifyErrorDetail(t *testing.T, rr *httptest.ResponseRecorder, expectedCode, expectedMessage string) {
	t.Helper()
	var errResp model.APIErrorResponse
	decodeJSONResponse(t, rr, &errResp)
	if expectedCode != "" {
		assert.Equal(t, expectedCode, errResp.Error.Code, "error code mismatch")
	}
	if expectedMessage != "" {
		assert.Equal(t, expectedMessage, errResp.Error.Message, "error message mismatch")
	}
}

// createTestUser はテスト用ユーザーをDBに作成します
func createTestUser(t *testing.T) *model.User {
	t.Helper()
	if testDB == nil {
		t.Fatal("createTestUser called before testDB was initialized")
	}
	userRepo := repository.NewGormUserRepository()
	suffix := uuid.New().String()
	user := &model.User{
		UserID:         uuid.New(),
		GoogleID:       "google_" + suffix,
		Email:          fmt.Sprintf("test_%s@example.com", suffix),
		DisplayName:    "Test User",
		TargetLanguage: "en",
	}
	require.NoError(t, userRepo.Create(context.Background(), testDB, user),
		"Failed to create test user for test %s", t.Name())
	return user
}

// seedUsageLog はAIプロキシが書き込む想定の使用量ログを投入します
func seedUsageLog(t *testing.T, userID uuid.UUID, totalTokens int, costUSD float64) {
	t.Helper()
	usageLog := &model.UsageLog{
		UsageID:          uuid.New(),
		UserID:           userID,
		Model:            "gemini-2.0-flash",
		PromptTokens:     totalTokens / 2,
		CompletionTokens: totalTokens - totalTokens/2,
		TotalTokens:      totalTokens,
		CostUSD:          costUSD,
		CreatedAt:        time.Now(),
	}
	require.NoError(t, testDB.Create(usageLog).Error, "Failed to seed usage log")
}

func strPtr(s string) *string { return &s }

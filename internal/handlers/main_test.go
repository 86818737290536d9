// internal/handlers/main_test.go
package handlers_test // テストパッケージ名は _test サフィックス

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"lingo_context/internal/handlers"
	"lingo_context/internal/middleware"
	"lingo_context/internal/model"
	"lingo_context/internal/repository"
	"lingo_context/internal/service"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

var (
	testDB     *gorm.DB     // テスト用DBコネクション (パッケージ全体で共有)
	testRouter *chi.Mux     // テスト用ルーター (パッケージ全体で共有)
	testLogger *slog.Logger // テスト用ロガー
)

// TestMain はパッケージ内のテストの前に一度だけ実行されます。
// dockertest でPostgreSQLコンテナを起動し、実DB相手にAPI契約を検証します。
// 一意性キーの式インデックスや同時保存の挙動はsqliteでは再現しきれないため、
// ハンドラ層のテストは本番と同じPostgreSQLで行います。
func TestMain(m *testing.M) {
	testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(testLogger)

	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not construct pool: %s", err)
	}
	pool.MaxWait = 120 * time.Second

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=user",
			"POSTGRES_PASSWORD=secret",
			"POSTGRES_DB=lingo_context_test",
			"listen_addresses = '*'",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("Could not start PostgreSQL resource: %s", err)
	}

	hostPort := resource.GetPort("5432/tcp")
	gormDSN := fmt.Sprintf("host=localhost port=%s user=user password=secret dbname=lingo_context_test sslmode=disable", hostPort)

	if err = pool.Retry(func() error {
		var errRetry error
		testDB, errRetry = gorm.Open(postgres.Open(gormDSN), &gorm.Config{
			Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
			TranslateError: true,
		})
		if errRetry != nil {
			return errRetry
		}
		sqlDB, errRetry := testDB.DB()
		if errRetry != nil {
			return errRetry
		}
		return sqlDB.Ping()
	}); err != nil {
		if pErr := pool.Purge(resource); pErr != nil {
			log.Printf("Warning: Could not purge resource after connection retry failed: %s", pErr)
		}
		log.Fatalf("Could not connect to PostgreSQL container after retries: %s", err)
	}

	if err := repository.Migrate(testDB); err != nil {
		log.Fatalf("Could not migrate test database: %s", err)
	}

	// 依存関係の初期化 (本番 main.go と同じ組み立て)
	wordRepo := repository.NewGormWordRepository()
	userRepo := repository.NewGormUserRepository()
	usageRepo := repository.NewGormUsageLogRepository()
	userCache := service.NewUserCache(5*time.Minute, 1000)

	wordService := service.NewWordService(testDB, wordRepo)
	userService := service.NewUserService(testDB, userRepo, wordRepo, usageRepo, userCache)

	wordHandler := handlers.NewWordHandler(wordService, testLogger)
	userHandler := handlers.NewUserHandler(userService, testLogger)

	testRouter = chi.NewRouter()
	testRouter.Use(chimiddleware.RequestID)
	testRouter.Use(chimiddleware.Recoverer)

	testRouter.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			// テストでは開発用ヘッダー認証を使う (本番はJWT)
			r.Use(middleware.DevUserContextMiddleware)

			r.Route("/words", func(r chi.Router) {
				r.Post("/", wordHandler.SaveWord)
				r.Get("/", wordHandler.GetWords)
				r.Delete("/{word_id}", wordHandler.DeleteWord)
			})

			r.Route("/user", func(r chi.Router) {
				r.Get("/", userHandler.GetUser)
				r.Patch("/preferences", userHandler.UpdatePreferences)
				r.Get("/stats", userHandler.GetStats)
			})
		})
	})

	code := m.Run()

	if err := pool.Purge(resource); err != nil {
		log.Printf("Warning: Could not purge PostgreSQL resource: %s", err)
	}
	os.Exit(code)
}

// clearTables はテスト前にテーブルをクリーンアップします。
// 依存される側 (word_contexts) から削除します。
func clearTables(t *testing.T) {
	t.Helper()
	if testDB == nil {
		t.Fatal("clearTables called before testDB was initialized")
	}
	for _, target := range []interface{}{
		&model.WordContext{},
		&model.Word{},
		&model.UsageLog{},
		&model.User{},
	} {
		if err := testDB.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(target).Error; err != nil {
			t.Fatalf("Failed to clear table for model %T: %v", target, err)
		}
	}
}

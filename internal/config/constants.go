// internal/config/constants.go
package config

// アプリケーション情報
const (
	AppName    = "LingoContext"
	AppVersion = "1.0.0"
)

// デフォルト設定値
const (
	DefaultServerPort          = ":8080"
	DefaultLogLevel            = "info"
	DefaultUserCacheTTLMinutes = 5
	DefaultUserCacheMaxSize    = 1000
)

// 保存テキストの上限文字数 (コードポイント単位)
const MaxWordTextLength = 5000

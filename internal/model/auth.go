package model

import (
	"github.com/golang-jwt/jwt/v5"
)

// JWTCustomClaims はJWTに含めるカスタムクレーム（ペイロード）。
// sub にユーザーIDが入ります。OAuthログインフロー自体は別コンポーネントが担当し、
// このサービスは発行済みトークンの検証のみを行います。
type JWTCustomClaims struct {
	jwt.RegisteredClaims // 標準クレーム (iss, sub, exp など) を埋め込む
}

// Package auth はJWTベースの認証とアカウント管理を提供する。
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims はJWTに含めるクレームを表す。
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// JWTManager はJWTトークンの発行と検証を行う。
// 署名アルゴリズムはHS256固定。
type JWTManager struct {
	secret []byte
	expiry time.Duration
}

// NewJWTManager はJWTManagerを生成する。secretが空の場合はエラーを返す。
func NewJWTManager(secret string, expiry time.Duration) (*JWTManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRETが設定されていません")
	}
	return &JWTManager{
		secret: []byte(secret),
		expiry: expiry,
	}, nil
}

// GenerateToken は指定ユーザーIDの署名付きトークンを発行する。
func (m *JWTManager) GenerateToken(userID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("トークンの署名に失敗しました: %w", err)
	}
	return signed, nil
}

// ValidateToken はトークンを検証してユーザーIDを取り出す。
// 署名不正・期限切れ・アルゴリズム不一致はすべてエラーとする。
func (m *JWTManager) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("想定外の署名アルゴリズムです: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("トークンの検証に失敗しました: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("トークンが無効です")
	}
	if claims.UserID == "" {
		return "", fmt.Errorf("トークンにユーザーIDが含まれていません")
	}
	return claims.UserID, nil
}

// Package model はドメインモデルを定義する。
package model

import "time"

// デフォルトのプロフィール値。
const (
	DefaultAvatar = "👨‍🍳"
	DefaultBio    = "Food enthusiast and home cook 🍳"
	// DefaultMaxCookingTime はユーザー設定の調理時間上限デフォルト（分）。
	DefaultMaxCookingTime = 120
)

// CookingLevel はユーザーの料理スキルレベルを表す。
type CookingLevel string

const (
	CookingLevelBeginner     CookingLevel = "beginner"
	CookingLevelIntermediate CookingLevel = "intermediate"
	CookingLevelAdvanced     CookingLevel = "advanced"
	CookingLevelExpert       CookingLevel = "expert"
)

// Preferences はユーザーの料理嗜好設定を表す。
type Preferences struct {
	Dietary        []string     `json:"dietary"`
	Cuisine        []string     `json:"cuisine"`
	CookingLevel   CookingLevel `json:"cookingLevel"`
	MaxCookingTime int          `json:"maxCookingTime"`
}

// DefaultPreferences は新規ユーザーのデフォルト嗜好設定を返す。
func DefaultPreferences() Preferences {
	return Preferences{
		CookingLevel:   CookingLevelIntermediate,
		MaxCookingTime: DefaultMaxCookingTime,
	}
}

// User はサービス利用ユーザーを表す。
// PasswordHashはbcryptハッシュで、APIレスポンスには含めない。
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Avatar       string
	Bio          string
	Preferences  Preferences
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserStats はユーザーの利用状況サマリを表す。
type UserStats struct {
	FavoritesCount int `json:"favoritesCount"`
	RecipesCreated int `json:"recipesCreated"`
}

// Package model はドメインモデルを定義する。
package model

import "time"

// FavoriteSource はお気に入り対象レシピの出所を表す。
type FavoriteSource string

const (
	// FavoriteSourceLocal はローカルストア内のレシピ。
	FavoriteSourceLocal FavoriteSource = "local"
	// FavoriteSourceTheMealDB はTheMealDB由来のレシピ（数値ID）。
	FavoriteSourceTheMealDB FavoriteSource = "themealdb"
)

// Favorite はユーザーとレシピのお気に入り関係を表す。
// お気に入り登録時点のレシピ全体をスナップショットとして保持するため、
// 外部ソースのレシピが後から変更・消失しても閲覧可能なまま残る。
// (UserID, RecipeID, Source) の組はDB側のユニーク制約で一意に保たれる。
type Favorite struct {
	ID          string
	UserID      string
	RecipeID    string
	Source      FavoriteSource
	Recipe      Recipe
	FavoritedAt time.Time
}

// Package repository はデータ永続化のリポジトリ層を提供する。
// Findメソッドは対象が見つからない場合に(nil, nil)を返す規約とする。
package repository

import (
	"context"

	"github.com/hitoshi/mealman/internal/model"
)

// UserRepository はユーザーの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)
	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error
	// Update はユーザーのプロフィールを更新する。
	Update(ctx context.Context, user *model.User) error
	// DeleteByID は指定IDのユーザーを削除する。
	DeleteByID(ctx context.Context, id string) error
}

// RecipeRepository はレシピの永続化インターフェース。
// レシピ本体はドキュメントとしてJSONBに格納される。
type RecipeRepository interface {
	// FindByID は指定IDのレシピを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Recipe, error)
	// Create はレシピを保存する。
	Create(ctx context.Context, recipe *model.Recipe) error
	// CountByCreator は指定ユーザーが作成したレシピ数を返す。
	CountByCreator(ctx context.Context, userID string) (int, error)
	// DeleteByCreator は指定ユーザーが作成した全レシピを削除する。
	DeleteByCreator(ctx context.Context, userID string) error
}

// FavoriteRepository はお気に入りの永続化インターフェース。
type FavoriteRepository interface {
	// FindByUserAndRecipe はユーザーIDとレシピIDでお気に入りを検索する。見つからない場合はnilを返す。
	FindByUserAndRecipe(ctx context.Context, userID, recipeID string) (*model.Favorite, error)
	// Create はお気に入りを作成する。
	// (user_id, recipe_id, source) が重複する場合はmodel.APIError(DUPLICATE_FAVORITE)を返す。
	Create(ctx context.Context, fav *model.Favorite) error
	// ListByUserID はユーザーのお気に入り一覧を登録日時の降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Favorite, error)
	// CountByUserID はユーザーのお気に入り数を返す。
	CountByUserID(ctx context.Context, userID string) (int, error)
	// DeleteByUserAndRecipe はユーザーIDとレシピIDでお気に入りを削除する。
	// 削除対象が存在した場合はtrueを返す。
	DeleteByUserAndRecipe(ctx context.Context, userID, recipeID string) (bool, error)
	// DeleteByUserID はユーザーの全お気に入りを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

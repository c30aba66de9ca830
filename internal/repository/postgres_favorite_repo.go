package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/mealman/internal/model"
)

// uniqueViolationCode はPostgreSQLの一意制約違反エラーコード。
const uniqueViolationCode = "23505"

// PostgresFavoriteRepo はPostgreSQLを使用したお気に入りリポジトリ。
// レシピは登録時点のスナップショットとしてJSONBに保持する。
type PostgresFavoriteRepo struct {
	db *sql.DB
}

// NewPostgresFavoriteRepo はPostgresFavoriteRepoを生成する。
func NewPostgresFavoriteRepo(db *sql.DB) *PostgresFavoriteRepo {
	return &PostgresFavoriteRepo{db: db}
}

// FindByUserAndRecipe はユーザーIDとレシピIDでお気に入りを検索する。見つからない場合はnilを返す。
func (r *PostgresFavoriteRepo) FindByUserAndRecipe(ctx context.Context, userID, recipeID string) (*model.Favorite, error) {
	fav := &model.Favorite{}
	var snapshot []byte
	var source string

	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, recipe_id, source, recipe, favorited_at
		 FROM favorites WHERE user_id = $1 AND recipe_id = $2`,
		userID, recipeID,
	).Scan(&fav.ID, &fav.UserID, &fav.RecipeID, &source, &snapshot, &fav.FavoritedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("お気に入りの取得に失敗しました: %w", err)
	}

	fav.Source = model.FavoriteSource(source)
	if err := json.Unmarshal(snapshot, &fav.Recipe); err != nil {
		return nil, fmt.Errorf("お気に入りレシピのパースに失敗しました: %w", err)
	}
	return fav, nil
}

// Create はお気に入りを作成する。
// 一意制約 (user_id, recipe_id, source) に違反した場合はDUPLICATE_FAVORITEエラーを返す。
func (r *PostgresFavoriteRepo) Create(ctx context.Context, fav *model.Favorite) error {
	snapshot, err := json.Marshal(fav.Recipe)
	if err != nil {
		return fmt.Errorf("お気に入りレシピのシリアライズに失敗しました: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO favorites (id, user_id, recipe_id, source, recipe, favorited_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		fav.ID, fav.UserID, fav.RecipeID, string(fav.Source), snapshot, fav.FavoritedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolationCode {
			return model.NewDuplicateFavoriteError()
		}
		return fmt.Errorf("お気に入りの作成に失敗しました: %w", err)
	}
	return nil
}

// ListByUserID はユーザーのお気に入り一覧を登録日時の降順で返す。
func (r *PostgresFavoriteRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Favorite, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, recipe_id, source, recipe, favorited_at
		 FROM favorites WHERE user_id = $1
		 ORDER BY favorited_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("お気に入り一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var favorites []*model.Favorite
	for rows.Next() {
		fav := &model.Favorite{}
		var snapshot []byte
		var source string

		if err := rows.Scan(&fav.ID, &fav.UserID, &fav.RecipeID, &source, &snapshot, &fav.FavoritedAt); err != nil {
			return nil, fmt.Errorf("お気に入りのスキャンに失敗しました: %w", err)
		}
		fav.Source = model.FavoriteSource(source)
		if err := json.Unmarshal(snapshot, &fav.Recipe); err != nil {
			return nil, fmt.Errorf("お気に入りレシピのパースに失敗しました: %w", err)
		}
		favorites = append(favorites, fav)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("お気に入り一覧の読み取りに失敗しました: %w", err)
	}

	return favorites, nil
}

// CountByUserID はユーザーのお気に入り数を返す。
func (r *PostgresFavoriteRepo) CountByUserID(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM favorites WHERE user_id = $1`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("お気に入り数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// DeleteByUserAndRecipe はユーザーIDとレシピIDでお気に入りを削除する。
// 削除対象が存在した場合はtrueを返す。
func (r *PostgresFavoriteRepo) DeleteByUserAndRecipe(ctx context.Context, userID, recipeID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND recipe_id = $2`,
		userID, recipeID,
	)
	if err != nil {
		return false, fmt.Errorf("お気に入りの削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	return rowsAffected > 0, nil
}

// DeleteByUserID はユーザーの全お気に入りを削除する。
func (r *PostgresFavoriteRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("お気に入りの削除に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ FavoriteRepository = (*PostgresFavoriteRepo)(nil)

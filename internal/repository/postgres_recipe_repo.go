package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hitoshi/mealman/internal/model"
)

// PostgresRecipeRepo はPostgreSQLを使用したレシピリポジトリ。
// レシピ本体は正規化せずJSONBドキュメントとして丸ごと格納する。
type PostgresRecipeRepo struct {
	db *sql.DB
}

// NewPostgresRecipeRepo はPostgresRecipeRepoを生成する。
func NewPostgresRecipeRepo(db *sql.DB) *PostgresRecipeRepo {
	return &PostgresRecipeRepo{db: db}
}

// FindByID は指定IDのレシピを取得する。見つからない場合はnilを返す。
func (r *PostgresRecipeRepo) FindByID(ctx context.Context, id string) (*model.Recipe, error) {
	var payload []byte

	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM recipes WHERE id = $1`,
		id,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("レシピの取得に失敗しました: %w", err)
	}

	recipe := &model.Recipe{}
	if err := json.Unmarshal(payload, recipe); err != nil {
		return nil, fmt.Errorf("レシピのパースに失敗しました: %w", err)
	}
	return recipe, nil
}

// Create はレシピを保存する。
func (r *PostgresRecipeRepo) Create(ctx context.Context, recipe *model.Recipe) error {
	payload, err := json.Marshal(recipe)
	if err != nil {
		return fmt.Errorf("レシピのシリアライズに失敗しました: %w", err)
	}

	var createdBy sql.NullString
	if recipe.CreatedBy != "" {
		createdBy = sql.NullString{String: recipe.CreatedBy, Valid: true}
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO recipes (id, payload, source, created_by, is_public, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		recipe.ID, payload, string(recipe.Source), createdBy,
		recipe.IsPublic, recipe.CreatedAt, recipe.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("レシピの保存に失敗しました: %w", err)
	}
	return nil
}

// CountByCreator は指定ユーザーが作成したレシピ数を返す。
func (r *PostgresRecipeRepo) CountByCreator(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM recipes WHERE created_by = $1`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("レシピ数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// DeleteByCreator は指定ユーザーが作成した全レシピを削除する。
func (r *PostgresRecipeRepo) DeleteByCreator(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM recipes WHERE created_by = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("レシピの削除に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ RecipeRepository = (*PostgresRecipeRepo)(nil)

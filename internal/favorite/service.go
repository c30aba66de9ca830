// Package favorite はお気に入り管理のドメインロジックを提供する。
package favorite

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/mealman/internal/model"
	"github.com/hitoshi/mealman/internal/repository"
)

// numericIDPattern は外部ソース由来のレシピIDの形式。
// TheMealDBのIDは数値文字列、内部作成レシピはUUIDなので形式で出所を判別できる。
var numericIDPattern = regexp.MustCompile(`^[0-9]+$`)

// RecipeLookup は外部ソースからレシピを1件取得するインターフェース。
type RecipeLookup interface {
	LookupByID(ctx context.Context, id string) (*model.Recipe, error)
}

// AddInput はお気に入り登録の入力を表す。
// Recipeが非nilの場合はそのスナップショットをそのまま保存する。
type AddInput struct {
	RecipeID string
	Recipe   *model.Recipe
}

// Service はお気に入り管理のサービス層。
type Service struct {
	favRepo    repository.FavoriteRepository
	recipeRepo repository.RecipeRepository
	lookup     RecipeLookup
	logger     *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	favRepo repository.FavoriteRepository,
	recipeRepo repository.RecipeRepository,
	lookup RecipeLookup,
	logger *slog.Logger,
) *Service {
	return &Service{
		favRepo:    favRepo,
		recipeRepo: recipeRepo,
		lookup:     lookup,
		logger:     logger,
	}
}

// detectSource はレシピIDの形式から出所を判別する。
func detectSource(recipeID string) model.FavoriteSource {
	if numericIDPattern.MatchString(recipeID) {
		return model.FavoriteSourceTheMealDB
	}
	return model.FavoriteSourceLocal
}

// Add はレシピをお気に入りに登録する。
// レシピのスナップショットはリクエストボディ > ローカルストア > 外部ソースの順で解決する。
// 既に登録済みの場合はDUPLICATE_FAVORITEを返す。
func (s *Service) Add(ctx context.Context, userID string, input AddInput) (*model.Favorite, error) {
	if input.RecipeID == "" {
		return nil, model.NewInvalidRequestError()
	}

	existing, err := s.favRepo.FindByUserAndRecipe(ctx, userID, input.RecipeID)
	if err != nil {
		return nil, fmt.Errorf("お気に入りの検索に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateFavoriteError()
	}

	snapshot, err := s.resolveSnapshot(ctx, input)
	if err != nil {
		return nil, err
	}

	fav := &model.Favorite{
		ID:          uuid.New().String(),
		UserID:      userID,
		RecipeID:    input.RecipeID,
		Source:      detectSource(input.RecipeID),
		Recipe:      *snapshot,
		FavoritedAt: time.Now(),
	}

	// 並行リクエストに対する二重登録はDB側のユニーク制約が防ぐ
	if err := s.favRepo.Create(ctx, fav); err != nil {
		if apiErr, ok := err.(*model.APIError); ok {
			return nil, apiErr
		}
		return nil, fmt.Errorf("お気に入りの登録に失敗しました: %w", err)
	}

	s.logger.Info("favorite added",
		slog.String("user_id", userID),
		slog.String("recipe_id", input.RecipeID),
		slog.String("source", string(fav.Source)),
	)

	return fav, nil
}

// resolveSnapshot は保存するレシピスナップショットを解決する。
func (s *Service) resolveSnapshot(ctx context.Context, input AddInput) (*model.Recipe, error) {
	if input.Recipe != nil {
		recipe := *input.Recipe
		recipe.ID = input.RecipeID
		return &recipe, nil
	}

	// ローカルストアを先に引く
	recipe, err := s.recipeRepo.FindByID(ctx, input.RecipeID)
	if err != nil {
		return nil, fmt.Errorf("レシピの取得に失敗しました: %w", err)
	}
	if recipe != nil {
		return recipe, nil
	}

	// 数値IDは外部ソースから取得を試みる
	if detectSource(input.RecipeID) == model.FavoriteSourceTheMealDB {
		recipe, err = s.lookup.LookupByID(ctx, input.RecipeID)
		if err != nil {
			s.logger.Warn("external recipe lookup failed",
				slog.String("recipe_id", input.RecipeID),
				slog.String("error", err.Error()),
			)
		}
		if recipe != nil {
			return recipe, nil
		}
	}

	return nil, model.NewRecipeNotFoundError(input.RecipeID)
}

// Remove はお気に入りを解除する。登録されていない場合はFAVORITE_NOT_FOUNDを返す。
func (s *Service) Remove(ctx context.Context, userID, recipeID string) error {
	removed, err := s.favRepo.DeleteByUserAndRecipe(ctx, userID, recipeID)
	if err != nil {
		return fmt.Errorf("お気に入りの解除に失敗しました: %w", err)
	}
	if !removed {
		return model.NewFavoriteNotFoundError(recipeID)
	}

	s.logger.Info("favorite removed",
		slog.String("user_id", userID),
		slog.String("recipe_id", recipeID),
	)
	return nil
}

// List はユーザーのお気に入り一覧を登録日時の降順で返す。
// 0件の場合も空スライスを返す。
func (s *Service) List(ctx context.Context, userID string) ([]*model.Favorite, error) {
	favorites, err := s.favRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("お気に入り一覧の取得に失敗しました: %w", err)
	}
	if favorites == nil {
		favorites = []*model.Favorite{}
	}
	return favorites, nil
}

// Check は指定レシピがお気に入り登録済みかどうかを返す。
func (s *Service) Check(ctx context.Context, userID, recipeID string) (bool, error) {
	fav, err := s.favRepo.FindByUserAndRecipe(ctx, userID, recipeID)
	if err != nil {
		return false, fmt.Errorf("お気に入りの検索に失敗しました: %w", err)
	}
	return fav != nil, nil
}

package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/mealman/internal/favorite"
	"github.com/hitoshi/mealman/internal/middleware"
	"github.com/hitoshi/mealman/internal/model"
)

// FavoriteServiceInterface はお気に入りハンドラーが必要とするサービスインターフェース。
type FavoriteServiceInterface interface {
	// Add はレシピをお気に入りに登録する。
	Add(ctx context.Context, userID string, input favorite.AddInput) (*model.Favorite, error)
	// Remove はお気に入りを解除する。
	Remove(ctx context.Context, userID, recipeID string) error
	// List はユーザーのお気に入り一覧を登録日時の降順で返す。
	List(ctx context.Context, userID string) ([]*model.Favorite, error)
	// Check は指定レシピがお気に入り登録済みかどうかを返す。
	Check(ctx context.Context, userID, recipeID string) (bool, error)
}

// FavoriteHandler はお気に入り管理のHTTPハンドラー。
type FavoriteHandler struct {
	service FavoriteServiceInterface
}

// NewFavoriteHandler はFavoriteHandlerを生成する。
func NewFavoriteHandler(service FavoriteServiceInterface) *FavoriteHandler {
	return &FavoriteHandler{
		service: service,
	}
}

// addFavoriteRequest はお気に入り登録リクエストのボディ。
// レシピスナップショットは省略可能。
type addFavoriteRequest struct {
	Recipe *model.Recipe `json:"recipe"`
}

// favoriteResponse はお気に入り1件のAPIレスポンス。
type favoriteResponse struct {
	ID          string       `json:"id"`
	RecipeID    string       `json:"recipeId"`
	Source      string       `json:"source"`
	Recipe      model.Recipe `json:"recipe"`
	FavoritedAt time.Time    `json:"favoritedAt"`
}

// favoriteListResponse はお気に入り一覧のAPIレスポンス。
type favoriteListResponse struct {
	Favorites []favoriteResponse `json:"favorites"`
	Total     int                `json:"total"`
}

// checkResponse はお気に入り登録状態のAPIレスポンス。
type checkResponse struct {
	Favorited bool `json:"favorited"`
}

// Add はお気に入り登録を処理する。
// POST /api/favorites/{recipeId}
func (h *FavoriteHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	recipeID := chi.URLParam(r, "recipeId")

	// ボディは省略可能。空の場合はスナップショット無しとして扱う。
	var req addFavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	fav, err := h.service.Add(r.Context(), userID, favorite.AddInput{
		RecipeID: recipeID,
		Recipe:   req.Recipe,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toFavoriteResponse(fav))
}

// Remove はお気に入り解除を処理する。
// DELETE /api/favorites/{recipeId}
func (h *FavoriteHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	recipeID := chi.URLParam(r, "recipeId")

	if err := h.service.Remove(r.Context(), userID, recipeID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// List はお気に入り一覧取得を処理する。
// GET /api/favorites
func (h *FavoriteHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	favorites, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := favoriteListResponse{
		Favorites: make([]favoriteResponse, len(favorites)),
		Total:     len(favorites),
	}
	for i, fav := range favorites {
		resp.Favorites[i] = toFavoriteResponse(fav)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Check はお気に入り登録状態の確認を処理する。
// GET /api/favorites/{recipeId}/check
func (h *FavoriteHandler) Check(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	recipeID := chi.URLParam(r, "recipeId")

	favorited, err := h.service.Check(r.Context(), userID, recipeID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, checkResponse{Favorited: favorited})
}

// toFavoriteResponse はmodel.FavoriteからAPIレスポンスに変換する。
func toFavoriteResponse(fav *model.Favorite) favoriteResponse {
	return favoriteResponse{
		ID:          fav.ID,
		RecipeID:    fav.RecipeID,
		Source:      string(fav.Source),
		Recipe:      fav.Recipe,
		FavoritedAt: fav.FavoritedAt,
	}
}

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hitoshi/mealman/internal/middleware"
	"github.com/hitoshi/mealman/internal/model"
)

// defaultMaxReadyTime はmaxReadyTime未指定時のデフォルト（分）。
const defaultMaxReadyTime = 120

// externalIDPattern は外部ソース由来のレシピIDの形式（数値文字列）。
var externalIDPattern = regexp.MustCompile(`^[0-9]+$`)

// RecipeServiceInterface はレシピハンドラーが必要とする集約サービスインターフェース。
type RecipeServiceInterface interface {
	// SearchByQuery はクエリ文字列でレシピを検索する。結果は空にならない。
	SearchByQuery(ctx context.Context, query string, filters model.SearchFilters) []model.Recipe
	// SearchByIngredients は材料リストでレシピを検索する。結果は空にならない。
	SearchByIngredients(ctx context.Context, ingredients []string, filters model.SearchFilters) []model.Recipe
	// Generate は材料リストからレシピを1件生成する。
	Generate(ctx context.Context, ingredients []string, prefs model.SearchFilters) *model.Recipe
	// Random はランダムなレシピを1件返す。
	Random(ctx context.Context) *model.Recipe
	// LookupByID は外部ソースからレシピを1件取得する。
	LookupByID(ctx context.Context, id string) (*model.Recipe, error)
}

// RecipeStore はレシピハンドラーが必要とする永続化インターフェース。
type RecipeStore interface {
	// FindByID は指定IDのレシピを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Recipe, error)
	// Create はレシピを保存する。
	Create(ctx context.Context, recipe *model.Recipe) error
}

// RecipeHandler はレシピ検索・生成のHTTPハンドラー。
type RecipeHandler struct {
	service RecipeServiceInterface
	store   RecipeStore
}

// NewRecipeHandler はRecipeHandlerを生成する。
func NewRecipeHandler(service RecipeServiceInterface, store RecipeStore) *RecipeHandler {
	return &RecipeHandler{
		service: service,
		store:   store,
	}
}

// ingredientsRequest は材料検索・生成リクエストのボディ。
type ingredientsRequest struct {
	Ingredients  []string `json:"ingredients"`
	Dietary      []string `json:"dietary"`
	Cuisine      string   `json:"cuisine"`
	MaxReadyTime int      `json:"maxReadyTime"`
}

// createRecipeRequest はユーザーレシピ作成リクエストのボディ。
type createRecipeRequest struct {
	Title                string                    `json:"title"`
	Image                string                    `json:"image"`
	ReadyInMinutes       int                       `json:"readyInMinutes"`
	Servings             int                       `json:"servings"`
	Summary              string                    `json:"summary"`
	ExtendedIngredients  []model.Ingredient        `json:"extendedIngredients"`
	AnalyzedInstructions []model.InstructionGroup  `json:"analyzedInstructions"`
	Diets                []string                  `json:"diets"`
	Cuisines             []string                  `json:"cuisines"`
	DishTypes            []string                  `json:"dishTypes"`
	IsPublic             *bool                     `json:"isPublic"`
}

// searchResponse は検索結果のAPIレスポンス。
type searchResponse struct {
	Results      []model.Recipe `json:"results"`
	TotalResults int            `json:"totalResults"`
}

// Search はクエリ検索を処理する。
// GET /api/recipes/search?query=&dietary=&cuisine=&maxReadyTime=
func (h *RecipeHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	filters := parseQueryFilters(r)

	results := h.service.SearchByQuery(r.Context(), query, filters)

	writeJSON(w, http.StatusOK, searchResponse{
		Results:      results,
		TotalResults: len(results),
	})
}

// Random はランダムレシピ取得を処理する。
// GET /api/recipes/random
func (h *RecipeHandler) Random(w http.ResponseWriter, r *http.Request) {
	recipe := h.service.Random(r.Context())
	writeJSON(w, http.StatusOK, recipe)
}

// GetByID はレシピ詳細取得を処理する。
// 数値IDは外部ソースから、それ以外はローカルストアから取得する。
// GET /api/recipes/{id}
func (h *RecipeHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	recipeID := chi.URLParam(r, "id")

	var recipe *model.Recipe
	var err error
	if externalIDPattern.MatchString(recipeID) {
		recipe, err = h.service.LookupByID(r.Context(), recipeID)
	} else {
		recipe, err = h.store.FindByID(r.Context(), recipeID)
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if recipe == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewRecipeNotFoundError(recipeID))
		return
	}

	writeJSON(w, http.StatusOK, recipe)
}

// IngredientsSearch は材料リストからの検索を処理する。
// POST /api/recipes/ingredients-search
func (h *RecipeHandler) IngredientsSearch(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeIngredientsRequest(w, r)
	if !ok {
		return
	}

	results := h.service.SearchByIngredients(r.Context(), req.Ingredients, req.filters())

	writeJSON(w, http.StatusOK, searchResponse{
		Results:      results,
		TotalResults: len(results),
	})
}

// Generate は材料リストからのレシピ生成を処理する。
// 生成結果はsource=aiとして永続化される。
// POST /api/recipes/generate
func (h *RecipeHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	req, ok := decodeIngredientsRequest(w, r)
	if !ok {
		return
	}

	recipe := h.service.Generate(r.Context(), req.Ingredients, req.filters())

	// 外部ソース由来の結果はソース側IDのまま返し、合成レシピのみ保存する
	if recipe.Source == model.RecipeSourceAI {
		now := time.Now()
		recipe.ID = uuid.New().String()
		recipe.CreatedBy = userID
		recipe.CreatedAt = now
		recipe.UpdatedAt = now
		if err := h.store.Create(r.Context(), recipe); err != nil {
			handleServiceError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusCreated, recipe)
}

// Create はユーザーレシピ作成を処理する。
// POST /api/recipes
func (h *RecipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req createRecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	if strings.TrimSpace(req.Title) == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	now := time.Now()
	recipe := &model.Recipe{
		ID:                   uuid.New().String(),
		Title:                strings.TrimSpace(req.Title),
		Image:                req.Image,
		ReadyInMinutes:       req.ReadyInMinutes,
		Servings:             req.Servings,
		Summary:              req.Summary,
		ExtendedIngredients:  req.ExtendedIngredients,
		AnalyzedInstructions: req.AnalyzedInstructions,
		Diets:                req.Diets,
		Cuisines:             req.Cuisines,
		DishTypes:            req.DishTypes,
		Source:               model.RecipeSourceUser,
		CreatedBy:            userID,
		IsPublic:             true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if recipe.Image == "" {
		recipe.Image = model.DefaultRecipeImage
	}
	if req.IsPublic != nil {
		recipe.IsPublic = *req.IsPublic
	}

	if err := h.store.Create(r.Context(), recipe); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, recipe)
}

// filters はリクエストボディからSearchFiltersを構築する。
func (req *ingredientsRequest) filters() model.SearchFilters {
	maxReadyTime := req.MaxReadyTime
	if maxReadyTime <= 0 {
		maxReadyTime = defaultMaxReadyTime
	}
	return model.SearchFilters{
		Dietary:      req.Dietary,
		Cuisine:      req.Cuisine,
		MaxReadyTime: maxReadyTime,
	}
}

// decodeIngredientsRequest は材料検索・生成リクエストを検証付きでデコードする。
// 材料リストが空の場合は400を書き込みfalseを返す。
func decodeIngredientsRequest(w http.ResponseWriter, r *http.Request) (*ingredientsRequest, bool) {
	var req ingredientsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return nil, false
	}

	// 空白のみの材料を除外
	var ingredients []string
	for _, ing := range req.Ingredients {
		if trimmed := strings.TrimSpace(ing); trimmed != "" {
			ingredients = append(ingredients, trimmed)
		}
	}
	if len(ingredients) == 0 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidIngredientsError())
		return nil, false
	}
	req.Ingredients = ingredients

	return &req, true
}

// parseQueryFilters はクエリパラメータからSearchFiltersを構築する。
// maxReadyTimeは未指定または不正な場合デフォルト値を使う。
func parseQueryFilters(r *http.Request) model.SearchFilters {
	q := r.URL.Query()

	var dietary []string
	if raw := q.Get("dietary"); raw != "" {
		for _, d := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(d); trimmed != "" {
				dietary = append(dietary, trimmed)
			}
		}
	}

	maxReadyTime := defaultMaxReadyTime
	if raw := q.Get("maxReadyTime"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			maxReadyTime = v
		}
	}

	return model.SearchFilters{
		Dietary:      dietary,
		Cuisine:      strings.TrimSpace(q.Get("cuisine")),
		MaxReadyTime: maxReadyTime,
	}
}

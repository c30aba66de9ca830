package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/mealman/internal/model"
)

// mockRecipeService はRecipeServiceInterfaceのテスト用モック。
type mockRecipeService struct {
	searchResults     []model.Recipe
	ingredientResults []model.Recipe
	generated         *model.Recipe
	random            *model.Recipe
	lookupRecipe      *model.Recipe
	lookupErr         error

	gotQuery       string
	gotFilters     model.SearchFilters
	gotIngredients []string
}

func (m *mockRecipeService) SearchByQuery(ctx context.Context, query string, filters model.SearchFilters) []model.Recipe {
	m.gotQuery = query
	m.gotFilters = filters
	return m.searchResults
}

func (m *mockRecipeService) SearchByIngredients(ctx context.Context, ingredients []string, filters model.SearchFilters) []model.Recipe {
	m.gotIngredients = ingredients
	m.gotFilters = filters
	return m.ingredientResults
}

func (m *mockRecipeService) Generate(ctx context.Context, ingredients []string, prefs model.SearchFilters) *model.Recipe {
	m.gotIngredients = ingredients
	return m.generated
}

func (m *mockRecipeService) Random(ctx context.Context) *model.Recipe {
	return m.random
}

func (m *mockRecipeService) LookupByID(ctx context.Context, id string) (*model.Recipe, error) {
	return m.lookupRecipe, m.lookupErr
}

// mockRecipeStore はRecipeStoreのテスト用モック。
type mockRecipeStore struct {
	recipes map[string]*model.Recipe
	created []*model.Recipe
}

func (m *mockRecipeStore) FindByID(ctx context.Context, id string) (*model.Recipe, error) {
	return m.recipes[id], nil
}

func (m *mockRecipeStore) Create(ctx context.Context, recipe *model.Recipe) error {
	m.created = append(m.created, recipe)
	return nil
}

// chiのルートパラメータ付きのリクエストを組み立てる
func requestWithParam(method, target, key, value string) *http.Request {
	return requestWithParamCtx(httptest.NewRequest(method, target, nil), key, value)
}

// requestWithParamCtx は既存リクエストにchiのルートパラメータを付与する。
func requestWithParamCtx(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// Searchがクエリとフィルタをパースして結果を返すことを検証
func TestRecipeHandler_Search(t *testing.T) {
	svc := &mockRecipeService{searchResults: []model.Recipe{{ID: "1", Title: "Pasta"}}}
	h := NewRecipeHandler(svc, &mockRecipeStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/recipes/search?query=pasta&dietary=vegetarian,vegan&cuisine=Italian&maxReadyTime=30", nil)
	rec := httptest.NewRecorder()

	h.Search(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if svc.gotQuery != "pasta" {
		t.Errorf("query = %q", svc.gotQuery)
	}
	if len(svc.gotFilters.Dietary) != 2 || svc.gotFilters.Dietary[0] != "vegetarian" {
		t.Errorf("dietary = %v", svc.gotFilters.Dietary)
	}
	if svc.gotFilters.Cuisine != "Italian" {
		t.Errorf("cuisine = %q", svc.gotFilters.Cuisine)
	}
	if svc.gotFilters.MaxReadyTime != 30 {
		t.Errorf("maxReadyTime = %d, want 30", svc.gotFilters.MaxReadyTime)
	}

	var resp searchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.TotalResults != 1 {
		t.Errorf("totalResults = %d, want 1", resp.TotalResults)
	}
}

// maxReadyTime未指定時にデフォルト値が適用されることを検証
func TestRecipeHandler_Search_DefaultMaxReadyTime(t *testing.T) {
	svc := &mockRecipeService{searchResults: []model.Recipe{}}
	h := NewRecipeHandler(svc, &mockRecipeStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/recipes/search?query=pasta", nil)
	rec := httptest.NewRecorder()

	h.Search(rec, req)

	if svc.gotFilters.MaxReadyTime != defaultMaxReadyTime {
		t.Errorf("maxReadyTime = %d, want %d", svc.gotFilters.MaxReadyTime, defaultMaxReadyTime)
	}
}

// 数値IDが外部ソースから取得されることを検証
func TestRecipeHandler_GetByID_External(t *testing.T) {
	svc := &mockRecipeService{lookupRecipe: &model.Recipe{ID: "52772", Title: "Teriyaki"}}
	h := NewRecipeHandler(svc, &mockRecipeStore{})

	req := requestWithParam(http.MethodGet, "/api/recipes/52772", "id", "52772")
	rec := httptest.NewRecorder()

	h.GetByID(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Teriyaki") {
		t.Error("response missing recipe title")
	}
}

// UUID形式のIDがローカルストアから取得されることを検証
func TestRecipeHandler_GetByID_Local(t *testing.T) {
	store := &mockRecipeStore{recipes: map[string]*model.Recipe{
		"abc-123": {ID: "abc-123", Title: "My Curry"},
	}}
	h := NewRecipeHandler(&mockRecipeService{}, store)

	req := requestWithParam(http.MethodGet, "/api/recipes/abc-123", "id", "abc-123")
	rec := httptest.NewRecorder()

	h.GetByID(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "My Curry") {
		t.Error("response missing recipe title")
	}
}

// 存在しないレシピが404になることを検証
func TestRecipeHandler_GetByID_NotFound(t *testing.T) {
	h := NewRecipeHandler(&mockRecipeService{}, &mockRecipeStore{})

	req := requestWithParam(http.MethodGet, "/api/recipes/missing", "id", "missing")
	rec := httptest.NewRecorder()

	h.GetByID(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

// 空の材料リストが400 INVALID_INGREDIENTSになることを検証
func TestRecipeHandler_IngredientsSearch_EmptyIngredients(t *testing.T) {
	h := NewRecipeHandler(&mockRecipeService{}, &mockRecipeStore{})

	cases := []struct {
		name string
		body string
	}{
		{"empty array", `{"ingredients":[]}`},
		{"missing field", `{}`},
		{"blank entries", `{"ingredients":["  ",""]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/recipes/ingredients-search", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()

			h.IngredientsSearch(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			var resp apiErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to parse response: %v", err)
			}
			if resp.Code != model.ErrCodeInvalidIngredients {
				t.Errorf("code = %q, want %q", resp.Code, model.ErrCodeInvalidIngredients)
			}
		})
	}
}

// 材料検索が前後空白を整えた材料リストをサービスに渡すことを検証
func TestRecipeHandler_IngredientsSearch_TrimsIngredients(t *testing.T) {
	svc := &mockRecipeService{ingredientResults: []model.Recipe{{ID: "1"}}}
	h := NewRecipeHandler(svc, &mockRecipeStore{})

	body := `{"ingredients":[" chicken ","rice",""]}`
	req := httptest.NewRequest(http.MethodPost, "/api/recipes/ingredients-search", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.IngredientsSearch(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	want := []string{"chicken", "rice"}
	if len(svc.gotIngredients) != len(want) {
		t.Fatalf("ingredients = %v, want %v", svc.gotIngredients, want)
	}
	for i := range want {
		if svc.gotIngredients[i] != want[i] {
			t.Errorf("ingredients[%d] = %q, want %q", i, svc.gotIngredients[i], want[i])
		}
	}
}

// Generateが合成レシピを永続化して201を返すことを検証
func TestRecipeHandler_Generate_PersistsSynthesized(t *testing.T) {
	svc := &mockRecipeService{generated: &model.Recipe{Title: "Special Chicken Recipe", Source: model.RecipeSourceAI}}
	store := &mockRecipeStore{}
	h := NewRecipeHandler(svc, store)

	body := `{"ingredients":["chicken"]}`
	req := withUserID(httptest.NewRequest(http.MethodPost, "/api/recipes/generate", strings.NewReader(body)), "u1")
	rec := httptest.NewRecorder()

	h.Generate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if len(store.created) != 1 {
		t.Fatalf("created = %d, want 1", len(store.created))
	}
	saved := store.created[0]
	if saved.CreatedBy != "u1" {
		t.Errorf("createdBy = %q, want u1", saved.CreatedBy)
	}
	if saved.ID == "" {
		t.Error("expected generated ID")
	}
}

// 外部ソース由来の生成結果は永続化されないことを検証
func TestRecipeHandler_Generate_ExternalHitNotPersisted(t *testing.T) {
	svc := &mockRecipeService{generated: &model.Recipe{ID: "52772", Title: "Found", Source: model.RecipeSourceExternal}}
	store := &mockRecipeStore{}
	h := NewRecipeHandler(svc, store)

	body := `{"ingredients":["chicken"]}`
	req := withUserID(httptest.NewRequest(http.MethodPost, "/api/recipes/generate", strings.NewReader(body)), "u1")
	rec := httptest.NewRecorder()

	h.Generate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if len(store.created) != 0 {
		t.Errorf("created = %d, want 0", len(store.created))
	}
}

// ユーザーレシピ作成がsource=userで保存されることを検証
func TestRecipeHandler_Create(t *testing.T) {
	store := &mockRecipeStore{}
	h := NewRecipeHandler(&mockRecipeService{}, store)

	body := `{"title":"Family Curry","servings":4}`
	req := withUserID(httptest.NewRequest(http.MethodPost, "/api/recipes", strings.NewReader(body)), "u1")
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if len(store.created) != 1 {
		t.Fatalf("created = %d, want 1", len(store.created))
	}
	saved := store.created[0]
	if saved.Source != model.RecipeSourceUser {
		t.Errorf("source = %q, want user", saved.Source)
	}
	if saved.Image != model.DefaultRecipeImage {
		t.Errorf("image = %q, want default placeholder", saved.Image)
	}
	if !saved.IsPublic {
		t.Error("expected isPublic default true")
	}
}

// タイトル無しのレシピ作成が400になることを検証
func TestRecipeHandler_Create_MissingTitle(t *testing.T) {
	h := NewRecipeHandler(&mockRecipeService{}, &mockRecipeStore{})

	body := `{"servings":4}`
	req := withUserID(httptest.NewRequest(http.MethodPost, "/api/recipes", strings.NewReader(body)), "u1")
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

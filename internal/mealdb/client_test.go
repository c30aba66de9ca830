package mealdb

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func TestNewClient_DefaultBaseURL(t *testing.T) {
	var buf bytes.Buffer
	c := NewClient(http.DefaultClient, newTestLogger(&buf), "")
	if c.baseURL != DefaultBaseURL {
		t.Errorf("baseURL = %s, want %s", c.baseURL, DefaultBaseURL)
	}
}

func TestNewSafeHTTPClient_ReturnsNonNil(t *testing.T) {
	c := NewSafeHTTPClient(5 * time.Second)
	if c == nil {
		t.Fatal("NewSafeHTTPClient は nil を返してはならない")
	}
}

func TestClient_SearchByName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search.php" {
			t.Errorf("パス = %s, want /search.php", r.URL.Path)
		}
		if got := r.URL.Query().Get("s"); got != "chicken" {
			t.Errorf("クエリパラメータ s = %s, want chicken", got)
		}
		if ua := r.Header.Get("User-Agent"); ua == "" {
			t.Error("User-Agentヘッダーが設定されていない")
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"meals":[{
			"idMeal":"52940",
			"strMeal":"Brown Stew Chicken",
			"strCategory":"Chicken",
			"strArea":"Jamaican",
			"strInstructions":"Squeeze lime over chicken.",
			"strMealThumb":"https://example.com/thumb.jpg",
			"strTags":"Stew",
			"strIngredient1":"Chicken",
			"strMeasure1":"1 whole",
			"strIngredient2":"",
			"strMeasure2":""
		}]}`))
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := NewClient(server.Client(), newTestLogger(&buf), server.URL)

	meals, err := c.SearchByName(context.Background(), "chicken")
	if err != nil {
		t.Fatalf("SearchByName がエラーを返した: %v", err)
	}
	if len(meals) != 1 {
		t.Fatalf("件数 = %d, want 1", len(meals))
	}

	meal := meals[0]
	if meal.ID != "52940" {
		t.Errorf("ID = %s, want 52940", meal.ID)
	}
	if meal.Name != "Brown Stew Chicken" {
		t.Errorf("Name = %s, want Brown Stew Chicken", meal.Name)
	}
	if meal.Ingredients[0] != "Chicken" {
		t.Errorf("Ingredients[0] = %s, want Chicken", meal.Ingredients[0])
	}
	if meal.Measures[0] != "1 whole" {
		t.Errorf("Measures[0] = %s, want 1 whole", meal.Measures[0])
	}
}

func TestClient_SearchByName_NullMeals(t *testing.T) {
	// TheMealDBはヒットなしの場合 {"meals": null} を返す
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"meals":null}`))
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := NewClient(server.Client(), newTestLogger(&buf), server.URL)

	meals, err := c.SearchByName(context.Background(), "zzzzz")
	if err != nil {
		t.Fatalf("SearchByName がエラーを返した: %v", err)
	}
	if len(meals) != 0 {
		t.Errorf("件数 = %d, want 0", len(meals))
	}
}

func TestClient_FilterByIngredient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/filter.php" {
			t.Errorf("パス = %s, want /filter.php", r.URL.Path)
		}
		if got := r.URL.Query().Get("i"); got != "garlic" {
			t.Errorf("クエリパラメータ i = %s, want garlic", got)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"meals":[
			{"idMeal":"1","strMeal":"Garlic Bread","strMealThumb":"https://example.com/1.jpg"},
			{"idMeal":"2","strMeal":"Garlic Pasta","strMealThumb":"https://example.com/2.jpg"}
		]}`))
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := NewClient(server.Client(), newTestLogger(&buf), server.URL)

	refs, err := c.FilterByIngredient(context.Background(), "garlic")
	if err != nil {
		t.Fatalf("FilterByIngredient がエラーを返した: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("件数 = %d, want 2", len(refs))
	}
	if refs[0].ID != "1" || refs[0].Name != "Garlic Bread" {
		t.Errorf("refs[0] = %+v, want ID=1 Name=Garlic Bread", refs[0])
	}
}

func TestClient_LookupByID_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/lookup.php" {
			t.Errorf("パス = %s, want /lookup.php", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"meals":null}`))
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := NewClient(server.Client(), newTestLogger(&buf), server.URL)

	meal, err := c.LookupByID(context.Background(), "99999")
	if err != nil {
		t.Fatalf("LookupByID がエラーを返した: %v", err)
	}
	if meal != nil {
		t.Errorf("該当なしの場合はnilを返すべき: %+v", meal)
	}
}

func TestClient_Random(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/random.php" {
			t.Errorf("パス = %s, want /random.php", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"meals":[{"idMeal":"52772","strMeal":"Teriyaki Chicken"}]}`))
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := NewClient(server.Client(), newTestLogger(&buf), server.URL)

	meal, err := c.Random(context.Background())
	if err != nil {
		t.Fatalf("Random がエラーを返した: %v", err)
	}
	if meal == nil || meal.ID != "52772" {
		t.Fatalf("meal = %+v, want ID=52772", meal)
	}
}

func TestClient_Get_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := NewClient(server.Client(), newTestLogger(&buf), server.URL)

	if _, err := c.SearchByName(context.Background(), "chicken"); err == nil {
		t.Error("エラーステータスに対してエラーを返すべき")
	}
}

func TestClient_Get_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := NewClient(server.Client(), newTestLogger(&buf), server.URL)

	if _, err := c.Random(context.Background()); err == nil {
		t.Error("不正なJSONに対してエラーを返すべき")
	}
}

func TestMeal_UnmarshalJSON_NullFields(t *testing.T) {
	// 欠損フィールドはnullまたは空文字列の両方がありうる
	var meal Meal
	data := []byte(`{"idMeal":"1","strMeal":"Test","strArea":null,"strTags":null,"strIngredient1":"Egg","strMeasure1":null}`)
	if err := meal.UnmarshalJSON(data); err != nil {
		t.Fatalf("UnmarshalJSON がエラーを返した: %v", err)
	}
	if meal.Area != "" {
		t.Errorf("Area = %q, want empty", meal.Area)
	}
	if meal.Ingredients[0] != "Egg" {
		t.Errorf("Ingredients[0] = %q, want Egg", meal.Ingredients[0])
	}
	if meal.Measures[0] != "" {
		t.Errorf("Measures[0] = %q, want empty", meal.Measures[0])
	}
}

func TestMeal_TagList(t *testing.T) {
	tests := []struct {
		name string
		tags string
		want int
	}{
		{"カンマ区切り", "Stew,Spicy", 2},
		{"単一タグ", "Stew", 1},
		{"空文字列", "", 0},
		{"空白のみ", "  ", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Meal{Tags: tt.tags}
			if got := len(m.TagList()); got != tt.want {
				t.Errorf("TagList件数 = %d, want %d", got, tt.want)
			}
		})
	}
}

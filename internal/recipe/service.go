package recipe

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/hitoshi/mealman/internal/mealdb"
	"github.com/hitoshi/mealman/internal/model"
)

// 外部APIへのファンアウトを抑える固定の上限。
const (
	// maxSearchIngredients は材料検索で実際に照会する材料数の上限。
	maxSearchIngredients = 3
	// maxDetailFetches は材料1つあたりの詳細取得数の上限。
	maxDetailFetches = 10
	// defaultMaxConcurrent は詳細取得の並列数のデフォルト。
	defaultMaxConcurrent = 5
)

// 合成レシピのデフォルト値。
const (
	generatedReadyInMinutes = 30
	generatedServings       = 2
)

// Source は生レコードソースのインターフェース。
// 本番ではmealdb.Clientを、テストではテストダブルを注入する。
type Source interface {
	SearchByName(ctx context.Context, query string) ([]mealdb.Meal, error)
	FilterByIngredient(ctx context.Context, ingredient string) ([]mealdb.MealRef, error)
	LookupByID(ctx context.Context, id string) (*mealdb.Meal, error)
	Random(ctx context.Context) (*mealdb.Meal, error)
}

// MetricsCollector は集約パイプラインのメトリクス収集インターフェース。
type MetricsCollector interface {
	RecordSourceSuccess(operation string)
	RecordSourceFailure(operation string)
	RecordFallbackServed(operation string)
	RecordSourceLatency(duration time.Duration)
}

// nopMetrics は何も記録しないMetricsCollector。
type nopMetrics struct{}

func (nopMetrics) RecordSourceSuccess(string)        {}
func (nopMetrics) RecordSourceFailure(string)        {}
func (nopMetrics) RecordFallbackServed(string)       {}
func (nopMetrics) RecordSourceLatency(time.Duration) {}

// Service はレシピの集約・正規化パイプラインのサービス層。
// 外部ソースの失敗はすべてここで吸収し、呼び出し元には決してエラーを返さない。
// 最悪ケースでもフォールバックストアの内容が返る（可用性優先の設計）。
type Service struct {
	source        Source
	normalizer    *Normalizer
	fallback      []model.Recipe
	logger        *slog.Logger
	metrics       MetricsCollector
	maxConcurrent int
}

// NewService はServiceの新しいインスタンスを生成する。
// fallbackには起動時に構築した読み取り専用のレシピ群を渡す（空であってはならない）。
// metricsがnilの場合は何も記録しない。maxConcurrentが0以下の場合はデフォルト値を使用する。
func NewService(source Source, fallback []model.Recipe, logger *slog.Logger, metrics MetricsCollector, maxConcurrent int) *Service {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	return &Service{
		source:        source,
		normalizer:    NewNormalizer(),
		fallback:      fallback,
		logger:        logger,
		metrics:       metrics,
		maxConcurrent: maxConcurrent,
	}
}

// SearchByQuery は自由テキストクエリでレシピを検索する。
// フロー: 名前検索 → （空なら）クエリを材料名とみなした材料検索 → フィルタ適用
// → （空なら）フォールバックストア。
// 外部ソースのエラーはログ出力のみで吸収し、フォールバックへ退行する。
func (s *Service) SearchByQuery(ctx context.Context, query string, filters model.SearchFilters) []model.Recipe {
	start := time.Now()
	defer func() { s.metrics.RecordSourceLatency(time.Since(start)) }()

	recipes := s.searchByName(ctx, query)

	if len(recipes) == 0 {
		recipes = s.searchByIngredient(ctx, query)
	}

	recipes = ApplyFilters(recipes, filters)
	if len(recipes) > 0 {
		s.metrics.RecordSourceSuccess("search")
		return recipes
	}

	s.logger.Info("外部ソースから結果が得られないためフォールバックを返します",
		slog.String("query", query),
	)
	s.metrics.RecordFallbackServed("search")
	return s.fallbackRecipes(query, filters)
}

// SearchByIngredients は材料リストでレシピを検索する。
// 先頭3材料までを並列照会し、ID重複を除去した後、
// 要求材料の半数以上を含むレシピのみ残す網羅ヒューリスティックを適用する。
func (s *Service) SearchByIngredients(ctx context.Context, ingredients []string, filters model.SearchFilters) []model.Recipe {
	start := time.Now()
	defer func() { s.metrics.RecordSourceLatency(time.Since(start)) }()

	all := s.searchIngredientsRaw(ctx, ingredients, filters)
	if len(all) > 0 {
		s.metrics.RecordSourceSuccess("ingredients")
		return all
	}

	s.metrics.RecordFallbackServed("ingredients")
	return s.fallbackRecipes(strings.Join(ingredients, " "), filters)
}

// searchIngredientsRaw は材料検索パイプライン本体。
// フォールバックへ退行しないため、結果は空でありうる。
func (s *Service) searchIngredientsRaw(ctx context.Context, ingredients []string, filters model.SearchFilters) []model.Recipe {
	terms := ingredients
	if len(terms) > maxSearchIngredients {
		terms = terms[:maxSearchIngredients]
	}

	// 材料ごとの照会を並列実行し、材料順を保って連結する
	perTerm := make([][]model.Recipe, len(terms))
	var wg sync.WaitGroup
	for i, term := range terms {
		wg.Add(1)
		go func(idx int, ingredient string) {
			defer wg.Done()
			perTerm[idx] = s.searchByIngredient(ctx, ingredient)
		}(i, term)
	}
	wg.Wait()

	var all []model.Recipe
	for _, batch := range perTerm {
		all = append(all, batch...)
	}

	all = RemoveDuplicates(all)
	all = FilterByIngredientMatch(all, ingredients)
	return ApplyFilters(all, filters)
}

// Generate は材料リストと嗜好からレシピを1件生成する。
// まず実在レシピの材料検索を試み、1件でもヒットすればそれをそのまま返す
// （呼び出し元はSourceタグで実在/合成を判別できる）。
// ヒットなしの場合のみ合成レシピを組み立てる。検索と異なり
// フォールバックストアには退行しない（合成自体が最終保証のため）。
func (s *Service) Generate(ctx context.Context, ingredients []string, prefs model.SearchFilters) *model.Recipe {
	if found := s.searchIngredientsRaw(ctx, ingredients, prefs); len(found) > 0 {
		return &found[0]
	}
	return s.synthesize(ingredients, prefs)
}

// Random はランダムなレシピを1件返す。
// 外部ソースの失敗・空応答時はフォールバックストアから一様ランダムに選ぶ。
func (s *Service) Random(ctx context.Context) *model.Recipe {
	meal, err := s.source.Random(ctx)
	if err != nil {
		s.logger.Warn("ランダムレシピの取得に失敗しました",
			slog.String("error", err.Error()),
		)
		s.metrics.RecordSourceFailure("random")
	} else if meal != nil {
		s.metrics.RecordSourceSuccess("random")
		return s.normalizer.FormatMeal(meal)
	}

	s.metrics.RecordFallbackServed("random")
	pick := s.fallback[rand.Intn(len(s.fallback))]
	return &pick
}

// LookupByID はソースネイティブIDでレシピを外部ソースから取得して正規化する。
// 取得失敗・該当なしの場合は(nil, error/nil)を返す。
// 検索パスと異なり、ID照会の失敗はフォールバックに退行しない
// （存在しないIDに別レシピを返すべきではないため）。
func (s *Service) LookupByID(ctx context.Context, id string) (*model.Recipe, error) {
	meal, err := s.source.LookupByID(ctx, id)
	if err != nil {
		s.metrics.RecordSourceFailure("lookup")
		return nil, err
	}
	if meal == nil {
		return nil, nil
	}
	s.metrics.RecordSourceSuccess("lookup")
	return s.normalizer.FormatMeal(meal), nil
}

// searchByName は名前検索を実行して正規化する。エラーは吸収して空扱い。
func (s *Service) searchByName(ctx context.Context, query string) []model.Recipe {
	meals, err := s.source.SearchByName(ctx, query)
	if err != nil {
		s.logger.Warn("名前検索に失敗しました",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		s.metrics.RecordSourceFailure("search")
		return nil
	}
	recipes := make([]model.Recipe, 0, len(meals))
	for i := range meals {
		recipes = append(recipes, *s.normalizer.FormatMeal(&meals[i]))
	}
	return recipes
}

// searchByIngredient は材料名でスタブ参照を検索し、先頭10件の詳細を並列取得する。
// 詳細取得に失敗した参照はリトライせずに除外し、参照順を保って返す。
// エラーは吸収して空扱い。
func (s *Service) searchByIngredient(ctx context.Context, ingredient string) []model.Recipe {
	refs, err := s.source.FilterByIngredient(ctx, ingredient)
	if err != nil {
		s.logger.Warn("材料検索に失敗しました",
			slog.String("ingredient", ingredient),
			slog.String("error", err.Error()),
		)
		s.metrics.RecordSourceFailure("ingredients")
		return nil
	}

	if len(refs) > maxDetailFetches {
		refs = refs[:maxDetailFetches]
	}

	// semaphoreパターンで詳細取得の並列数を制御する
	results := make([]*model.Recipe, len(refs))
	sem := make(chan struct{}, s.maxConcurrent)
	var wg sync.WaitGroup

	for i, ref := range refs {
		wg.Add(1)
		sem <- struct{}{}

		go func(idx int, id string) {
			defer wg.Done()
			defer func() { <-sem }()

			meal, err := s.source.LookupByID(ctx, id)
			if err != nil {
				s.logger.Warn("レシピ詳細の取得に失敗しました",
					slog.String("meal_id", id),
					slog.String("error", err.Error()),
				)
				return
			}
			if meal == nil {
				return
			}
			results[idx] = s.normalizer.FormatMeal(meal)
		}(i, ref.ID)
	}
	wg.Wait()

	var recipes []model.Recipe
	for _, r := range results {
		if r != nil {
			recipes = append(recipes, *r)
		}
	}
	return recipes
}

// synthesize は材料リストと嗜好から合成レシピを組み立てる。
func (s *Service) synthesize(ingredients []string, prefs model.SearchFilters) *model.Recipe {
	main := "vegetables"
	if len(ingredients) > 0 && ingredients[0] != "" {
		main = ingredients[0]
	}

	recipeIngredients := make([]model.Ingredient, 0, len(ingredients))
	for i, ing := range ingredients {
		recipeIngredients = append(recipeIngredients, model.Ingredient{
			Original: fmt.Sprintf("%d cup %s", i+1, ing),
			Amount:   float64(i + 1),
			Unit:     "cup",
			Name:     ing,
		})
	}

	diets := prefs.Dietary
	if len(diets) == 0 {
		diets = []string{"balanced"}
	}
	cuisines := []string{"International"}
	if prefs.Cuisine != "" {
		cuisines = []string{prefs.Cuisine}
	}

	return &model.Recipe{
		Title:          "Special " + capitalize(main) + " Recipe",
		Image:          model.DefaultRecipeImage,
		ReadyInMinutes: generatedReadyInMinutes,
		Servings:       generatedServings,
		Summary: fmt.Sprintf(
			"A custom recipe using %s. Created based on your preferences and available ingredients.",
			strings.Join(ingredients, ", "),
		),
		ExtendedIngredients: recipeIngredients,
		AnalyzedInstructions: []model.InstructionGroup{{Steps: []model.InstructionStep{
			{Number: 1, Step: "Prepare and chop all your ingredients."},
			{Number: 2, Step: "Heat oil in a pan and sauté the main ingredients."},
			{Number: 3, Step: "Add seasonings and cook for 15-20 minutes."},
			{Number: 4, Step: "Adjust seasoning to taste and serve hot."},
		}}},
		Diets:     diets,
		Cuisines:  cuisines,
		DishTypes: []string{"Main Course"},
		Nutrition: placeholderNutrition(),
		Source:    model.RecipeSourceAI,
		IsPublic:  true,
	}
}

// fallbackRecipes はフォールバックストアをクエリとフィルタで絞り込んで返す。
// 絞り込みで空になった場合は段階的に条件を緩め、決して空配列を返さない
// （フォールバックストアは可用性の最終保証）。
func (s *Service) fallbackRecipes(query string, filters model.SearchFilters) []model.Recipe {
	if result := filterFallback(s.fallback, query, filters); len(result) > 0 {
		return result
	}
	// クエリにマッチしない場合はフィルタのみで再評価する
	if result := ApplyFilters(s.fallback, filters); len(result) > 0 {
		return result
	}
	// フィルタでも全滅する場合は全件を返す
	result := make([]model.Recipe, len(s.fallback))
	copy(result, s.fallback)
	return result
}

// capitalize は先頭文字を大文字化する。
func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	return strings.ToUpper(string(runes[0])) + string(runes[1:])
}

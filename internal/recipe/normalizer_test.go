package recipe

import (
	"strings"
	"testing"

	"github.com/hitoshi/mealman/internal/mealdb"
	"github.com/hitoshi/mealman/internal/model"
)

func sampleMeal() *mealdb.Meal {
	meal := &mealdb.Meal{
		ID:           "52940",
		Name:         "Brown Stew Chicken",
		Thumbnail:    "https://example.com/thumb.jpg",
		Instructions: "Squeeze lime over chicken.\r\n\r\nHeat oil in a pan.\r\nAdd chicken and brown.",
		Category:     "Chicken",
		Area:         "Jamaican",
		Tags:         "Stew,Spicy",
	}
	meal.Ingredients[0] = "Chicken"
	meal.Measures[0] = "1 whole"
	meal.Ingredients[1] = "  Lime  "
	meal.Measures[1] = "half"
	meal.Ingredients[2] = "   "
	meal.Measures[2] = "2 tbsp"
	return meal
}

func TestNormalizer_FormatMeal_Basics(t *testing.T) {
	n := NewNormalizer()
	recipe := n.FormatMeal(sampleMeal())

	if recipe.ID != "52940" {
		t.Errorf("ID = %s, want 52940", recipe.ID)
	}
	if recipe.Title != "Brown Stew Chicken" {
		t.Errorf("Title = %s, want Brown Stew Chicken", recipe.Title)
	}
	if recipe.ReadyInMinutes != externalReadyInMinutes {
		t.Errorf("ReadyInMinutes = %d, want %d", recipe.ReadyInMinutes, externalReadyInMinutes)
	}
	if recipe.Servings != externalServings {
		t.Errorf("Servings = %d, want %d", recipe.Servings, externalServings)
	}
	if recipe.Source != model.RecipeSourceExternal {
		t.Errorf("Source = %s, want %s", recipe.Source, model.RecipeSourceExternal)
	}
	if !recipe.IsPublic {
		t.Error("外部ソース由来のレシピは公開扱いであるべき")
	}
	if recipe.Nutrition == nil || recipe.Nutrition.Calories != 350 {
		t.Errorf("Nutrition = %+v, want プレースホルダー(350kcal)", recipe.Nutrition)
	}
	if len(recipe.Tags) != 2 {
		t.Errorf("Tags件数 = %d, want 2", len(recipe.Tags))
	}
}

func TestNormalizer_FormatMeal_IngredientExtraction(t *testing.T) {
	n := NewNormalizer()
	recipe := n.FormatMeal(sampleMeal())

	// 空白のみの材料スロットは除外される
	if len(recipe.ExtendedIngredients) != 2 {
		t.Fatalf("材料数 = %d, want 2", len(recipe.ExtendedIngredients))
	}

	first := recipe.ExtendedIngredients[0]
	if first.Name != "Chicken" {
		t.Errorf("Name = %s, want Chicken", first.Name)
	}
	if first.Original != "1 whole Chicken" {
		t.Errorf("Original = %q, want %q", first.Original, "1 whole Chicken")
	}
	if first.Amount != 1 {
		t.Errorf("Amount = %g, want 1", first.Amount)
	}

	// 材料名はトリムされる
	if recipe.ExtendedIngredients[1].Name != "Lime" {
		t.Errorf("Name = %q, want Lime", recipe.ExtendedIngredients[1].Name)
	}
}

func TestNormalizer_FormatMeal_StepNumbering(t *testing.T) {
	n := NewNormalizer()
	recipe := n.FormatMeal(sampleMeal())

	if len(recipe.AnalyzedInstructions) != 1 {
		t.Fatalf("手順グループ数 = %d, want 1", len(recipe.AnalyzedInstructions))
	}
	steps := recipe.AnalyzedInstructions[0].Steps

	// 空行は除外され、番号は1始まりの連番になる
	if len(steps) != 3 {
		t.Fatalf("ステップ数 = %d, want 3", len(steps))
	}
	for i, step := range steps {
		if step.Number != i+1 {
			t.Errorf("steps[%d].Number = %d, want %d", i, step.Number, i+1)
		}
	}
	if steps[0].Step != "Squeeze lime over chicken." {
		t.Errorf("steps[0].Step = %q", steps[0].Step)
	}
}

func TestNormalizer_FormatMeal_EmptyInstructions(t *testing.T) {
	n := NewNormalizer()
	meal := sampleMeal()
	meal.Instructions = ""

	recipe := n.FormatMeal(meal)

	steps := recipe.AnalyzedInstructions[0].Steps
	if len(steps) != 1 || steps[0].Step != fallbackStep {
		t.Errorf("手順欠損時は汎用ステップ1件を返すべき: %+v", steps)
	}
	want := "A delicious Chicken from Jamaican cuisine."
	if recipe.Summary != want {
		t.Errorf("Summary = %q, want %q", recipe.Summary, want)
	}
}

func TestNormalizer_FormatMeal_SummaryTruncation(t *testing.T) {
	n := NewNormalizer()
	meal := sampleMeal()
	meal.Instructions = strings.Repeat("a", 300)

	recipe := n.FormatMeal(meal)

	if len([]rune(recipe.Summary)) != summaryMaxLen+3 {
		t.Errorf("Summary長 = %d, want %d", len([]rune(recipe.Summary)), summaryMaxLen+3)
	}
	if !strings.HasSuffix(recipe.Summary, "...") {
		t.Errorf("Summary は ... で終わるべき: %q", recipe.Summary)
	}
}

func TestNormalizer_FormatMeal_StripsHTML(t *testing.T) {
	n := NewNormalizer()
	meal := sampleMeal()
	meal.Instructions = "<b>Heat</b> the oil.<script>alert(1)</script>"

	recipe := n.FormatMeal(meal)

	steps := recipe.AnalyzedInstructions[0].Steps
	if strings.Contains(steps[0].Step, "<") || strings.Contains(steps[0].Step, "script") {
		t.Errorf("HTMLタグが除去されていない: %q", steps[0].Step)
	}
	if !strings.Contains(steps[0].Step, "Heat the oil.") {
		t.Errorf("テキスト本体が保持されていない: %q", steps[0].Step)
	}
}

func TestNormalizer_FormatMeal_Defaults(t *testing.T) {
	n := NewNormalizer()
	meal := &mealdb.Meal{ID: "1", Name: "Plain"}

	recipe := n.FormatMeal(meal)

	if recipe.Image != model.DefaultRecipeImage {
		t.Errorf("Image = %s, want デフォルト画像", recipe.Image)
	}
	if len(recipe.Cuisines) != 1 || recipe.Cuisines[0] != "International" {
		t.Errorf("Cuisines = %v, want [International]", recipe.Cuisines)
	}
	if len(recipe.DishTypes) != 1 || recipe.DishTypes[0] != "Main Course" {
		t.Errorf("DishTypes = %v, want [Main Course]", recipe.DishTypes)
	}
	if len(recipe.Diets) != 1 || recipe.Diets[0] != "balanced" {
		t.Errorf("Diets = %v, want [balanced]", recipe.Diets)
	}
}

func TestNormalizer_FormatMeal_VegetarianCategory(t *testing.T) {
	n := NewNormalizer()
	meal := sampleMeal()
	meal.Category = "Vegetarian"

	recipe := n.FormatMeal(meal)

	if len(recipe.Diets) != 1 || recipe.Diets[0] != "vegetarian" {
		t.Errorf("Diets = %v, want [vegetarian]", recipe.Diets)
	}
}

func TestNormalizer_FormatMeal_Deterministic(t *testing.T) {
	n := NewNormalizer()

	first := n.FormatMeal(sampleMeal())
	second := n.FormatMeal(sampleMeal())

	if first.Rating == nil || second.Rating == nil {
		t.Fatal("Rating が設定されていない")
	}
	if first.Rating.Count != second.Rating.Count {
		t.Errorf("同一入力から異なるRatingが生成された: %d != %d", first.Rating.Count, second.Rating.Count)
	}
	if first.Rating.Count < 1 || first.Rating.Count > 100 {
		t.Errorf("Rating.Count = %d, want 1..100", first.Rating.Count)
	}
	if first.Summary != second.Summary {
		t.Error("正規化は冪等であるべき")
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		measure string
		want    float64
	}{
		{"2 cups", 2},
		{"1.5 tsp", 1.5},
		{"1/2 cup", 1},
		{"half", 1},
		{"", 1},
		{"about 350g", 350},
	}

	for _, tt := range tests {
		t.Run(tt.measure, func(t *testing.T) {
			if got := parseAmount(tt.measure); got != tt.want {
				t.Errorf("parseAmount(%q) = %g, want %g", tt.measure, got, tt.want)
			}
		})
	}
}

func TestParseUnit(t *testing.T) {
	tests := []struct {
		measure string
		want    string
	}{
		{"2 Cups", "cup"},
		{"1 tbsp", "tbsp"},
		{"3 cloves", "clove"},
		{"1 whole", ""},
		{"half", ""},
	}

	for _, tt := range tests {
		t.Run(tt.measure, func(t *testing.T) {
			if got := parseUnit(tt.measure); got != tt.want {
				t.Errorf("parseUnit(%q) = %q, want %q", tt.measure, got, tt.want)
			}
		})
	}
}

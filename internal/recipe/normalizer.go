// Package recipe はレシピの集約・正規化パイプラインを提供する。
// 外部ソースからの取得 → 正規化 → マージ → フィルタ → フォールバックの
// 一連のフローを統括する。
package recipe

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/hitoshi/mealman/internal/mealdb"
	"github.com/hitoshi/mealman/internal/model"
)

// 外部ソース由来レシピのデフォルト値。
// TheMealDBは調理時間・人数を提供しないため固定値で補完する。
const (
	externalReadyInMinutes = 45
	externalServings       = 4
	// summaryMaxLen は手順テキストから概要を生成する際の最大文字数。
	summaryMaxLen = 200
	// fallbackStep は手順が欠損しているレコードに与える汎用ステップ。
	fallbackStep = "Mix all ingredients together and cook until done."
)

// unitVocabulary は分量テキストから単位を抽出する際の固定語彙。
var unitVocabulary = []string{
	"cup", "tsp", "tbsp", "oz", "lb", "kg", "g", "ml", "l",
	"piece", "slice", "clove",
}

// placeholderNutrition は外部ソースが栄養情報を提供しないための固定値。
// 実計算ではないことが既知の制約。
func placeholderNutrition() *model.Nutrition {
	return &model.Nutrition{
		Calories:      350,
		Protein:       "15g",
		Carbohydrates: "45g",
		Fat:           "12g",
	}
}

// Normalizer はTheMealDBの生レコードを内部標準形Recipeへ変換する。
// 変換は純粋で、同一入力からは常に同一のRecipeが得られる。
type Normalizer struct {
	sanitizer *textSanitizer
}

// NewNormalizer はNormalizerの新しいインスタンスを生成する。
func NewNormalizer() *Normalizer {
	return &Normalizer{
		sanitizer: newTextSanitizer(),
	}
}

// FormatMeal は生レコード1件を正規化済みRecipeに変換する。
// 欠損フィールドはすべて文書化されたデフォルト値に退行し、
// title / readyInMinutes / servings を欠くRecipeは決して生成されない。
func (n *Normalizer) FormatMeal(meal *mealdb.Meal) *model.Recipe {
	instructions := n.sanitizer.Sanitize(meal.Instructions)

	return &model.Recipe{
		ID:                   meal.ID,
		Title:                meal.Name,
		Image:                imageOrDefault(meal.Thumbnail),
		ReadyInMinutes:       externalReadyInMinutes,
		Servings:             externalServings,
		Summary:              summarize(instructions, meal.Category, meal.Area),
		ExtendedIngredients:  extractIngredients(meal),
		AnalyzedInstructions: []model.InstructionGroup{{Steps: extractSteps(instructions)}},
		Diets:                deriveDiets(meal.Category),
		Cuisines:             tagOrDefault(meal.Area, "International"),
		DishTypes:            tagOrDefault(meal.Category, "Main Course"),
		Nutrition:            placeholderNutrition(),
		Source:               model.RecipeSourceExternal,
		SourceURL:            meal.SourceURL,
		VideoURL:             meal.YouTube,
		Tags:                 meal.TagList(),
		Rating:               syntheticRating(meal.ID),
		IsPublic:             true,
	}
}

// extractIngredients は番号付き材料/分量ペアを走査して材料リストを構築する。
// 材料名がトリム後に空のペアは除外する。並び順はソース順を保持する。
func extractIngredients(meal *mealdb.Meal) []model.Ingredient {
	var ingredients []model.Ingredient
	for i := range meal.Ingredients {
		name := strings.TrimSpace(meal.Ingredients[i])
		if name == "" {
			continue
		}
		measure := meal.Measures[i]
		ingredients = append(ingredients, model.Ingredient{
			Original: strings.TrimSpace(measure + " " + name),
			Amount:   parseAmount(measure),
			Unit:     parseUnit(measure),
			Name:     name,
		})
	}
	return ingredients
}

// extractSteps は手順テキストをCRLFで分割し、1始まりの連番ステップを構築する。
// 空行・空白のみの行は除外する。手順が1つも得られない場合は汎用ステップ1件を返す。
func extractSteps(instructions string) []model.InstructionStep {
	var steps []model.InstructionStep
	for _, line := range strings.Split(instructions, "\r\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		steps = append(steps, model.InstructionStep{
			Number: len(steps) + 1,
			Step:   line,
		})
	}
	if len(steps) == 0 {
		steps = append(steps, model.InstructionStep{Number: 1, Step: fallbackStep})
	}
	return steps
}

// parseAmount は分量テキストから最初の数値（整数または小数）を抽出する。
// 数値が見つからない場合は1を返す。
func parseAmount(measure string) float64 {
	start := -1
	end := len(measure)
	seenDot := false

	for i, r := range measure {
		if r >= '0' && r <= '9' {
			if start == -1 {
				start = i
			}
			continue
		}
		if r == '.' && start != -1 && !seenDot {
			// 小数点の直後が数字の場合のみ小数として続行する
			if i+1 < len(measure) && measure[i+1] >= '0' && measure[i+1] <= '9' {
				seenDot = true
				continue
			}
		}
		if start != -1 {
			end = i
			break
		}
	}

	if start == -1 {
		return 1
	}

	var amount float64
	if _, err := fmt.Sscanf(measure[start:end], "%g", &amount); err != nil {
		return 1
	}
	return amount
}

// parseUnit は分量テキストに含まれる単位を固定語彙から抽出する。
// 単語単位で照合し（複数形sも許容）、最初にマッチした語彙を採用する。
// マッチなしの場合は空文字列を返す。
func parseUnit(measure string) string {
	for _, token := range strings.Fields(strings.ToLower(measure)) {
		token = strings.TrimRight(token, ".,")
		for _, unit := range unitVocabulary {
			if token == unit || token == unit+"s" {
				return unit
			}
		}
	}
	return ""
}

// deriveDiets はカテゴリフィールドから食事制限タグを導出する。
// 現状はvegetarianキーワード検出のみで、検出なしの場合はbalancedを返す。
func deriveDiets(category string) []string {
	if strings.Contains(strings.ToLower(category), "vegetarian") {
		return []string{"vegetarian"}
	}
	return []string{"balanced"}
}

// summarize は手順テキストの先頭200文字から概要を生成する。
// 手順が欠損している場合はカテゴリ/地域から定型文を組み立てる。
func summarize(instructions, category, area string) string {
	if instructions != "" {
		runes := []rune(instructions)
		if len(runes) > summaryMaxLen {
			runes = runes[:summaryMaxLen]
		}
		return string(runes) + "..."
	}

	if category == "" {
		category = "recipe"
	}
	if area == "" {
		area = "International"
	}
	return fmt.Sprintf("A delicious %s from %s cuisine.", category, area)
}

// tagOrDefault は値が空の場合にデフォルトタグの単独リストを返す。
func tagOrDefault(value, defaultTag string) []string {
	if strings.TrimSpace(value) == "" {
		return []string{defaultTag}
	}
	return []string{value}
}

// imageOrDefault は画像URLが空の場合にプレースホルダーを返す。
func imageOrDefault(image string) string {
	if image == "" {
		return model.DefaultRecipeImage
	}
	return image
}

// syntheticRating はレシピIDから決定的に導出した合成評価を返す。
// ユーザー評価機能が存在しないためのプレースホルダーで、
// IDが同じなら常に同じ値になる（正規化の冪等性を保つため乱数は使わない）。
func syntheticRating(id string) *model.Rating {
	h := fnv.New32a()
	h.Write([]byte(id))
	return &model.Rating{
		Average: 4.5,
		Count:   int(h.Sum32()%100) + 1,
	}
}

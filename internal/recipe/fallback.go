package recipe

import (
	"strings"

	"github.com/hitoshi/mealman/internal/model"
)

// DefaultFallback は外部ソース不達時の最終フォールバックとなる静的レシピ群を返す。
// 起動時に1回構築してServiceへ注入する読み取り専用データで、
// 空になることはない（検索が空配列を返さないことの最後の砦）。
func DefaultFallback() []model.Recipe {
	return []model.Recipe{
		{
			ID:             "1",
			Title:          "Vegetable Stir Fry",
			Image:          model.DefaultRecipeImage,
			ReadyInMinutes: 20,
			Servings:       2,
			Summary:        "A quick and healthy vegetable stir fry packed with fresh flavors and colorful veggies.",
			ExtendedIngredients: []model.Ingredient{
				{Original: "2 cups mixed vegetables (bell peppers, broccoli, carrots)", Amount: 2, Unit: "cup", Name: "mixed vegetables"},
				{Original: "2 cloves garlic, minced", Amount: 2, Unit: "clove", Name: "garlic"},
				{Original: "1 tbsp soy sauce", Amount: 1, Unit: "tbsp", Name: "soy sauce"},
				{Original: "1 tsp ginger, grated", Amount: 1, Unit: "tsp", Name: "ginger"},
				{Original: "2 tbsp vegetable oil", Amount: 2, Unit: "tbsp", Name: "vegetable oil"},
			},
			AnalyzedInstructions: []model.InstructionGroup{{Steps: []model.InstructionStep{
				{Number: 1, Step: "Heat oil in a large wok or skillet over high heat."},
				{Number: 2, Step: "Add garlic and ginger, stir for 30 seconds until fragrant."},
				{Number: 3, Step: "Add vegetables and stir fry for 5-7 minutes until crisp-tender."},
				{Number: 4, Step: "Add soy sauce and toss to combine. Serve immediately."},
			}}},
			Diets:     []string{"vegetarian", "vegan"},
			Cuisines:  []string{"Asian"},
			DishTypes: []string{"Main Course"},
			Nutrition: &model.Nutrition{Calories: 180, Protein: "5g", Carbohydrates: "20g", Fat: "8g"},
			Source:    model.RecipeSourceExternal,
			Rating:    &model.Rating{Average: 4.5, Count: 37},
			IsPublic:  true,
		},
		{
			ID:             "2",
			Title:          "Creamy Garlic Pasta",
			Image:          "https://images.unsplash.com/photo-1563379926898-05f4575a45d8?w=600&h=400&fit=crop",
			ReadyInMinutes: 25,
			Servings:       3,
			Summary:        "Rich and creamy pasta with garlic and parmesan cheese.",
			ExtendedIngredients: []model.Ingredient{
				{Original: "8 oz pasta", Amount: 8, Unit: "oz", Name: "pasta"},
				{Original: "4 cloves garlic, minced", Amount: 4, Unit: "clove", Name: "garlic"},
				{Original: "1 cup heavy cream", Amount: 1, Unit: "cup", Name: "heavy cream"},
				{Original: "1/2 cup grated parmesan", Amount: 0.5, Unit: "cup", Name: "parmesan"},
				{Original: "2 tbsp butter", Amount: 2, Unit: "tbsp", Name: "butter"},
			},
			AnalyzedInstructions: []model.InstructionGroup{{Steps: []model.InstructionStep{
				{Number: 1, Step: "Cook pasta according to package directions."},
				{Number: 2, Step: "Melt butter in a pan, add garlic and cook until fragrant."},
				{Number: 3, Step: "Add cream and bring to a simmer."},
				{Number: 4, Step: "Stir in parmesan until melted and creamy."},
				{Number: 5, Step: "Toss with cooked pasta and serve."},
			}}},
			Diets:     []string{"vegetarian"},
			Cuisines:  []string{"Italian"},
			DishTypes: []string{"Main Course"},
			Nutrition: &model.Nutrition{Calories: 450, Protein: "15g", Carbohydrates: "45g", Fat: "22g"},
			Source:    model.RecipeSourceExternal,
			Rating:    &model.Rating{Average: 4.5, Count: 52},
			IsPublic:  true,
		},
	}
}

// filterFallback はフォールバックレシピをクエリ文字列とフィルタで絞り込む。
// クエリはタイトル・概要・食事制限タグ・料理ジャンルへの大文字小文字を
// 無視した部分一致で評価する。
func filterFallback(recipes []model.Recipe, query string, filters model.SearchFilters) []model.Recipe {
	matched := recipes
	if query != "" {
		queryLower := strings.ToLower(query)
		matched = nil
		for _, r := range recipes {
			if matchesQuery(&r, queryLower) {
				matched = append(matched, r)
			}
		}
	}
	return ApplyFilters(matched, filters)
}

// matchesQuery はレシピがクエリ文字列に部分一致するかを判定する。
func matchesQuery(r *model.Recipe, queryLower string) bool {
	if strings.Contains(strings.ToLower(r.Title), queryLower) ||
		strings.Contains(strings.ToLower(r.Summary), queryLower) {
		return true
	}
	for _, diet := range r.Diets {
		if strings.Contains(strings.ToLower(diet), queryLower) {
			return true
		}
	}
	for _, cuisine := range r.Cuisines {
		if strings.Contains(strings.ToLower(cuisine), queryLower) {
			return true
		}
	}
	return false
}

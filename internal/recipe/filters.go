package recipe

import (
	"math"
	"strings"

	"github.com/hitoshi/mealman/internal/model"
)

// ApplyFilters はレシピ一覧にユーザー指定のフィルタを適用する。
// 未指定のフィルタ条件は無条件通過として扱う。
//   - Dietary: レシピの食事制限タグと1つでも交差すれば通過（OR条件）
//   - Cuisine: 料理ジャンルの大文字小文字を無視した完全一致
//   - MaxReadyTime: 調理時間が上限以下なら通過（境界値は含む）
func ApplyFilters(recipes []model.Recipe, filters model.SearchFilters) []model.Recipe {
	if filters.IsZero() {
		return recipes
	}

	var filtered []model.Recipe
	for _, r := range recipes {
		if len(filters.Dietary) > 0 && !intersects(r.Diets, filters.Dietary) {
			continue
		}
		if filters.Cuisine != "" && !containsFold(r.Cuisines, filters.Cuisine) {
			continue
		}
		if filters.MaxReadyTime > 0 && r.ReadyInMinutes > filters.MaxReadyTime {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}

// RemoveDuplicates はID重複を除去する。最初の出現を残し、順序は安定。
func RemoveDuplicates(recipes []model.Recipe) []model.Recipe {
	seen := make(map[string]struct{}, len(recipes))
	var unique []model.Recipe
	for _, r := range recipes {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		unique = append(unique, r)
	}
	return unique
}

// FilterByIngredientMatch は要求材料の網羅度でレシピを絞り込む。
// 要求材料N個のうちceil(N/2)個以上が、レシピの材料名への
// 大文字小文字を無視した部分一致で見つかるレシピのみ残す。
// 完全一致ではなく「要求材料の半数以上が含まれる」ヒューリスティックである。
func FilterByIngredientMatch(recipes []model.Recipe, searchIngredients []string) []model.Recipe {
	if len(searchIngredients) == 0 {
		return recipes
	}

	threshold := int(math.Ceil(float64(len(searchIngredients)) / 2))

	var matched []model.Recipe
	for _, r := range recipes {
		names := make([]string, 0, len(r.ExtendedIngredients))
		for _, ing := range r.ExtendedIngredients {
			names = append(names, strings.ToLower(ing.Name))
		}

		count := 0
		for _, search := range searchIngredients {
			searchLower := strings.ToLower(search)
			for _, name := range names {
				if strings.Contains(name, searchLower) {
					count++
					break
				}
			}
		}

		if count >= threshold {
			matched = append(matched, r)
		}
	}
	return matched
}

// intersects は2つのタグリストが1つでも共通要素を持つかを判定する。
func intersects(tags, wanted []string) bool {
	for _, w := range wanted {
		for _, t := range tags {
			if t == w {
				return true
			}
		}
	}
	return false
}

// containsFold はタグリストに大文字小文字を無視した一致があるかを判定する。
func containsFold(tags []string, value string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, value) {
			return true
		}
	}
	return false
}

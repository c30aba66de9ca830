// Package model はドメインモデルを定義する。
package model

import "time"

// RecipeSource はレシピの出所を表す。
type RecipeSource string

const (
	// RecipeSourceUser はユーザーが手動で作成したレシピ。
	RecipeSourceUser RecipeSource = "user"
	// RecipeSourceAI は生成器によって合成されたレシピ。
	RecipeSourceAI RecipeSource = "ai"
	// RecipeSourceExternal は外部ソース（TheMealDB）由来のレシピ。
	RecipeSourceExternal RecipeSource = "external"
)

// DefaultRecipeImage は画像未指定時のプレースホルダーURL。
const DefaultRecipeImage = "https://images.unsplash.com/photo-1546069901-ba9599a7e63c?w=600&h=400&fit=crop"

// Ingredient はレシピの材料1件を表す。
// 並び順は表示順として意味を持つため、保持順を変更してはならない。
type Ingredient struct {
	Original string  `json:"original"`
	Amount   float64 `json:"amount"`
	Unit     string  `json:"unit"`
	Name     string  `json:"name"`
}

// InstructionStep は調理手順の1ステップを表す。
// Numberは1始まりの連番で、欠番があってはならない。
type InstructionStep struct {
	Number int    `json:"number"`
	Step   string `json:"step"`
}

// InstructionGroup は手順ステップのグループを表す。
// 現状グループは常に1つで、全ステップを含む。
type InstructionGroup struct {
	Steps []InstructionStep `json:"steps"`
}

// Nutrition は栄養成分表示を表す。
// 外部ソースが値を提供しないため、プレースホルダー値が入る。
type Nutrition struct {
	Calories      int    `json:"calories"`
	Protein       string `json:"protein"`
	Carbohydrates string `json:"carbohydrates"`
	Fat           string `json:"fat"`
}

// Rating はレシピの評価を表す。ユーザー評価機能は未実装のため合成値。
type Rating struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// Recipe は正規化済みレシピの内部標準形を表す。
// 外部ソース由来のレシピはソース側のID（数値文字列）を、
// 内部作成レシピは生成されたUUIDをIDとして持つ。
type Recipe struct {
	ID                   string             `json:"id"`
	Title                string             `json:"title"`
	Image                string             `json:"image"`
	ReadyInMinutes       int                `json:"readyInMinutes"`
	Servings             int                `json:"servings"`
	Summary              string             `json:"summary"`
	ExtendedIngredients  []Ingredient       `json:"extendedIngredients"`
	AnalyzedInstructions []InstructionGroup `json:"analyzedInstructions"`
	Diets                []string           `json:"diets"`
	Cuisines             []string           `json:"cuisines"`
	DishTypes            []string           `json:"dishTypes"`
	Nutrition            *Nutrition         `json:"nutrition,omitempty"`
	Source               RecipeSource       `json:"source"`
	SourceURL            string             `json:"sourceUrl,omitempty"`
	VideoURL             string             `json:"videoUrl,omitempty"`
	Tags                 []string           `json:"tags,omitempty"`
	Rating               *Rating            `json:"rating,omitempty"`
	CreatedBy            string             `json:"createdBy,omitempty"`
	IsPublic             bool               `json:"isPublic"`
	CreatedAt            time.Time          `json:"createdAt,omitzero"`
	UpdatedAt            time.Time          `json:"updatedAt,omitzero"`
}

// SearchFilters はレシピ検索のフィルタ条件を表す。
// すべて省略可能で、ゼロ値のフィルタは無条件通過を意味する。
type SearchFilters struct {
	// Dietary は食事制限タグのリスト。レシピのタグと1つでも一致すれば通過（OR条件）。
	Dietary []string
	// Cuisine は料理ジャンル。大文字小文字を無視した完全一致。
	Cuisine string
	// MaxReadyTime は調理時間の上限（分）。境界値は含む。0は無制限。
	MaxReadyTime int
}

// IsZero は全フィルタが未指定かどうかを返す。
func (f SearchFilters) IsZero() bool {
	return len(f.Dietary) == 0 && f.Cuisine == "" && f.MaxReadyTime == 0
}

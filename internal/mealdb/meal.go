// Package mealdb はTheMealDB APIのクライアントを提供する。
// 名前検索・材料フィルタ・ID照会・ランダム取得の4つの読み取り専用エンドポイントを扱う。
package mealdb

import (
	"encoding/json"
	"fmt"
	"strings"
)

// maxIngredientSlots はTheMealDBレコードが持つ材料/分量フィールドの固定数。
const maxIngredientSlots = 20

// Meal はTheMealDBのレシピ詳細レコードを表す。
// strIngredient1..20 / strMeasure1..20 の番号付きキーは
// Ingredients / Measures の固定長配列に展開される。
type Meal struct {
	ID           string
	Name         string
	Thumbnail    string
	Instructions string
	Category     string
	Area         string
	Tags         string
	YouTube      string
	SourceURL    string
	Ingredients  [maxIngredientSlots]string
	Measures     [maxIngredientSlots]string
}

// UnmarshalJSON はTheMealDBのflatなJSONオブジェクトをMealに展開する。
// TheMealDBは欠損フィールドをnullまたは空文字列で返すため、両方を空として扱う。
func (m *Meal) UnmarshalJSON(data []byte) error {
	var raw map[string]*string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode meal record: %w", err)
	}

	get := func(key string) string {
		if v, ok := raw[key]; ok && v != nil {
			return *v
		}
		return ""
	}

	m.ID = get("idMeal")
	m.Name = get("strMeal")
	m.Thumbnail = get("strMealThumb")
	m.Instructions = get("strInstructions")
	m.Category = get("strCategory")
	m.Area = get("strArea")
	m.Tags = get("strTags")
	m.YouTube = get("strYoutube")
	m.SourceURL = get("strSource")

	for i := 0; i < maxIngredientSlots; i++ {
		m.Ingredients[i] = get(fmt.Sprintf("strIngredient%d", i+1))
		m.Measures[i] = get(fmt.Sprintf("strMeasure%d", i+1))
	}

	return nil
}

// TagList はカンマ区切りのstrTagsをスライスに分解して返す。
func (m *Meal) TagList() []string {
	if strings.TrimSpace(m.Tags) == "" {
		return nil
	}
	return strings.Split(m.Tags, ",")
}

// MealRef は材料フィルタ検索が返すスタブ参照を表す。
// 詳細レコードはLookupByIDで別途取得する必要がある。
type MealRef struct {
	ID        string `json:"idMeal"`
	Name      string `json:"strMeal"`
	Thumbnail string `json:"strMealThumb"`
}

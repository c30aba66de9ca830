package recipe

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// textSanitizer は外部ソース由来のテキストからHTMLを除去する。
// レシピの手順・概要はプレーンテキストとして扱うため、
// 許可タグなしのstrictポリシーで全タグを剥がす。
// 同一入力に対して常に同一出力を返す（冪等）。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// newTextSanitizer はtextSanitizerの新しいインスタンスを生成する。
func newTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力テキストからHTMLタグを除去したプレーンテキストを返す。
// bluemondayがエスケープしたエンティティは元の文字に戻す。
func (s *textSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	cleaned := s.policy.Sanitize(raw)
	return strings.TrimRight(html.UnescapeString(cleaned), " ")
}

// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, recipe, favorite, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeInvalidIngredients = "INVALID_INGREDIENTS"
	ErrCodeRecipeNotFound     = "RECIPE_NOT_FOUND"
	ErrCodeDuplicateFavorite  = "DUPLICATE_FAVORITE"
	ErrCodeFavoriteNotFound   = "FAVORITE_NOT_FOUND"
	ErrCodeEmailTaken         = "EMAIL_TAKEN"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeWeakPassword       = "WEAK_PASSWORD"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidAvatar      = "INVALID_AVATAR"
)

// NewInvalidRequestError はリクエストボディ解析失敗エラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// NewInvalidIngredientsError は材料リストが空または未指定の場合のエラーを生成する。
func NewInvalidIngredientsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidIngredients,
		Message:  "材料リストが指定されていません。",
		Category: "validation",
		Action:   "1つ以上の材料名を含む配列を指定してください。",
	}
}

// NewRecipeNotFoundError はレシピ未検出エラーを生成する。
func NewRecipeNotFoundError(recipeID string) *APIError {
	return &APIError{
		Code:     ErrCodeRecipeNotFound,
		Message:  fmt.Sprintf("指定されたレシピが見つかりません: %s", recipeID),
		Category: "recipe",
		Action:   "レシピIDを確認してください。",
	}
}

// NewDuplicateFavoriteError は同一レシピの二重お気に入り登録エラーを生成する。
func NewDuplicateFavoriteError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateFavorite,
		Message:  "このレシピは既にお気に入りに登録されています。",
		Category: "favorite",
		Action:   "お気に入り一覧から該当レシピを確認してください。",
	}
}

// NewFavoriteNotFoundError はお気に入り未検出エラーを生成する。
func NewFavoriteNotFoundError(recipeID string) *APIError {
	return &APIError{
		Code:     ErrCodeFavoriteNotFound,
		Message:  fmt.Sprintf("指定されたレシピはお気に入りに登録されていません: %s", recipeID),
		Category: "favorite",
		Action:   "お気に入り一覧を確認してください。",
	}
}

// NewEmailTakenError はメールアドレス重複エラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailTaken,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "auth",
		Action:   "別のメールアドレスを使用するか、ログインしてください。",
	}
}

// NewInvalidCredentialsError は認証情報不一致エラーを生成する。
// メールアドレス未登録とパスワード不一致を区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewWeakPasswordError はパスワード長不足エラーを生成する。
func NewWeakPasswordError() *APIError {
	return &APIError{
		Code:     ErrCodeWeakPassword,
		Message:  "パスワードは6文字以上で指定してください。",
		Category: "validation",
		Action:   "より長いパスワードを設定してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewUnauthorizedError は認証必須エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewInvalidAvatarError はアバターファイルが不正な場合のエラーを生成する。
func NewInvalidAvatarError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidAvatar,
		Message:  fmt.Sprintf("アバター画像が不正です: %s", reason),
		Category: "validation",
		Action:   "5MB以下のPNGまたはJPEG画像をアップロードしてください。",
	}
}

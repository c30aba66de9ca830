package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/hitoshi/mealman/internal/middleware"
	"github.com/hitoshi/mealman/internal/model"
	"github.com/hitoshi/mealman/internal/user"
)

// maxAvatarFormSize はマルチパートフォーム全体のメモリ上限。
const maxAvatarFormSize = 8 << 20

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// UpdateProfile はユーザーのプロフィールを部分更新する。
	UpdateProfile(ctx context.Context, userID string, input user.UpdateProfileInput) (*model.User, error)
	// Stats はユーザーの利用状況を返す。
	Stats(ctx context.Context, userID string) (*model.UserStats, error)
	// UploadAvatar はアバター画像を保存する。
	UploadAvatar(ctx context.Context, userID string, file io.Reader, size int64) (*model.User, error)
	// RemoveAvatar はアバターをデフォルトに戻す。
	RemoveAvatar(ctx context.Context, userID string) (*model.User, error)
	// Withdraw はユーザーの退会処理を実行する。
	Withdraw(ctx context.Context, userID string) error
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// updateProfileRequest はプロフィール更新リクエストのボディ。
// 省略されたフィールドは更新しない。
type updateProfileRequest struct {
	Name        *string            `json:"name"`
	Bio         *string            `json:"bio"`
	Preferences *model.Preferences `json:"preferences"`
}

// UpdateProfile はプロフィール更新を処理する。
// PUT /api/users/profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	updated, err := h.service.UpdateProfile(r.Context(), userID, user.UpdateProfileInput{
		Name:        req.Name,
		Bio:         req.Bio,
		Preferences: req.Preferences,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(updated))
}

// Stats は利用状況の取得を処理する。
// GET /api/users/stats
func (h *UserHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	stats, err := h.service.Stats(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// UploadAvatar はアバター画像のアップロードを処理する。
// POST /api/users/avatar (multipart/form-data, フィールド名 "avatar")
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	if err := r.ParseMultipartForm(maxAvatarFormSize); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidAvatarError("マルチパートフォームの解析に失敗しました"))
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidAvatarError("avatarフィールドが見つかりません"))
		return
	}
	defer file.Close()

	updated, err := h.service.UploadAvatar(r.Context(), userID, file, header.Size)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(updated))
}

// RemoveAvatar はアバターをデフォルトに戻す。
// DELETE /api/users/avatar
func (h *UserHandler) RemoveAvatar(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	updated, err := h.service.RemoveAvatar(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(updated))
}

// Withdraw はユーザーの退会処理を実行する。
// DELETE /api/users/me
func (h *UserHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	if err := h.service.Withdraw(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/mealman/internal/model"
	"github.com/hitoshi/mealman/internal/repository"
)

// sniffLen はContent-Type判定に読むバイト数。http.DetectContentTypeの仕様に合わせる。
const sniffLen = 512

// allowedAvatarTypes はアップロード可能なアバター画像のMIMEタイプと拡張子。
var allowedAvatarTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
}

// UpdateProfileInput はプロフィール更新の入力を表す。
// nilのフィールドは更新しない。
type UpdateProfileInput struct {
	Name        *string
	Bio         *string
	Preferences *model.Preferences
}

// Service はユーザー管理のサービス層。
// プロフィール更新、統計、アバター管理、退会処理を提供する。
type Service struct {
	userRepo   repository.UserRepository
	favRepo    repository.FavoriteRepository
	recipeRepo repository.RecipeRepository
	avatarDir  string
	maxAvatar  int64
	logger     *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	favRepo repository.FavoriteRepository,
	recipeRepo repository.RecipeRepository,
	avatarDir string,
	maxAvatarSize int64,
	logger *slog.Logger,
) *Service {
	return &Service{
		userRepo:   userRepo,
		favRepo:    favRepo,
		recipeRepo: recipeRepo,
		avatarDir:  avatarDir,
		maxAvatar:  maxAvatarSize,
		logger:     logger,
	}
}

// Get は指定IDのユーザーを取得する。見つからない場合はUSER_NOT_FOUNDを返す。
func (s *Service) Get(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// UpdateProfile はユーザーのプロフィールを部分更新する。
func (s *Service) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*model.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, model.NewInvalidRequestError()
		}
		user.Name = name
	}
	if input.Bio != nil {
		user.Bio = strings.TrimSpace(*input.Bio)
	}
	if input.Preferences != nil {
		user.Preferences = *input.Preferences
	}
	user.UpdatedAt = time.Now()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("プロフィールの更新に失敗しました: %w", err)
	}

	return user, nil
}

// Stats はユーザーの利用状況（お気に入り数・作成レシピ数）を返す。
func (s *Service) Stats(ctx context.Context, userID string) (*model.UserStats, error) {
	if _, err := s.Get(ctx, userID); err != nil {
		return nil, err
	}

	favorites, err := s.favRepo.CountByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("お気に入り数の取得に失敗しました: %w", err)
	}
	recipes, err := s.recipeRepo.CountByCreator(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("作成レシピ数の取得に失敗しました: %w", err)
	}

	return &model.UserStats{
		FavoritesCount: favorites,
		RecipesCreated: recipes,
	}, nil
}

// UploadAvatar はアバター画像を保存しユーザーのアバターURLを更新する。
// PNG/JPEGのみ許可し、サイズ上限を超えるファイルは拒否する。
func (s *Service) UploadAvatar(ctx context.Context, userID string, file io.Reader, size int64) (*model.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if size <= 0 {
		return nil, model.NewInvalidAvatarError("ファイルが空です")
	}
	if size > s.maxAvatar {
		return nil, model.NewInvalidAvatarError(fmt.Sprintf("ファイルサイズが上限（%dバイト）を超えています", s.maxAvatar))
	}

	// 先頭バイトからMIMEタイプを判定する。拡張子は信用しない。
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("ファイルの読み取りに失敗しました: %w", err)
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	ext, ok := allowedAvatarTypes[contentType]
	if !ok {
		return nil, model.NewInvalidAvatarError(fmt.Sprintf("対応していない形式です: %s", contentType))
	}

	if err := os.MkdirAll(s.avatarDir, 0o755); err != nil {
		return nil, fmt.Errorf("アバターディレクトリの作成に失敗しました: %w", err)
	}

	filename := uuid.New().String() + ext
	path := filepath.Join(s.avatarDir, filename)

	dst, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("アバターファイルの作成に失敗しました: %w", err)
	}
	defer dst.Close()

	if _, err := dst.Write(head); err != nil {
		return nil, fmt.Errorf("アバターファイルの書き込みに失敗しました: %w", err)
	}
	// 残りはサイズ上限+1までに制限してコピーし、申告サイズとの齟齬を検出する
	written, err := io.Copy(dst, io.LimitReader(file, s.maxAvatar+1))
	if err != nil {
		return nil, fmt.Errorf("アバターファイルの書き込みに失敗しました: %w", err)
	}
	if int64(len(head))+written > s.maxAvatar {
		os.Remove(path)
		return nil, model.NewInvalidAvatarError(fmt.Sprintf("ファイルサイズが上限（%dバイト）を超えています", s.maxAvatar))
	}

	oldAvatar := user.Avatar
	user.Avatar = "/" + filepath.ToSlash(path)
	user.UpdatedAt = time.Now()
	if err := s.userRepo.Update(ctx, user); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("アバターの更新に失敗しました: %w", err)
	}

	s.removeAvatarFile(oldAvatar)

	s.logger.Info("avatar uploaded",
		slog.String("user_id", userID),
		slog.String("content_type", contentType),
	)

	return user, nil
}

// RemoveAvatar はアバターをデフォルト絵文字に戻す。ファイルがあれば削除する。
func (s *Service) RemoveAvatar(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	oldAvatar := user.Avatar
	user.Avatar = model.DefaultAvatar
	user.UpdatedAt = time.Now()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("アバターの更新に失敗しました: %w", err)
	}

	s.removeAvatarFile(oldAvatar)
	return user, nil
}

// removeAvatarFile はアップロード済みアバターファイルを削除する。
// デフォルト絵文字や外部URLの場合は何もしない。
func (s *Service) removeAvatarFile(avatar string) {
	prefix := "/" + filepath.ToSlash(s.avatarDir) + "/"
	if !strings.HasPrefix(avatar, prefix) {
		return
	}
	path := strings.TrimPrefix(avatar, "/")
	if err := os.Remove(filepath.FromSlash(path)); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove avatar file",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
	}
}

// Withdraw はユーザーの退会処理を実行する。
// 削除順序: favorites → recipes → user。
func (s *Service) Withdraw(ctx context.Context, userID string) error {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}

	s.logger.Info("withdrawing user",
		slog.String("user_id", userID),
	)

	if err := s.favRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("お気に入りの削除に失敗しました: %w", err)
	}
	if err := s.recipeRepo.DeleteByCreator(ctx, userID); err != nil {
		return fmt.Errorf("作成レシピの削除に失敗しました: %w", err)
	}
	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	s.removeAvatarFile(user.Avatar)
	return nil
}

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/mealman/internal/model"
	"github.com/hitoshi/mealman/internal/repository"
)

// minPasswordLength はパスワードの最低文字数。
const minPasswordLength = 6

// bcryptCost はパスワードハッシュの計算コスト。
const bcryptCost = 12

// SignupInput はアカウント登録の入力を表す。
type SignupInput struct {
	Email    string
	Password string
	Name     string
}

// AuthResult は認証成功時の結果を表す。
type AuthResult struct {
	Token string
	User  *model.User
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	jwt      *JWTManager
	logger   *slog.Logger
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, jwt *JWTManager, logger *slog.Logger) *Service {
	return &Service{
		userRepo: userRepo,
		jwt:      jwt,
		logger:   logger,
	}
}

// Signup は新規ユーザーを登録しトークンを発行する。
// メールアドレスは小文字化して保存し、重複時はEMAIL_TAKENを返す。
func (s *Service) Signup(ctx context.Context, input SignupInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	name := strings.TrimSpace(input.Name)

	if email == "" || name == "" {
		return nil, model.NewInvalidRequestError()
	}
	if len(input.Password) < minPasswordLength {
		return nil, model.NewWeakPasswordError()
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewEmailTakenError()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Avatar:       model.DefaultAvatar,
		Bio:          model.DefaultBio,
		Preferences:  model.DefaultPreferences(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}

	token, err := s.jwt.GenerateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("トークンの発行に失敗しました: %w", err)
	}

	s.logger.Info("new user signed up",
		slog.String("user_id", user.ID),
	)

	return &AuthResult{Token: token, User: user}, nil
}

// Login はメールアドレスとパスワードで認証しトークンを発行する。
// メールアドレス未登録とパスワード不一致は同一のエラーで応答する。
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, model.NewInvalidCredentialsError()
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, model.NewInvalidCredentialsError()
	}

	token, err := s.jwt.GenerateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("トークンの発行に失敗しました: %w", err)
	}

	s.logger.Info("user logged in",
		slog.String("user_id", user.ID),
	)

	return &AuthResult{Token: token, User: user}, nil
}

// Profile は認証済みユーザーのプロフィールを取得する。
func (s *Service) Profile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/mealman/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenValidator    middleware.TokenValidator
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// 認証
	AuthService AuthServiceInterface

	// レシピ
	RecipeService RecipeServiceInterface
	RecipeStore   RecipeStore

	// お気に入り
	FavoriteService FavoriteServiceInterface

	// ユーザー
	UserService UserServiceInterface

	// /metrics エンドポイント（Prometheusスクレイプ用）
	MetricsHandler http.Handler

	// アップロード済みアバターの配信ディレクトリ
	AvatarDir string
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → SecurityHeaders → CORS → (Auth → RateLimit)
//
// レシピ検索系は未認証でも利用できるため認証グループの外に配置し、
// 検索専用レート制限のみ適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService)
	recipeHandler := NewRecipeHandler(deps.RecipeService, deps.RecipeStore)
	favHandler := NewFavoriteHandler(deps.FavoriteService)
	userHandler := NewUserHandler(deps.UserService)

	// --- 認証不要のルート ---

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
	})

	// レシピ検索（検索専用レート制限のみ。未認証はIPキーで制限される）
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.SearchMiddleware())

		r.Get("/api/recipes/search", recipeHandler.Search)
		r.Get("/api/recipes/random", recipeHandler.Random)
		r.Get("/api/recipes/{id}", recipeHandler.GetByID)
	})

	// アップロード済みアバターの静的配信
	if deps.AvatarDir != "" {
		fileServer := http.StripPrefix("/"+deps.AvatarDir+"/", http.FileServer(http.Dir(deps.AvatarDir)))
		r.Get("/"+deps.AvatarDir+"/*", fileServer.ServeHTTP)
	}

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth(JWT) → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenValidator))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/api/auth/profile", authHandler.Profile)

		// レシピ生成・作成
		r.Route("/api/recipes", func(r chi.Router) {
			// 材料検索・生成は外部フェッチを伴うため検索専用レート制限を追加
			r.With(deps.RateLimiter.SearchMiddleware()).Post("/ingredients-search", recipeHandler.IngredientsSearch)
			r.With(deps.RateLimiter.SearchMiddleware()).Post("/generate", recipeHandler.Generate)
			r.Post("/", recipeHandler.Create)
		})

		// お気に入り管理
		r.Route("/api/favorites", func(r chi.Router) {
			r.Get("/", favHandler.List)

			r.Route("/{recipeId}", func(r chi.Router) {
				r.Post("/", favHandler.Add)
				r.Delete("/", favHandler.Remove)
				r.Get("/check", favHandler.Check)
			})
		})

		// ユーザー管理
		r.Route("/api/users", func(r chi.Router) {
			r.Put("/profile", userHandler.UpdateProfile)
			r.Get("/stats", userHandler.Stats)
			r.Post("/avatar", userHandler.UploadAvatar)
			r.Delete("/avatar", userHandler.RemoveAvatar)
			r.Delete("/me", userHandler.Withdraw)
		})
	})

	return r
}

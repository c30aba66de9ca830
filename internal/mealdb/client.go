package mealdb

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/doyensec/safeurl"
)

// DefaultBaseURL はTheMealDB無料APIのベースURL。
const DefaultBaseURL = "https://www.themealdb.com/api/json/v1/1"

// Client はTheMealDB APIのクライアント。
// 全エンドポイントは読み取り専用で、失敗時はエラーを返す。
// 失敗をどう扱うか（フォールバック等）の判断は呼び出し元に委ねる。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string // テスト用にベースURLを差し替え可能
}

// NewClient はClientの新しいインスタンスを生成する。
// baseURLが空の場合はDefaultBaseURLを使用する。
func NewClient(httpClient *http.Client, logger *slog.Logger, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
	}
}

// NewSafeHTTPClient は外部API呼び出し用のSSRF防止機能付きHTTPクライアントを生成する。
// safeurlのDialer検証により、リダイレクトやDNS再バインディングで
// プライベートIPへ誘導されるリクエストがブロックされる。
func NewSafeHTTPClient(timeout time.Duration) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes("http", "https").
		SetAllowedPorts(80, 443).
		Build()

	return safeurl.Client(config).Client
}

// mealsEnvelope はTheMealDBレスポンスの共通外殻。
// ヒットなしの場合、TheMealDBは {"meals": null} を返す。
type mealsEnvelope struct {
	Meals []Meal `json:"meals"`
}

// refsEnvelope は材料フィルタ検索レスポンスの外殻。
type refsEnvelope struct {
	Meals []MealRef `json:"meals"`
}

// SearchByName は名前の部分一致でレシピ詳細レコードを検索する。
// ヒットなしの場合は空スライスを返す。
func (c *Client) SearchByName(ctx context.Context, query string) ([]Meal, error) {
	var env mealsEnvelope
	if err := c.get(ctx, "/search.php", url.Values{"s": {query}}, &env); err != nil {
		return nil, err
	}
	return env.Meals, nil
}

// FilterByIngredient は材料名でレシピのスタブ参照を検索する。
// 返されるのはID・名前・サムネイルのみで、詳細はLookupByIDで取得する。
// ヒットなしの場合は空スライスを返す。
func (c *Client) FilterByIngredient(ctx context.Context, ingredient string) ([]MealRef, error) {
	var env refsEnvelope
	if err := c.get(ctx, "/filter.php", url.Values{"i": {ingredient}}, &env); err != nil {
		return nil, err
	}
	return env.Meals, nil
}

// LookupByID はソースネイティブIDでレシピ詳細レコードを取得する。
// 該当レコードがない場合は(nil, nil)を返す。
func (c *Client) LookupByID(ctx context.Context, id string) (*Meal, error) {
	var env mealsEnvelope
	if err := c.get(ctx, "/lookup.php", url.Values{"i": {id}}, &env); err != nil {
		return nil, err
	}
	if len(env.Meals) == 0 {
		return nil, nil
	}
	return &env.Meals[0], nil
}

// Random はランダムなレシピ詳細レコードを1件取得する。
// レスポンスが空の場合は(nil, nil)を返す。
func (c *Client) Random(ctx context.Context) (*Meal, error) {
	var env mealsEnvelope
	if err := c.get(ctx, "/random.php", nil, &env); err != nil {
		return nil, err
	}
	if len(env.Meals) == 0 {
		return nil, nil
	}
	return &env.Meals[0], nil
}

// get は指定パスへのGETリクエストを実行してレスポンスJSONをデコードする。
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("User-Agent", "Mealman/1.0 Recipe Finder")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("TheMealDB APIの呼び出しに失敗しました",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("TheMealDB APIの呼び出しに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("TheMealDB APIがエラーステータスを返しました",
			slog.String("path", path),
			slog.Int("http_status", resp.StatusCode),
		)
		return fmt.Errorf("TheMealDB APIがステータス %d を返しました", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.Error("TheMealDB APIのレスポンスのパースに失敗しました",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	return nil
}

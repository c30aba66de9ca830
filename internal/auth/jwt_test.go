package auth

import (
	"testing"
	"time"
)

// 空のシークレットでJWTManagerが生成できないことを検証
func TestNewJWTManager_EmptySecret(t *testing.T) {
	_, err := NewJWTManager("", time.Hour)
	if err == nil {
		t.Fatal("expected error for empty secret")
	}
}

// 発行したトークンが検証を通過しユーザーIDを復元できることを検証
func TestJWTManager_GenerateAndValidate(t *testing.T) {
	m, err := NewJWTManager("test-secret-for-unit-tests", time.Hour)
	if err != nil {
		t.Fatalf("NewJWTManager failed: %v", err)
	}

	token, err := m.GenerateToken("user-1")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	userID, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if userID != "user-1" {
		t.Errorf("userID = %q, want %q", userID, "user-1")
	}
}

// 期限切れトークンが拒否されることを検証
func TestJWTManager_ValidateToken_Expired(t *testing.T) {
	m, err := NewJWTManager("test-secret-for-unit-tests", -time.Minute)
	if err != nil {
		t.Fatalf("NewJWTManager failed: %v", err)
	}

	token, err := m.GenerateToken("user-1")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if _, err := m.ValidateToken(token); err == nil {
		t.Error("expected error for expired token")
	}
}

// 異なるシークレットで署名されたトークンが拒否されることを検証
func TestJWTManager_ValidateToken_WrongSecret(t *testing.T) {
	m1, _ := NewJWTManager("secret-one-for-unit-tests", time.Hour)
	m2, _ := NewJWTManager("secret-two-for-unit-tests", time.Hour)

	token, err := m1.GenerateToken("user-1")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if _, err := m2.ValidateToken(token); err == nil {
		t.Error("expected error for token signed with different secret")
	}
}

// 不正な文字列が拒否されることを検証
func TestJWTManager_ValidateToken_Garbage(t *testing.T) {
	m, _ := NewJWTManager("test-secret-for-unit-tests", time.Hour)

	if _, err := m.ValidateToken("not.a.token"); err == nil {
		t.Error("expected error for malformed token")
	}
}

package enjin

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signedToken(t, jwt.MapClaims{"sub": "app", "exp": exp.Unix()})

	got, err := tokenExpiry(token)
	if err != nil {
		t.Fatalf("tokenExpiry() error: %v", err)
	}
	if !got.Equal(exp) {
		t.Errorf("tokenExpiry() = %v, want %v", got, exp)
	}
}

func TestTokenExpiry_NoClaim(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"sub": "app"})
	if _, err := tokenExpiry(token); err == nil {
		t.Error("tokenExpiry() without exp claim should fail")
	}
}

func TestTokenExpiry_Malformed(t *testing.T) {
	if _, err := tokenExpiry("not-a-jwt"); err == nil {
		t.Error("tokenExpiry() of malformed token should fail")
	}
}

func TestSessionLoggedIn(t *testing.T) {
	var s Session
	if s.LoggedIn() {
		t.Error("zero session should be logged out")
	}

	s = Session{State: LoginValid, AccessToken: "token"}
	if !s.LoggedIn() {
		t.Error("valid session with token should be logged in")
	}

	s.AccessToken = ""
	if s.LoggedIn() {
		t.Error("valid state without token should be logged out")
	}
}

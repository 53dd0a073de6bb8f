package enjin

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginState tracks the outcome of the last platform authentication.
type LoginState int

const (
	LoginNone LoginState = iota
	LoginValid
	LoginInvalidCredentials
	LoginInvalidURL
	LoginAuto
	LoginUnauthorized
)

func (s LoginState) String() string {
	switch s {
	case LoginNone:
		return "none"
	case LoginValid:
		return "valid"
	case LoginInvalidCredentials:
		return "invalid_credentials"
	case LoginInvalidURL:
		return "invalid_url"
	case LoginAuto:
		return "auto"
	case LoginUnauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// Session is the authenticated state of one client. A zero Session is
// logged out.
type Session struct {
	BaseURL        string
	GraphQLURL     string
	AppID          int
	AccessToken    string
	TokenExpiresAt time.Time
	State          LoginState
}

// LoggedIn reports whether the session holds a valid login.
func (s Session) LoggedIn() bool {
	return s.State == LoginValid && s.AccessToken != ""
}

// tokenExpiry extracts the exp claim from an access token without
// verifying the signature. The platform signs its tokens; the SDK only
// needs the deadline for proactive refresh.
func tokenExpiry(token string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("enjin: parse access token: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, fmt.Errorf("enjin: access token has no expiry claim")
	}
	return exp.Time, nil
}

package auth

import (
	"context"
	"errors"

	"google.golang.org/api/idtoken"
)

var (
	ErrInvalidGoogleToken = errors.New("invalid google id token")
	// ErrGoogleNotConfigured GOOGLE_CLIENT_ID 미설정
	ErrGoogleNotConfigured = errors.New("google sign-in is not configured")
)

// GoogleIdentity 검증이 끝난 Google 계정. 로그인 시 users 행으로
// 업서트된다 (Subject -> provider_id).
type GoogleIdentity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// GoogleAuthenticator Google ID 토큰 검증기
type GoogleAuthenticator struct {
	clientID string
}

// NewGoogleAuthenticator GoogleAuthenticator 생성
func NewGoogleAuthenticator(clientID string) *GoogleAuthenticator {
	return &GoogleAuthenticator{clientID: clientID}
}

// Enabled 클라이언트 ID가 설정되어 있는지 여부
func (g *GoogleAuthenticator) Enabled() bool {
	return g.clientID != ""
}

// VerifyIDToken ID 토큰 검증. audience와 이메일 검증 여부까지 확인하고
// 계정 정보를 돌려준다. 검증 실패 사유는 클라이언트에 노출하지 않는다.
func (g *GoogleAuthenticator) VerifyIDToken(ctx context.Context, token string) (*GoogleIdentity, error) {
	if !g.Enabled() {
		return nil, ErrGoogleNotConfigured
	}

	payload, err := idtoken.Validate(ctx, token, g.clientID)
	if err != nil {
		return nil, ErrInvalidGoogleToken
	}

	if verified, _ := payload.Claims["email_verified"].(bool); !verified {
		return nil, ErrInvalidGoogleToken
	}
	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return nil, ErrInvalidGoogleToken
	}

	return &GoogleIdentity{
		Subject: payload.Subject,
		Email:   email,
		Name:    stringClaim(payload.Claims, "name"),
		Picture: stringClaim(payload.Claims, "picture"),
	}, nil
}

func stringClaim(claims map[string]interface{}, key string) string {
	if val, ok := claims[key].(string); ok {
		return val
	}
	return ""
}

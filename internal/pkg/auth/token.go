// Package auth 实时通道令牌的签发与校验
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/xerrors"
)

const issuer = "uglynos-battle"

// Claims 实时通道令牌声明，Subject 为控制者 ID
type Claims struct {
	CharacterID string `json:"character_id,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager HS256 令牌管理
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager 创建令牌管理器
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue 为控制者签发令牌（角色 ID 可为空）
func (m *TokenManager) Issue(controllerID, characterID string) (string, error) {
	if controllerID == "" {
		return "", xerrors.NewValidationError("controller_id", "不能为空")
	}
	now := m.now()
	claims := Claims{
		CharacterID: characterID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   controllerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse 校验令牌并返回声明
func (m *TokenManager) Parse(raw string) (*Claims, error) {
	if raw == "" {
		return nil, xerrors.NewTokenError("battle")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, xerrors.NewTokenExpiredError("battle")
		}
		return nil, xerrors.Wrap(err, xerrors.CodeInvalidToken, "令牌无效")
	}
	if !token.Valid || claims.Subject == "" {
		return nil, xerrors.NewTokenError("battle")
	}
	return claims, nil
}

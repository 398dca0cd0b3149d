package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for malformed, expired or forged tokens.
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenClaims is the JWT payload carrying a principal.
type TokenClaims struct {
	UserID int64 `json:"uid"`
	Level  Level `json:"lvl"`
	jwt.RegisteredClaims
}

// TokenManager issues and parses HS256 principal tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a TokenManager. A non-positive ttl defaults to 24h.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for p.
func (m *TokenManager) Issue(p Principal) (string, error) {
	if !p.Valid() {
		return "", errors.New("principal is required")
	}
	now := m.now()
	claims := &TokenClaims{
		UserID: p.UserID,
		Level:  p.Level,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(p.UserID, 10),
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

// Parse validates token and returns the principal it carries.
func (m *TokenManager) Parse(token string) (Principal, error) {
	if token == "" {
		return Principal{}, ErrInvalidToken
	}
	claims := &TokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !parsed.Valid {
		return Principal{}, ErrInvalidToken
	}
	p := Principal{UserID: claims.UserID, Level: claims.Level}
	if !p.Valid() {
		return Principal{}, ErrInvalidToken
	}
	return p, nil
}

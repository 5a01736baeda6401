package security

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"koomia/api/internal/apperr"
)

type Purpose string

const (
	PurposeAccess  Purpose = "access"
	PurposeRefresh Purpose = "refresh"
	PurposeReset   Purpose = "reset"
)

var (
	ErrInvalidToken = apperr.New(apperr.Unauthorized, "Invalid token.")
	ErrExpiredToken = apperr.New(apperr.Unauthorized, "Token has expired.")
)

// TokenSettings carries one secret and lifetime per purpose. Secrets must be
// distinct so a token minted for one purpose never verifies under another.
type TokenSettings struct {
	AccessSecret  string
	RefreshSecret string
	ResetSecret   string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	ResetTTL      time.Duration
}

type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type signingKey struct {
	secret []byte
	ttl    time.Duration
}

type TokenService struct {
	keys map[Purpose]signingKey
	now  func() time.Time
}

func NewTokenService(settings TokenSettings) (*TokenService, error) {
	keys := map[Purpose]signingKey{
		PurposeAccess:  {secret: []byte(settings.AccessSecret), ttl: settings.AccessTTL},
		PurposeRefresh: {secret: []byte(settings.RefreshSecret), ttl: settings.RefreshTTL},
		PurposeReset:   {secret: []byte(settings.ResetSecret), ttl: settings.ResetTTL},
	}

	seen := make(map[string]Purpose, len(keys))
	for _, purpose := range []Purpose{PurposeAccess, PurposeRefresh, PurposeReset} {
		key := keys[purpose]
		if len(key.secret) == 0 {
			return nil, fmt.Errorf("%s token secret is empty", purpose)
		}
		if key.ttl <= 0 {
			return nil, fmt.Errorf("%s token ttl must be positive", purpose)
		}
		if other, dup := seen[string(key.secret)]; dup {
			return nil, fmt.Errorf("%s and %s tokens share a secret", other, purpose)
		}
		seen[string(key.secret)] = purpose
	}

	return &TokenService{keys: keys, now: time.Now}, nil
}

func (s *TokenService) TTL(purpose Purpose) time.Duration {
	return s.keys[purpose].ttl
}

func (s *TokenService) Issue(purpose Purpose, subjectID string, subjectEmail string) (string, error) {
	key, ok := s.keys[purpose]
	if !ok {
		return "", fmt.Errorf("unknown token purpose %q", purpose)
	}

	now := s.now()
	claims := Claims{
		Email: strings.TrimSpace(subjectEmail),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(key.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(key.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", purpose, err)
	}
	return signed, nil
}

// Verify checks tokenStr against the secret of purpose only.
func (s *TokenService) Verify(purpose Purpose, tokenStr string) (Claims, error) {
	key, ok := s.keys[purpose]
	if !ok || tokenStr == "" {
		return Claims{}, ErrInvalidToken
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return key.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpiredToken
		}
		return Claims{}, ErrInvalidToken
	}
	if !token.Valid || claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

// DigestToken is what gets persisted for single-use tokens such as password resets.
func DigestToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

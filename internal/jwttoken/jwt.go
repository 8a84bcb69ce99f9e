package jwttoken

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "taskdeck/pkg/domain-errors"
)

// Claims represents the JWT claims for access tokens. The subject of the
// registered claims is the authoritative caller identity; nothing from a
// request path or body ever overrides it.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// errCredential is the single failure returned for every verification
// problem. Malformed, forged and expired tokens are indistinguishable to the
// caller so a rejected token gives no hint about what to fix when forging.
var errCredential = dErrors.New(dErrors.CodeUnauthorized, "invalid or expired credential")

// Service handles JWT creation and verification. Stateless; safe for
// concurrent use.
type Service struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
}

func NewService(signingKey string, issuer string, ttl time.Duration) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		ttl:        ttl,
	}
}

// Generate signs an access token for the given subject. Credential issuance
// flows live outside this service; Generate exists for tests and local tooling.
func (s *Service) Generate(subject string, email string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}

// Verify validates the signature and validity window and returns the embedded
// subject. Every failure collapses to the same unauthorized error.
func (s *Service) Verify(tokenString string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil || !parsed.Valid {
		return "", errCredential
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return "", errCredential
	}

	return claims.Subject, nil
}

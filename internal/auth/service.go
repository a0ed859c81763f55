package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the verified subject the rest of the system trusts. The token
// layer is the only place bearer credentials are inspected.
type Identity struct {
	Subject string
	Email   string
	Role    string
}

type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type Service struct {
	hmac []byte
	ttl  time.Duration
}

func NewService(secret string) *Service {
	return &Service{hmac: []byte(secret), ttl: 8 * time.Hour}
}

func (s *Service) Issue(sub, email, role string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "formforge",
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.hmac)
}

func (s *Service) Verify(tokenStr string) (Identity, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.hmac, nil
	})
	if err != nil || !token.Valid {
		if err == nil {
			err = errors.New("invalid token")
		}
		return Identity{}, err
	}
	c, ok := token.Claims.(*Claims)
	if !ok || c.Subject == "" {
		return Identity{}, errors.New("missing subject")
	}
	return Identity{Subject: c.Subject, Email: c.Email, Role: c.Role}, nil
}

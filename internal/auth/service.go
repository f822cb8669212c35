package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fdg312/mealcart/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrDevAuthClosed = errors.New("dev auth is disabled")
)

// DevUserID is issued when dev sign-in names no user.
const DevUserID = "dev-user"

const maxUserIDLength = 64

// Service issues and verifies HS256 access tokens.
type Service struct {
	config *config.Config
	now    func() time.Time
}

func NewService(cfg *config.Config) *Service {
	return &Service{config: cfg, now: time.Now}
}

// SignInDev issues a token for userID (DevUserID when blank). Only available in dev auth mode.
func (s *Service) SignInDev(userID string) (*DevAuthResponse, error) {
	if s.config.AuthMode != config.AuthModeDev {
		return nil, ErrDevAuthClosed
	}

	userID = strings.TrimSpace(userID)
	if userID == "" {
		userID = DevUserID
	}
	if len(userID) > maxUserIDLength {
		return nil, fmt.Errorf("user_id longer than %d characters", maxUserIDLength)
	}

	ttl := time.Duration(s.config.JWTTTLMinutes) * time.Minute
	token, err := s.generateJWT(userID, ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to generate dev JWT: %w", err)
	}

	return &DevAuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(ttl.Seconds()),
		UserID:      userID,
	}, nil
}

func (s *Service) generateJWT(userID string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    s.config.JWTIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// VerifyJWT checks signature, issuer and expiry and returns the subject.
func (s *Service) VerifyJWT(tokenString string) (string, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	},
		jwt.WithIssuer(s.config.JWTIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"supply_sandbox/internal/models"
	"supply_sandbox/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultTokenTTL = 12 * time.Hour
	tokenIssuer     = "supply_sandbox"

	minUsernameLen = 3
	maxUsernameLen = 64
	minPasswordLen = 6
	// bcrypt ignores input past 72 bytes
	maxPasswordLen = 72
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidUsername    = fmt.Errorf("username must be %d-%d characters", minUsernameLen, maxUsernameLen)
	ErrInvalidPassword    = fmt.Errorf("password must be %d-%d bytes", minPasswordLen, maxPasswordLen)
	ErrUsernameTaken      = repository.ErrUsernameTaken
)

// Credentials is a sign-up or sign-in payload.
type Credentials struct {
	Username string
	Password string
}

// normalized trims the username and folds it to lower case so "Planner" and
// "planner " name the same account.
func (c Credentials) normalized() Credentials {
	c.Username = strings.ToLower(strings.TrimSpace(c.Username))
	return c
}

func (c Credentials) validate() error {
	if n := len(c.Username); n < minUsernameLen || n > maxUsernameLen {
		return ErrInvalidUsername
	}
	if n := len(c.Password); n < minPasswordLen || n > maxPasswordLen {
		return ErrInvalidPassword
	}
	return nil
}

// Token is a signed bearer token and its expiry.
type Token struct {
	Value     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AuthService signs planners up and in, and verifies bearer tokens.
type AuthService struct {
	users      repository.UserRepo
	signingKey []byte
	tokenTTL   time.Duration
	now        func() time.Time
}

// NewAuthService builds the service. A non-positive ttl means 12h.
func NewAuthService(users repository.UserRepo, signingKey string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &AuthService{
		users:      users,
		signingKey: []byte(signingKey),
		tokenTTL:   ttl,
		now:        time.Now,
	}
}

func (s *AuthService) SignUp(ctx context.Context, cred Credentials) (int, error) {
	cred = cred.normalized()
	if err := cred.validate(); err != nil {
		return 0, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cred.Password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}
	return s.users.Create(ctx, models.User{
		Username:     cred.Username,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	})
}

// SignIn checks the credentials and issues a token. Unknown users and wrong
// passwords both yield ErrInvalidCredentials.
func (s *AuthService) SignIn(ctx context.Context, cred Credentials) (Token, error) {
	cred = cred.normalized()
	u, err := s.users.GetByUsername(ctx, cred.Username)
	if err != nil {
		return Token{}, err
	}
	if u == nil {
		return Token{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(cred.Password)); err != nil {
		return Token{}, ErrInvalidCredentials
	}
	return s.issue(u.ID)
}

func (s *AuthService) issue(userID int) (Token, error) {
	now := s.now()
	exp := now.Add(s.tokenTTL)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   strconv.Itoa(userID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString(s.signingKey)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{Value: signed, ExpiresAt: exp.UTC()}, nil
}

// ParseToken verifies an HS256 token from this issuer and returns its user id.
func (s *AuthService) ParseToken(raw string) (int, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (interface{}, error) { return s.signingKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	id, err := strconv.Atoi(claims.Subject)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: bad subject %q", ErrInvalidToken, claims.Subject)
	}
	return id, nil
}

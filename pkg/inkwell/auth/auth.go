// Package auth issues and verifies the signed, expiring identity tokens
// that gate the editor API. Tokens are self-contained HS256 JWTs; there is
// no server-side session table and no revocation list, so a token stays
// valid until its natural expiry.
package auth

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/go-chi/jwtauth"

	"github.com/inkwell-cms/inkwell/pkg/inkwell"
)

// DefaultTokenTTL is how long an issued token remains valid.
const DefaultTokenTTL = 24 * time.Hour

var (
	// ErrInvalidCredentials indicates a username/password mismatch.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken covers every verification failure: malformed token,
	// signature mismatch, undecodable claims, or expiry in the past.
	// Callers deliberately get no finer detail.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Config options for the credential service
type Config struct {
	Username string
	Password string
	Secret   string
	TokenTTL time.Duration // defaults to DefaultTokenTTL
}

// Service authenticates the configured editor account and manages tokens.
type Service struct {
	tokenAuth *jwtauth.JWTAuth
	username  string
	password  string
	ttl       time.Duration
}

// New creates a credential service for a single configured editor account.
func New(cfg Config) (*Service, error) {
	if cfg.Username == "" || cfg.Password == "" {
		return nil, errors.New("editor username and password are required")
	}
	if cfg.Secret == "" {
		return nil, errors.New("token signing secret is required")
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}
	return &Service{
		tokenAuth: jwtauth.New("HS256", []byte(cfg.Secret), nil),
		username:  cfg.Username,
		password:  cfg.Password,
		ttl:       cfg.TokenTTL,
	}, nil
}

// Authenticate checks the submitted credentials against the configured
// account in constant time.
func (s *Service) Authenticate(username, password string) (*inkwell.User, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) == 1
	if !userOK || !passOK {
		return nil, ErrInvalidCredentials
	}
	return &inkwell.User{ID: "1", Username: s.username, Role: "admin"}, nil
}

// IssueToken embeds the identity and an expiry into a signed token.
func (s *Service) IssueToken(user *inkwell.User) (string, time.Time, error) {
	expires := time.Now().Add(s.ttl)
	claims := map[string]interface{}{
		"sub":      user.ID,
		"username": user.Username,
		"role":     user.Role,
	}
	jwtauth.SetIssuedNow(claims)
	jwtauth.SetExpiry(claims, expires)

	_, tokenString, err := s.tokenAuth.Encode(claims)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expires, nil
}

// VerifyToken returns the embedded identity when the token's signature and
// expiry check out, and ErrInvalidToken otherwise.
func (s *Service) VerifyToken(tokenString string) (*inkwell.User, error) {
	token, err := jwtauth.VerifyToken(s.tokenAuth, tokenString)
	if err != nil || token == nil {
		return nil, ErrInvalidToken
	}

	user := &inkwell.User{ID: token.Subject()}
	if v, ok := token.Get("username"); ok {
		user.Username, _ = v.(string)
	}
	if v, ok := token.Get("role"); ok {
		user.Role, _ = v.(string)
	}
	if user.Username == "" {
		return nil, ErrInvalidToken
	}
	return user, nil
}

// TokenTTL reports the configured token lifetime, for cookie expiry.
func (s *Service) TokenTTL() time.Duration {
	return s.ttl
}

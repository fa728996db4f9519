package auth

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ovaphlow/pitchfork/service-results-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-results-go/internal/user/entity"
)

type Config struct {
	Secret []byte
	TTL    time.Duration
	Issuer string
}

var ErrMissingSecret = errors.New("JWT_SECRET is not set")

// ConfigFromEnv reads JWT_SECRET, JWT_TTL (default 1h) and JWT_ISSUER.
func ConfigFromEnv() (Config, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return Config{}, ErrMissingSecret
	}
	ttl := time.Hour
	if v := os.Getenv("JWT_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("invalid JWT_TTL %q", v)
		}
		ttl = d
	}
	return Config{Secret: []byte(secret), TTL: ttl, Issuer: os.Getenv("JWT_ISSUER")}, nil
}

// Claims is the token payload; the subject holds the user id.
type Claims struct {
	Email string   `json:"email"`
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 bearer tokens.
type TokenService struct {
	cfg Config
	now func() time.Time
}

func NewTokenService(cfg Config) *TokenService {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	return &TokenService{cfg: cfg, now: time.Now}
}

// Issue signs a token for u carrying its effective roles.
func (s *TokenService) Issue(u entity.User) (string, error) {
	now := s.now()
	claims := Claims{
		Email: u.Email,
		Roles: u.EffectiveRoles(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
}

// Verify checks signature, algorithm, expiry and issuer. Every failure is
// reported as apperr.ErrUnauthenticated.
func (s *TokenService) Verify(raw string) (*Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}
	var claims Claims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.cfg.Secret, nil
	}, opts...)
	if err != nil || !tok.Valid {
		return nil, fmt.Errorf("%w: %v", apperr.ErrUnauthenticated, err)
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", apperr.ErrUnauthenticated)
	}
	return &Principal{ID: id, Email: claims.Email, Roles: entity.Union(claims.Roles)}, nil
}

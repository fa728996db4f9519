package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-results-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-results-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-results-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-results-go/pkg/utilities"
)

// Store is the credential store the service runs against.
type Store interface {
	List(ctx context.Context, sortKey string) ([]entity.User, error)
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	EmailOwner(ctx context.Context, email string) (int64, error)
	Create(ctx context.Context, u entity.User) error
	Update(ctx context.Context, u entity.User) error
	UpdatePasswordHash(ctx context.Context, id int64, hash string, at time.Time) error
	Delete(ctx context.Context, id int64) error
}

// UserService orchestrates the user lifecycle and password authentication.
type UserService struct {
	repo   Store
	hasher PasswordHasher
	newID  func() (int64, error)
	now    func() time.Time
	logger *zap.SugaredLogger
}

func NewUserService(r Store, hasher PasswordHasher) *UserService {
	if hasher == nil {
		hasher = DefaultArgon2Hasher()
	}
	return &UserService{
		repo:   r,
		hasher: hasher,
		newID:  utilities.NewID,
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Second) },
		logger: zap.NewNop().Sugar(),
	}
}

// WithLogger sets the logger used for failures that do not fail the call.
func (s *UserService) WithLogger(logger *zap.SugaredLogger) *UserService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// CreateInput carries a new user. A nil Roles means none were supplied.
type CreateInput struct {
	Email    string
	Password string
	Roles    entity.Roles
}

// UpdateInput carries a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Email    *string
	Password *string
	Roles    *entity.Roles
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNotFound
	}
	return err
}

// List returns every user ordered by sortKey. An empty table is ErrNotFound.
func (s *UserService) List(ctx context.Context, sortKey string) ([]entity.User, error) {
	users, err := s.repo.List(ctx, sortKey)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, apperr.ErrNotFound
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*entity.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

// Create validates, hashes the password and stores a new user.
func (s *UserService) Create(ctx context.Context, in CreateInput) (*entity.User, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, apperr.ErrUnprocessable
	}
	owner, err := s.repo.EmailOwner(ctx, email)
	if err != nil {
		return nil, err
	}
	if owner != 0 {
		return nil, fmt.Errorf("%w: email already in use", apperr.ErrConflict)
	}
	roles := entity.Roles{entity.RoleUser}
	if in.Roles != nil {
		roles = entity.Union(in.Roles)
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	id, err := s.newID()
	if err != nil {
		return nil, err
	}
	now := s.now()
	u := entity.User{ID: id, Email: email, PasswordHash: hash, Roles: roles, CreatedAt: now, UpdatedAt: now}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Update applies a partial update on behalf of actor. Whether actor may
// edit this user at all is decided by the caller; granting the admin role
// is checked here.
func (s *UserService) Update(ctx context.Context, actor *auth.Principal, id int64, in UpdateInput) (*entity.User, error) {
	cur, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	next := *cur
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if email == "" {
			return nil, apperr.ErrUnprocessable
		}
		owner, err := s.repo.EmailOwner(ctx, email)
		if err != nil {
			return nil, err
		}
		if owner != 0 && owner != id {
			return nil, fmt.Errorf("%w: email already in use", apperr.ErrConflict)
		}
		next = next.WithEmail(email)
	}
	if in.Roles != nil {
		if err := auth.AuthorizeRoleGrant(actor, *in.Roles); err != nil {
			return nil, err
		}
		next = next.WithRoles(entity.Union(*in.Roles))
	}
	if in.Password != nil {
		if *in.Password == "" {
			return nil, apperr.ErrUnprocessable
		}
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, err
		}
		next = next.WithPasswordHash(hash)
	}
	next = next.Touched(s.now())
	if err := s.repo.Update(ctx, next); err != nil {
		return nil, notFound(err)
	}
	return &next, nil
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	return notFound(s.repo.Delete(ctx, id))
}

// Authenticate checks an email/password pair. Any mismatch is
// ErrUnauthenticated so callers cannot tell unknown emails apart. Digests
// produced with outdated parameters are replaced on success.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.ErrUnauthenticated
	}
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrUnauthenticated
		}
		return nil, err
	}
	if !s.hasher.Verify(u.PasswordHash, password) {
		return nil, apperr.ErrUnauthenticated
	}
	if s.hasher.NeedsRehash(u.PasswordHash) {
		s.rehash(ctx, u, password)
	}
	return u, nil
}

// rehash replaces an outdated digest. Failures leave the old digest in
// place and are only logged.
func (s *UserService) rehash(ctx context.Context, u *entity.User, password string) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Warnw("password rehash failed", "user_id", u.ID, "err", err)
		return
	}
	if err := s.repo.UpdatePasswordHash(ctx, u.ID, hash, s.now()); err != nil {
		s.logger.Warnw("password rehash write failed", "user_id", u.ID, "err", err)
		return
	}
	*u = u.WithPasswordHash(hash)
}

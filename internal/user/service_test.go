package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ovaphlow/pitchfork/service-results-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-results-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-results-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-results-go/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-results-go/pkg/database/databasetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) (*UserService, *repo.UserRepo) {
	t.Helper()
	r := repo.NewUserRepo(databasetest.NewSQLite(t))
	return NewUserService(r, fastHasher()), r
}

func strPtr(s string) *string { return &s }

func TestCreateAndGet(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	u, err := svc.Create(ctx, CreateInput{Email: " A@x.com ", Password: "p"})
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.Equal(t, "a@x.com", u.Email)
	assert.Equal(t, entity.Roles{entity.RoleUser}, u.Roles)
	assert.NotEqual(t, "p", u.PasswordHash)

	got, err := svc.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, *u, *got)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Email: "a@x.com"})
	assert.ErrorIs(t, err, apperr.ErrUnprocessable)
	_, err = svc.Create(ctx, CreateInput{Password: "p"})
	assert.ErrorIs(t, err, apperr.ErrUnprocessable)

	_, err = svc.Create(ctx, CreateInput{Email: "a@x.com", Password: "p"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{Email: "a@x.com", Password: "q"})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestCreateEmptyRolesStillHasBaseRole(t *testing.T) {
	svc, _ := newTestService(t)
	u, err := svc.Create(context.Background(), CreateInput{Email: "a@x.com", Password: "p", Roles: entity.Roles{}})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Roles)
	assert.Equal(t, entity.Roles{entity.RoleUser}, got.EffectiveRoles())
}

func TestListAndSort(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.List(ctx, "id")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	for _, e := range []string{"c@x.com", "a@x.com", "b@x.com"} {
		_, err := svc.Create(ctx, CreateInput{Email: e, Password: "p"})
		require.NoError(t, err)
	}
	users, err := svc.List(ctx, "email")
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "a@x.com", users[0].Email)
	assert.Equal(t, "c@x.com", users[2].Email)

	byID, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "c@x.com", byID[0].Email)

	_, err = svc.List(ctx, "password")
	assert.ErrorIs(t, err, apperr.ErrInvalidSortKey)
}

func TestUpdate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	a, err := svc.Create(ctx, CreateInput{Email: "a@x.com", Password: "p"})
	require.NoError(t, err)
	b, err := svc.Create(ctx, CreateInput{Email: "b@x.com", Password: "p"})
	require.NoError(t, err)

	self := &auth.Principal{ID: a.ID, Roles: a.EffectiveRoles()}
	admin := &auth.Principal{ID: 99, Roles: entity.Roles{entity.RoleAdmin}}

	_, err = svc.Update(ctx, admin, 12345, UpdateInput{Email: strPtr("z@x.com")})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.Update(ctx, self, a.ID, UpdateInput{Email: strPtr("b@x.com")})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	// keeping one's own email is not a conflict
	same, err := svc.Update(ctx, self, a.ID, UpdateInput{Email: strPtr("a@x.com")})
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", same.Email)

	adminRoles := entity.Roles{entity.RoleAdmin}
	_, err = svc.Update(ctx, self, a.ID, UpdateInput{Roles: &adminRoles})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	promoted, err := svc.Update(ctx, admin, b.ID, UpdateInput{Roles: &adminRoles})
	require.NoError(t, err)
	assert.True(t, promoted.IsAdmin())
	assert.Equal(t, "b@x.com", promoted.Email)

	renamed, err := svc.Update(ctx, self, a.ID, UpdateInput{Email: strPtr("a2@x.com"), Password: strPtr("new")})
	require.NoError(t, err)
	assert.Equal(t, "a2@x.com", renamed.Email)
	assert.Equal(t, entity.Roles{entity.RoleUser}, renamed.Roles)

	_, err = svc.Authenticate(ctx, "a2@x.com", "new")
	assert.NoError(t, err)
	_, err = svc.Authenticate(ctx, "a2@x.com", "p")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestUpdateDoesNotMutateOnFailure(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	a, err := svc.Create(ctx, CreateInput{Email: "a@x.com", Password: "p"})
	require.NoError(t, err)

	self := &auth.Principal{ID: a.ID, Roles: a.EffectiveRoles()}
	adminRoles := entity.Roles{entity.RoleAdmin}
	_, err = svc.Update(ctx, self, a.ID, UpdateInput{Email: strPtr("new@x.com"), Roles: &adminRoles})
	require.ErrorIs(t, err, apperr.ErrForbidden)

	got, err := svc.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", got.Email)
}

func TestDelete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	a, err := svc.Create(ctx, CreateInput{Email: "a@x.com", Password: "p"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, a.ID))
	assert.ErrorIs(t, svc.Delete(ctx, a.ID), apperr.ErrNotFound)
	_, err = svc.Get(ctx, a.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, CreateInput{Email: "a@x.com", Password: "p"})
	require.NoError(t, err)

	u, err := svc.Authenticate(ctx, "A@x.com", "p")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", u.Email)

	for _, c := range [][2]string{{"a@x.com", "wrong"}, {"nobody@x.com", "p"}, {"", "p"}, {"a@x.com", ""}} {
		_, err := svc.Authenticate(ctx, c[0], c[1])
		assert.ErrorIs(t, err, apperr.ErrUnauthenticated, c)
	}
}

func TestAuthenticateRehashesLegacyDigest(t *testing.T) {
	svc, r := newTestService(t)
	ctx := context.Background()
	u, err := svc.Create(ctx, CreateInput{Email: "a@x.com", Password: "p"})
	require.NoError(t, err)

	legacy, err := bcrypt.GenerateFromPassword([]byte("p"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, r.UpdatePasswordHash(ctx, u.ID, string(legacy), u.UpdatedAt))

	_, err = svc.Authenticate(ctx, "a@x.com", "p")
	require.NoError(t, err)

	stored, err := r.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Contains(t, stored.PasswordHash, "$argon2id$")
	assert.False(t, svc.hasher.NeedsRehash(stored.PasswordHash))
}

// readOnlyRepo refuses to store new password digests.
type readOnlyRepo struct {
	*repo.UserRepo
}

func (readOnlyRepo) UpdatePasswordHash(context.Context, int64, string, time.Time) error {
	return errors.New("database is read-only")
}

func TestAuthenticateLogsFailedRehash(t *testing.T) {
	_, r := newTestService(t)
	core, logs := observer.New(zapcore.WarnLevel)
	svc := NewUserService(readOnlyRepo{r}, fastHasher()).WithLogger(zap.New(core).Sugar())
	ctx := context.Background()

	u, err := svc.Create(ctx, CreateInput{Email: "a@x.com", Password: "p"})
	require.NoError(t, err)
	legacy, err := bcrypt.GenerateFromPassword([]byte("p"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, r.UpdatePasswordHash(ctx, u.ID, string(legacy), u.UpdatedAt))

	got, err := svc.Authenticate(ctx, "a@x.com", "p")
	require.NoError(t, err)
	assert.Equal(t, string(legacy), got.PasswordHash)

	entries := logs.FilterMessage("password rehash write failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, u.ID, entries[0].ContextMap()["user_id"])
}

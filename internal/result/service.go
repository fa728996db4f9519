package result

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ovaphlow/pitchfork/service-results-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-results-go/internal/result/entity"
	userentity "github.com/ovaphlow/pitchfork/service-results-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-results-go/pkg/utilities"
)

type Store interface {
	List(ctx context.Context, sortKey string) ([]entity.Result, error)
	GetByID(ctx context.Context, id int64) (*entity.Result, error)
	ValueOwner(ctx context.Context, value int64) (int64, error)
	Create(ctx context.Context, res entity.Result) error
	Update(ctx context.Context, res entity.Result) error
	Delete(ctx context.Context, id int64) error
}

// UserLookup resolves result owners.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*userentity.User, error)
}

// ResultService holds the business rules of the results resource.
type ResultService struct {
	repo  Store
	users UserLookup
	newID func() (int64, error)
	now   func() time.Time
}

func NewResultService(r Store, users UserLookup) *ResultService {
	return &ResultService{
		repo:  r,
		users: users,
		newID: utilities.NewID,
		now:   func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}
}

// CreateInput and UpdateInput use nil for "not supplied".
type CreateInput struct {
	Value  *int64
	UserID *int64
	Time   *string
}

type UpdateInput struct {
	Value  *int64
	UserID *int64
	Time   *string
}

var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02"}

// ParseTime accepts RFC 3339 and "YYYY-MM-DD HH:MM:SS" (read as UTC).
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC().Truncate(time.Second), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognised time %q", apperr.ErrUnprocessable, s)
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNotFound
	}
	return err
}

func (s *ResultService) owner(ctx context.Context, id int64) (*userentity.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %d does not exist", apperr.ErrBadRequest, id)
	}
	return u, err
}

// List returns every result ordered by sortKey. An empty table is ErrNotFound.
func (s *ResultService) List(ctx context.Context, sortKey string) ([]entity.Result, error) {
	results, err := s.repo.List(ctx, sortKey)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, apperr.ErrNotFound
	}
	return results, nil
}

func (s *ResultService) Get(ctx context.Context, id int64) (*entity.Result, error) {
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return res, nil
}

func (s *ResultService) Create(ctx context.Context, in CreateInput) (*entity.Result, error) {
	if in.Value == nil || in.UserID == nil {
		return nil, apperr.ErrUnprocessable
	}
	at := s.now()
	if in.Time != nil {
		t, err := ParseTime(*in.Time)
		if err != nil {
			return nil, err
		}
		at = t
	}
	u, err := s.owner(ctx, *in.UserID)
	if err != nil {
		return nil, err
	}
	taken, err := s.repo.ValueOwner(ctx, *in.Value)
	if err != nil {
		return nil, err
	}
	if taken != 0 {
		return nil, fmt.Errorf("%w: result %d already recorded", apperr.ErrBadRequest, *in.Value)
	}
	id, err := s.newID()
	if err != nil {
		return nil, err
	}
	res := entity.Result{ID: id, Value: *in.Value, Time: at}.WithOwner(*u)
	if err := s.repo.Create(ctx, res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Update applies a partial update. A value held by another result is
// rejected; keeping the current value is allowed.
func (s *ResultService) Update(ctx context.Context, id int64, in UpdateInput) (*entity.Result, error) {
	cur, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	next := *cur
	if in.Value != nil {
		taken, err := s.repo.ValueOwner(ctx, *in.Value)
		if err != nil {
			return nil, err
		}
		if taken != 0 && taken != id {
			return nil, fmt.Errorf("%w: result %d already recorded", apperr.ErrBadRequest, *in.Value)
		}
		next = next.WithValue(*in.Value)
	}
	if in.UserID != nil {
		u, err := s.owner(ctx, *in.UserID)
		if err != nil {
			return nil, err
		}
		next = next.WithOwner(*u)
	}
	if in.Time != nil {
		t, err := ParseTime(*in.Time)
		if err != nil {
			return nil, err
		}
		next = next.WithTime(t)
	}
	if err := s.repo.Update(ctx, next); err != nil {
		return nil, notFound(err)
	}
	return &next, nil
}

func (s *ResultService) Delete(ctx context.Context, id int64) error {
	return notFound(s.repo.Delete(ctx, id))
}

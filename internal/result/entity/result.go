package entity

import (
	"time"

	userentity "github.com/ovaphlow/pitchfork/service-results-go/internal/user/entity"
)

// Result is a recorded score owned by a user. Values are unique across all
// results.
type Result struct {
	ID     int64
	Value  int64
	UserID int64
	Time   time.Time
	// Owner is filled on reads.
	Owner *userentity.User
}

func (r Result) WithValue(v int64) Result {
	r.Value = v
	return r
}

// WithOwner re-points the result at u.
func (r Result) WithOwner(u userentity.User) Result {
	r.UserID = u.ID
	r.Owner = &u
	return r
}

func (r Result) WithTime(t time.Time) Result {
	r.Time = t
	return r
}

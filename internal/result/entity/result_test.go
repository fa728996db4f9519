package entity

import (
	"testing"
	"time"

	userentity "github.com/ovaphlow/pitchfork/service-results-go/internal/user/entity"
	"github.com/stretchr/testify/assert"
)

func TestWithHelpersReturnCopies(t *testing.T) {
	orig := Result{ID: 1, Value: 10, UserID: 2}
	at := time.Date(2021, 1, 7, 18, 17, 23, 0, time.UTC)

	next := orig.WithValue(11).WithOwner(userentity.User{ID: 3, Email: "o@x.com"}).WithTime(at)

	assert.Equal(t, int64(10), orig.Value)
	assert.Equal(t, int64(2), orig.UserID)
	assert.Nil(t, orig.Owner)
	assert.Equal(t, int64(11), next.Value)
	assert.Equal(t, int64(3), next.UserID)
	assert.Equal(t, "o@x.com", next.Owner.Email)
	assert.Equal(t, at, next.Time)
}

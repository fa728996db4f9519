package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnion(t *testing.T) {
	tests := []struct {
		name string
		in   []Roles
		want Roles
	}{
		{name: "empty", in: nil, want: Roles{}},
		{name: "dedupe keeps order", in: []Roles{{"B", "A"}, {"A", "C"}}, want: Roles{"B", "A", "C"}},
		{name: "drops blanks", in: []Roles{{"", "A"}}, want: Roles{"A"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Union(tt.in...))
		})
	}
}

func TestEffectiveAlwaysHasBaseRole(t *testing.T) {
	for _, stored := range []Roles{nil, {}, {RoleAdmin}, {RoleUser, RoleAdmin}} {
		u := User{Roles: stored}
		eff := u.EffectiveRoles()
		assert.True(t, eff.Has(RoleUser), "stored %v", stored)
		assert.Len(t, eff, len(Union(stored, Roles{RoleUser})))
	}
}

func TestEffectiveDoesNotMutateStored(t *testing.T) {
	u := User{Roles: Roles{RoleAdmin}}
	_ = u.EffectiveRoles()
	assert.Equal(t, Roles{RoleAdmin}, u.Roles)
}

func TestRolesValueScan(t *testing.T) {
	v, err := Roles{RoleAdmin, "ROLE_X"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["ROLE_ADMIN","ROLE_X"]`, v)

	v, err = Roles(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	var r Roles
	require.NoError(t, r.Scan([]byte(`["ROLE_ADMIN"]`)))
	assert.Equal(t, Roles{RoleAdmin}, r)

	require.NoError(t, r.Scan(nil))
	assert.Equal(t, Roles{}, r)

	assert.Error(t, r.Scan(42))
	assert.Error(t, r.Scan("not json"))
}

func TestWithHelpersCopy(t *testing.T) {
	orig := User{ID: 1, Email: "a@x.com", Roles: Roles{RoleUser}}
	changed := orig.WithEmail("b@x.com").WithRoles(Roles{RoleAdmin})

	assert.Equal(t, "a@x.com", orig.Email)
	assert.Equal(t, Roles{RoleUser}, orig.Roles)
	assert.Equal(t, "b@x.com", changed.Email)
	assert.True(t, changed.IsAdmin())
	assert.False(t, orig.IsAdmin())
}

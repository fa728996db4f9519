package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

const (
	// RoleUser is the base role every user holds, stored or not.
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)

// Roles is an ordered set of role names as persisted in the users.roles
// column (JSON array).
type Roles []string

// Union merges role sets keeping first-seen order and dropping duplicates
// and empty names.
func Union(sets ...Roles) Roles {
	out := Roles{}
	for _, set := range sets {
		for _, role := range set {
			if role == "" || slices.Contains(out, role) {
				continue
			}
			out = append(out, role)
		}
	}
	return out
}

// Effective returns the roles a user actually holds: the stored roles plus
// RoleUser. The base role is computed here and never written back.
func (r Roles) Effective() Roles {
	return Union(r, Roles{RoleUser})
}

func (r Roles) Has(role string) bool {
	return slices.Contains(r, role)
}

// Value implements driver.Valuer.
func (r Roles) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(r))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (r *Roles) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*r = Roles{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("roles: unsupported column type %T", src)
	}
	if len(raw) == 0 {
		*r = Roles{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("roles: %w", err)
	}
	*r = Roles(out)
	return nil
}

// User is an account row in the users table. Values are treated as
// immutable: the With* helpers return modified copies.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Roles        Roles
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// EffectiveRoles is the stored role set united with the base role.
func (u User) EffectiveRoles() Roles {
	return u.Roles.Effective()
}

func (u User) IsAdmin() bool {
	return u.Roles.Has(RoleAdmin)
}

func (u User) WithEmail(email string) User {
	u.Email = email
	return u
}

func (u User) WithPasswordHash(hash string) User {
	u.PasswordHash = hash
	return u
}

func (u User) WithRoles(roles Roles) User {
	u.Roles = slices.Clone(roles)
	return u
}

func (u User) Touched(at time.Time) User {
	u.UpdatedAt = at
	return u
}

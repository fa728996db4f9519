package auth

import (
	"context"

	"github.com/ovaphlow/pitchfork/service-results-go/internal/user/entity"
)

// Principal is the identity rebuilt from a verified token for one request.
type Principal struct {
	ID    int64
	Email string
	Roles entity.Roles
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Roles.Has(entity.RoleAdmin)
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored by the authentication
// middleware, or nil.
func PrincipalFrom(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}

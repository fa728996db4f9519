package auth

import (
	"github.com/ovaphlow/pitchfork/service-results-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-results-go/internal/user/entity"
)

type Resource string

const (
	Users   Resource = "users"
	Results Resource = "results"
)

type Action string

const (
	List   Action = "list"
	Get    Action = "get"
	Create Action = "create"
	Update Action = "update"
	Delete Action = "delete"
)

// Authorize decides whether p may perform act on res. ownerID is the id of
// the target user and only matters for user updates.
//
//	list, get             any authenticated principal
//	create, delete        admin
//	update users          the user themself or admin
//	update results        admin
func Authorize(p *Principal, res Resource, act Action, ownerID int64) error {
	if p == nil {
		return apperr.ErrUnauthenticated
	}
	switch act {
	case List, Get:
		return nil
	case Update:
		if res == Users && p.ID == ownerID {
			return nil
		}
	}
	if p.IsAdmin() {
		return nil
	}
	return apperr.ErrForbidden
}

// AuthorizeRoleGrant rejects assigning the admin role unless p already
// holds it, whatever the self-edit rule allowed.
func AuthorizeRoleGrant(p *Principal, roles entity.Roles) error {
	if !roles.Has(entity.RoleAdmin) {
		return nil
	}
	if p.IsAdmin() {
		return nil
	}
	return apperr.ErrForbidden
}

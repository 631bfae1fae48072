package authentication

import (
	"context"

	"github.com/sproutcare/daylog/shared"
)

// Identity is the verified caller context every service call receives
// explicitly. It is built once from the claims the middleware stored on
// the request context; services never re-derive roles from raw tokens.
type Identity struct {
	UserId     string
	DaycareId  string
	LocationId string
	Roles      []string
}

func (i Identity) HasRole(role string) bool {
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (i Identity) IsTeacher() bool {
	return i.HasRole(shared.ROLE_TEACHER)
}

func (i Identity) IsAdult() bool {
	return i.HasRole(shared.ROLE_ADULT)
}

func IdentityFromContext(ctx context.Context) Identity {
	identity := Identity{}
	claims, ok := ctx.Value("claims").(map[string]interface{})
	if !ok {
		return identity
	}

	if userId, ok := claims["userId"].(string); ok {
		identity.UserId = userId
	}
	if daycareId, ok := claims["daycareId"].(string); ok {
		identity.DaycareId = daycareId
	}
	if locationId, ok := claims["locationId"].(string); ok {
		identity.LocationId = locationId
	}
	for _, role := range []string{shared.ROLE_ADMIN, shared.ROLE_OFFICE_MANAGER, shared.ROLE_TEACHER, shared.ROLE_ADULT} {
		if b, ok := claims[role].(bool); ok && b {
			identity.Roles = append(identity.Roles, role)
		}
	}

	return identity
}

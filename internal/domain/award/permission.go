package award

import (
	"context"
	"strings"
)

// PermissionLookup resolves an actor's permission level on the repository,
// e.g. "admin", "maintain", "write", "triage", "read" or "none".
type PermissionLookup interface {
	GetCollaboratorPermission(ctx context.Context, login string) (string, error)
}

// awardingPermissions are the levels allowed to grant points.
var awardingPermissions = map[string]struct{}{
	"admin":    {},
	"maintain": {},
	"write":    {},
}

// HasAwardPermission reports whether actor may grant points. It fails
// closed: an empty actor or any lookup error denies.
func HasAwardPermission(ctx context.Context, lookup PermissionLookup, actor string) bool {
	if strings.TrimSpace(actor) == "" || lookup == nil {
		return false
	}
	level, err := lookup.GetCollaboratorPermission(ctx, actor)
	if err != nil {
		return false
	}
	_, ok := awardingPermissions[level]
	return ok
}

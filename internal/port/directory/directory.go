// Package directory defines the port for resolving a user's tenant.
//
// The relational store itself belongs to the surrounding platform; this
// service only ever asks it one question.
package directory

import "context"

// Directory resolves which tenant a user belongs to. Implementations wrap
// domain.ErrNotFound when the user is unknown.
type Directory interface {
	UserTenant(ctx context.Context, userID string) (tenantID string, err error)
}

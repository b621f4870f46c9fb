// Package authctx carries the resolved caller identity through a request.
// The snapshot is built once by the auth middleware; services never reach
// back into session state.
package authctx

import (
	"context"

	"github.com/CruzR/inventorymgr/pkg/enums"
)

// Context is the authenticated caller: who they are, which permission flags
// they hold, and which qualifications they carry.
type Context struct {
	UserID           uint
	Username         string
	Permissions      map[enums.Permission]bool
	QualificationIDs map[uint]bool
}

// Has reports whether the caller holds the given permission flag.
func (c *Context) Has(perm enums.Permission) bool {
	if c == nil {
		return false
	}
	return c.Permissions[perm]
}

// HasQualification reports whether the caller carries the qualification.
func (c *Context) HasQualification(id uint) bool {
	if c == nil {
		return false
	}
	return c.QualificationIDs[id]
}

type ctxKey struct{}

// Into stores the auth context on the request context.
func Into(ctx context.Context, ac *Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, ac)
}

// From retrieves the auth context, or nil when the request is anonymous.
func From(ctx context.Context) *Context {
	if ctx == nil {
		return nil
	}
	if ac, ok := ctx.Value(ctxKey{}).(*Context); ok {
		return ac
	}
	return nil
}

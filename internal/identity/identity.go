// Package identity models the caller identity supplied by the external
// identity provider and the roles attached to it.
package identity

import (
	"context"
	"net/http"
	"strconv"
	"strings"
)

// Headers set by the upstream identity proxy.
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserName  = "X-User-Name"
	HeaderAnonymous = "X-User-Anonymous"
)

type Role string

const (
	RolePlayer Role = "player"
	RoleAdmin  Role = "admin"
	RoleSuper  Role = "super"
)

type Identity struct {
	UID         string `json:"uid"`
	DisplayName string `json:"display_name"`
	IsAnonymous bool   `json:"is_anonymous"`
	Role        Role   `json:"role"`
}

func (i Identity) Known() bool {
	return strings.TrimSpace(i.UID) != ""
}

// Operator is the identity attached to requests authenticated with the
// admin key rather than by the upstream identity proxy.
func Operator() Identity {
	return Identity{UID: "operator", DisplayName: "Operator", Role: RoleSuper}
}

// Elevated reports whether the identity may override ownership checks.
func (i Identity) Elevated() bool {
	return i.Role == RoleAdmin || i.Role == RoleSuper
}

// CanEditSlot implements owner-or-admin: a slot bound to ownerUID may only be
// written by that identity or an elevated one. Unowned slots are open.
func (i Identity) CanEditSlot(ownerUID string) bool {
	if i.Elevated() {
		return true
	}
	if ownerUID == "" {
		return i.Known()
	}
	return i.Known() && i.UID == ownerUID
}

// Roles resolves roles from configured allow-lists.
type Roles struct {
	admins map[string]struct{}
	supers map[string]struct{}
}

func NewRoles(adminUIDs, superUIDs []string) *Roles {
	r := &Roles{admins: map[string]struct{}{}, supers: map[string]struct{}{}}
	for _, uid := range adminUIDs {
		if uid = strings.TrimSpace(uid); uid != "" {
			r.admins[uid] = struct{}{}
		}
	}
	for _, uid := range superUIDs {
		if uid = strings.TrimSpace(uid); uid != "" {
			r.supers[uid] = struct{}{}
		}
	}
	return r
}

func (r *Roles) Resolve(uid string) Role {
	if r == nil || uid == "" {
		return RolePlayer
	}
	if _, ok := r.supers[uid]; ok {
		return RoleSuper
	}
	if _, ok := r.admins[uid]; ok {
		return RoleAdmin
	}
	return RolePlayer
}

// Attach returns id with its role resolved from the allow-lists.
func (r *Roles) Attach(id Identity) Identity {
	id.Role = r.Resolve(id.UID)
	return id
}

// FromHeaders reads the identity forwarded by the upstream proxy and resolves
// its role. A missing X-User-ID yields an unknown identity.
func (r *Roles) FromHeaders(h http.Header) Identity {
	id := Identity{
		UID:         strings.TrimSpace(h.Get(HeaderUserID)),
		DisplayName: strings.TrimSpace(h.Get(HeaderUserName)),
	}
	if v := h.Get(HeaderAnonymous); v != "" {
		id.IsAnonymous, _ = strconv.ParseBool(v)
	}
	return r.Attach(id)
}

type contextKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

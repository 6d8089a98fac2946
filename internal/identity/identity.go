// Package identity maps directory roles onto the closed capability set the
// claim marketplace authorizes against.
package identity

import (
	"context"
	"strings"
)

// Capability is one permission the marketplace checks.
type Capability uint8

const (
	CapAgent Capability = 1 << iota
	CapAdmin
	CapOrgOwner
)

func (c Capability) String() string {
	switch c {
	case CapAgent:
		return "agent"
	case CapAdmin:
		return "admin"
	case CapOrgOwner:
		return "org_owner"
	default:
		return "unknown"
	}
}

// Capabilities is a bit set of Capability values.
type Capabilities uint8

func NewCapabilities(caps ...Capability) Capabilities {
	var set Capabilities
	for _, c := range caps {
		set |= Capabilities(c)
	}
	return set
}

func (s Capabilities) Has(c Capability) bool {
	return s&Capabilities(c) != 0
}

// Principal is the resolved caller.
type Principal struct {
	UserID         string
	OrganizationID string
	Capabilities   Capabilities
}

func (p Principal) IsAgent() bool    { return p.Capabilities.Has(CapAgent) }
func (p Principal) IsAdmin() bool    { return p.Capabilities.Has(CapAdmin) }
func (p Principal) IsOrgOwner() bool { return p.Capabilities.Has(CapOrgOwner) }

// Directory resolves user ids into principals. Unknown users yield
// domain.ErrUnauthenticated.
type Directory interface {
	Resolve(ctx context.Context, userID string) (Principal, error)
}

var roleCapabilities = map[string]Capability{
	"CORP_AGENT":    CapAgent,
	"INDIV_AGENT":   CapAgent,
	"WEBSITE_ADMIN": CapAdmin,
	"CORP_OWNER":    CapOrgOwner,
}

// CapabilitiesFromRoles converts directory role names. Unknown roles are ignored.
func CapabilitiesFromRoles(roles []string) Capabilities {
	var set Capabilities
	for _, role := range roles {
		if c, ok := roleCapabilities[strings.ToUpper(strings.TrimSpace(role))]; ok {
			set |= Capabilities(c)
		}
	}
	return set
}

package visibility

import (
	"testing"

	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/domain"
	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/identity"
)

func TestProject(t *testing.T) {
	t.Parallel()

	full := domain.ContactInfo{Name: "Sara Haddad", Phone: "+966 55 123 4567", Email: "sara@example.com"}
	req := domain.BuyerRequest{
		ID:            "br-1",
		FullContact:   full,
		MaskedContact: Mask(full),
	}

	agent := identity.Principal{UserID: "agent-a", Capabilities: identity.NewCapabilities(identity.CapAgent)}
	admin := identity.Principal{UserID: "admin", Capabilities: identity.NewCapabilities(identity.CapAdmin)}
	owner := identity.Principal{UserID: "owner", Capabilities: identity.NewCapabilities(identity.CapOrgOwner)}

	tests := []struct {
		name           string
		caller         identity.Principal
		hasActiveClaim bool
		wantFull       bool
	}{
		{name: "agent without claim", caller: agent},
		{name: "agent with claim", caller: agent, hasActiveClaim: true, wantFull: true},
		{name: "admin without claim", caller: admin, wantFull: true},
		{name: "org owner with claim flag but no agent capability", caller: owner, hasActiveClaim: true},
		{name: "anonymous", caller: identity.Principal{}, hasActiveClaim: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			view := Project(req, tt.caller, tt.hasActiveClaim)
			if view.Masked != req.MaskedContact {
				t.Fatalf("masked contact must always be present, got %+v", view.Masked)
			}
			if tt.wantFull {
				if view.Full == nil || *view.Full != full {
					t.Fatalf("expected full contact, got %+v", view.Full)
				}
				return
			}
			if view.Full != nil {
				t.Fatalf("expected no full contact, got %+v", view.Full)
			}
		})
	}
}

func TestProject_DerivesMissingMaskedContact(t *testing.T) {
	full := domain.ContactInfo{Name: "Sara Haddad", Phone: "+966 55 123 4567", Email: "sara@example.com"}
	agent := identity.Principal{UserID: "agent-a", Capabilities: identity.NewCapabilities(identity.CapAgent)}

	view := Project(domain.BuyerRequest{ID: "br-1", FullContact: full}, agent, false)
	if view.Masked != Mask(full) {
		t.Fatalf("expected derived masked contact, got %+v", view.Masked)
	}
	if view.Masked.Phone == full.Phone || view.Full != nil {
		t.Fatalf("full contact leaked: %+v", view)
	}
}

func TestMask(t *testing.T) {
	got := Mask(domain.ContactInfo{Name: "Sara Haddad", Phone: "+966 55 123 4567", Email: "sara@example.com"})

	if got.Name != "S*** H*****" {
		t.Fatalf("unexpected masked name %q", got.Name)
	}
	if got.Phone != "+*** ** *** **67" {
		t.Fatalf("unexpected masked phone %q", got.Phone)
	}
	if got.Email != "s***@example.com" {
		t.Fatalf("unexpected masked email %q", got.Email)
	}
}

func TestMask_Degenerate(t *testing.T) {
	got := Mask(domain.ContactInfo{Name: "", Phone: "7", Email: "not-an-email"})
	if got.Name != "" {
		t.Fatalf("expected empty name, got %q", got.Name)
	}
	if got.Phone != "7" {
		t.Fatalf("expected short phone kept, got %q", got.Phone)
	}
	if got.Email != "************" {
		t.Fatalf("expected fully masked email, got %q", got.Email)
	}
}

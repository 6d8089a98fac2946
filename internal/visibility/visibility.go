// Package visibility decides which contact view of a buyer request a caller may see.
package visibility

import (
	"strings"
	"unicode"

	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/domain"
	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/identity"
)

// ContactView pairs the always-safe masked contact with the full contact
// when the caller is entitled to it.
type ContactView struct {
	Masked domain.ContactInfo
	Full   *domain.ContactInfo
}

// Project returns the contact view for caller. hasActiveClaim must be computed
// by the caller for this caller and this request; Project never looks it up.
// Requests stored without a masked contact get one derived from the full contact.
func Project(req domain.BuyerRequest, caller identity.Principal, hasActiveClaim bool) ContactView {
	masked := req.MaskedContact
	if masked == (domain.ContactInfo{}) {
		masked = Mask(req.FullContact)
	}
	view := ContactView{Masked: masked}
	if CanSeeFull(caller, hasActiveClaim) {
		full := req.FullContact
		view.Full = &full
	}
	return view
}

// CanSeeFull is the rule behind Project.
func CanSeeFull(caller identity.Principal, hasActiveClaim bool) bool {
	if caller.IsAdmin() {
		return true
	}
	return caller.IsAgent() && hasActiveClaim
}

// Mask derives the redacted contact stored alongside the full one.
func Mask(c domain.ContactInfo) domain.ContactInfo {
	return domain.ContactInfo{
		Name:  maskName(c.Name),
		Phone: maskPhone(c.Phone),
		Email: maskEmail(c.Email),
	}
}

func maskName(name string) string {
	words := strings.Fields(name)
	for i, w := range words {
		r := []rune(w)
		words[i] = string(r[0]) + strings.Repeat("*", len(r)-1)
	}
	return strings.Join(words, " ")
}

// maskPhone keeps the last two digits, every other digit becomes '*'.
func maskPhone(phone string) string {
	digits := 0
	for _, r := range phone {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	var b strings.Builder
	seen := 0
	for _, r := range phone {
		if !unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		seen++
		if seen > digits-2 {
			b.WriteRune(r)
		} else {
			b.WriteByte('*')
		}
	}
	return b.String()
}

func maskEmail(email string) string {
	local, host, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return strings.Repeat("*", len([]rune(email)))
	}
	r := []rune(local)
	return string(r[0]) + strings.Repeat("*", len(r)-1) + "@" + host
}

// internal/app/workflow/domainmatch/domainmatch.go

// Package domainmatch maps a signup email's domain to at most one active
// institution. Pure function over the supplied institution set; no storage
// access.
package domainmatch

import (
	"sort"
	"strings"

	"github.com/lumenlms/admission/internal/app/system/normalize"
	"github.com/lumenlms/admission/internal/domain/models"
)

// genericProviders are consumer webmail domains that are never treated as
// institution-owned, even when an institution misconfigures its
// allowed_email_domains to list one. Without this guard a single tenant
// could claim every Gmail signup.
var genericProviders = map[string]struct{}{
	"gmail.com":      {},
	"googlemail.com": {},
	"yahoo.com":      {},
	"yahoo.co.uk":    {},
	"hotmail.com":    {},
	"outlook.com":    {},
	"live.com":       {},
	"msn.com":        {},
	"icloud.com":     {},
	"me.com":         {},
	"aol.com":        {},
	"proton.me":      {},
	"protonmail.com": {},
	"mail.com":       {},
	"gmx.com":        {},
	"gmx.net":        {},
	"yandex.com":     {},
	"yandex.ru":      {},
	"qq.com":         {},
	"163.com":        {},
	"126.com":        {},
	"naver.com":      {},
}

// IsGenericProvider reports whether domain belongs to a known consumer
// webmail provider.
func IsGenericProvider(domain string) bool {
	_, ok := genericProviders[strings.ToLower(domain)]
	return ok
}

// Result is the outcome of a match: either no institution, or exactly one
// whose allowed domains contain the email's domain.
type Result struct {
	InstitutionID string
	// DomainOwned is true when the match came from an institution-owned
	// domain (always the case for a non-zero InstitutionID).
	DomainOwned bool
}

// Matched reports whether an institution was found.
func (r Result) Matched() bool { return r.InstitutionID != "" }

// Match scans the active institutions in slug order and returns the first
// whose allowed_email_domains contains the email's domain. Generic webmail
// domains never match. Two institutions claiming the same domain is a data
// hygiene problem; the first in slug order wins, deterministically.
func Match(email string, institutions []models.Institution) Result {
	domain, ok := normalize.EmailDomain(email)
	if !ok {
		return Result{}
	}
	if IsGenericProvider(domain) {
		return Result{}
	}

	sorted := make([]models.Institution, len(institutions))
	copy(sorted, institutions)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	for _, inst := range sorted {
		if !inst.IsActive {
			continue
		}
		for _, d := range inst.AllowedEmailDomains {
			if strings.EqualFold(strings.TrimSpace(d), domain) {
				return Result{InstitutionID: inst.ID, DomainOwned: true}
			}
		}
	}
	return Result{}
}

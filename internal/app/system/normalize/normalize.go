// internal/app/system/normalize/normalize.go
package normalize

import "strings"

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims and collapses interior whitespace runs to single spaces.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Slug lowercases and trims an institution slug.
func Slug(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Domain lowercases and trims a DNS domain name.
func Domain(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// EmailDomain returns the domain part of an email, lowercased, and whether
// the address had exactly one "@" with non-empty parts on both sides.
func EmailDomain(email string) (string, bool) {
	email = strings.TrimSpace(email)
	at := strings.Index(email, "@")
	if at <= 0 || at != strings.LastIndex(email, "@") || at == len(email)-1 {
		return "", false
	}
	return strings.ToLower(email[at+1:]), true
}

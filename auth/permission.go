// file: gate/auth/permission.go
package auth

import "strings"

// Permission is a verb a token may be granted.
type Permission string

const (
	PermissionPublish   Permission = "publish"
	PermissionSubscribe Permission = "subscribe"
	PermissionRequest   Permission = "request"
)

// ParsePermission maps a string to a known verb, case-insensitively.
func ParsePermission(s string) (Permission, bool) {
	switch strings.ToLower(s) {
	case string(PermissionPublish):
		return PermissionPublish, true
	case string(PermissionSubscribe):
		return PermissionSubscribe, true
	case string(PermissionRequest):
		return PermissionRequest, true
	default:
		return "", false
	}
}

// HasPermission reports whether the claims grant the verb.
// Verbs compare case-insensitively; subject patterns never do.
func (c *Claims) HasPermission(p Permission) bool {
	for _, perm := range c.Permissions {
		if strings.EqualFold(perm, string(p)) {
			return true
		}
	}
	return false
}

// SubjectAllowed reports whether the claims may touch the subject.
// Deny patterns win; an empty allow-list is open by default.
func (c *Claims) SubjectAllowed(subject string) bool {
	for _, pattern := range c.DenySubjects {
		if MatchSubject(pattern, subject) {
			return false
		}
	}
	if len(c.AllowedSubjects) == 0 {
		return true
	}
	for _, pattern := range c.AllowedSubjects {
		if MatchSubject(pattern, subject) {
			return true
		}
	}
	return false
}

// CanPerform combines the verb and subject checks.
func (c *Claims) CanPerform(p Permission, subject string) bool {
	return c.HasPermission(p) && c.SubjectAllowed(subject)
}

// MatchSubject reports whether a dotted subject matches a NATS-style
// pattern. `*` matches exactly one token; a trailing `>` matches one or
// more remaining tokens and short-circuits. Both sides must be fully
// consumed otherwise. The empty pattern matches only the empty subject.
func MatchSubject(pattern, subject string) bool {
	if pattern == "" || subject == "" {
		return pattern == subject
	}

	pt := strings.Split(pattern, ".")
	st := strings.Split(subject, ".")

	pi, si := 0, 0
	for pi < len(pt) && si < len(st) {
		switch p := pt[pi]; {
		case p == ">":
			return true
		case p == "*" || p == st[si]:
			pi++
			si++
		default:
			return false
		}
	}
	return pi == len(pt) && si == len(st)
}

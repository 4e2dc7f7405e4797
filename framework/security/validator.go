// Package security provides the safety predicates consumed by the IoC
// container before it accepts service identifiers or auto-wires types.
//
// Both predicates are pure functions — no state, no I/O. They exist as a
// separate package so that external tooling (service discovery scanners,
// configuration loaders) can apply the exact same rules the container does.
package security

import "strings"

// MaxIdentifierLength bounds service / tag / context identifiers.
// Anything longer is rejected outright — legitimate ids are short,
// and the cap keeps error messages and map keys sane.
const MaxIdentifierLength = 128

// dangerousMethods is the fixed blacklist applied by IsSafeType.
// A described type exposing any of these method names is refused for
// auto-wiring: such types typically wrap command execution or other
// process-level escape hatches and must be registered explicitly (and
// deliberately) instead of being reachable through discovery.
var dangerousMethods = map[string]struct{}{
	"Exec":    {},
	"Shell":   {},
	"System":  {},
	"Eval":    {},
	"Spawn":   {},
	"Syscall": {},
}

// IsSecureIdentifier reports whether s is acceptable as a service id,
// tag, or context name.
//
// Rules:
//   - non-empty, at most MaxIdentifierLength bytes
//   - characters limited to [A-Za-z0-9._/-] plus '*'
//   - no ".." sequence (path traversal)
//   - no leading or trailing '/', no "//"
func IsSecureIdentifier(s string) bool {
	if s == "" || len(s) > MaxIdentifierLength {
		return false
	}
	if strings.Contains(s, "..") || strings.Contains(s, "//") {
		return false
	}
	if s[0] == '/' || s[len(s)-1] == '/' {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '.' || c == '_' || c == '-' || c == '/' || c == '*':
		default:
			return false
		}
	}
	return true
}

// IsSafeType reports whether a type with the given exported method set may
// be auto-wired. The container passes the method names recorded on a type
// descriptor; a single blacklisted name disqualifies the whole type.
func IsSafeType(methods []string) bool {
	for _, m := range methods {
		if _, bad := dangerousMethods[m]; bad {
			return false
		}
	}
	return true
}

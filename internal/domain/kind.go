package domain

import "fmt"

// Kind distinguishes résumés from job descriptions.
type Kind string

// Document kinds.
const (
	KindCV Kind = "cv"
	KindJD Kind = "jd"
)

// ParseKind validates a kind string.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindCV, KindJD:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown document kind %q: %w", s, ErrInvalidDocument)
	}
}

// IsValid reports whether k is a known kind.
func (k Kind) IsValid() bool { return k == KindCV || k == KindJD }

package naming

import (
	"fmt"
	"strings"

	"github.com/arthur-debert/ariamove/pkg/errors"
)

// Policy governs what happens when the computed destination already exists
type Policy int

const (
	// RenameWithSuffix picks "<stem> (N)<ext>" with the lowest free N >= 2
	RenameWithSuffix Policy = iota
	// Skip keeps the existing destination and leaves the source in place
	Skip
	// Overwrite replaces the existing destination
	Overwrite
)

func (p Policy) String() string {
	switch p {
	case Skip:
		return "skip"
	case Overwrite:
		return "overwrite"
	case RenameWithSuffix:
		return "rename"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy accepts skip, overwrite and rename (or rename_with_suffix),
// case-insensitively. An empty string selects RenameWithSuffix.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "rename", "rename_with_suffix", "rename-with-suffix", "renamewithsuffix":
		return RenameWithSuffix, nil
	case "skip":
		return Skip, nil
	case "overwrite":
		return Overwrite, nil
	default:
		return RenameWithSuffix, errors.Newf(errors.ErrInvalidInput,
			"unknown duplicate policy %q (want skip, overwrite or rename)", s).
			WithDetail("value", s)
	}
}

// MarshalText lets the policy round-trip through config files and flags.
func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Policy) UnmarshalText(text []byte) error {
	parsed, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

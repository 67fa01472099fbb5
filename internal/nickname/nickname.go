// Package nickname implements the printable short name for a keypair
// or contact: DNS-label-shaped, minus the dot (spec.md §4.12).
package nickname

import (
	"errors"
	"fmt"
	"strings"
)

// MaxLength is the longest a nickname may be, matching the DNS label
// length limit.
const MaxLength = 63

// ErrTooShort is returned when, after stripping non-conforming
// characters, nothing usable is left.
var ErrTooShort = errors.New("nickname: too short after normalization")

// ErrAlreadyTaken is returned by Unique when no suffixed variant of
// the desired name is free within the attempted bound.
var ErrAlreadyTaken = errors.New("nickname: already taken")

// maxSuffixAttempts bounds Unique's search for a free suffix.
const maxSuffixAttempts = 1000

// Nickname is a validated, normalized short name.
type Nickname struct {
	value string
}

// Parse lossily normalizes text into a Nickname: keep only
// alphanumerics and hyphens, truncate to MaxLength, lowercase, then
// strip one leading and one trailing hyphen if present. Order
// matters — lowercasing happens before hyphen-stripping so that
// stripping never depends on case, mirroring
// original_source/src/util/nickname.rs's Nickname::parse.
func Parse(text string) (Nickname, error) {
	var b strings.Builder
	kept := 0
	for _, r := range text {
		if kept >= MaxLength {
			break
		}
		if isAlphanumeric(r) || r == '-' {
			b.WriteRune(r)
			kept++
		}
	}
	name := strings.ToLower(b.String())

	name = strings.TrimPrefix(name, "-")
	name = strings.TrimSuffix(name, "-")

	if len(name) < 1 {
		return Nickname{}, ErrTooShort
	}
	return Nickname{value: name}, nil
}

func isAlphanumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// String returns the normalized nickname text.
func (n Nickname) String() string { return n.value }

// TakenChecker reports whether a candidate nickname string is already
// in use (by a contact store, typically).
type TakenChecker func(candidate string) (bool, error)

// Unique finds a free nickname starting from desired: desired itself
// first, then desired+"2", desired+"3", ... The suffix sequence
// starts at 2 rather than 1 or 0, a deliberate UX choice (spec.md
// §9): the bare name reads as "the first and canonical owner," and
// "2" reads as "a second one," without an awkward "1" suffix implying
// there's something special about being first.
func Unique(desired string, isTaken TakenChecker) (Nickname, error) {
	base, err := Parse(desired)
	if err != nil {
		return Nickname{}, err
	}

	taken, err := isTaken(base.value)
	if err != nil {
		return Nickname{}, fmt.Errorf("nickname: check availability: %w", err)
	}
	if !taken {
		return base, nil
	}

	for i := 2; i < 2+maxSuffixAttempts; i++ {
		candidate, err := Parse(fmt.Sprintf("%s%d", base.value, i))
		if err != nil {
			return Nickname{}, err
		}
		taken, err := isTaken(candidate.value)
		if err != nil {
			return Nickname{}, fmt.Errorf("nickname: check availability: %w", err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return Nickname{}, fmt.Errorf("%w: %s", ErrAlreadyTaken, desired)
}

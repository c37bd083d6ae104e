package chatstream

import "strconv"

// DefaultSeed is the avatar seed used when none is configured.
var DefaultSeed = IntSeed(88)

// Seed deterministically selects an avatar variant. It holds either an
// integer or a string; the zero value is the integer 0.
type Seed struct {
	n     int
	s     string
	isStr bool
}

// IntSeed returns an integer seed.
func IntSeed(n int) Seed { return Seed{n: n} }

// StringSeed returns a string seed.
func StringSeed(s string) Seed { return Seed{s: s, isStr: true} }

// IsString reports whether the seed was built from a string.
func (s Seed) IsString() bool { return s.isStr }

// Int returns the integer value. It is 0 for string seeds.
func (s Seed) Int() int { return s.n }

// String returns the textual form of the seed.
func (s Seed) String() string {
	if s.isStr {
		return s.s
	}
	return strconv.Itoa(s.n)
}

// ParseSeed returns an integer seed when v parses as one, otherwise a
// string seed.
func ParseSeed(v string) Seed {
	if n, err := strconv.Atoi(v); err == nil {
		return IntSeed(n)
	}
	return StringSeed(v)
}

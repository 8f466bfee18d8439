package keyspace

import (
	"fmt"
	"strconv"
	"strings"

	"shieldcore/shielderr"
)

// componentKind discriminates the variants of HDPathComponent. It is never
// exposed directly; callers dispatch via KeySpace(), which flattens
// Unsecurified{Unhardened,Hardened} alongside Securified the way spec.md's
// "a component always knows its KeySpace" contract describes.
type componentKind int

const (
	kindUnhardened componentKind = iota
	kindHardened
	kindSecurified
)

// Component is the tagged union HDPathComponent of spec.md §3: an
// unsecurified-unhardened U31, an unsecurified-hardened U30, or a
// securified U30. Ordering: all unsecurified < all securified; within the
// unsecurified group unhardened < hardened; then by local payload.
type Component struct {
	kind  componentKind
	local uint32
}

// FromLocal builds a component for the given local index within ks. Fails if
// the payload does not fit the space's width (U30 for hardened/securified,
// U31 for unhardened).
func FromLocal(local uint32, ks KeySpace) (Component, error) {
	switch ks {
	case Unhardened:
		if local > U31Max {
			return Component{}, shielderr.Newf(shielderr.KindIndexOverflow, "local index %d exceeds U31 max %d", local, U31Max)
		}
		return Component{kind: kindUnhardened, local: local}, nil
	case Hardened:
		if local > U30Max {
			return Component{}, shielderr.Newf(shielderr.KindIndexOverflow, "local index %d exceeds U30 max %d", local, U30Max)
		}
		return Component{kind: kindHardened, local: local}, nil
	case Securified:
		if local > U30Max {
			return Component{}, shielderr.Newf(shielderr.KindIndexOverflow, "local index %d exceeds U30 max %d", local, U30Max)
		}
		return Component{kind: kindSecurified, local: local}, nil
	default:
		return Component{}, shielderr.Newf(shielderr.KindIndexNotHardened, "unknown key space %v", ks)
	}
}

// MustFromLocal panics on error; only used by sample() fixtures and tests.
func MustFromLocal(local uint32, ks KeySpace) Component {
	c, err := FromLocal(local, ks)
	if err != nil {
		panic(err)
	}
	return c
}

// FromGlobal dispatches a raw global u32 to the correct variant by range.
// The securified range [H+S, H+S+2^30) ends exactly at 2^32, so every
// uint32 maps to a component and the returned error is always nil.
func FromGlobal(value uint32) (Component, error) {
	switch {
	case value < GlobalOffsetHardened:
		return Component{kind: kindUnhardened, local: value}, nil
	case value < GlobalOffsetHardenedSecurified:
		return Component{kind: kindHardened, local: value - GlobalOffsetHardened}, nil
	default:
		return Component{kind: kindSecurified, local: value - GlobalOffsetHardenedSecurified}, nil
	}
}

// MapToGlobal is the injective inverse of FromGlobal.
func (c Component) MapToGlobal() uint32 {
	switch c.kind {
	case kindUnhardened:
		return c.local
	case kindHardened:
		return GlobalOffsetHardened + c.local
	case kindSecurified:
		return GlobalOffsetHardenedSecurified + c.local
	default:
		return 0
	}
}

// KeySpace reports which partition c belongs to.
func (c Component) KeySpace() KeySpace {
	switch c.kind {
	case kindUnhardened:
		return Unhardened
	case kindHardened:
		return Hardened
	case kindSecurified:
		return Securified
	default:
		return Unhardened
	}
}

// IndexInLocalKeySpace returns the local (space-relative) index.
func (c Component) IndexInLocalKeySpace() uint32 { return c.local }

// IsHardened reports whether c is in hardened or securified space.
func (c Component) IsHardened() bool { return c.KeySpace().IsHardened() }

// IsSecurified reports whether c is in securified space.
func (c Component) IsSecurified() bool { return c.kind == kindSecurified }

// Compare orders c against other: all unsecurified < all securified, and
// within the unsecurified group unhardened < hardened; then by local
// payload.
func (c Component) Compare(other Component) int {
	cSec, oSec := c.kind == kindSecurified, other.kind == kindSecurified
	if cSec != oSec {
		if cSec {
			return 1
		}
		return -1
	}
	if c.kind != other.kind {
		if c.kind == kindUnhardened {
			return -1
		}
		return 1
	}
	switch {
	case c.local < other.local:
		return -1
	case c.local > other.local:
		return 1
	default:
		return 0
	}
}

// Equal reports value equality (kind and local index).
func (c Component) Equal(other Component) bool {
	return c.kind == other.kind && c.local == other.local
}

// maxLocal returns the largest local index representable in c's key space.
func (c Component) maxLocal() uint32 {
	if c.kind == kindUnhardened {
		return U31Max
	}
	return U30Max
}

// CheckedAddN increments the local index by n without leaving the current
// key space. Securified components have nowhere further to go, so any
// overflow there is always IndexOverflow. Unhardened components sit directly
// below hardened space, and unsecurified-hardened components directly below
// securified space; for those, landing exactly one past maxLocal means n
// would have carried the index into that next key space, so it is
// CannotAddMoreToIndexSinceItWouldChangeKeySpace, while landing further
// past it is plain IndexOverflow.
func (c Component) CheckedAddN(n uint32) (Component, error) {
	if n == 0 {
		return c, nil
	}
	sum := uint64(c.local) + uint64(n)
	if sum > uint64(c.maxLocal()) {
		if c.kind != kindSecurified && sum <= uint64(c.maxLocal())+1 {
			return Component{}, shielderr.Newf(shielderr.KindCannotAddMoreToIndexSinceItWouldChangeKeySpace,
				"adding %d to local index %d in %v would cross into a different key space", n, c.local, c.KeySpace())
		}
		return Component{}, shielderr.Newf(shielderr.KindIndexOverflow,
			"adding %d to local index %d in %v exceeds max %d", n, c.local, c.KeySpace(), c.maxLocal())
	}
	return Component{kind: c.kind, local: uint32(sum)}, nil
}

// String formats c canonically: decimal for unhardened, "NH" for hardened,
// "NS" for securified.
func (c Component) String() string {
	switch c.kind {
	case kindUnhardened:
		return strconv.FormatUint(uint64(c.local), 10)
	case kindHardened:
		return fmt.Sprintf("%dH", c.local)
	case kindSecurified:
		return fmt.Sprintf("%dS", c.local)
	default:
		return strconv.FormatUint(uint64(c.local), 10)
	}
}

// DebugString matches the "debug" textual form referenced by spec.md's
// round-trip invariant 2; identical to String for this component model.
func (c Component) DebugString() string { return c.String() }

// Parse is lenient: it accepts both "H"/"'" for hardened and "S"/"^" for
// securified, per spec.md §4.1. Formatting (String) is always canonical.
func Parse(s string) (Component, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Component{}, shielderr.New(shielderr.KindIndexNotHardened, "empty component string")
	}
	last := s[len(s)-1]
	var kind componentKind
	var digits string
	switch last {
	case 'H', 'h', '\'':
		kind = kindHardened
		digits = s[:len(s)-1]
	case 'S', 's', '^':
		kind = kindSecurified
		digits = s[:len(s)-1]
	default:
		kind = kindUnhardened
		digits = s
	}
	n, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return Component{}, shielderr.Wrap(shielderr.KindIndexOverflow, err, fmt.Sprintf("parsing component %q", s))
	}
	switch kind {
	case kindUnhardened:
		return FromLocal(uint32(n), Unhardened)
	case kindHardened:
		return FromLocal(uint32(n), Hardened)
	default:
		return FromLocal(uint32(n), Securified)
	}
}

// sample and sampleOther provide deterministic fixtures for tests across
// this module, per SPEC_FULL.md's "HasSampleValues-style" note — a plain
// function pair instead of a trait, per the Design Notes.
func sample() Component      { return MustFromLocal(0, Unhardened) }
func sampleOther() Component { return MustFromLocal(1, Securified) }

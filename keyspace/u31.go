// Package keyspace implements the typed 31-bit index lattice partitioned
// into unsecurified (unhardened/hardened) and securified regions that
// underlies every BIP32-style derivation path in this module.
//
// Range partition of the global (u32) key space, per spec.md §3:
//
//	[ 0 .. H )               unsecurified, unhardened  (U31 payload)
//	[ H .. H+S )             unsecurified, hardened    (U30 payload)
//	[ H+S .. H+S+2^30 )      securified, always hardened (U30 payload)
package keyspace

import "shieldcore/shielderr"

// U31Max is the largest value representable in 31 bits.
const U31Max uint32 = 1<<31 - 1

// U30Max is the largest value representable in 30 bits.
const U30Max uint32 = 1<<30 - 1

// GlobalOffsetHardened is the BIP32 hardened-child offset, 2^31.
const GlobalOffsetHardened uint32 = 1 << 31

// GlobalOffsetHardenedSecurified is 2^31 + 2^30, the start of securified space.
const GlobalOffsetHardenedSecurified uint32 = GlobalOffsetHardened + (1 << 30)

// U31 is a 31-bit natural number payload, used for unhardened unsecurified
// components.
type U31 uint32

// NewU31 validates value fits in 31 bits.
func NewU31(value uint32) (U31, error) {
	if value > U31Max {
		return 0, shielderr.Newf(shielderr.KindIndexOverflow, "value %d exceeds U31 max %d", value, U31Max)
	}
	return U31(value), nil
}

// U30 is a 30-bit natural number payload, used for hardened and securified
// components.
type U30 uint32

// NewU30 validates value fits in 30 bits.
func NewU30(value uint32) (U30, error) {
	if value > U30Max {
		return 0, shielderr.Newf(shielderr.KindIndexOverflow, "value %d exceeds U30 max %d", value, U30Max)
	}
	return U30(value), nil
}

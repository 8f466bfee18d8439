package factorsources

import (
	"encoding/hex"

	"shieldcore/derivation"
	"shieldcore/keyspace"
	"shieldcore/shielderr"
)

// HDPublicKey is a public key derived at a specific CAP26 path, the only
// kind of badge a FactorInstance carries when its factor source is
// HD-capable (spec.md §4.4 "FactorInstance").
type HDPublicKey struct {
	Curve          Curve
	CompressedKey  []byte
	DerivationPath derivation.Path
}

func (k HDPublicKey) String() string {
	return k.Curve.String() + ":" + hex.EncodeToString(k.CompressedKey) + "@" + k.DerivationPath.String()
}

// OpaquePublicKey is a reference to a public key the factor source holds but
// cannot be addressed by a derivation path (e.g. a security-question-derived
// commitment). Never securified, per spec.md §4.4.
type OpaquePublicKey struct {
	Reference []byte
}

// Badge is the tagged union of the two things a FactorInstance can sign
// with: an HD public key, or an opaque reference held by a non-HD factor
// source.
type Badge struct {
	hd     *HDPublicKey
	opaque *OpaquePublicKey
}

// BadgeFromHD wraps an HD public key as a badge.
func BadgeFromHD(key HDPublicKey) Badge { return Badge{hd: &key} }

// BadgeFromOpaque wraps an opaque public key reference as a badge.
func BadgeFromOpaque(key OpaquePublicKey) Badge { return Badge{opaque: &key} }

// AsHD returns the HD public key and true if this badge carries one.
func (b Badge) AsHD() (HDPublicKey, bool) {
	if b.hd == nil {
		return HDPublicKey{}, false
	}
	return *b.hd, true
}

// FactorInstance pairs a factor source's identity with the badge it
// produced (spec.md §4.4). FromHD is the only constructor the provider
// (C7) uses: every instance the cache and provider produce is backed by an
// HD public key, since only HD-capable factor sources can be refilled ahead
// of use.
type FactorInstance struct {
	FactorSourceID ID
	Badge          Badge
}

// FromHD builds a FactorInstance from an HD-derived public key.
func FromHD(sourceID ID, key HDPublicKey) FactorInstance {
	return FactorInstance{FactorSourceID: sourceID, Badge: BadgeFromHD(key)}
}

// TryAsHD downcasts the instance's badge to an HD public key.
func (fi FactorInstance) TryAsHD() (HDPublicKey, error) {
	hd, ok := fi.Badge.AsHD()
	if !ok {
		return HDPublicKey{}, shielderr.New(shielderr.KindWrongKeyKindOfTransactionSigningFactorInstance, "factor instance badge is not HD-derived")
	}
	return hd, nil
}

// IsSecurified reports whether the instance's derivation path lives in
// securified key space. An instance whose badge is not HD-derived can never
// be securified (spec.md §4.4).
func (fi FactorInstance) IsSecurified() bool {
	hd, err := fi.TryAsHD()
	if err != nil {
		return false
	}
	return hd.DerivationPath.KeySpace() == keyspace.Securified
}

// DerivationPath returns the instance's derivation path, if HD-derived.
func (fi FactorInstance) DerivationPath() (derivation.Path, error) {
	hd, err := fi.TryAsHD()
	if err != nil {
		return derivation.Path{}, err
	}
	return hd.DerivationPath, nil
}

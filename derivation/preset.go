package derivation

import (
	"shieldcore/addressing"
	"shieldcore/keyspace"
	"shieldcore/shielderr"
)

// Preset is the four-element enumeration spec.md §4.2 calls
// DerivationPreset. veci presets use transaction-signing in
// unsecurified-hardened space; mfa presets use transaction-signing in
// securified space.
type Preset int

const (
	PresetAccountVeci Preset = iota
	PresetIdentityVeci
	PresetAccountMfa
	PresetIdentityMfa
)

// AllPresets lists every preset, in the fixed order the provider refills
// them (spec.md §4.7 "all four presets on the network").
var AllPresets = [4]Preset{PresetAccountVeci, PresetIdentityVeci, PresetAccountMfa, PresetIdentityMfa}

func (p Preset) String() string {
	switch p {
	case PresetAccountVeci:
		return "AccountVeci"
	case PresetIdentityVeci:
		return "IdentityVeci"
	case PresetAccountMfa:
		return "AccountMfa"
	case PresetIdentityMfa:
		return "IdentityMfa"
	default:
		return "Unknown"
	}
}

// EntityKind returns the entity kind this preset derives keys for.
func (p Preset) EntityKind() EntityKind {
	switch p {
	case PresetAccountVeci, PresetAccountMfa:
		return EntityKindAccount
	default:
		return EntityKindIdentity
	}
}

// KeySpace returns the key space this preset derives keys in.
func (p Preset) KeySpace() keyspace.KeySpace {
	switch p {
	case PresetAccountVeci, PresetIdentityVeci:
		return keyspace.Hardened
	default:
		return keyspace.Securified
	}
}

// IndexAgnosticPath maps (preset, network) to exactly one index-agnostic
// path, per spec.md §4.2.
func (p Preset) IndexAgnosticPath(network addressing.NetworkID) IndexAgnosticPath {
	return IndexAgnosticPath{
		Network:    network,
		EntityKind: p.EntityKind(),
		KeyKind:    KeyKindTransactionSigning,
		KeySpace:   p.KeySpace(),
	}
}

// PresetFor resolves the preset matching an entity kind and key space,
// inverse of IndexAgnosticPath. Only transaction-signing presets exist;
// authentication-signing paths are always securified and do not have a
// dedicated cache preset (spec.md §4.4 only names the four veci/mfa
// presets).
func PresetFor(entityKind EntityKind, ks keyspace.KeySpace) (Preset, error) {
	for _, p := range AllPresets {
		if p.EntityKind() == entityKind && p.KeySpace() == ks {
			return p, nil
		}
	}
	return 0, shielderr.Newf(shielderr.KindNoTransactionSigningFactorInstance,
		"no preset for entity kind %v in key space %v", entityKind, ks)
}

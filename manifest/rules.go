package manifest

import (
	"golang.org/x/crypto/blake2b"

	"shieldcore/factorsources"
	"shieldcore/securitystructure"
	"shieldcore/shielderr"
)

// RequirementKind discriminates a CompositeRequirement node.
type RequirementKind int

const (
	RequirementAtom RequirementKind = iota
	RequirementAnyOf
	RequirementThresholdOf
)

// CompositeRequirement is a boolean proof requirement tree: a single
// public-key-hash atom, an "any of" disjunction (override factors), or a
// "threshold of" conjunction requiring at least N of its children (spec.md
// §4.10 "OR-combining the override_factors ... with a threshold-AND of the
// threshold_factors").
type CompositeRequirement struct {
	Kind      RequirementKind
	Atom      string
	Threshold uint32
	Children  []CompositeRequirement
}

func atomRequirement(hash string) CompositeRequirement {
	return CompositeRequirement{Kind: RequirementAtom, Atom: hash}
}

func anyOf(children ...CompositeRequirement) CompositeRequirement {
	return CompositeRequirement{Kind: RequirementAnyOf, Children: children}
}

func thresholdOf(n uint32, children ...CompositeRequirement) CompositeRequirement {
	return CompositeRequirement{Kind: RequirementThresholdOf, Threshold: n, Children: children}
}

// AccessRule is `Protected(requirement)` for a structure role.
type AccessRule struct {
	Requirement CompositeRequirement
}

// RuleSet is the three-role access-rule bundle given to
// AccessController::create.
type RuleSet struct {
	PrimaryRole      AccessRule
	RecoveryRole     AccessRule
	ConfirmationRole AccessRule
}

const hexDigits = "0123456789abcdef"

func hexEncode(b []byte) string {
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = hexDigits[v>>4]
		out[i*2+1] = hexDigits[v&0x0f]
	}
	return string(out)
}

// PublicKeyHashHex hashes an HD factor instance's compressed public key with
// BLAKE2b-256 and hex-encodes the digest, producing the atom used to
// identify a factor in an access rule.
func PublicKeyHashHex(fi factorsources.FactorInstance) (string, error) {
	key, err := fi.TryAsHD()
	if err != nil {
		return "", err
	}
	sum := blake2b.Sum256(key.CompressedKey)
	return hexEncode(sum[:]), nil
}

// RoleToAccessRule builds the AccessRule for one structure role: an "any
// of" over override-factor atoms, OR-combined with a threshold-of over the
// threshold-factor atoms (All ≡ every factor required, Specific(n) ≡ at
// least n). A role with only overrides skips the threshold branch and vice
// versa; a role with neither produces an always-denying empty anyOf.
// NewInstanceMatrix only requires at least one transaction-signing instance
// across all three roles, so an empty primary role can reach this function.
func RoleToAccessRule(role securitystructure.Role[factorsources.FactorInstance]) (AccessRule, error) {
	var branches []CompositeRequirement

	if len(role.ThresholdFactors) > 0 {
		n := role.Threshold.N
		if role.Threshold.Kind == securitystructure.ThresholdAll {
			n = uint32(len(role.ThresholdFactors))
		}
		atoms := make([]CompositeRequirement, 0, len(role.ThresholdFactors))
		for _, fi := range role.ThresholdFactors {
			hash, err := PublicKeyHashHex(fi)
			if err != nil {
				return AccessRule{}, shielderr.Wrap(shielderr.KindWrongKeyKindOfTransactionSigningFactorInstance, err, "threshold factor is not an HD instance")
			}
			atoms = append(atoms, atomRequirement(hash))
		}
		branches = append(branches, thresholdOf(n, atoms...))
	}

	for _, fi := range role.OverrideFactors {
		hash, err := PublicKeyHashHex(fi)
		if err != nil {
			return AccessRule{}, shielderr.Wrap(shielderr.KindWrongKeyKindOfTransactionSigningFactorInstance, err, "override factor is not an HD instance")
		}
		branches = append(branches, atomRequirement(hash))
	}

	switch len(branches) {
	case 0:
		return AccessRule{Requirement: anyOf()}, nil
	case 1:
		return AccessRule{Requirement: branches[0]}, nil
	default:
		return AccessRule{Requirement: anyOf(branches...)}, nil
	}
}

// RoleToAccessRuleSet builds the full RuleSet from a structure's three
// roles.
func RoleToAccessRuleSet(structure securitystructure.InstanceMatrix) (RuleSet, error) {
	primary, err := RoleToAccessRule(structure.Primary)
	if err != nil {
		return RuleSet{}, err
	}
	recovery, err := RoleToAccessRule(structure.Recovery)
	if err != nil {
		return RuleSet{}, err
	}
	confirmation, err := RoleToAccessRule(structure.Confirmation)
	if err != nil {
		return RuleSet{}, err
	}
	return RuleSet{PrimaryRole: primary, RecoveryRole: recovery, ConfirmationRole: confirmation}, nil
}

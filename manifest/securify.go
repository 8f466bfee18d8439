package manifest

import (
	"shieldcore/addressing"
	"shieldcore/derivation"
	"shieldcore/securitystructure"
	"shieldcore/shielderr"
)

const accessControllerBlueprint = "AccessController"

// BuildSecurifyManifest builds the manifest that turns an unsecurified
// entity into a securified one (spec.md §4.10 item 1):
//
//  1. `securify(owner)` takes the owner badge onto the worktop.
//  2. An address reservation is allocated for the new access controller.
//  3. `AccessController::create` is invoked with the role rule set derived
//     from structure, the timed-recovery delay, and the reservation.
//  4. `set_owner_keys` sets the entity's ROLA key to the hash of
//     structure's authentication-signing factor instance.
//
// entityKind must match the entity kind encoded in structure's
// authentication-signing instance path, or
// SecurityStructureOfFactorInstancesEntityDiscrepancyInEntityKind is
// returned (spec.md §4.10 failure policy table).
func BuildSecurifyManifest(network addressing.NetworkID, owner addressing.Address, entityKind derivation.EntityKind, structure securitystructure.InstanceMatrix) (Manifest, error) {
	authPath, err := structure.AuthenticationSigningFactor.DerivationPath()
	if err != nil {
		return Manifest{}, shielderr.Wrap(shielderr.KindMissingRolaKeyForSecurityStructureOfFactorInstances, err, "authentication signing factor instance")
	}
	if authPath.EntityKind() != entityKind {
		return Manifest{}, shielderr.New(shielderr.KindSecurityStructureOfFactorInstancesEntityDiscrepancyInEntityKind, "owner entity kind does not match security structure entity kind")
	}
	if authPath.NetworkID() != network {
		return Manifest{}, shielderr.Newf(shielderr.KindInvalidInstructionsWrongNetwork, "authentication factor instance network %v does not match manifest network %v", authPath.NetworkID(), network)
	}

	ruleSet, err := RoleToAccessRuleSet(structure)
	if err != nil {
		return Manifest{}, err
	}
	ownerKeyHash, err := PublicKeyHashHex(structure.AuthenticationSigningFactor)
	if err != nil {
		return Manifest{}, shielderr.Wrap(shielderr.KindMissingRolaKeyForSecurityStructureOfFactorInstances, err, "authentication signing factor instance")
	}

	const reservationTag = "ac_reservation"
	delayMinutes := uint32(structure.TimeUntilDelayedConfirmationIsCallable.Minutes())

	instructions := []Instruction{
		Securify(owner),
		AllocateGlobalAddress(accessControllerBlueprint, reservationTag),
		AccessControllerCreate(owner.String(), ruleSet, delayMinutes, reservationTag),
		SetOwnerKeys(owner, []string{ownerKeyHash}),
	}
	return Manifest{Network: network, Instructions: instructions}, nil
}

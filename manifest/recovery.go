package manifest

import "shieldcore/addressing"

// roleCombinationVariant is one of the five ways a security structure's
// roles can be exercised across initiate/complete steps of a recovery or
// update transaction (spec.md §4.10 item 2).
type roleCombinationVariant int

const (
	InitiateWithRecoveryCompleteWithPrimary roleCombinationVariant = iota
	InitiateWithRecoveryCompleteWithConfirmation
	InitiateWithRecoveryDelayedCompletion
	InitiateWithPrimaryCompleteWithConfirmation
	InitiateWithPrimaryCompleteWithPrimary
)

// RolesExercisableInTransactionManifestCombination names which roles
// create proofs in a recovery/update transaction, and whether its
// confirmation step is quick (vs. the timed-delay fallback).
type RolesExercisableInTransactionManifestCombination struct {
	Variant      roleCombinationVariant
	QuickConfirm bool
}

// PrimaryCanCreateProof reports whether the primary role participates
// (initiating or completing) in this combination, i.e. is "available" for
// the fee-payer policy branch in spec.md §4.10 item 2.
func (c RolesExercisableInTransactionManifestCombination) PrimaryCanCreateProof() bool {
	switch c.Variant {
	case InitiateWithRecoveryCompleteWithPrimary, InitiateWithPrimaryCompleteWithConfirmation, InitiateWithPrimaryCompleteWithPrimary:
		return true
	default:
		return false
	}
}

// xrd is the resource address stand-in for the network's native fee
// resource; the real ledger resolves this to a well-known global address.
const xrd = "XRD"

// LockFeeData describes the fee payer for a manifest, as known at the
// point fee/top-up instructions are prepended.
type LockFeeData struct {
	FeePayer                addressing.Address
	Fee                     float64
	FeePayerXrdBalance      float64
	AccessControllerAddress *addressing.Address // nil when the fee payer is unsecurified
}

// AccessControllerStateDetails is the current on-ledger state of the
// access controller the manifest's primary operation targets.
type AccessControllerStateDetails struct {
	Address             addressing.Address
	XrdBalance          float64
	IsPrimaryRoleLocked bool
	VaultUnderfunded    bool
}

func buildLockFee(data LockFeeData) []Instruction {
	var out []Instruction
	if data.AccessControllerAddress != nil {
		out = append(out, CreateProof(*data.AccessControllerAddress))
	}
	out = append(out, LockFee(data.FeePayer, data.Fee))
	return out
}

func buildTopUp(data LockFeeData, controller addressing.Address) []Instruction {
	var out []Instruction
	if data.AccessControllerAddress != nil {
		out = append(out, CreateProof(*data.AccessControllerAddress))
	}
	out = append(out, Withdraw(data.FeePayer, xrd, data.Fee))
	out = append(out, TakeFromWorktop(xrd, data.Fee))
	out = append(out, ContributeRecoveryFee(controller))
	return out
}

// PrependLockFeeAndTopUp inserts fee and vault top-up instructions at the
// front of m per the three-branch policy of spec.md §4.10 item 2. It is
// idempotent: a manifest that already carries a lock_fee or
// lock_recovery_fee instruction is returned unchanged (spec.md §8
// "modify_add_lock_fee is idempotent ... guarded by the first
// instruction's method name").
func PrependLockFeeAndTopUp(m Manifest, combination RolesExercisableInTransactionManifestCombination, data LockFeeData, acState AccessControllerStateDetails) Manifest {
	if m.HasMethod("lock_fee") || m.HasMethod("lock_recovery_fee") {
		return m
	}

	payerExternal := data.AccessControllerAddress == nil
	primaryAvailable := combination.PrimaryCanCreateProof() && !acState.IsPrimaryRoleLocked

	switch {
	case payerExternal || primaryAvailable:
		if acState.VaultUnderfunded && data.FeePayerXrdBalance > 2*data.Fee {
			m = m.Prepend(buildTopUp(data, acState.Address)...)
		}
		return m.Prepend(buildLockFee(data)...)

	case acState.XrdBalance >= data.Fee:
		if !acState.IsPrimaryRoleLocked && combination.QuickConfirm && data.FeePayerXrdBalance >= data.Fee {
			m = m.Prepend(buildTopUp(data, acState.Address)...)
		}
		return m.Prepend(LockRecoveryFee(acState.Address, data.Fee))

	default:
		return m
	}
}

// GuaranteeOffsetForLockFee returns how many instructions
// PrependLockFeeAndTopUp's lock-fee branch alone (excluding any top-up)
// adds in front of the manifest, for adjusting guarantee indices (spec.md
// §4.10 item 4): two for a securified payer (create_proof + lock_fee)
// unless the payer is already in the proof-requiring set, in which case
// one; always one for an unsecurified payer.
func GuaranteeOffsetForLockFee(data LockFeeData, payerAlreadyProofRequiring bool) int {
	if data.AccessControllerAddress == nil {
		return 1
	}
	if payerAlreadyProofRequiring {
		return 1
	}
	return 2
}

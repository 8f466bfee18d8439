// Package manifest builds transaction manifests for securified entities
// (spec.md §4.10): the securify-entity builder, the recovery/lock-fee
// insertion policy, guarantee assertions, and a lightweight execution
// summary of withdrawn resources.
//
// Instructions are modeled opaquely: the concrete SBOR codec and the
// radix-engine manifest builder are out of scope (spec.md §1) and are
// treated as an external library that would consume this package's
// Manifest value and emit the real wire bytes.
package manifest

import "shieldcore/addressing"

// Instruction is one opaque manifest instruction: a method name plus
// whatever arguments that method takes. The real builder library
// interprets Method/Args against the actual instruction set; this package
// only needs to reason about instruction identity (for idempotence checks)
// and ordering.
type Instruction struct {
	Method string
	Args   map[string]any
}

func instr(method string, args map[string]any) Instruction {
	return Instruction{Method: method, Args: args}
}

// CreateProof emits `create_proof(componentAddress)`.
func CreateProof(componentAddress addressing.Address) Instruction {
	return instr("create_proof", map[string]any{"component": componentAddress})
}

// LockFee emits `lock_fee(payer, amount)`.
func LockFee(payer addressing.Address, amount float64) Instruction {
	return instr("lock_fee", map[string]any{"payer": payer, "amount": amount})
}

// LockRecoveryFee emits `lock_recovery_fee(amount)` against an access
// controller's own vault.
func LockRecoveryFee(accessController addressing.Address, amount float64) Instruction {
	return instr("lock_recovery_fee", map[string]any{"accessController": accessController, "amount": amount})
}

// Withdraw emits `withdraw(from, resource, amount)`.
func Withdraw(from addressing.Address, resource string, amount float64) Instruction {
	return instr("withdraw", map[string]any{"from": from, "resource": resource, "amount": amount})
}

// TakeFromWorktop emits `take_from_worktop(resource, amount)`.
func TakeFromWorktop(resource string, amount float64) Instruction {
	return instr("take_from_worktop", map[string]any{"resource": resource, "amount": amount})
}

// ContributeRecoveryFee emits `contribute_recovery_fee(accessController)`.
func ContributeRecoveryFee(accessController addressing.Address) Instruction {
	return instr("contribute_recovery_fee", map[string]any{"accessController": accessController})
}

// AssertWorktopContains emits `assert_worktop_contains(resource, amount)`.
func AssertWorktopContains(resource string, amount float64) Instruction {
	return instr("assert_worktop_contains", map[string]any{"resource": resource, "amount": amount})
}

// Securify emits `securify(component)`, taking the owner badge onto the
// worktop (spec.md §4.10 item 1).
func Securify(component addressing.Address) Instruction {
	return instr("securify", map[string]any{"component": component})
}

// AllocateGlobalAddress emits an address-reservation allocation for a
// blueprint, bound to reservationTag for later instructions to reference.
func AllocateGlobalAddress(blueprint, reservationTag string) Instruction {
	return instr("allocate_global_address", map[string]any{"blueprint": blueprint, "reservation": reservationTag})
}

// AccessControllerCreate emits
// `AccessController::create(controlledAsset, ruleSet, delayMinutes, reservationTag)`.
func AccessControllerCreate(controlledAsset string, ruleSet RuleSet, delayMinutes uint32, reservationTag string) Instruction {
	return instr("access_controller_create", map[string]any{
		"controlledAsset": controlledAsset,
		"ruleSet":         ruleSet,
		"delayMinutes":    delayMinutes,
		"reservation":     reservationTag,
	})
}

// SetOwnerKeys emits the metadata instruction setting an entity's ROLA
// owner keys hash list.
func SetOwnerKeys(component addressing.Address, keyHashes []string) Instruction {
	return instr("set_owner_keys", map[string]any{"component": component, "ownerKeyHashes": keyHashes})
}

// Manifest is an ordered, network-scoped sequence of instructions.
type Manifest struct {
	Network      addressing.NetworkID
	Instructions []Instruction
}

// Prepend returns a copy of m with instructions inserted at the front, in
// the given order.
func (m Manifest) Prepend(instructions ...Instruction) Manifest {
	out := make([]Instruction, 0, len(instructions)+len(m.Instructions))
	out = append(out, instructions...)
	out = append(out, m.Instructions...)
	return Manifest{Network: m.Network, Instructions: out}
}

// HasMethod reports whether any instruction in m calls method. Used to
// make modify_add_lock_fee idempotent (spec.md §8 round-trip laws).
func (m Manifest) HasMethod(method string) bool {
	for _, i := range m.Instructions {
		if i.Method == method {
			return true
		}
	}
	return false
}

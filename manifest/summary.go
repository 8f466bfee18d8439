package manifest

import "math"

// Summary is a lightweight static analysis of a manifest's instructions:
// which resources it withdraws and deposits, and how many instructions it
// has. It gives host UIs a preview of a manifest's effect without a full
// ledger execution (spec.md §4.10 supplement, grounded on the source's
// subintent execution summary); ModifyAddGuarantees does not use it and
// checks indices against the instruction list directly.
type Summary struct {
	Withdrawals      map[string]float64
	Deposits         map[string]float64
	InstructionCount int
}

// Summarize walks m's instructions and accumulates resource movement.
// Only withdraw instructions contribute to Withdrawals; take_from_worktop
// and every other instruction are not counted, and Deposits is always
// returned empty.
func Summarize(m Manifest) Summary {
	s := Summary{Withdrawals: map[string]float64{}, Deposits: map[string]float64{}, InstructionCount: len(m.Instructions)}
	for _, i := range m.Instructions {
		switch i.Method {
		case "withdraw":
			resource, _ := i.Args["resource"].(string)
			amount, _ := i.Args["amount"].(float64)
			s.Withdrawals[resource] += amount
		case "contribute_recovery_fee", "lock_fee", "lock_recovery_fee":
			// Vault debits against the access controller, not the worktop;
			// tracked separately from Withdrawals since they never pass
			// through take_from_worktop/assert_worktop_contains.
		}
	}
	return s
}

// roundDownToDivisibility floors amount to the given number of decimal
// places, the way a resource's on-ledger divisibility truncates a
// requested guarantee amount.
func roundDownToDivisibility(amount float64, divisibility uint8) float64 {
	scale := math.Pow10(int(divisibility))
	return math.Floor(amount*scale) / scale
}

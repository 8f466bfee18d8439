package manifest

import (
	"sort"

	"shieldcore/shielderr"
)

// Guarantee requests an `assert_worktop_contains` be inserted after the
// instruction at InstructionIndex (indexed against the manifest as it
// stood before any guarantees were added), asserting the worktop holds at
// least Amount of ResourceAddress, rounded down to Divisibility decimal
// places.
type Guarantee struct {
	InstructionIndex int
	ResourceAddress  string
	Amount           float64
	Divisibility     uint8
}

// ModifyAddGuarantees inserts an assert_worktop_contains instruction for
// each guarantee, immediately after its InstructionIndex in the original
// manifest. Guarantees are applied in ascending index order so that each
// subsequent insertion's position is shifted by the ones already made
// (spec.md §4.10 item 3); an empty guarantees slice is the identity
// (spec.md §8 round-trip law). An index at or beyond the manifest's
// original instruction count errors with TXGuaranteeIndexOutOfBounds.
func ModifyAddGuarantees(m Manifest, guarantees []Guarantee) (Manifest, error) {
	if len(guarantees) == 0 {
		return m, nil
	}

	originalLen := len(m.Instructions)
	for _, g := range guarantees {
		if g.InstructionIndex < 0 || g.InstructionIndex >= originalLen {
			return Manifest{}, shielderr.Newf(shielderr.KindTXGuaranteeIndexOutOfBounds, "guarantee index %d out of bounds for manifest with %d instructions", g.InstructionIndex, originalLen)
		}
	}

	sorted := append([]Guarantee(nil), guarantees...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].InstructionIndex < sorted[j].InstructionIndex })

	instructions := append([]Instruction(nil), m.Instructions...)
	inserted := 0
	for _, g := range sorted {
		pos := g.InstructionIndex + inserted + 1
		assertion := AssertWorktopContains(g.ResourceAddress, roundDownToDivisibility(g.Amount, g.Divisibility))
		instructions = append(instructions[:pos], append([]Instruction{assertion}, instructions[pos:]...)...)
		inserted++
	}

	return Manifest{Network: m.Network, Instructions: instructions}, nil
}

package entity

// Accounts is an ordered collection of Account entities, keyed implicitly
// by address.
type Accounts struct {
	list []Entity
}

// WithAccounts builds an Accounts collection, deduplicating by address:
// the source's `Accounts::with_accounts` silently drops later entries that
// repeat an address already seen (spec.md §9 Design Notes open question).
// That behavior is preserved verbatim; unlike the source, the collapsed
// count is returned so callers can surface it instead of silently losing
// information.
func WithAccounts(accounts []Entity) (Accounts, int) {
	seen := make(map[addressKey]bool, len(accounts))
	out := make([]Entity, 0, len(accounts))
	collapsed := 0
	for _, a := range accounts {
		k := addressKeyOf(a)
		if seen[k] {
			collapsed++
			continue
		}
		seen[k] = true
		out = append(out, a)
	}
	return Accounts{list: out}, collapsed
}

type addressKey struct {
	network uint8
	kind    byte
	payload string
}

func addressKeyOf(e Entity) addressKey {
	return addressKey{network: uint8(e.Address.Network), kind: byte(e.Address.Kind), payload: e.Address.String()}
}

// Slice returns the deduplicated accounts in insertion order.
func (a Accounts) Slice() []Entity { return a.list }

// Len returns the number of deduplicated accounts.
func (a Accounts) Len() int { return len(a.list) }

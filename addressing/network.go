// Package addressing implements NetworkID, the Bech32m address codec, and
// entity-byte validation described in spec.md §3 and §6.
package addressing

import "shieldcore/shielderr"

// NetworkID is the small enumeration of ledger networks. Its u8 discriminant
// doubles as a hardened path component (spec.md §3) and selects the Bech32m
// HRP table entry used for address encoding.
type NetworkID uint8

const (
	Mainnet NetworkID = 1
	Stokenet NetworkID = 2
	Adapanet NetworkID = 10
	Nebunet  NetworkID = 11
	Simulator NetworkID = 242
)

type networkMeta struct {
	name string
	hrp  string // Bech32m human-readable-part prefix shared by all entity types on this network
}

var networks = map[NetworkID]networkMeta{
	Mainnet:   {name: "mainnet", hrp: "rdx"},
	Stokenet:  {name: "stokenet", hrp: "tdx_2_"},
	Adapanet:  {name: "adapanet", hrp: "tdx_a_"},
	Nebunet:   {name: "nebunet", hrp: "tdx_b_"},
	Simulator: {name: "simulator", hrp: "sim"},
}

// Name returns the lower-case network name, or "" if n is unknown.
func (n NetworkID) Name() string { return networks[n].name }

// HRP returns the Bech32m human-readable part prefix used by addresses on
// this network.
func (n NetworkID) HRP() string { return networks[n].hrp }

// Known reports whether n is a recognized network.
func (n NetworkID) Known() bool {
	_, ok := networks[n]
	return ok
}

// NetworkByHRP resolves a network by matching the start of an address
// string against each network's HRP, per spec.md §6 ("Decoding first
// resolves the network by HRP prefix match").
func NetworkByHRP(address string) (NetworkID, error) {
	var best NetworkID
	bestLen := -1
	for id, meta := range networks {
		if len(meta.hrp) > bestLen && hasPrefix(address, meta.hrp) {
			best = id
			bestLen = len(meta.hrp)
		}
	}
	if bestLen < 0 {
		return 0, shielderr.Newf(shielderr.KindAddressInvalidEntityType, "no known network HRP matches address %q", address)
	}
	return best, nil
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

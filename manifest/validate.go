package manifest

import (
	"shieldcore/addressing"
	"shieldcore/shielderr"
)

// ValidateManifest checks m against the boundary rules of spec.md §4.10's
// failure policy table that BuildSecurifyManifest/PrependLockFeeAndTopUp
// don't already enforce at construction time: every address-bearing
// instruction must target network, and any account address referenced as
// a source of funds must be one the caller actually knows about.
func ValidateManifest(m Manifest, network addressing.NetworkID, knownAccounts map[addressing.Address]bool) error {
	for _, i := range m.Instructions {
		for _, field := range []string{"component", "payer", "from", "accessController", "controlledAsset"} {
			v, ok := i.Args[field]
			if !ok {
				continue
			}
			addr, ok := v.(addressing.Address)
			if !ok {
				continue
			}
			if addr.Network != network {
				return shielderr.Newf(shielderr.KindInvalidInstructionsWrongNetwork, "instruction %q targets network %v, manifest declares %v", i.Method, addr.Network, network).
					WithDetail("found", addr.Network).WithDetail("specified", network)
			}
		}

		if i.Method == "withdraw" || i.Method == "lock_fee" {
			field := "payer"
			if i.Method == "withdraw" {
				field = "from"
			}
			if addr, ok := i.Args[field].(addressing.Address); ok && knownAccounts != nil && !knownAccounts[addr] {
				return shielderr.Newf(shielderr.KindUnknownAccount, "manifest references unknown account %s", addr.String())
			}
		}
	}
	return nil
}

// DecompileManifest stands in for the real SBOR decompile step: this
// module never produces or consumes raw manifest bytes, so any attempt to
// decompile one fails with InvalidManifestFailedToDecompile, the same
// outcome the source reports when decompilation fails for a real reason.
func DecompileManifest(raw []byte) (Manifest, error) {
	return Manifest{}, shielderr.Wrap(shielderr.KindInvalidManifestFailedToDecompile, ErrNoDecompiler, "raw manifest bytes cannot be decompiled by this module")
}

// ErrNoDecompiler is the underlying cause DecompileManifest always wraps.
var ErrNoDecompiler = shielderr.New(shielderr.KindUnknown, "no SBOR decompiler is linked into this module")

// NamedAddressReference marks a manifest argument that refers to a
// not-yet-resolved named address (e.g. "bucket1") rather than a concrete
// Address. This module's builders never emit one; RejectNamedAddresses
// lets a caller assembling a manifest from an external source reject
// inputs that still contain them.
type NamedAddressReference struct {
	Name string
}

// RejectNamedAddresses errors with NamedAddressesAreNotSupported if any
// instruction argument is a NamedAddressReference.
func RejectNamedAddresses(m Manifest) error {
	for _, i := range m.Instructions {
		for _, v := range i.Args {
			if _, ok := v.(NamedAddressReference); ok {
				return shielderr.New(shielderr.KindNamedAddressesAreNotSupported, "manifest references a named address")
			}
		}
	}
	return nil
}

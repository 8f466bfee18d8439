// Package factorsources implements the tagged-union factor source model and
// factor instances described in spec.md §3/§4.3.
package factorsources

// Kind enumerates the variants of the factor source tagged union. Its
// declared order is the ordering used for deterministic iteration in role
// assignment and UI lists (spec.md §4.3).
type Kind int

const (
	KindDevice Kind = iota
	KindLedger
	KindOffDeviceMnemonic
	KindArculusCard
	KindSecurityQuestions
	KindTrustedContact
	KindPassword
)

func (k Kind) String() string {
	switch k {
	case KindDevice:
		return "Device"
	case KindLedger:
		return "Ledger"
	case KindOffDeviceMnemonic:
		return "OffDeviceMnemonic"
	case KindArculusCard:
		return "ArculusCard"
	case KindSecurityQuestions:
		return "SecurityQuestions"
	case KindTrustedContact:
		return "TrustedContact"
	case KindPassword:
		return "Password"
	default:
		return "Unknown"
	}
}

// IsHDCapable reports whether factor sources of this kind derive keys via
// hierarchical-deterministic paths (as opposed to referencing an opaque
// externally-held public key, e.g. a security-question answer commitment).
func (k Kind) IsHDCapable() bool {
	switch k {
	case KindDevice, KindLedger, KindOffDeviceMnemonic, KindArculusCard:
		return true
	default:
		return false
	}
}

// Curve is the elliptic curve an HD public key was derived on.
type Curve int

const (
	CurveCurve25519 Curve = iota
	CurveSecp256k1
)

func (c Curve) String() string {
	switch c {
	case CurveCurve25519:
		return "curve25519"
	case CurveSecp256k1:
		return "secp256k1"
	default:
		return "unknown"
	}
}

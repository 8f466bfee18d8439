package factorsources

import (
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"

	bip39 "github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/blake2b"

	"shieldcore/shielderr"
)

// ID identifies a factor source. For HD-capable kinds it is derived by
// hashing the mnemonic-with-passphrase and tagging the result with the kind
// (spec.md §3 "Factor source"); for non-HD kinds it is assigned by the host
// and only its Kind/Hash pair is used for equality here.
type ID struct {
	Kind Kind
	Hash [32]byte
}

func (id ID) String() string {
	return id.Kind.String() + ":" + hex.EncodeToString(id.Hash[:8])
}

// Equal compares two ids by kind and hash.
func (id ID) Equal(other ID) bool {
	return id.Kind == other.Kind && id.Hash == other.Hash
}

// IDFromMnemonic derives the ID of an HD-capable factor source from a BIP39
// mnemonic and optional passphrase. The mnemonic itself is never retained:
// this is a pure function exercised by the host and by test fixtures, never
// by persisted core state (spec.md §1 "host keychain/persistence" stays an
// external collaborator; spec.md §3 "the id of an HD-capable factor source
// is derived by hashing the mnemonic-with-passphrase and tagging it with the
// kind").
func IDFromMnemonic(mnemonic, passphrase string, kind Kind) (ID, error) {
	if !kind.IsHDCapable() {
		return ID{}, shielderr.Newf(shielderr.KindProfileDoesNotContainFactorSourceWithID, "kind %v is not HD-capable", kind)
	}
	if !bip39.IsMnemonicValid(mnemonic) {
		return ID{}, shielderr.New(shielderr.KindProfileDoesNotContainFactorSourceWithID, "invalid mnemonic checksum")
	}
	seed := bip39.NewSeed(mnemonic, passphrase)
	sum := blake2b.Sum256(seed)
	return ID{Kind: kind, Hash: sum}, nil
}

// CommonProperties holds the fields every factor source variant carries
// regardless of kind (spec.md §3).
type CommonProperties struct {
	AddedOn         time.Time
	LastUsedOn      time.Time
	SupportedCurves []Curve
	IsMain          bool
}

// Hints carries kind-specific display/recovery hints. Content varies freely
// per kind (e.g. a device model name, a Ledger product string, a security
// question prompt set) so it is modeled as an open map rather than one
// struct per kind, the way spec.md describes "kind-specific hints" without
// fixing their shape.
type Hints map[string]any

// Source is the factor source tagged union (spec.md §3/§4.3). Operation
// dispatch (FactorSourceID, Name, CommonProperties, SetCommonProperties) is
// mechanical, per spec.md §4.3 — there is exactly one struct, no per-variant
// type, so "dispatch" is just field access; the Kind field is what a caller
// switches on when kind-specific behavior is actually required.
type Source struct {
	ID     ID
	Name   string
	Common CommonProperties
	Hint   Hints
}

// FactorSourceID returns s's identity.
func (s Source) FactorSourceID() ID { return s.ID }

// CommonPropertiesOf returns s's shared properties.
func (s Source) CommonPropertiesOf() CommonProperties { return s.Common }

// SetCommonProperties replaces s's shared properties.
func (s *Source) SetCommonProperties(c CommonProperties) { s.Common = c }

// sourceJSON mirrors the on-disk `{ discriminator, <tag>: { .. } }` envelope
// shape spec.md §6 requires for every factor source variant.
type sourceJSON struct {
	Discriminator string          `json:"discriminator"`
	Device        *sourceBody     `json:"device,omitempty"`
	Ledger        *sourceBody     `json:"ledgerHQHardwareWallet,omitempty"`
	OffDevice     *sourceBody     `json:"offDeviceMnemonic,omitempty"`
	Arculus       *sourceBody     `json:"arculusCard,omitempty"`
	SecQuestions  *sourceBody     `json:"securityQuestions,omitempty"`
	TrustedContact *sourceBody    `json:"trustedContact,omitempty"`
	Password      *sourceBody     `json:"password,omitempty"`
}

type sourceBody struct {
	ID     bodyID           `json:"id"`
	Common CommonProperties `json:"common"`
	Hint   Hints            `json:"hint"`
	Name   string           `json:"name"`
}

type bodyID struct {
	Kind string `json:"kind"`
	Body string `json:"body"`
}

var kindTag = map[Kind]string{
	KindDevice:            "device",
	KindLedger:            "ledgerHQHardwareWallet",
	KindOffDeviceMnemonic: "offDeviceMnemonic",
	KindArculusCard:       "arculusCard",
	KindSecurityQuestions: "securityQuestions",
	KindTrustedContact:    "trustedContact",
	KindPassword:          "password",
}

// MarshalJSON emits the `{ discriminator, <tag>: {...} }` envelope.
func (s Source) MarshalJSON() ([]byte, error) {
	tag, ok := kindTag[s.ID.Kind]
	if !ok {
		tag = "device"
	}
	body := &sourceBody{
		ID:     bodyID{Kind: s.ID.Kind.String(), Body: hex.EncodeToString(s.ID.Hash[:])},
		Common: s.Common,
		Hint:   s.Hint,
		Name:   s.Name,
	}
	env := sourceJSON{Discriminator: tag}
	switch s.ID.Kind {
	case KindDevice:
		env.Device = body
	case KindLedger:
		env.Ledger = body
	case KindOffDeviceMnemonic:
		env.OffDevice = body
	case KindArculusCard:
		env.Arculus = body
	case KindSecurityQuestions:
		env.SecQuestions = body
	case KindTrustedContact:
		env.TrustedContact = body
	case KindPassword:
		env.Password = body
	}
	return json.Marshal(env)
}

// UnmarshalJSON reverses MarshalJSON's envelope mapping back to the
// internal representation (which needs no discriminator field), per the
// Design Notes.
func (s *Source) UnmarshalJSON(data []byte) error {
	var env sourceJSON
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	var kind Kind
	var body *sourceBody
	switch {
	case env.Device != nil:
		kind, body = KindDevice, env.Device
	case env.Ledger != nil:
		kind, body = KindLedger, env.Ledger
	case env.OffDevice != nil:
		kind, body = KindOffDeviceMnemonic, env.OffDevice
	case env.Arculus != nil:
		kind, body = KindArculusCard, env.Arculus
	case env.SecQuestions != nil:
		kind, body = KindSecurityQuestions, env.SecQuestions
	case env.TrustedContact != nil:
		kind, body = KindTrustedContact, env.TrustedContact
	case env.Password != nil:
		kind, body = KindPassword, env.Password
	default:
		return shielderr.Newf(shielderr.KindProfileDoesNotContainFactorSourceWithID, "unrecognized factor source envelope %q", env.Discriminator)
	}
	raw, err := hex.DecodeString(body.ID.Body)
	if err != nil {
		return err
	}
	var hash [32]byte
	copy(hash[:], raw)
	s.ID = ID{Kind: kind, Hash: hash}
	s.Common = body.Common
	s.Hint = body.Hint
	s.Name = body.Name
	return nil
}

// SortByDeterministicOrder orders sources by kind enum order, then by
// LastUsedOn ascending, then equal (spec.md §4.3).
func SortByDeterministicOrder(sources []Source) {
	sort.SliceStable(sources, func(i, j int) bool {
		a, b := sources[i], sources[j]
		if a.ID.Kind != b.ID.Kind {
			return a.ID.Kind < b.ID.Kind
		}
		return a.Common.LastUsedOn.Before(b.Common.LastUsedOn)
	})
}

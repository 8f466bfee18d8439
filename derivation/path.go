package derivation

import (
	"fmt"
	"strconv"
	"strings"

	"shieldcore/addressing"
	"shieldcore/keyspace"
	"shieldcore/shielderr"
)

// kind discriminates the DerivationPath tagged union: Account and Identity
// are the CAP26-shaped six-component paths this module actually derives
// against; Bip44Like models legacy Olympia-imported accounts, kept for
// completeness of the union named in spec.md §4.2 but never produced by the
// preset/provider pipeline (C5-C7 only ever build Account/Identity paths).
type kind int

const (
	kindAccount kind = iota
	kindIdentity
	kindBip44Like
)

// Path is spec.md §4.2's DerivationPath: CAP26 { 44H / 1022H / networkH /
// entityKindH / keyKindH / index } for Account/Identity, or a raw BIP44-like
// legacy path.
type Path struct {
	pathKind   kind
	network    addressing.NetworkID
	entityKind EntityKind
	keyKind    KeyKind
	index      keyspace.Component

	// bip44 fields, valid only when pathKind == kindBip44Like.
	bip44Account uint32
	bip44Change  uint32
	bip44Index   uint32
}

// NewAccountPath builds a CAP26 account path.
func NewAccountPath(network addressing.NetworkID, keyKind KeyKind, index keyspace.Component) Path {
	return Path{pathKind: kindAccount, network: network, entityKind: EntityKindAccount, keyKind: keyKind, index: index}
}

// NewIdentityPath builds a CAP26 identity path.
func NewIdentityPath(network addressing.NetworkID, keyKind KeyKind, index keyspace.Component) Path {
	return Path{pathKind: kindIdentity, network: network, entityKind: EntityKindIdentity, keyKind: keyKind, index: index}
}

// NewBip44LikePath builds a legacy (non-CAP26) path for an Olympia-imported
// account: m/44H/1022H/accountH/change/index.
func NewBip44LikePath(account, change, index uint32) Path {
	return Path{pathKind: kindBip44Like, bip44Account: account, bip44Change: change, bip44Index: index}
}

// IsCAP26 reports whether p is an Account or Identity path (six CAP26
// components) as opposed to a legacy Bip44Like path.
func (p Path) IsCAP26() bool { return p.pathKind != kindBip44Like }

// NetworkID returns the network component. Zero for Bip44Like paths, which
// carry no network segment.
func (p Path) NetworkID() addressing.NetworkID { return p.network }

// EntityKind returns the entity kind. Only meaningful for CAP26 paths.
func (p Path) EntityKind() EntityKind { return p.entityKind }

// KeyKind returns the key kind. Only meaningful for CAP26 paths.
func (p Path) KeyKind() KeyKind { return p.keyKind }

// Index returns the final path component. Only meaningful for CAP26 paths.
func (p Path) Index() keyspace.Component { return p.index }

// KeySpace returns the key space of the final component.
func (p Path) KeySpace() keyspace.KeySpace { return p.index.KeySpace() }

// String renders the canonical CAP26 path form
// "m/44H/1022H/<network>H/<entity>H/<key>H/<index>", or the legacy
// "m/44H/1022H/<account>H/<change>/<index>" form for Bip44Like paths.
func (p Path) String() string {
	if p.pathKind == kindBip44Like {
		return fmt.Sprintf("m/%dH/%dH/%dH/%d/%d", cap26Purpose, cap26Framework, p.bip44Account, p.bip44Change, p.bip44Index)
	}
	return fmt.Sprintf("m/%dH/%dH/%dH/%dH/%dH/%s",
		cap26Purpose, cap26Framework, uint32(p.network), uint32(p.entityKind), uint32(p.keyKind), p.index.String())
}

// IndexAgnosticPath identifies a CAP26 path family with its final index
// elided: (preset, network) maps to exactly one such value (spec.md §4.2).
type IndexAgnosticPath struct {
	Network    addressing.NetworkID
	EntityKind EntityKind
	KeyKind    KeyKind
	KeySpace   keyspace.KeySpace
}

// IndexAgnostic strips the final index component.
func (p Path) IndexAgnostic() IndexAgnosticPath {
	return IndexAgnosticPath{
		Network:    p.network,
		EntityKind: p.entityKind,
		KeyKind:    p.keyKind,
		KeySpace:   p.index.KeySpace(),
	}
}

// WithIndex rebuilds a full Path from an index-agnostic path plus a final
// component.
func (ia IndexAgnosticPath) WithIndex(index keyspace.Component) Path {
	p := Path{network: ia.Network, entityKind: ia.EntityKind, keyKind: ia.KeyKind, index: index}
	if ia.EntityKind == EntityKindIdentity {
		p.pathKind = kindIdentity
	} else {
		p.pathKind = kindAccount
	}
	return p
}

// ParseCAP26 parses the canonical six-component string form, rejecting
// anything that is not exactly six hardened-prefixed components ending in
// an index component (spec.md §4.2/§4.3 CAP43 string form).
func ParseCAP26(s string) (Path, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "m/")
	parts := strings.Split(s, "/")
	if len(parts) != 6 {
		return Path{}, shielderr.Newf(shielderr.KindIndexNotHardened, "CAP26 path %q does not have 6 components", s)
	}
	purpose, err := parseHardenedUint(parts[0])
	if err != nil || purpose != cap26Purpose {
		return Path{}, shielderr.Newf(shielderr.KindIndexNotHardened, "CAP26 path %q: bad purpose component", s)
	}
	framework, err := parseHardenedUint(parts[1])
	if err != nil || framework != cap26Framework {
		return Path{}, shielderr.Newf(shielderr.KindIndexNotHardened, "CAP26 path %q: bad framework component", s)
	}
	networkRaw, err := parseHardenedUint(parts[2])
	if err != nil {
		return Path{}, err
	}
	entityRaw, err := parseHardenedUint(parts[3])
	if err != nil {
		return Path{}, err
	}
	keyRaw, err := parseHardenedUint(parts[4])
	if err != nil {
		return Path{}, err
	}
	index, err := keyspace.Parse(parts[5])
	if err != nil {
		return Path{}, err
	}

	p := Path{
		network:    addressing.NetworkID(networkRaw),
		entityKind: EntityKind(entityRaw),
		keyKind:    KeyKind(keyRaw),
		index:      index,
	}
	if p.entityKind == EntityKindIdentity {
		p.pathKind = kindIdentity
	} else {
		p.pathKind = kindAccount
	}
	return p, nil
}

func parseHardenedUint(s string) (uint32, error) {
	if !strings.HasSuffix(s, "H") {
		return 0, shielderr.Newf(shielderr.KindIndexNotHardened, "component %q is not hardened", s)
	}
	n, err := strconv.ParseUint(strings.TrimSuffix(s, "H"), 10, 32)
	if err != nil {
		return 0, shielderr.Wrap(shielderr.KindIndexNotHardened, err, fmt.Sprintf("parsing component %q", s))
	}
	return uint32(n), nil
}

func sample() Path {
	return NewAccountPath(addressing.Mainnet, KeyKindTransactionSigning, keyspace.MustFromLocal(0, keyspace.Hardened))
}

func sampleOther() Path {
	return NewIdentityPath(addressing.Mainnet, KeyKindTransactionSigning, keyspace.MustFromLocal(1, keyspace.Securified))
}

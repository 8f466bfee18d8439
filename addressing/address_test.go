package addressing

import (
	"bytes"
	"testing"

	"shieldcore/shielderr"
)

func sampleKey() []byte {
	return bytes.Repeat([]byte{0x07}, 33)
}

func TestAddressRoundTrip(t *testing.T) {
	a := NewAddress(Mainnet, EntityTypeAccount, sampleKey())
	s := a.String()
	parsed, err := ParseAs("Account", s)
	if err != nil {
		t.Fatalf("ParseAs: %v", err)
	}
	if parsed.Hash() != a.Hash() || parsed.Kind != a.Kind || parsed.Network != a.Network {
		t.Errorf("round trip mismatch: got %+v want %+v", parsed, a)
	}
}

func TestAddressWrongEntityType(t *testing.T) {
	// parsing an identity_rdx... string as an AccountAddress must fail.
	identity := NewAddress(Mainnet, EntityTypeIdentity, sampleKey())
	_, err := ParseAs("Account", identity.String())
	if err == nil {
		t.Fatalf("expected AddressInvalidEntityType error")
	}
	if !shielderr.Is(err, shielderr.KindAddressInvalidEntityType) {
		t.Errorf("expected KindAddressInvalidEntityType, got %v", err)
	}
}

func TestAddressCanonicalLowerCase(t *testing.T) {
	a := NewAddress(Mainnet, EntityTypeAccount, sampleKey())
	s := a.String()
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			t.Fatalf("address string %q is not lower-case", s)
		}
	}
}

func TestMatchesEntityByteIgnoresEntityByte(t *testing.T) {
	acc := NewAddress(Mainnet, EntityTypeAccount, sampleKey())
	id := NewAddress(Mainnet, EntityTypeIdentity, sampleKey())
	if !acc.MatchesEntityByte(id) {
		t.Errorf("expected hash-equal addresses to match regardless of entity byte")
	}
	other := NewAddress(Mainnet, EntityTypeAccount, []byte("different-key-material-32bytes!"))
	if acc.MatchesEntityByte(other) {
		t.Errorf("expected addresses with different hashes not to match")
	}
}

func TestNetworkByHRP(t *testing.T) {
	a := NewAddress(Stokenet, EntityTypeAccount, sampleKey())
	n, err := NetworkByHRP(a.String())
	if err != nil {
		t.Fatalf("NetworkByHRP: %v", err)
	}
	if n != Stokenet {
		t.Errorf("NetworkByHRP = %v, want Stokenet", n)
	}
}

package hostinteractor

import (
	"bytes"
	"context"
	"testing"

	"shieldcore/addressing"
	"shieldcore/derivation"
	"shieldcore/factorsources"
	"shieldcore/keyscollector"
	"shieldcore/keyspace"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func testFSID(t *testing.T) factorsources.ID {
	t.Helper()
	id, err := factorsources.IDFromMnemonic(testMnemonic, "", factorsources.KindDevice)
	if err != nil {
		t.Fatalf("IDFromMnemonic: %v", err)
	}
	return id
}

func TestNewMnemonicRejectsInvalidMnemonic(t *testing.T) {
	if _, err := NewMnemonic("not a real mnemonic", ""); err == nil {
		t.Fatal("expected error for invalid mnemonic")
	}
}

func TestDerivePublicKeysIsDeterministic(t *testing.T) {
	fsid := testFSID(t)
	path := derivation.NewAccountPath(addressing.Mainnet, derivation.KeyKindTransactionSigning, keyspace.MustFromLocal(0, keyspace.Hardened))

	m1, err := NewMnemonic(testMnemonic, "")
	if err != nil {
		t.Fatalf("NewMnemonic: %v", err)
	}
	m2, err := NewMnemonic(testMnemonic, "")
	if err != nil {
		t.Fatalf("NewMnemonic: %v", err)
	}

	req := []keyscollector.Request{{FactorSourceID: fsid, Paths: []derivation.Path{path}}}
	out1, err := m1.DerivePublicKeys(context.Background(), req)
	if err != nil {
		t.Fatalf("DerivePublicKeys: %v", err)
	}
	out2, err := m2.DerivePublicKeys(context.Background(), req)
	if err != nil {
		t.Fatalf("DerivePublicKeys: %v", err)
	}

	if !bytes.Equal(out1[fsid][0].CompressedKey, out2[fsid][0].CompressedKey) {
		t.Fatal("expected the same mnemonic+path to derive the same key")
	}
}

func TestDerivePublicKeysDiffersByPath(t *testing.T) {
	fsid := testFSID(t)
	p1 := derivation.NewAccountPath(addressing.Mainnet, derivation.KeyKindTransactionSigning, keyspace.MustFromLocal(0, keyspace.Hardened))
	p2 := derivation.NewAccountPath(addressing.Mainnet, derivation.KeyKindTransactionSigning, keyspace.MustFromLocal(1, keyspace.Hardened))

	m, err := NewMnemonic(testMnemonic, "")
	if err != nil {
		t.Fatalf("NewMnemonic: %v", err)
	}

	req := []keyscollector.Request{{FactorSourceID: fsid, Paths: []derivation.Path{p1, p2}}}
	out, err := m.DerivePublicKeys(context.Background(), req)
	if err != nil {
		t.Fatalf("DerivePublicKeys: %v", err)
	}

	if bytes.Equal(out[fsid][0].CompressedKey, out[fsid][1].CompressedKey) {
		t.Fatal("expected different paths to derive different keys")
	}
}

func TestDerivePublicKeysAbortsOnCanceledContext(t *testing.T) {
	fsid := testFSID(t)
	path := derivation.NewAccountPath(addressing.Mainnet, derivation.KeyKindTransactionSigning, keyspace.MustFromLocal(0, keyspace.Hardened))

	m, err := NewMnemonic(testMnemonic, "")
	if err != nil {
		t.Fatalf("NewMnemonic: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := []keyscollector.Request{{FactorSourceID: fsid, Paths: []derivation.Path{path}}}
	if _, err := m.DerivePublicKeys(ctx, req); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

package keyscollector

import (
	"context"
	"errors"
	"testing"

	"shieldcore/addressing"
	"shieldcore/derivation"
	"shieldcore/factorsources"
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

type fakeInteractor struct {
	respond func(requests []Request) (map[factorsources.ID][]factorsources.HDPublicKey, error)
}

func (f fakeInteractor) DerivePublicKeys(_ context.Context, requests []Request) (map[factorsources.ID][]factorsources.HDPublicKey, error) {
	return f.respond(requests)
}

func TestCollectHappyPath(t *testing.T) {
	fsid := testFSID(t)
	p1 := derivation.NewAccountPath(addressing.Mainnet, derivation.KeyKindTransactionSigning, keyspace.MustFromLocal(0, keyspace.Hardened))
	p2 := derivation.NewAccountPath(addressing.Mainnet, derivation.KeyKindTransactionSigning, keyspace.MustFromLocal(1, keyspace.Hardened))

	interactor := fakeInteractor{respond: func(requests []Request) (map[factorsources.ID][]factorsources.HDPublicKey, error) {
		out := make(map[factorsources.ID][]factorsources.HDPublicKey)
		for _, req := range requests {
			for range req.Paths {
				out[req.FactorSourceID] = append(out[req.FactorSourceID], factorsources.HDPublicKey{Curve: factorsources.CurveSecp256k1, CompressedKey: []byte{1}})
			}
		}
		return out, nil
	}}

	c := New(interactor)
	result, err := c.Collect(context.Background(), []factorsources.ID{fsid}, map[factorsources.ID][]derivation.Path{fsid: {p1, p2}}, PurposeCreatingNewAccount)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	instances := result[fsid]
	if len(instances) != 2 {
		t.Fatalf("expected 2 instances, got %d", len(instances))
	}
	hd, err := instances[0].TryAsHD()
	if err != nil {
		t.Fatalf("TryAsHD: %v", err)
	}
	if hd.DerivationPath.String() != p1.String() {
		t.Errorf("expected derivation path %q attached, got %q", p1.String(), hd.DerivationPath.String())
	}
}

func TestCollectRejectsUnknownFactorSource(t *testing.T) {
	fsid := testFSID(t)
	interactor := fakeInteractor{respond: func(requests []Request) (map[factorsources.ID][]factorsources.HDPublicKey, error) {
		return nil, nil
	}}
	c := New(interactor)
	p1 := derivation.NewAccountPath(addressing.Mainnet, derivation.KeyKindTransactionSigning, keyspace.MustFromLocal(0, keyspace.Hardened))
	_, err := c.Collect(context.Background(), nil, map[factorsources.ID][]derivation.Path{fsid: {p1}}, PurposeCreatingNewAccount)
	if err == nil {
		t.Fatalf("expected error for a factor source id not in the provided set")
	}
}

func TestCollectRejectsTooFewDerived(t *testing.T) {
	fsid := testFSID(t)
	p1 := derivation.NewAccountPath(addressing.Mainnet, derivation.KeyKindTransactionSigning, keyspace.MustFromLocal(0, keyspace.Hardened))
	p2 := derivation.NewAccountPath(addressing.Mainnet, derivation.KeyKindTransactionSigning, keyspace.MustFromLocal(1, keyspace.Hardened))

	interactor := fakeInteractor{respond: func(requests []Request) (map[factorsources.ID][]factorsources.HDPublicKey, error) {
		return map[factorsources.ID][]factorsources.HDPublicKey{
			fsid: {{Curve: factorsources.CurveSecp256k1, CompressedKey: []byte{1}}},
		}, nil
	}}
	c := New(interactor)
	_, err := c.Collect(context.Background(), []factorsources.ID{fsid}, map[factorsources.ID][]derivation.Path{fsid: {p1, p2}}, PurposeCreatingNewAccount)
	if err == nil {
		t.Fatalf("expected error when fewer keys are derived than paths requested")
	}
}

func TestCollectWrapsInteractorAbort(t *testing.T) {
	fsid := testFSID(t)
	p1 := derivation.NewAccountPath(addressing.Mainnet, derivation.KeyKindTransactionSigning, keyspace.MustFromLocal(0, keyspace.Hardened))
	interactor := fakeInteractor{respond: func(requests []Request) (map[factorsources.ID][]factorsources.HDPublicKey, error) {
		return nil, errors.New("user cancelled")
	}}
	c := New(interactor)
	_, err := c.Collect(context.Background(), []factorsources.ID{fsid}, map[factorsources.ID][]derivation.Path{fsid: {p1}}, PurposeCreatingNewAccount)
	if err == nil {
		t.Fatalf("expected wrapped interactor error")
	}
}

package nextindex

import (
	"testing"

	"shieldcore/addressing"
	"shieldcore/derivation"
	"shieldcore/factorcache"
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

func TestNextStartsAtZeroWithNoPredecessors(t *testing.T) {
	cache := factorcache.New()
	assigner := NewAssigner(cache, nil)
	fsid := testFSID(t)
	path := derivation.PresetAccountVeci.IndexAgnosticPath(addressing.Mainnet)

	idx, err := assigner.Next(fsid, path)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if idx.IndexInLocalKeySpace() != 0 {
		t.Errorf("expected index 0, got %d", idx.IndexInLocalKeySpace())
	}
}

func TestNextAdvancesEphemeralWithinSameCall(t *testing.T) {
	cache := factorcache.New()
	assigner := NewAssigner(cache, nil)
	fsid := testFSID(t)
	path := derivation.PresetAccountVeci.IndexAgnosticPath(addressing.Mainnet)

	first, err := assigner.Next(fsid, path)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	second, err := assigner.Next(fsid, path)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if first.IndexInLocalKeySpace() != 0 || second.IndexInLocalKeySpace() != 1 {
		t.Errorf("expected consecutive indices 0,1 got %d,%d", first.IndexInLocalKeySpace(), second.IndexInLocalKeySpace())
	}
}

func TestNextRespectsCacheHighWaterMark(t *testing.T) {
	cache := factorcache.New()
	fsid := testFSID(t)
	pth := derivation.NewAccountPath(addressing.Mainnet, derivation.KeyKindTransactionSigning, keyspace.MustFromLocal(7, keyspace.Hardened))
	key := factorsources.HDPublicKey{Curve: factorsources.CurveSecp256k1, CompressedKey: []byte{1}, DerivationPath: pth}
	inst := factorsources.FromHD(fsid, key)
	if err := cache.Insert(addressing.Mainnet, map[derivation.Preset]map[factorsources.ID][]factorsources.FactorInstance{
		derivation.PresetAccountVeci: {fsid: {inst}},
	}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	assigner := NewAssigner(cache, nil)
	idx, err := assigner.Next(fsid, derivation.PresetAccountVeci.IndexAgnosticPath(addressing.Mainnet))
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if idx.IndexInLocalKeySpace() != 8 {
		t.Errorf("expected index 8 (one past the cache's highest), got %d", idx.IndexInLocalKeySpace())
	}
}

type fakeProfile struct {
	highest uint32
}

func (f fakeProfile) HighestLocalIndex(factorsources.ID, derivation.IndexAgnosticPath) (uint32, bool) {
	return f.highest, true
}

func TestNextRespectsProfileHighWaterMark(t *testing.T) {
	cache := factorcache.New()
	assigner := NewAssigner(cache, fakeProfile{highest: 41})
	fsid := testFSID(t)
	idx, err := assigner.Next(fsid, derivation.PresetAccountVeci.IndexAgnosticPath(addressing.Mainnet))
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if idx.IndexInLocalKeySpace() != 42 {
		t.Errorf("expected index 42, got %d", idx.IndexInLocalKeySpace())
	}
}

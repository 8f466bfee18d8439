package factorcache

import (
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

func instanceAt(fsid factorsources.ID, local uint32, ks keyspace.KeySpace) factorsources.FactorInstance {
	path := derivation.NewAccountPath(addressing.Mainnet, derivation.KeyKindTransactionSigning, keyspace.MustFromLocal(local, ks))
	key := factorsources.HDPublicKey{Curve: factorsources.CurveSecp256k1, CompressedKey: []byte{byte(local)}, DerivationPath: path}
	return factorsources.FromHD(fsid, key)
}

func TestInsertAndGetSatisfied(t *testing.T) {
	c := New()
	fsid := testFSID(t)
	var batch []factorsources.FactorInstance
	for i := uint32(0); i < 5; i++ {
		batch = append(batch, instanceAt(fsid, i, keyspace.Hardened))
	}
	err := c.Insert(addressing.Mainnet, map[derivation.Preset]map[factorsources.ID][]factorsources.FactorInstance{
		derivation.PresetAccountVeci: {fsid: batch},
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	outcome := c.Get([]factorsources.ID{fsid}, map[derivation.Preset]uint32{derivation.PresetAccountVeci: 3}, addressing.Mainnet)
	if !outcome.Satisfied {
		t.Fatalf("expected Satisfied outcome, got deficits: %+v", outcome.Deficits)
	}
	got := outcome.Instances[derivation.PresetAccountVeci][fsid]
	if len(got) != 3 {
		t.Fatalf("expected 3 instances, got %d", len(got))
	}
}

func TestGetNotSatisfiedReportsShortfall(t *testing.T) {
	c := New()
	fsid := testFSID(t)
	outcome := c.Get([]factorsources.ID{fsid}, map[derivation.Preset]uint32{derivation.PresetAccountVeci: 3}, addressing.Mainnet)
	if outcome.Satisfied {
		t.Fatalf("expected NotSatisfied outcome for an empty cache")
	}
	shortfall := outcome.Deficits[derivation.PresetAccountVeci][fsid]
	if shortfall.AvailableFromCache != 0 {
		t.Errorf("expected 0 available, got %d", shortfall.AvailableFromCache)
	}
	if shortfall.NumToDerive != FillingQuantity+3 {
		t.Errorf("expected %d to derive, got %d", FillingQuantity+3, shortfall.NumToDerive)
	}
}

func TestConsumerConsumeRemovesHead(t *testing.T) {
	c := New()
	fsid := testFSID(t)
	var batch []factorsources.FactorInstance
	for i := uint32(0); i < 4; i++ {
		batch = append(batch, instanceAt(fsid, i, keyspace.Hardened))
	}
	if err := c.Insert(addressing.Mainnet, map[derivation.Preset]map[factorsources.ID][]factorsources.FactorInstance{
		derivation.PresetAccountVeci: {fsid: batch},
	}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	outcome := c.Get([]factorsources.ID{fsid}, map[derivation.Preset]uint32{derivation.PresetAccountVeci: 2}, addressing.Mainnet)
	if !outcome.Satisfied {
		t.Fatalf("expected satisfied outcome")
	}
	consumer := NewConsumer(c, addressing.Mainnet, outcome.Instances)
	if err := consumer.Consume(); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if err := consumer.Consume(); err == nil {
		t.Fatalf("expected error consuming twice")
	}

	remaining := c.PeekAll(fsid)
	path := derivation.PresetAccountVeci.IndexAgnosticPath(addressing.Mainnet)
	if len(remaining[path]) != 2 {
		t.Fatalf("expected 2 remaining instances, got %d", len(remaining[path]))
	}
}

func TestInsertRejectsDuplicatePath(t *testing.T) {
	c := New()
	fsid := testFSID(t)
	inst := instanceAt(fsid, 0, keyspace.Hardened)
	data := map[derivation.Preset]map[factorsources.ID][]factorsources.FactorInstance{
		derivation.PresetAccountVeci: {fsid: {inst}},
	}
	if err := c.Insert(addressing.Mainnet, data); err != nil {
		t.Fatalf("first Insert: %v", err)
	}
	if err := c.Insert(addressing.Mainnet, data); err == nil {
		t.Fatalf("expected error inserting a duplicate path")
	}
}

func TestIsFull(t *testing.T) {
	c := New()
	fsid := testFSID(t)
	if c.IsFull(addressing.Mainnet, fsid) {
		t.Fatalf("empty cache must not report full")
	}
	for _, preset := range derivation.AllPresets {
		var batch []factorsources.FactorInstance
		for i := uint32(0); i < FillingQuantity; i++ {
			batch = append(batch, instanceAtForPreset(fsid, preset, i))
		}
		if err := c.Insert(addressing.Mainnet, map[derivation.Preset]map[factorsources.ID][]factorsources.FactorInstance{
			preset: {fsid: batch},
		}); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	if !c.IsFull(addressing.Mainnet, fsid) {
		t.Fatalf("expected cache full after refilling every preset to target depth")
	}
}

func instanceAtForPreset(fsid factorsources.ID, preset derivation.Preset, local uint32) factorsources.FactorInstance {
	var path derivation.Path
	switch preset.EntityKind() {
	case derivation.EntityKindAccount:
		path = derivation.NewAccountPath(addressing.Mainnet, derivation.KeyKindTransactionSigning, keyspace.MustFromLocal(local, preset.KeySpace()))
	default:
		path = derivation.NewIdentityPath(addressing.Mainnet, derivation.KeyKindTransactionSigning, keyspace.MustFromLocal(local, preset.KeySpace()))
	}
	key := factorsources.HDPublicKey{Curve: factorsources.CurveSecp256k1, CompressedKey: []byte{byte(local)}, DerivationPath: path}
	return factorsources.FromHD(fsid, key)
}

package securitystructure

import (
	"testing"
	"time"

	"shieldcore/addressing"
	"shieldcore/derivation"
	"shieldcore/factorsources"
	"shieldcore/keyspace"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func fsid(t *testing.T, salt string, kind factorsources.Kind) factorsources.ID {
	t.Helper()
	id, err := factorsources.IDFromMnemonic(testMnemonic, salt, factorsources.KindDevice)
	if err != nil {
		t.Fatalf("IDFromMnemonic: %v", err)
	}
	id.Kind = kind
	return id
}

func txInstance(t *testing.T, id factorsources.ID, local uint32) factorsources.FactorInstance {
	t.Helper()
	path := derivation.NewAccountPath(addressing.Mainnet, derivation.KeyKindTransactionSigning, keyspace.MustFromLocal(local, keyspace.Securified))
	return factorsources.FromHD(id, factorsources.HDPublicKey{Curve: factorsources.CurveSecp256k1, CompressedKey: []byte{1}, DerivationPath: path})
}

func authInstance(t *testing.T, id factorsources.ID, local uint32) factorsources.FactorInstance {
	t.Helper()
	path := derivation.NewAccountPath(addressing.Mainnet, derivation.KeyKindAuthenticationSigning, keyspace.MustFromLocal(local, keyspace.Securified))
	return factorsources.FromHD(id, factorsources.HDPublicKey{Curve: factorsources.CurveSecp256k1, CompressedKey: []byte{2}, DerivationPath: path})
}

func TestNewInstanceMatrixRejectsUnsecurifiedAuth(t *testing.T) {
	id := fsid(t, "a", factorsources.KindDevice)
	unsecurifiedAuthPath := derivation.NewAccountPath(addressing.Mainnet, derivation.KeyKindAuthenticationSigning, keyspace.MustFromLocal(0, keyspace.Hardened))
	auth := factorsources.FromHD(id, factorsources.HDPublicKey{Curve: factorsources.CurveSecp256k1, CompressedKey: []byte{1}, DerivationPath: unsecurifiedAuthPath})

	primary := Role[factorsources.FactorInstance]{Threshold: AllThreshold(), ThresholdFactors: []factorsources.FactorInstance{txInstance(t, id, 0)}}
	_, err := NewInstanceMatrix(primary, Role[factorsources.FactorInstance]{}, Role[factorsources.FactorInstance]{}, time.Hour, auth, derivation.EntityKindAccount)
	if err == nil {
		t.Fatalf("expected error constructing a matrix with an unsecurified authentication instance")
	}
}

func TestNewInstanceMatrixRejectsDuplicateInRole(t *testing.T) {
	id := fsid(t, "a", factorsources.KindDevice)
	inst := txInstance(t, id, 0)
	primary := Role[factorsources.FactorInstance]{Threshold: AllThreshold(), ThresholdFactors: []factorsources.FactorInstance{inst}, OverrideFactors: []factorsources.FactorInstance{inst}}
	auth := authInstance(t, id, 1)
	_, err := NewInstanceMatrix(primary, Role[factorsources.FactorInstance]{}, Role[factorsources.FactorInstance]{}, time.Hour, auth, derivation.EntityKindAccount)
	if err == nil {
		t.Fatalf("expected error for a duplicate factor within one role")
	}
}

func TestNewInstanceMatrixHappyPath(t *testing.T) {
	id := fsid(t, "a", factorsources.KindDevice)
	primary := Role[factorsources.FactorInstance]{Threshold: AllThreshold(), ThresholdFactors: []factorsources.FactorInstance{txInstance(t, id, 0)}}
	auth := authInstance(t, id, 1)
	m, err := NewInstanceMatrix(primary, Role[factorsources.FactorInstance]{}, Role[factorsources.FactorInstance]{}, time.Hour, auth, derivation.EntityKindAccount)
	if err != nil {
		t.Fatalf("NewInstanceMatrix: %v", err)
	}
	if len(m.Primary.ThresholdFactors) != 1 {
		t.Errorf("expected 1 primary threshold factor")
	}
}

func TestMaterializeReusesSameTemplateSlot(t *testing.T) {
	device1 := fsid(t, "d1", factorsources.KindDevice)
	device2 := fsid(t, "d2", factorsources.KindDevice)
	ledger1 := fsid(t, "l1", factorsources.KindLedger)

	slot0 := FactorSourceTemplate{Kind: factorsources.KindDevice, Slot: 0}
	slot1 := FactorSourceTemplate{Kind: factorsources.KindLedger, Slot: 0}

	tmpl := MatrixTemplate{
		Primary:                     Role[FactorSourceTemplate]{Threshold: AllThreshold(), ThresholdFactors: []FactorSourceTemplate{slot0}},
		Recovery:                    Role[FactorSourceTemplate]{Threshold: AllThreshold(), OverrideFactors: []FactorSourceTemplate{slot1}},
		Confirmation:                Role[FactorSourceTemplate]{},
		TimeUntilDelayedConfirmationIsCallable: time.Hour,
		AuthenticationSigningFactor: slot0,
	}

	m, err := tmpl.Materialize([]factorsources.ID{device1, device2, ledger1})
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if !m.Primary.ThresholdFactors[0].Equal(device1) {
		t.Errorf("expected primary slot0 to resolve to the first device id")
	}
	if !m.AuthenticationSigningFactor.Equal(device1) {
		t.Errorf("expected auth (same slot0 template) to resolve to the same id as primary")
	}
	if !m.Recovery.OverrideFactors[0].Equal(ledger1) {
		t.Errorf("expected recovery slot to resolve to the ledger id")
	}
}

func TestMaterializeFailsWhenKindExhausted(t *testing.T) {
	device1 := fsid(t, "d1", factorsources.KindDevice)
	slotA := FactorSourceTemplate{Kind: factorsources.KindDevice, Slot: 0}
	slotB := FactorSourceTemplate{Kind: factorsources.KindDevice, Slot: 1}

	tmpl := MatrixTemplate{
		Primary:                     Role[FactorSourceTemplate]{Threshold: AllThreshold(), ThresholdFactors: []FactorSourceTemplate{slotA, slotB}},
		AuthenticationSigningFactor: slotA,
	}
	if _, err := tmpl.Materialize([]factorsources.ID{device1}); err == nil {
		t.Fatalf("expected error materializing a second Device slot with only one Device id available")
	}
}

func TestFulfillFromSourcesWithInstancesReusesSameSourceAcrossRoles(t *testing.T) {
	id := fsid(t, "a", factorsources.KindDevice)
	sources, err := NewSourceMatrix(
		Role[factorsources.ID]{Threshold: AllThreshold(), ThresholdFactors: []factorsources.ID{id}},
		Role[factorsources.ID]{Threshold: AllThreshold(), OverrideFactors: []factorsources.ID{id}},
		Role[factorsources.ID]{},
		time.Hour, id,
	)
	if err != nil {
		t.Fatalf("NewSourceMatrix: %v", err)
	}

	pool := map[factorsources.ID][]factorsources.FactorInstance{
		id: {txInstance(t, id, 0), authInstance(t, id, 1)},
	}

	instances, remaining, err := FulfillFromSourcesWithInstances(sources, pool, nil, derivation.EntityKindAccount)
	if err != nil {
		t.Fatalf("FulfillFromSourcesWithInstances: %v", err)
	}
	if !instances.Primary.ThresholdFactors[0].FactorSourceID.Equal(id) {
		t.Errorf("expected primary instance to be sourced from %v", id)
	}
	if instances.Primary.ThresholdFactors[0].FactorSourceID != instances.Recovery.OverrideFactors[0].FactorSourceID {
		t.Errorf("expected the same source to produce consistent instances across roles")
	}
	if len(remaining[id]) != 0 {
		t.Errorf("expected the pool for %v to be drained, got %d remaining", id, len(remaining[id]))
	}
}

package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"shieldcore/addressing"
	"shieldcore/derivation"
	"shieldcore/factorsources"
	"shieldcore/keyspace"
	"shieldcore/securitystructure"
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

func txInstance(id factorsources.ID, local uint32, ks keyspace.KeySpace) factorsources.FactorInstance {
	path := derivation.NewAccountPath(addressing.Mainnet, derivation.KeyKindTransactionSigning, keyspace.MustFromLocal(local, ks))
	return factorsources.FromHD(id, factorsources.HDPublicKey{Curve: factorsources.CurveSecp256k1, CompressedKey: []byte{1}, DerivationPath: path})
}

func authInstance(id factorsources.ID, local uint32) factorsources.FactorInstance {
	path := derivation.NewAccountPath(addressing.Mainnet, derivation.KeyKindAuthenticationSigning, keyspace.MustFromLocal(local, keyspace.Securified))
	return factorsources.FromHD(id, factorsources.HDPublicKey{Curve: factorsources.CurveSecp256k1, CompressedKey: []byte{2}, DerivationPath: path})
}

func testAddress(seed byte) addressing.Address {
	return addressing.NewAddress(addressing.Mainnet, addressing.EntityTypeAccount, []byte{seed, seed, seed})
}

func TestSecurifyThenResecurifyLifecycle(t *testing.T) {
	fsid := testFSID(t)
	unsecured := NewUnsecuredState(UnsecuredControl{TransactionSigning: txInstance(fsid, 0, keyspace.Hardened)})
	acct := NewAccount(addressing.Mainnet, testAddress(1), "Main", unsecured)

	primary := securitystructure.Role[factorsources.FactorInstance]{Threshold: securitystructure.AllThreshold(), ThresholdFactors: []factorsources.FactorInstance{txInstance(fsid, 0, keyspace.Securified)}}
	structure, err := securitystructure.NewInstanceMatrix(primary, securitystructure.Role[factorsources.FactorInstance]{}, securitystructure.Role[factorsources.FactorInstance]{}, time.Hour, authInstance(fsid, 1), derivation.EntityKindAccount)
	if err != nil {
		t.Fatalf("NewInstanceMatrix: %v", err)
	}

	veci := txInstance(fsid, 0, keyspace.Hardened)
	if err := acct.Securify(SecurifiedControl{Veci: &veci, AccessControllerAddress: testAddress(2), Structure: structure}); err != nil {
		t.Fatalf("Securify: %v", err)
	}
	if !acct.State.IsSecurified() {
		t.Fatalf("expected entity to be securified")
	}
	if err := acct.Securify(SecurifiedControl{Structure: structure}); err == nil {
		t.Fatalf("expected error re-calling Securify on an already-securified entity")
	}
	if err := acct.Resecurify(SecurifiedControl{Veci: &veci, AccessControllerAddress: testAddress(2), Structure: structure}); err != nil {
		t.Fatalf("Resecurify: %v", err)
	}
}

func TestSecurifyRejectsSecurifiedVeci(t *testing.T) {
	fsid := testFSID(t)
	veci := txInstance(fsid, 0, keyspace.Securified)
	_, err := NewSecurifiedState(SecurifiedControl{Veci: &veci})
	if err == nil {
		t.Fatalf("expected error constructing a Securified state with a securified veci")
	}
}

func TestUniqueAllFactorInstancesDedupesAcrossRoles(t *testing.T) {
	fsid := testFSID(t)
	inst := txInstance(fsid, 0, keyspace.Securified)
	primary := securitystructure.Role[factorsources.FactorInstance]{Threshold: securitystructure.AllThreshold(), ThresholdFactors: []factorsources.FactorInstance{inst}}
	recovery := securitystructure.Role[factorsources.FactorInstance]{Threshold: securitystructure.AllThreshold(), OverrideFactors: []factorsources.FactorInstance{inst}}
	structure, err := securitystructure.NewInstanceMatrix(primary, recovery, securitystructure.Role[factorsources.FactorInstance]{}, time.Hour, authInstance(fsid, 1), derivation.EntityKindAccount)
	if err != nil {
		t.Fatalf("NewInstanceMatrix: %v", err)
	}
	securified, err := NewSecurifiedState(SecurifiedControl{Structure: structure, AccessControllerAddress: testAddress(3)})
	if err != nil {
		t.Fatalf("NewSecurifiedState: %v", err)
	}
	acct := NewAccount(addressing.Mainnet, testAddress(1), "Main", securified)

	all := acct.UniqueAllFactorInstances()
	if len(all) != 2 {
		t.Fatalf("expected 2 distinct instances (tx shared + auth), got %d", len(all))
	}
}

func TestWithAccountsDedupesByAddressAndSurfacesCollapseCount(t *testing.T) {
	fsid := testFSID(t)
	unsecured := NewUnsecuredState(UnsecuredControl{TransactionSigning: txInstance(fsid, 0, keyspace.Hardened)})
	a1 := NewAccount(addressing.Mainnet, testAddress(9), "A", unsecured)
	a2 := NewAccount(addressing.Mainnet, testAddress(9), "A duplicate", unsecured)
	a3 := NewAccount(addressing.Mainnet, testAddress(10), "B", unsecured)

	accounts, collapsed := WithAccounts([]Entity{a1, a2, a3})
	if accounts.Len() != 2 {
		t.Fatalf("expected 2 deduplicated accounts, got %d", accounts.Len())
	}
	if collapsed != 1 {
		t.Errorf("expected 1 collapsed duplicate, got %d", collapsed)
	}
}

func TestProvisionalLifecycle(t *testing.T) {
	p := ShieldSelected(uuid.New())
	if !p.IsShieldSelected() {
		t.Fatalf("expected ShieldSelected state")
	}

	fsid := testFSID(t)
	sources, err := securitystructure.NewSourceMatrix(
		securitystructure.Role[factorsources.ID]{Threshold: securitystructure.AllThreshold(), ThresholdFactors: []factorsources.ID{fsid}},
		securitystructure.Role[factorsources.ID]{}, securitystructure.Role[factorsources.ID]{}, time.Hour, fsid)
	if err != nil {
		t.Fatalf("NewSourceMatrix: %v", err)
	}

	p, err = p.SelectFactors(sources)
	if err != nil {
		t.Fatalf("SelectFactors: %v", err)
	}
	if _, err := p.SelectFactors(sources); err == nil {
		t.Fatalf("expected error calling SelectFactors twice")
	}

	primary := securitystructure.Role[factorsources.FactorInstance]{Threshold: securitystructure.AllThreshold(), ThresholdFactors: []factorsources.FactorInstance{txInstance(fsid, 0, keyspace.Securified)}}
	instances, err := securitystructure.NewInstanceMatrix(primary, securitystructure.Role[factorsources.FactorInstance]{}, securitystructure.Role[factorsources.FactorInstance]{}, time.Hour, authInstance(fsid, 1), derivation.EntityKindAccount)
	if err != nil {
		t.Fatalf("NewInstanceMatrix: %v", err)
	}

	p, err = p.DeriveInstances(instances)
	if err != nil {
		t.Fatalf("DeriveInstances: %v", err)
	}
	p, err = p.QueueTransaction("intent-hash-abc")
	if err != nil {
		t.Fatalf("QueueTransaction: %v", err)
	}
	hash, ok := p.IntentHash()
	if !ok || hash != "intent-hash-abc" {
		t.Errorf("expected queued intent hash to round trip, got %q, %v", hash, ok)
	}
}

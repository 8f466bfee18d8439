package factorsources

import (
	"encoding/json"
	"testing"
	"time"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestIDFromMnemonicDeterministic(t *testing.T) {
	id1, err := IDFromMnemonic(testMnemonic, "", KindDevice)
	if err != nil {
		t.Fatalf("IDFromMnemonic: %v", err)
	}
	id2, err := IDFromMnemonic(testMnemonic, "", KindDevice)
	if err != nil {
		t.Fatalf("IDFromMnemonic: %v", err)
	}
	if !id1.Equal(id2) {
		t.Errorf("same mnemonic produced different ids: %v != %v", id1, id2)
	}

	other, err := IDFromMnemonic(testMnemonic, "secret", KindDevice)
	if err != nil {
		t.Fatalf("IDFromMnemonic with passphrase: %v", err)
	}
	if id1.Equal(other) {
		t.Errorf("different passphrase produced the same id")
	}
}

func TestIDFromMnemonicRejectsNonHDKind(t *testing.T) {
	if _, err := IDFromMnemonic(testMnemonic, "", KindSecurityQuestions); err == nil {
		t.Fatalf("expected error deriving an id for a non-HD-capable kind")
	}
}

func TestIDFromMnemonicRejectsInvalidMnemonic(t *testing.T) {
	if _, err := IDFromMnemonic("not a valid mnemonic at all", "", KindDevice); err == nil {
		t.Fatalf("expected error for invalid mnemonic")
	}
}

func TestSourceJSONRoundTrip(t *testing.T) {
	id, err := IDFromMnemonic(testMnemonic, "", KindLedger)
	if err != nil {
		t.Fatalf("IDFromMnemonic: %v", err)
	}
	src := Source{
		ID:   id,
		Name: "My Ledger",
		Common: CommonProperties{
			AddedOn:         time.Unix(1000, 0).UTC(),
			LastUsedOn:      time.Unix(2000, 0).UTC(),
			SupportedCurves: []Curve{CurveSecp256k1},
		},
		Hint: Hints{"model": "Nano S"},
	}

	data, err := json.Marshal(src)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var env map[string]json.RawMessage
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if _, ok := env["ledgerHQHardwareWallet"]; !ok {
		t.Fatalf("expected envelope to carry the ledgerHQHardwareWallet tag, got %s", data)
	}

	var rebuilt Source
	if err := json.Unmarshal(data, &rebuilt); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !rebuilt.ID.Equal(src.ID) || rebuilt.Name != src.Name {
		t.Errorf("round trip mismatch: %+v != %+v", rebuilt, src)
	}
}

func TestSortByDeterministicOrder(t *testing.T) {
	mkID := func(k Kind) ID {
		id, err := IDFromMnemonic(testMnemonic, k.String(), KindDevice)
		if err != nil {
			t.Fatalf("IDFromMnemonic: %v", err)
		}
		id.Kind = k
		return id
	}
	early := Source{ID: mkID(KindDevice), Common: CommonProperties{LastUsedOn: time.Unix(500, 0)}}
	late := Source{ID: mkID(KindDevice), Common: CommonProperties{LastUsedOn: time.Unix(1500, 0)}}
	ledger := Source{ID: mkID(KindLedger)}

	sources := []Source{ledger, late, early}
	SortByDeterministicOrder(sources)

	if sources[0].ID.Kind != KindDevice || sources[0].Common.LastUsedOn.Unix() != 500 {
		t.Errorf("expected earliest Device source first, got %+v", sources[0])
	}
	if sources[1].ID.Kind != KindDevice || sources[1].Common.LastUsedOn.Unix() != 1500 {
		t.Errorf("expected later Device source second, got %+v", sources[1])
	}
	if sources[2].ID.Kind != KindLedger {
		t.Errorf("expected Ledger source last, got %+v", sources[2])
	}
}

// Package hostinteractor implements the host boundary the core's keys
// collector (spec.md §4.6) is driven through: a mnemonic-protected
// DerivationInteractor, shared by cmd/shieldctl and shieldapi so neither
// reimplements the same key-derivation stand-in.
package hostinteractor

import (
	"context"
	"crypto/sha256"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/tyler-smith/go-bip39"

	"shieldcore/factorsources"
	"shieldcore/keyscollector"
	"shieldcore/shielderr"
)

// Mnemonic implements keyscollector.DerivationInteractor by holding a
// mnemonic+passphrase pair in memory for the lifetime of one request. The
// core never sees the mnemonic (spec.md §5 "Mnemonics never enter the
// core: they are materialized inside the interactor"); this is that
// interactor's host-side implementation.
//
// Key derivation here is a deterministic secp256k1 scalar derived from
// hashing the seed and path string, not the real BIP32/SLIP-0010 tree the
// production host application would use — the exact hardened-derivation
// arithmetic is explicitly a host concern the core never performs
// (spec.md §1).
type Mnemonic struct {
	mnemonic   string
	passphrase string
}

// NewMnemonic validates mnemonic against BIP39's wordlist/checksum before
// returning an interactor over it.
func NewMnemonic(mnemonic, passphrase string) (*Mnemonic, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, shielderr.New(shielderr.KindHostInteractionAborted, "invalid mnemonic")
	}
	return &Mnemonic{mnemonic: mnemonic, passphrase: passphrase}, nil
}

func (m *Mnemonic) DerivePublicKeys(ctx context.Context, requests []keyscollector.Request) (map[factorsources.ID][]factorsources.HDPublicKey, error) {
	select {
	case <-ctx.Done():
		return nil, shielderr.Wrap(shielderr.KindHostInteractionAborted, ctx.Err(), "derivation interactor aborted")
	default:
	}

	seed := bip39.NewSeed(m.mnemonic, m.passphrase)
	out := make(map[factorsources.ID][]factorsources.HDPublicKey, len(requests))
	for _, req := range requests {
		keys := make([]factorsources.HDPublicKey, 0, len(req.Paths))
		for _, path := range req.Paths {
			sum := sha256.Sum256(append(append([]byte{}, seed...), []byte(path.String())...))
			priv, _ := btcec.PrivKeyFromBytes(sum[:])
			keys = append(keys, factorsources.HDPublicKey{
				Curve:          factorsources.CurveSecp256k1,
				CompressedKey:  priv.PubKey().SerializeCompressed(),
				DerivationPath: path,
			})
		}
		out[req.FactorSourceID] = keys
	}
	return out, nil
}

// Package keyscollector implements the keys collector (spec.md §4.6): it
// drives a host-provided derivation interactor across a batch of
// (factor source, path) requests and validates the response is complete.
package keyscollector

import (
	"context"

	"shieldcore/derivation"
	"shieldcore/factorsources"
	"shieldcore/shielderr"
)

// Purpose names why paths are being derived, surfaced to the interactor so
// a host UI can explain the prompt it is about to show the user (spec.md
// §4.6 "e.g., CreatingNewAccount, SecurifyingAccount").
type Purpose int

const (
	PurposeCreatingNewAccount Purpose = iota
	PurposeCreatingNewPersona
	PurposePreDerivingKeysForFactorSource
	PurposeSecurifyingAccount
	PurposeSecurifyingPersona
	PurposeRecoveringEntity
)

func (p Purpose) String() string {
	switch p {
	case PurposeCreatingNewAccount:
		return "CreatingNewAccount"
	case PurposeCreatingNewPersona:
		return "CreatingNewPersona"
	case PurposePreDerivingKeysForFactorSource:
		return "PreDerivingKeysForFactorSource"
	case PurposeSecurifyingAccount:
		return "SecurifyingAccount"
	case PurposeSecurifyingPersona:
		return "SecurifyingPersona"
	case PurposeRecoveringEntity:
		return "RecoveringEntity"
	default:
		return "Unknown"
	}
}

// Request is one derivation round: derive a public key at each of Paths
// using FactorSourceID, which must be HD-capable.
type Request struct {
	FactorSourceID factorsources.ID
	Paths          []derivation.Path
}

// DerivationInteractor is the host boundary that actually performs key
// derivation, typically by unlocking a mnemonic-protected factor source
// (possibly prompting the user) and deriving each requested path. It may
// be driven over multiple prompts, one per mnemonic-protected factor
// source in a batch (spec.md §4.6).
type DerivationInteractor interface {
	DerivePublicKeys(ctx context.Context, requests []Request) (map[factorsources.ID][]factorsources.HDPublicKey, error)
}

// Collector drives a DerivationInteractor and validates its response.
type Collector struct {
	Interactor DerivationInteractor
}

// New builds a collector over the given interactor.
func New(interactor DerivationInteractor) *Collector {
	return &Collector{Interactor: interactor}
}

// Collect validates that every factor source id referenced in paths is
// present in factorSources, drives the interactor, and returns exactly one
// HD factor instance per requested path, grouped by factor source id
// (spec.md §4.6).
func (c *Collector) Collect(
	ctx context.Context,
	factorSourceIDs []factorsources.ID,
	paths map[factorsources.ID][]derivation.Path,
	purpose Purpose,
) (map[factorsources.ID][]factorsources.FactorInstance, error) {
	known := make(map[factorsources.ID]bool, len(factorSourceIDs))
	for _, id := range factorSourceIDs {
		known[id] = true
	}

	requests := make([]Request, 0, len(paths))
	for fsid, ps := range paths {
		if !known[fsid] {
			return nil, shielderr.Newf(shielderr.KindProfileDoesNotContainFactorSourceWithID, "factor source %s is not among the provided factor sources", fsid)
		}
		if len(ps) == 0 {
			continue
		}
		requests = append(requests, Request{FactorSourceID: fsid, Paths: append([]derivation.Path(nil), ps...)})
	}

	derived, err := c.Interactor.DerivePublicKeys(ctx, requests)
	if err != nil {
		return nil, shielderr.Wrap(shielderr.KindHostInteractionAborted, err, "deriving public keys")
	}

	result := make(map[factorsources.ID][]factorsources.FactorInstance, len(requests))
	for _, req := range requests {
		keys := derived[req.FactorSourceID]
		if len(keys) < len(req.Paths) {
			return nil, shielderr.Newf(shielderr.KindTooFewFactorInstancesDerived,
				"factor source %s: requested %d paths, interactor returned %d keys", req.FactorSourceID, len(req.Paths), len(keys))
		}
		instances := make([]factorsources.FactorInstance, len(req.Paths))
		for i, path := range req.Paths {
			key := keys[i]
			key.DerivationPath = path
			instances[i] = factorsources.FromHD(req.FactorSourceID, key)
		}
		result[req.FactorSourceID] = instances
	}
	return result, nil
}

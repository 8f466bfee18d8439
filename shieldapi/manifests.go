package shieldapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"shieldcore/addressing"
	"shieldcore/derivation"
	"shieldcore/factorsources"
	"shieldcore/hostinteractor"
	"shieldcore/keyscollector"
	"shieldcore/keyspace"
	"shieldcore/manifest"
	"shieldcore/nextindex"
	"shieldcore/securitystructure"
)

type securifyRequest struct {
	Network      string `json:"network"`
	Mnemonic     string `json:"mnemonic"`
	Passphrase   string `json:"passphrase"`
	DelayMinutes uint32 `json:"delayMinutes"`
}

// Securify derives a fresh primary-only structure for a device factor
// source and builds its securify-entity manifest (spec.md §4.10 item 1).
func (h *Handlers) Securify(w http.ResponseWriter, r *http.Request) {
	var req securifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	network, err := networkByName(req.Network)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	fsid, err := factorsources.IDFromMnemonic(req.Mnemonic, req.Passphrase, factorsources.KindDevice)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	interactor, err := hostinteractor.NewMnemonic(req.Mnemonic, req.Passphrase)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}

	assigner := nextindex.NewAssigner(h.svc.providerFor(network, interactor).Cache, nil)
	collector := keyscollector.New(interactor)

	txFamily := derivation.IndexAgnosticPath{Network: network, EntityKind: derivation.EntityKindAccount, KeyKind: derivation.KeyKindTransactionSigning, KeySpace: keyspace.Securified}
	authFamily := derivation.IndexAgnosticPath{Network: network, EntityKind: derivation.EntityKindAccount, KeyKind: derivation.KeyKindAuthenticationSigning, KeySpace: keyspace.Securified}

	txIndex, err := assigner.Next(fsid, txFamily)
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	authIndex, err := assigner.Next(fsid, authFamily)
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	paths := map[factorsources.ID][]derivation.Path{fsid: {txFamily.WithIndex(txIndex), authFamily.WithIndex(authIndex)}}
	derived, err := collector.Collect(ctx, []factorsources.ID{fsid}, paths, keyscollector.PurposeSecurifyingAccount)
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	txInstance := derived[fsid][0]
	authInstance := derived[fsid][1]

	primary := securitystructure.Role[factorsources.FactorInstance]{
		Threshold:        securitystructure.AllThreshold(),
		ThresholdFactors: []factorsources.FactorInstance{txInstance},
	}
	structure, err := securitystructure.NewInstanceMatrix(primary,
		securitystructure.Role[factorsources.FactorInstance]{}, securitystructure.Role[factorsources.FactorInstance]{},
		time.Duration(req.DelayMinutes)*time.Minute, authInstance, derivation.EntityKindAccount)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}

	ownerKeyHash, err := manifest.PublicKeyHashHex(authInstance)
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	owner := addressing.NewAddress(network, addressing.EntityTypeAccount, []byte(ownerKeyHash))

	m, err := h.svc.Securify(network, owner, derivation.EntityKindAccount, structure)
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, m)
}

type recoverRequest struct {
	Network            string  `json:"network"`
	FeePayer           string  `json:"feePayer"`
	AccessController   string  `json:"accessController"`
	Fee                float64 `json:"fee"`
	FeePayerXrdBalance float64 `json:"feePayerXrdBalance"`
	AcXrdBalance       float64 `json:"acXrdBalance"`
	PrimaryRoleLocked  bool    `json:"primaryRoleLocked"`
	VaultUnderfunded   bool    `json:"vaultUnderfunded"`
	QuickConfirm       bool    `json:"quickConfirm"`
}

// Recover builds the lock-fee/top-up prefix for a recovery transaction
// (spec.md §4.10 item 2).
func (h *Handlers) Recover(w http.ResponseWriter, r *http.Request) {
	var req recoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	network, err := networkByName(req.Network)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	if req.FeePayer == "" {
		writeError(w, errMissingFeePayer, http.StatusBadRequest)
		return
	}

	feePayer := addressing.NewAddress(network, addressing.EntityTypeAccount, []byte(req.FeePayer))

	var acAddr *addressing.Address
	if req.AccessController != "" {
		a := addressing.NewAddress(network, addressing.EntityTypeAccount, []byte(req.AccessController))
		acAddr = &a
	}

	data := manifest.LockFeeData{
		FeePayer:                feePayer,
		Fee:                     req.Fee,
		FeePayerXrdBalance:      req.FeePayerXrdBalance,
		AccessControllerAddress: acAddr,
	}

	var acState manifest.AccessControllerStateDetails
	if acAddr != nil {
		acState = manifest.AccessControllerStateDetails{
			Address:             *acAddr,
			XrdBalance:          req.AcXrdBalance,
			IsPrimaryRoleLocked: req.PrimaryRoleLocked,
			VaultUnderfunded:    req.VaultUnderfunded,
		}
	}

	combination := manifest.RolesExercisableInTransactionManifestCombination{
		Variant:      manifest.InitiateWithRecoveryCompleteWithPrimary,
		QuickConfirm: req.QuickConfirm,
	}

	m := h.svc.Recover(combination, data, acState, network)
	writeJSON(w, m)
}

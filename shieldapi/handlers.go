package shieldapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"shieldcore/addressing"
	"shieldcore/derivation"
	"shieldcore/factorsources"
	"shieldcore/hostinteractor"
	"shieldcore/keyscollector"
)

// Handlers adapts Service to net/http, grounded on walletserver/controllers'
// decode-request/call-service/encode-response shape.
type Handlers struct {
	svc *Service
}

func NewHandlers(svc *Service) *Handlers {
	return &Handlers{svc: svc}
}

func writeError(w http.ResponseWriter, err error, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

var (
	errUnknownNetwork  = errors.New("unknown network (want mainnet|stokenet)")
	errUnknownPreset   = errors.New("unknown preset (want AccountVeci|IdentityVeci|AccountMfa|IdentityMfa)")
	errMissingFeePayer = errors.New("feePayer is required")
)

type provideRequest struct {
	Network    string            `json:"network"`
	Mnemonic   string            `json:"mnemonic"`
	Passphrase string            `json:"passphrase"`
	Presets    map[string]uint32 `json:"presets"`
}

// Provide runs the factor-instances provider and returns the instances
// the caller should use directly (spec.md §4.7).
func (h *Handlers) Provide(w http.ResponseWriter, r *http.Request) {
	var req provideRequest
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
	requested := make(map[derivation.Preset]uint32, len(req.Presets))
	for name, qty := range req.Presets {
		preset, err := presetByName(name)
		if err != nil {
			writeError(w, err, http.StatusBadRequest)
			return
		}
		requested[preset] = qty
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	outcome, err := h.svc.Provide(ctx, network, interactor, fsid, requested, keyscollector.PurposeCreatingNewAccount)
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, outcome)
}

// Status reports the cache state for a factor source without deriving
// anything.
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	network, err := networkByName(r.URL.Query().Get("network"))
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	mnemonic := r.URL.Query().Get("mnemonic")
	passphrase := r.URL.Query().Get("passphrase")
	fsid, err := factorsources.IDFromMnemonic(mnemonic, passphrase, factorsources.KindDevice)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, h.svc.Status(network, fsid))
}

func networkByName(name string) (addressing.NetworkID, error) {
	switch name {
	case "mainnet", "":
		return addressing.Mainnet, nil
	case "stokenet":
		return addressing.Stokenet, nil
	default:
		return 0, errUnknownNetwork
	}
}

func presetByName(name string) (derivation.Preset, error) {
	for _, p := range derivation.AllPresets {
		if p.String() == name {
			return p, nil
		}
	}
	return 0, errUnknownPreset
}

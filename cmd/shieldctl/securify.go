package main

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"shieldcore/addressing"
	"shieldcore/derivation"
	"shieldcore/factorcache"
	"shieldcore/factorsources"
	"shieldcore/hostinteractor"
	"shieldcore/keyscollector"
	"shieldcore/keyspace"
	"shieldcore/manifest"
	"shieldcore/nextindex"
	"shieldcore/securitystructure"
)

type securifyFlags struct {
	mnemonic     string
	passphrase   string
	network      string
	delayMinutes uint32
}

func handleSecurify(cmd *cobra.Command, _ []string) error {
	sf := cmd.Context().Value(securifyFlagsKey{}).(securifyFlags)

	network, err := networkByName(sf.network)
	if err != nil {
		return err
	}
	fsid, err := factorsources.IDFromMnemonic(sf.mnemonic, sf.passphrase, factorsources.KindDevice)
	if err != nil {
		return err
	}
	interactor, err := hostinteractor.NewMnemonic(sf.mnemonic, sf.passphrase)
	if err != nil {
		return err
	}

	assigner := nextindex.NewAssigner(factorcache.New(), nil)
	collector := keyscollector.New(interactor)

	txFamily := derivation.IndexAgnosticPath{Network: network, EntityKind: derivation.EntityKindAccount, KeyKind: derivation.KeyKindTransactionSigning, KeySpace: keyspace.Securified}
	authFamily := derivation.IndexAgnosticPath{Network: network, EntityKind: derivation.EntityKindAccount, KeyKind: derivation.KeyKindAuthenticationSigning, KeySpace: keyspace.Securified}

	txIndex, err := assigner.Next(fsid, txFamily)
	if err != nil {
		return err
	}
	authIndex, err := assigner.Next(fsid, authFamily)
	if err != nil {
		return err
	}

	txPath := txFamily.WithIndex(txIndex)
	authPath := authFamily.WithIndex(authIndex)

	paths := map[factorsources.ID][]derivation.Path{fsid: {txPath, authPath}}
	derived, err := collector.Collect(context.Background(), []factorsources.ID{fsid}, paths, keyscollector.PurposeSecurifyingAccount)
	if err != nil {
		return err
	}
	txInstance := derived[fsid][0]
	authInstance := derived[fsid][1]

	primary := securitystructure.Role[factorsources.FactorInstance]{
		Threshold:        securitystructure.AllThreshold(),
		ThresholdFactors: []factorsources.FactorInstance{txInstance},
	}
	structure, err := securitystructure.NewInstanceMatrix(primary,
		securitystructure.Role[factorsources.FactorInstance]{}, securitystructure.Role[factorsources.FactorInstance]{},
		time.Duration(sf.delayMinutes)*time.Minute, authInstance, derivation.EntityKindAccount)
	if err != nil {
		return err
	}

	ownerKeyHash, err := manifest.PublicKeyHashHex(authInstance)
	if err != nil {
		return err
	}
	owner := addressing.NewAddress(network, addressing.EntityTypeAccount, []byte(ownerKeyHash))

	m, err := manifest.BuildSecurifyManifest(network, owner, derivation.EntityKindAccount, structure)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}

type securifyFlagsKey struct{}

var securifyCmd = &cobra.Command{
	Use:   "securify",
	Short: "Build a securify-entity manifest for a fresh primary-only structure",
	Args:  cobra.NoArgs,
	RunE:  handleSecurify,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		sf := securifyFlags{}
		sf.mnemonic, _ = cmd.Flags().GetString("mnemonic")
		sf.passphrase, _ = cmd.Flags().GetString("passphrase")
		sf.network, _ = cmd.Flags().GetString("network")
		sf.delayMinutes, _ = cmd.Flags().GetUint32("delay-minutes")
		if sf.mnemonic == "" {
			return errors.New("--mnemonic required")
		}
		cmd.SetContext(context.WithValue(cmd.Context(), securifyFlagsKey{}, sf))
		return nil
	},
}

func init() {
	securifyCmd.Flags().String("mnemonic", "", "BIP39 mnemonic for the device factor source")
	securifyCmd.Flags().String("passphrase", "", "optional BIP39 passphrase")
	securifyCmd.Flags().String("network", "mainnet", "mainnet|stokenet")
	securifyCmd.Flags().Uint32("delay-minutes", 10080, "timed recovery delay in minutes (default 7 days)")
}

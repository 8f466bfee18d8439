package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"shieldcore/derivation"
	"shieldcore/factorcache"
	"shieldcore/factorsources"
	"shieldcore/hostinteractor"
	"shieldcore/keyscollector"
	"shieldcore/nextindex"
	"shieldcore/provider"
	"shieldcore/telemetry"
)

type deriveFlags struct {
	mnemonic   string
	passphrase string
	network    string
	preset     string
	quantity   uint32
}

func handleDerive(cmd *cobra.Command, _ []string) error {
	df := cmd.Context().Value(deriveFlagsKey{}).(deriveFlags)

	network, err := networkByName(df.network)
	if err != nil {
		return err
	}
	preset, err := presetByName(df.preset)
	if err != nil {
		return err
	}

	fsid, err := factorsources.IDFromMnemonic(df.mnemonic, df.passphrase, factorsources.KindDevice)
	if err != nil {
		return err
	}

	interactor, err := hostinteractor.NewMnemonic(df.mnemonic, df.passphrase)
	if err != nil {
		return err
	}

	cache := factorcache.New()
	cache.SetMetrics(telemetry.NewCacheMetrics(defaultRegistry()))
	assigner := nextindex.NewAssigner(cache, nil)
	collector := keyscollector.New(interactor)
	p := provider.New(network, cache, assigner, collector)

	consumer, outcome, err := p.Provide(context.Background(), []factorsources.ID{fsid},
		map[derivation.Preset]uint32{preset: df.quantity}, keyscollector.PurposeCreatingNewAccount)
	if err != nil {
		return err
	}

	used := outcome.ToUseDirectly[preset][fsid]
	for _, inst := range used {
		path, _ := inst.DerivationPath()
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", inst.FactorSourceID, path.String())
	}

	if err := consumer.Consume(); err != nil {
		return err
	}
	logger.WithField("preset", preset).WithField("derived", len(outcome.ToCache[preset][fsid])).
		Info("derive complete")
	return nil
}

func presetByName(name string) (derivation.Preset, error) {
	for _, p := range derivation.AllPresets {
		if p.String() == name {
			return p, nil
		}
	}
	return 0, errors.New("unknown preset (want AccountVeci|IdentityVeci|AccountMfa|IdentityMfa)")
}

type deriveFlagsKey struct{}

var deriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "Provide factor instances for a mnemonic-backed device factor source",
	Args:  cobra.NoArgs,
	RunE:  handleDerive,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		df := deriveFlags{}
		df.mnemonic, _ = cmd.Flags().GetString("mnemonic")
		df.passphrase, _ = cmd.Flags().GetString("passphrase")
		df.network, _ = cmd.Flags().GetString("network")
		df.preset, _ = cmd.Flags().GetString("preset")
		df.quantity, _ = cmd.Flags().GetUint32("quantity")
		if df.mnemonic == "" {
			return errors.New("--mnemonic required")
		}
		if df.quantity == 0 {
			df.quantity = 1
		}
		cmd.SetContext(context.WithValue(cmd.Context(), deriveFlagsKey{}, df))
		return nil
	},
}

func init() {
	deriveCmd.Flags().String("mnemonic", "", "BIP39 mnemonic for the device factor source")
	deriveCmd.Flags().String("passphrase", "", "optional BIP39 passphrase")
	deriveCmd.Flags().String("network", "mainnet", "mainnet|stokenet")
	deriveCmd.Flags().String("preset", "AccountVeci", "AccountVeci|IdentityVeci|AccountMfa|IdentityMfa")
	deriveCmd.Flags().Uint32("quantity", 1, "number of instances requested")
}

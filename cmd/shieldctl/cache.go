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

type cacheFlags struct {
	mnemonic   string
	passphrase string
	network    string
}

func handleCache(cmd *cobra.Command, _ []string) error {
	cf := cmd.Context().Value(cacheFlagsKey{}).(cacheFlags)

	network, err := networkByName(cf.network)
	if err != nil {
		return err
	}
	fsid, err := factorsources.IDFromMnemonic(cf.mnemonic, cf.passphrase, factorsources.KindDevice)
	if err != nil {
		return err
	}
	interactor, err := hostinteractor.NewMnemonic(cf.mnemonic, cf.passphrase)
	if err != nil {
		return err
	}

	cache := factorcache.New()
	cache.SetMetrics(telemetry.NewCacheMetrics(defaultRegistry()))
	assigner := nextindex.NewAssigner(cache, nil)
	collector := keyscollector.New(interactor)
	p := provider.New(network, cache, assigner, collector)

	requested := map[derivation.Preset]uint32{}
	for _, preset := range derivation.AllPresets {
		requested[preset] = 1
	}
	consumer, _, err := p.Provide(context.Background(), []factorsources.ID{fsid}, requested, keyscollector.PurposeCreatingNewAccount)
	if err != nil {
		return err
	}
	if err := consumer.Consume(); err != nil {
		return err
	}

	for path, instances := range cache.PeekAll(fsid) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d cached\n", path, len(instances))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "full: %v\n", cache.IsFull(network, fsid))
	return nil
}

type cacheFlagsKey struct{}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Fill and print the factor-instance cache for a device factor source",
	Args:  cobra.NoArgs,
	RunE:  handleCache,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		cf := cacheFlags{}
		cf.mnemonic, _ = cmd.Flags().GetString("mnemonic")
		cf.passphrase, _ = cmd.Flags().GetString("passphrase")
		cf.network, _ = cmd.Flags().GetString("network")
		if cf.mnemonic == "" {
			return errors.New("--mnemonic required")
		}
		cmd.SetContext(context.WithValue(cmd.Context(), cacheFlagsKey{}, cf))
		return nil
	},
}

func init() {
	cacheCmd.Flags().String("mnemonic", "", "BIP39 mnemonic for the device factor source")
	cacheCmd.Flags().String("passphrase", "", "optional BIP39 passphrase")
	cacheCmd.Flags().String("network", "mainnet", "mainnet|stokenet")
}

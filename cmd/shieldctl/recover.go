package main

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"shieldcore/addressing"
	"shieldcore/manifest"
)

type recoverFlags struct {
	network            string
	feePayer           string
	accessController   string
	fee                float64
	feePayerXrdBalance float64
	acXrdBalance       float64
	primaryRoleLocked  bool
	vaultUnderfunded   bool
	quickConfirm       bool
}

// handleRecover builds an empty manifest's lock-fee/top-up prefix for a
// recovery transaction and prints the resulting instruction sequence; it
// demonstrates manifest.PrependLockFeeAndTopUp without needing a live
// ledger submission.
func handleRecover(cmd *cobra.Command, _ []string) error {
	rf := cmd.Context().Value(recoverFlagsKey{}).(recoverFlags)

	network, err := networkByName(rf.network)
	if err != nil {
		return err
	}

	feePayer := addressing.NewAddress(network, addressing.EntityTypeAccount, []byte(rf.feePayer))

	var acAddr *addressing.Address
	if rf.accessController != "" {
		a := addressing.NewAddress(network, addressing.EntityTypeAccount, []byte(rf.accessController))
		acAddr = &a
	}

	data := manifest.LockFeeData{
		FeePayer:                feePayer,
		Fee:                     rf.fee,
		FeePayerXrdBalance:      rf.feePayerXrdBalance,
		AccessControllerAddress: acAddr,
	}

	var acState manifest.AccessControllerStateDetails
	if acAddr != nil {
		acState = manifest.AccessControllerStateDetails{
			Address:             *acAddr,
			XrdBalance:          rf.acXrdBalance,
			IsPrimaryRoleLocked: rf.primaryRoleLocked,
			VaultUnderfunded:    rf.vaultUnderfunded,
		}
	}

	combination := manifest.RolesExercisableInTransactionManifestCombination{
		Variant:      manifest.InitiateWithRecoveryCompleteWithPrimary,
		QuickConfirm: rf.quickConfirm,
	}

	m := manifest.Manifest{Network: network}
	m = manifest.PrependLockFeeAndTopUp(m, combination, data, acState)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}

type recoverFlagsKey struct{}

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Build the lock-fee/top-up instruction prefix for a recovery transaction",
	Args:  cobra.NoArgs,
	RunE:  handleRecover,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		rf := recoverFlags{}
		rf.network, _ = cmd.Flags().GetString("network")
		rf.feePayer, _ = cmd.Flags().GetString("fee-payer")
		rf.accessController, _ = cmd.Flags().GetString("access-controller")
		rf.fee, _ = cmd.Flags().GetFloat64("fee")
		rf.feePayerXrdBalance, _ = cmd.Flags().GetFloat64("fee-payer-balance")
		rf.acXrdBalance, _ = cmd.Flags().GetFloat64("ac-balance")
		rf.primaryRoleLocked, _ = cmd.Flags().GetBool("primary-locked")
		rf.vaultUnderfunded, _ = cmd.Flags().GetBool("vault-underfunded")
		rf.quickConfirm, _ = cmd.Flags().GetBool("quick-confirm")
		if rf.feePayer == "" {
			return errors.New("--fee-payer required")
		}
		cmd.SetContext(context.WithValue(cmd.Context(), recoverFlagsKey{}, rf))
		return nil
	},
}

func init() {
	recoverCmd.Flags().String("network", "mainnet", "mainnet|stokenet")
	recoverCmd.Flags().String("fee-payer", "", "fee payer account address seed")
	recoverCmd.Flags().String("access-controller", "", "fee payer's access controller address seed, empty if unsecurified")
	recoverCmd.Flags().Float64("fee", 1.0, "lock fee amount")
	recoverCmd.Flags().Float64("fee-payer-balance", 10.0, "fee payer XRD balance")
	recoverCmd.Flags().Float64("ac-balance", 0.0, "access controller vault XRD balance")
	recoverCmd.Flags().Bool("primary-locked", false, "whether the access controller's primary role is currently locked")
	recoverCmd.Flags().Bool("vault-underfunded", false, "whether the access controller vault needs topping up")
	recoverCmd.Flags().Bool("quick-confirm", false, "whether this combination uses quick confirm")
}

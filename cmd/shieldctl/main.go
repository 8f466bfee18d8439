// ──────────────────────────────────────────────────────────────────────────
// shieldctl – security-structure core CLI
//
// Root command: `shieldctl`
// Sub-commands:
//
//	derive    – run the factor-instances provider for a mnemonic-backed
//	            device factor source and print what it would use/cache
//	securify  – build a securify-entity manifest for a given structure
//	recover   – build a recovery/lock-fee manifest for a given role
//	            combination
//	cache     – fill a fresh in-memory cache for a device factor source
//	            and print its state
//
// Env vars:
//
//	LOG_LEVEL   – trace|debug|info|warn|error (default info)
//	SHIELD_ENV  – optional config override name, see shieldconfig.Load
//
// ──────────────────────────────────────────────────────────────────────────
package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"shieldcore/shieldconfig"
	"shieldcore/telemetry"
)

var (
	logger = logrus.StandardLogger()
	once   sync.Once
)

func initMiddleware(cmd *cobra.Command, _ []string) error {
	var err error
	once.Do(func() {
		_ = godotenv.Load()
		lvl := os.Getenv("LOG_LEVEL")
		if lvl == "" {
			lvl = "info"
		}
		l, e := logrus.ParseLevel(lvl)
		if e != nil {
			err = e
			return
		}
		logger.SetLevel(l)
		telemetry.SetLogger(logger)

		if _, cfgErr := shieldconfig.LoadFromEnv(); cfgErr != nil {
			logger.WithError(cfgErr).Debug("no shieldconfig override loaded, using defaults")
		}
	})
	return err
}

var rootCmd = &cobra.Command{
	Use:               "shieldctl",
	Short:             "Security-structure core CLI: derive factor instances, build securify/recovery manifests",
	PersistentPreRunE: initMiddleware,
}

func main() {
	rootCmd.AddCommand(deriveCmd, cacheCmd, securifyCmd, recoverCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

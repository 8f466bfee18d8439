// Package telemetry centralizes logging and metrics for shieldctl and
// shieldapi: a single package-level logrus logger (grounded on
// core/wallet.go's SetWalletLogger/globalLogger seam) and the prometheus
// counters factorcache reports its hit/miss rate through (grounded on
// core/system_health_logging.go's registry/gauge/counter construction).
package telemetry

import "github.com/sirupsen/logrus"

var log = logrus.New()

// SetLogger replaces the package-level logger, the way core/wallet.go lets
// a host inject its own *logrus.Logger instead of the package default.
func SetLogger(l *logrus.Logger) {
	if l != nil {
		log = l
	}
}

// Logger returns the current package-level logger.
func Logger() *logrus.Logger { return log }

// Command shieldapi serves the factor-instances provider and manifest
// builders over HTTP, replacing the teacher's walletserver binary.
package main

import (
	"fmt"
	"net/http"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"shieldcore/shieldapi"
	"shieldcore/shieldconfig"
	"shieldcore/telemetry"
)

func main() {
	_ = godotenv.Load()
	cfg, err := shieldconfig.Load("")
	if err != nil {
		logrus.WithError(err).Fatal("loading config")
	}

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger := logrus.StandardLogger()
	logger.SetLevel(level)
	telemetry.SetLogger(logger)

	metrics := telemetry.NewCacheMetrics(processRegistry())
	svc := shieldapi.NewService(metrics)
	router := shieldapi.Router(shieldapi.NewHandlers(svc))

	addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
	logger.WithField("addr", addr).Info("shieldapi listening")
	if err := http.ListenAndServe(addr, router); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}

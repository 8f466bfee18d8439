package main

import "github.com/prometheus/client_golang/prometheus"

var processRegistry = prometheus.NewRegistry()

func defaultRegistry() *prometheus.Registry { return processRegistry }

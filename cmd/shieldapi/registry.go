package main

import "github.com/prometheus/client_golang/prometheus"

var registry = prometheus.NewRegistry()

func processRegistry() *prometheus.Registry { return registry }

/*
Package monitoring provides Prometheus metrics for the desktop engine.

# Overview

Metrics cover the HTTP control surface, lifecycle transitions, the resource
registry (acquisitions, releases, kills, teardown failures, long tasks), the
persistent store (saves, hydrations, pruning) and pointer gestures.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))

	// Tests use an isolated registry
	metrics := monitoring.NewMetricsWith(prometheus.NewRegistry())

A nil *Metrics is valid and records nothing.

# Metrics Endpoint

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetricsWith(reg)
	go metrics.TrackUptime(ctx)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
*/
package monitoring

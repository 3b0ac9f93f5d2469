/*
Package monitoring provides Prometheus metrics for the notebook backend.

# Overview

Metrics cover HTTP traffic, editor sessions (saves, syscalls, dropped frame
messages), decoration scans and frame websocket connections. Metrics
implements editor.Metrics, so a bridge reports into it directly.

# Usage

	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	timer := monitoring.NewTimer(metrics, "scan")
	// ... scan ...
	timer.Stop()
*/
package monitoring

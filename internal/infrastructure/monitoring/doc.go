/*
Package monitoring provides Prometheus metrics collection for desktopd.

# Overview

Tracks the desktop task population per display, minimize request outcomes,
transition lifecycle counts, HTTP traffic and WebSocket connections.

# Usage

	metrics := monitoring.New()
	metrics.SetDisplayStats(0, 7, 6, 1)
	metrics.IncMinimizeOutcome("confirmed")

# Metrics Endpoint

Expose via the standard Prometheus handler:

	import "github.com/prometheus/client_golang/prometheus/promhttp"
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring

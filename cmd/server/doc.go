// Package main is the entry point for the desktopd service.
//
// desktopd tracks freeform desktop tasks per display, enforces the
// per-display task limit through the transition pipeline, and exposes the
// resulting state over HTTP and WebSocket.
package main

// Package http provides the REST inspection and control surface for
// desktopd: display/task state queries, front/minimize/cleanup operations
// and session snapshot management.
package http

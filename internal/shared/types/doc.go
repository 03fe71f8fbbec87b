// Package types provides shared data structures for the desktopd service.
//
// Core Types:
//   - TaskID, DisplayID: opaque identifiers for tasks and displays
//   - TaskInfo: running task descriptor from the window organizer
//   - DisplayStats: per-display desktop statistics
//   - DesktopEvent: repository change event for WebSocket subscribers
package types

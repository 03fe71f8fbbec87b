// Package session provides desktop layout snapshots.
//
// A snapshot captures every display's active task order, visibility and
// minimized flags. Snapshots are written as gzip-compressed JSON files and
// can be replayed into the repository to reproduce a saved layout.
package session

// Package transition implements the asynchronous window transition
// pipeline: batched hierarchy mutations are started under a token, become
// ready with observed per-task changes, may be merged into another
// transition, and eventually finish.
//
// Lifecycle: Start -> (NotifyMerged)* -> NotifyReady -> NotifyFinished.
// Observers registered with RegisterObserver see every lifecycle event for
// every transition and filter by token themselves.
package transition

// Package desktop implements freeform desktop-mode task bookkeeping.
//
// Components:
//   - Repository: canonical per-display record of active tasks, their
//     front-to-back order, visibility and minimized flags
//   - Limiter: enforces the per-display cap on unminimized tasks and
//     reconciles requested minimizes against the asynchronous transition
//     pipeline
//   - Controller: caller-facing operations (move to front, minimize,
//     display cleanup) that batch hierarchy changes into transitions
//
// The limiter never marks a task minimized when it requests the reorder;
// it records a pending change keyed by the transition token and commits
// only when the transition's ready callback proves the task went to the
// back (or the repository already sees it hidden). Unconfirmed requests
// are dropped, which means the limit can be transiently exceeded until the
// next front-task insertion re-evaluates it.
package desktop

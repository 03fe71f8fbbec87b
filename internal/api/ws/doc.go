// Package ws streams desktop repository change events over WebSocket.
//
// The handler registers as a repository listener; every visibility,
// minimize and task lifecycle change is broadcast to all subscribers.
package ws

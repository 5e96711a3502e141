// Package ws provides WebSocket connection handling and message routing
// for live question sessions.
//
// The package implements:
//   - Client: one channel plus the role/session identity bound to it
//   - Router: session-indexed client sets with best-effort broadcast
//   - Handler: the protocol state machine (join, setQuestion, answer,
//     reveal) over the session registry
//
// Key properties:
//   - A channel has no identity before its first join frame; frames of
//     other types arriving earlier are ignored
//   - Broadcast is at-most-once and unordered across recipients; summaries
//     are idempotent full-state snapshots, not deltas
//   - Liveness uses ping/pong heartbeats; a channel that stops answering
//     probes is evicted and its membership removed from the session
package ws

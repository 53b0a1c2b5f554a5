// Package notifications surfaces pipeline events to the user as push
// notifications. An ntfy-backed implementation is used when a topic is
// configured; otherwise a noop service keeps callers unconditional.
package notifications

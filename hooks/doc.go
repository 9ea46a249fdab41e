// Package hooks replaces implicit callback registration with an explicit
// dispatcher: a mapping from event kind to an ordered list of handlers that
// run synchronously when the host platform emits an event.
//
// Handlers registered for the same kind run in registration order. A failing
// handler never prevents later handlers from running; all errors are joined
// and returned to the emitter, which is free to ignore them.
package hooks

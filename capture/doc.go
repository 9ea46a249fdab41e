// Package capture translates host-platform events into audit records. Each
// adapter is stateless: it inspects one event, decides whether it is worth
// recording and hands action plus detail text to the activity logger.
// Logging failures are reported through the logger and never surface to the
// code path that emitted the event.
package capture

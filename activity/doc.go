// Package activity provides the default persistence for tracked events. The
// Repository implements types.EventStore over the user_activity_log table:
// rows are appended by the activity logger, listed newest first by the admin
// views and removed only by the retention sweep. Host applications can swap
// the store if they prefer a different storage engine.
package activity

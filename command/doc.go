// Package command exposes go-command compatible command handlers implementing
// the tracker write paths: the activity logger, the retention sweep, presence
// marking and the file-change scan. Commands are wired by the service layer
// and can be invoked by any transport or scheduler.
package command

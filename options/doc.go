// Package options stores host-wide configuration values as JSON documents in
// the tracker_options table. Updates that change a stored value emit the
// option_updated hook so configuration changes land in the audit log, while
// the tracker's own file watch mapping is persisted silently.
package options

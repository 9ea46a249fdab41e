// Package query exposes go-command queriers backing the admin activity view,
// the active actor widgets and the dashboard counters.
package query

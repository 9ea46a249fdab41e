// Package presence tracks when actors were last seen and answers "who is
// currently active". Entries are kept per actor and overwritten on every
// observed activity. Storage is pluggable: a Bun table for single-node
// installs and a Redis sorted set when several nodes share presence.
package presence

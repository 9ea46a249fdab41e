// Package goauth connects the tracker to go-auth: account lookups for the
// admin views and login hook emission for the authentication flow.
package goauth

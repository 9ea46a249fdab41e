// Package httpapi exposes the tracker over go-router: the admin activity and
// dashboard views, the presence ping and pull endpoints used by the admin
// UI, and the hook ingestion endpoint the host platform forwards events to.
//
// Every endpoint requires an authenticated actor. Admin views additionally
// require the administrator role.
package httpapi

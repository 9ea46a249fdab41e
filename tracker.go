package tracker

import "github.com/goliatone/go-user-tracker/service"

// Re-export the service package entry point so consumers can do
// `tracker.New(...)` without importing internal wiring helpers.
type (
	Service  = service.Service
	Config   = service.Config
	Commands = service.Commands
	Queries  = service.Queries
)

// New constructs the go-user-tracker runtime using the provided configuration.
func New(cfg Config) *Service {
	return service.New(cfg)
}

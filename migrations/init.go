package migrations

import (
	"io/fs"

	tracker "github.com/goliatone/go-user-tracker"
)

// TrackerSource labels the tables shipped with go-user-tracker.
const TrackerSource = "go-user-tracker"

func init() {
	trackerFS, err := fs.Sub(tracker.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return
	}
	Register(TrackerSource, trackerFS)
}

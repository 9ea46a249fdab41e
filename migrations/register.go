package migrations

import (
	"io/fs"
	"sync"
)

// Source is a labelled migration filesystem laid out with postgres files at
// the root and sqlite overrides under sqlite/.
type Source struct {
	Label string
	FS    fs.FS
}

var (
	sourcesMu sync.RWMutex
	sources   []Source
)

// Register adds a migration filesystem under label. Nil filesystems are ignored.
func Register(label string, fsys fs.FS) {
	if fsys == nil {
		return
	}
	sourcesMu.Lock()
	sources = append(sources, Source{Label: label, FS: fsys})
	sourcesMu.Unlock()
}

// Sources returns the registered sources in registration order.
func Sources() []Source {
	sourcesMu.RLock()
	defer sourcesMu.RUnlock()
	return append([]Source(nil), sources...)
}

// Filesystems returns the registered filesystems in registration order.
func Filesystems() []fs.FS {
	all := Sources()
	out := make([]fs.FS, 0, len(all))
	for _, src := range all {
		out = append(out, src.FS)
	}
	return out
}

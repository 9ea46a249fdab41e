package scanner

import (
	"fmt"
	"html"
	"path/filepath"
	"sort"

	"github.com/goliatone/go-user-tracker/pkg/types"
)

// Change describes one file whose modification time moved since the prior
// scan.
type Change struct {
	Path     string
	Previous int64
	Current  int64
}

// Details renders the audit detail text for the change.
func (c Change) Details() string {
	return Details(c.Path)
}

// Details renders the audit detail text for a modified file: a link whose
// target is the raw path and whose label is the escaped base name.
func Details(path string) string {
	return fmt.Sprintf(`File: <a href="%s" target="_blank">%s</a>`, path, html.EscapeString(filepath.Base(path)))
}

// Diff compares the current scan against the prior mapping. A change is
// reported only for paths present in prior whose timestamp differs; first
// sightings are recorded silently. The returned mapping is prior overwritten
// by every current entry, so entries for deleted files are kept. Changes are
// ordered by path.
func Diff(prior, current types.FileTimes) (types.FileTimes, []Change) {
	next := prior.Clone()
	var changes []Change
	for path, mtime := range current {
		if previous, ok := prior[path]; ok && previous != mtime {
			changes = append(changes, Change{Path: path, Previous: previous, Current: mtime})
		}
		next[path] = mtime
	}
	sort.Slice(changes, func(i, j int) bool {
		return changes[i].Path < changes[j].Path
	})
	return next, changes
}

package scanner

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goliatone/go-user-tracker/pkg/types"
)

// Walk enumerates every regular file below each root and records its
// modification time in unix seconds. Roots that do not exist are skipped.
func Walk(roots []string) (types.FileTimes, error) {
	out := make(types.FileTimes)
	for _, root := range roots {
		if root == "" {
			continue
		}
		if _, err := os.Stat(root); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return nil
				}
				return err
			}
			if !entry.Type().IsRegular() {
				return nil
			}
			info, err := entry.Info()
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return nil
				}
				return err
			}
			out[path] = info.ModTime().Unix()
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

package options

import (
	"context"
	"errors"

	"github.com/goliatone/go-user-tracker/pkg/types"
)

// FileTimesOption is the reserved option holding the file watch mapping.
const FileTimesOption = "tracker_file_mod_times"

// FileWatchStore persists the scanner mapping as a single option value.
type FileWatchStore struct {
	repo *Repository
}

// NewFileWatchStore wraps the option repository.
func NewFileWatchStore(repo *Repository) (*FileWatchStore, error) {
	if repo == nil {
		return nil, errors.New("options: repository required")
	}
	return &FileWatchStore{repo: repo}, nil
}

var _ types.FileWatchStore = (*FileWatchStore)(nil)

// LoadFileTimes returns the stored mapping or an empty one.
func (s *FileWatchStore) LoadFileTimes(ctx context.Context) (types.FileTimes, error) {
	times := types.FileTimes{}
	if _, err := s.repo.loadJSON(ctx, FileTimesOption, &times); err != nil {
		return nil, err
	}
	if times == nil {
		times = types.FileTimes{}
	}
	return times, nil
}

// SaveFileTimes replaces the stored mapping.
func (s *FileWatchStore) SaveFileTimes(ctx context.Context, times types.FileTimes) error {
	if times == nil {
		times = types.FileTimes{}
	}
	return s.repo.put(ctx, FileTimesOption, times)
}

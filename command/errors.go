package command

import (
	"errors"

	"github.com/goliatone/go-user-tracker/pkg/types"
)

var (
	// ErrActorRequired indicates an actor reference was not supplied.
	ErrActorRequired = types.ErrActorRequired
	// ErrActionRequired indicates an activity entry is missing its action.
	ErrActionRequired = types.ErrActionRequired
	// ErrRetentionNegative occurs when a sweep is configured with a negative age.
	ErrRetentionNegative = errors.New("go-user-tracker: retention must not be negative")
	// ErrActivityLoggerRequired occurs when the code scan has nowhere to log changes.
	ErrActivityLoggerRequired = errors.New("go-user-tracker: activity logger required")
)

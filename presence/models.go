package presence

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Entry models the tracker_presence row. ID is the actor id.
type Entry struct {
	bun.BaseModel `bun:"table:tracker_presence"`

	ID           uuid.UUID `bun:"id,pk,type:uuid"`
	LastActiveAt time.Time `bun:"last_active_at"`
}

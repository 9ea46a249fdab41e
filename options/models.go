package options

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Record models the tracker_options row. Value holds the JSON encoding of
// the option value.
type Record struct {
	bun.BaseModel `bun:"table:tracker_options"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	Name      string    `bun:"name"`
	Value     string    `bun:"value"`
	UpdatedAt time.Time `bun:"updated_at"`
}

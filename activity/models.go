package activity

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// LogEntry models the persisted row in user_activity_log.
type LogEntry struct {
	bun.BaseModel `bun:"table:user_activity_log"`

	ID        int64     `bun:"id,pk,autoincrement"`
	ActorID   uuid.UUID `bun:"actor_id,type:uuid"`
	Action    string    `bun:"action"`
	Details   string    `bun:"details"`
	IPAddress string    `bun:"ip_address"`
	CreatedAt time.Time `bun:"created_at"`
}

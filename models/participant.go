package models

import (
	"time"
)

// Participant is one join/leave span of a user in a room. A user that
// rejoins a room gets a new row; old rows are kept as an audit trail.
// The row with a NULL left_at is the user's currently active span, and
// there is at most one of those per (room, user).
type Participant struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	RoomID    uint       `gorm:"not null;index:idx_participants_room" json:"room_id"`
	UserID    uint       `gorm:"not null;index:idx_participants_user" json:"user_id"`
	JoinedAt  time.Time  `json:"joined_at"`
	LeftAt    *time.Time `json:"left_at,omitempty"`
	Muted     bool       `gorm:"default:false" json:"muted"`
	Banned    bool       `gorm:"default:false" json:"banned"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Active reports whether this span is still open.
func (p *Participant) Active() bool {
	return p.LeftAt == nil
}

package models

import (
	"time"

	"gorm.io/gorm"
)

type Room struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:255;not null" json:"name"`
	Description string `gorm:"size:1024" json:"description,omitempty"`
	ImageURL    string `gorm:"size:512" json:"image_url,omitempty"`
	OwnerID     uint   `gorm:"not null;index" json:"owner_id"`
	Capacity    int    `gorm:"not null;default:4" json:"capacity"`
	Secret      string `gorm:"size:255" json:"-"`
	// Name of the room on the video backend. Set lazily on the first
	// successful join and never changed afterwards.
	ExternalRoomID *string        `gorm:"size:64;uniqueIndex" json:"external_room_id,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// HasSecret reports whether joining this room requires a shared secret.
func (r *Room) HasSecret() bool {
	return r.Secret != ""
}

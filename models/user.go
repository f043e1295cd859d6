package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User is an account on the study platform. The nickname is what other
// participants see in a room; the daily goal feeds the focus stats.
type User struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Nickname         string    `gorm:"size:64;not null" json:"nickname"`
	Email            string    `gorm:"size:255;not null;unique" json:"email"`
	Password         string    `gorm:"size:255;not null" json:"-"`
	AvatarURL        string    `gorm:"size:512" json:"avatar_url,omitempty"`
	DailyGoalMinutes int       `gorm:"default:0" json:"daily_goal_minutes"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// BeforeSave hashes the password before it hits the database.
func (u *User) BeforeSave(tx *gorm.DB) error {
	if u.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		u.Password = string(hashed)
	}
	return nil
}

// ValidatePassword checks the supplied password against the stored hash.
func (u *User) ValidatePassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
}

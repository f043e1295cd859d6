package occupancy

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/studycrew/studyroom_backend/models"
)

// Ledger is the participancy ledger: join/leave spans per (room, user).
// Rows are never deleted; leaving only sets left_at.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// ActiveCount returns how many users currently hold an open span in the room.
func (l *Ledger) ActiveCount(ctx context.Context, roomID uint) (int64, error) {
	var count int64
	err := l.db.WithContext(ctx).Model(&models.Participant{}).
		Where("room_id = ? AND left_at IS NULL", roomID).
		Count(&count).Error
	return count, err
}

// ActiveParticipants returns the open spans for a room.
func (l *Ledger) ActiveParticipants(ctx context.Context, roomID uint) ([]models.Participant, error) {
	var participants []models.Participant
	err := l.db.WithContext(ctx).
		Where("room_id = ? AND left_at IS NULL", roomID).
		Order("joined_at asc").
		Find(&participants).Error
	return participants, err
}

// ActiveSpan returns the user's open span in the room, or ErrNotActive.
func (l *Ledger) ActiveSpan(ctx context.Context, roomID, userID uint) (*models.Participant, error) {
	var p models.Participant
	err := l.db.WithContext(ctx).
		Where("room_id = ? AND user_id = ? AND left_at IS NULL", roomID, userID).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotActive
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Close sets left_at on the user's open span in the room. It reports
// whether a span was actually closed; closing a user that is not active
// is a no-op, not an error, so duplicate leave deliveries converge.
func (l *Ledger) Close(ctx context.Context, roomID, userID uint) (bool, error) {
	res := l.db.WithContext(ctx).Model(&models.Participant{}).
		Where("room_id = ? AND user_id = ? AND left_at IS NULL", roomID, userID).
		Update("left_at", time.Now())
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CloseAll sets left_at on every open span in the room and returns how
// many spans were closed. Idempotent: a second call closes nothing.
func (l *Ledger) CloseAll(ctx context.Context, roomID uint) (int64, error) {
	res := l.db.WithContext(ctx).Model(&models.Participant{}).
		Where("room_id = ? AND left_at IS NULL", roomID).
		Update("left_at", time.Now())
	return res.RowsAffected, res.Error
}

// SetMuted flips the muted flag on the user's open span.
func (l *Ledger) SetMuted(ctx context.Context, roomID, userID uint, muted bool) error {
	res := l.db.WithContext(ctx).Model(&models.Participant{}).
		Where("room_id = ? AND user_id = ? AND left_at IS NULL", roomID, userID).
		Update("muted", muted)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotActive
	}
	return nil
}

// Ban marks the user banned in the room and closes their open span.
// The flag lives on the participancy rows so it survives any later
// join/leave history. A user that never joined gets a marker row.
func (l *Ledger) Ban(ctx context.Context, roomID, userID uint) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&models.Participant{}).
			Where("room_id = ? AND user_id = ?", roomID, userID).
			Update("banned", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			marker := models.Participant{
				RoomID:   roomID,
				UserID:   userID,
				JoinedAt: now,
				LeftAt:   &now,
				Banned:   true,
			}
			return tx.Create(&marker).Error
		}
		return tx.Model(&models.Participant{}).
			Where("room_id = ? AND user_id = ? AND left_at IS NULL", roomID, userID).
			Update("left_at", now).Error
	})
}

// IsBanned reports whether any span for (room, user) carries the ban flag.
func (l *Ledger) IsBanned(ctx context.Context, roomID, userID uint) (bool, error) {
	var count int64
	err := l.db.WithContext(ctx).Model(&models.Participant{}).
		Where("room_id = ? AND user_id = ? AND banned = ?", roomID, userID, true).
		Count(&count).Error
	return count > 0, err
}

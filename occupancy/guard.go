package occupancy

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/studycrew/studyroom_backend/models"
)

// Guard makes the admission decision for join attempts. All checks and
// the span insert run inside one transaction under the per-room lock,
// so two joiners contending for the last seat are serialized: exactly
// one gets it and the other observes the full room.
type Guard struct {
	db    *gorm.DB
	locks *keyedMutex
}

func newGuard(db *gorm.DB, locks *keyedMutex) *Guard {
	return &Guard{db: db, locks: locks}
}

// TryJoin admits userID into roomID or rejects with an AdmissionError /
// ErrRoomNotFound. On admission it creates and returns the new open
// span. Checks run in a fixed order: room exists, secret, not already
// active, not banned, seat available.
func (g *Guard) TryJoin(ctx context.Context, roomID, userID uint, secret string) (*models.Participant, error) {
	unlock := g.locks.Lock(roomID)
	defer unlock()

	var participant *models.Participant
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var room models.Room
		if err := tx.First(&room, roomID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoomNotFound
			}
			return err
		}

		if room.HasSecret() {
			supplied := strings.TrimSpace(secret)
			if supplied == "" {
				return &AdmissionError{Reason: ReasonSecretRequired}
			}
			if supplied != room.Secret {
				return &AdmissionError{Reason: ReasonSecretInvalid}
			}
		}

		var active int64
		if err := tx.Model(&models.Participant{}).
			Where("room_id = ? AND user_id = ? AND left_at IS NULL", roomID, userID).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return &AdmissionError{Reason: ReasonAlreadyActive}
		}

		var banned int64
		if err := tx.Model(&models.Participant{}).
			Where("room_id = ? AND user_id = ? AND banned = ?", roomID, userID, true).
			Count(&banned).Error; err != nil {
			return err
		}
		if banned > 0 {
			return &AdmissionError{Reason: ReasonBanned}
		}

		var occupied int64
		if err := tx.Model(&models.Participant{}).
			Where("room_id = ? AND left_at IS NULL", roomID).
			Count(&occupied).Error; err != nil {
			return err
		}
		if occupied >= int64(room.Capacity) {
			return &AdmissionError{
				Reason:   ReasonRoomFull,
				Current:  int(occupied),
				Capacity: room.Capacity,
			}
		}

		participant = &models.Participant{
			RoomID:   roomID,
			UserID:   userID,
			JoinedAt: time.Now(),
		}
		return tx.Create(participant).Error
	})
	if err != nil {
		return nil, err
	}
	return participant, nil
}

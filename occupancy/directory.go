package occupancy

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studycrew/studyroom_backend/models"
)

// Namespace for deriving video-backend room names. Fixed so the same
// room always derives the same name.
var externalRoomNamespace = uuid.MustParse("8c3f9a1e-4b2d-4f06-9d35-7a61c0de5b14")

// ExternalRoomName deterministically derives the video-backend room
// name for a room. Derivation is pure: concurrent callers for the same
// room compute the same name.
func ExternalRoomName(roomID uint) string {
	id := uuid.NewSHA1(externalRoomNamespace, []byte(strconv.FormatUint(uint64(roomID), 10)))
	return "study-" + id.String()
}

// Directory reads rooms and owns the room -> external-room mapping.
type Directory struct {
	db *gorm.DB
}

func NewDirectory(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

// Room loads a room by id, excluding soft-deleted rooms.
func (d *Directory) Room(ctx context.Context, roomID uint) (*models.Room, error) {
	var room models.Room
	if err := d.db.WithContext(ctx).First(&room, roomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return &room, nil
}

// RoomByExternalID resolves a video-backend room name back to the room
// it was derived for. Soft-deleted rooms still resolve, since lifecycle
// events for them can arrive after teardown.
func (d *Directory) RoomByExternalID(ctx context.Context, externalID string) (*models.Room, error) {
	var room models.Room
	err := d.db.WithContext(ctx).Unscoped().
		Where("external_room_id = ?", externalID).
		First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// EnsureExternalRoom returns the room's external name, deriving and
// persisting it on first use. The write is a compare-and-set on the
// NULL column; if a concurrent caller committed first, the stored value
// is adopted instead of overwritten. Nothing is returned unless it was
// durably committed.
func (d *Directory) EnsureExternalRoom(ctx context.Context, room *models.Room) (string, error) {
	if room.ExternalRoomID != nil && *room.ExternalRoomID != "" {
		return *room.ExternalRoomID, nil
	}

	name := ExternalRoomName(room.ID)
	res := d.db.WithContext(ctx).Model(&models.Room{}).
		Where("id = ? AND external_room_id IS NULL", room.ID).
		Update("external_room_id", name)
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 {
		// Lost the race (or the row is gone); adopt whatever is stored.
		var fresh models.Room
		if err := d.db.WithContext(ctx).Unscoped().First(&fresh, room.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return "", ErrRoomNotFound
			}
			return "", err
		}
		if fresh.ExternalRoomID == nil || *fresh.ExternalRoomID == "" {
			return "", ErrConflict
		}
		room.ExternalRoomID = fresh.ExternalRoomID
		return *fresh.ExternalRoomID, nil
	}

	room.ExternalRoomID = &name
	return name, nil
}

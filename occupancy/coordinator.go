package occupancy

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/studycrew/studyroom_backend/models"
)

// EventKind is a lifecycle notification kind from the video backend.
type EventKind string

const (
	EventJoined       EventKind = "joined"
	EventLeft         EventKind = "left"
	EventRoomFinished EventKind = "room_finished"
)

// ExternalRoomCloser asks the video backend to force-close a room,
// evicting any clients still connected to it.
type ExternalRoomCloser interface {
	CloseRoom(ctx context.Context, externalRoomID string) error
}

// IdentityResolver maps between internal user ids and the stable
// identity strings used on the video backend.
type IdentityResolver interface {
	IdentityFor(userID uint) string
	UserForIdentity(identity string) (uint, bool)
}

// Notifier pushes occupancy changes to connected clients. Implemented
// by the websocket hub; may be nil.
type Notifier interface {
	RoomEvent(roomID uint, event string, payload interface{})
}

// Coordinator ties the directory, ledger and guard together and applies
// lifecycle events reported by the video backend.
type Coordinator struct {
	db        *gorm.DB
	directory *Directory
	ledger    *Ledger
	guard     *Guard
	locks     *keyedMutex
	identity  IdentityResolver
	closer    ExternalRoomCloser
	notifier  Notifier

	// Bound on the best-effort external close during teardown.
	closeTimeout time.Duration
}

func NewCoordinator(db *gorm.DB, identity IdentityResolver, closer ExternalRoomCloser, notifier Notifier) *Coordinator {
	locks := newKeyedMutex()
	return &Coordinator{
		db:           db,
		directory:    NewDirectory(db),
		ledger:       NewLedger(db),
		guard:        newGuard(db, locks),
		locks:        locks,
		identity:     identity,
		closer:       closer,
		notifier:     notifier,
		closeTimeout: 5 * time.Second,
	}
}

func (c *Coordinator) Directory() *Directory { return c.directory }
func (c *Coordinator) Ledger() *Ledger       { return c.ledger }

// Join admits the user and ensures the room's external mapping exists.
// It returns the new span and the external room name to mint a
// credential for. If the mapping write fails after admission the span
// stays; the user is joined and leaves through the normal paths.
func (c *Coordinator) Join(ctx context.Context, roomID, userID uint, secret string) (*models.Participant, string, error) {
	participant, err := c.guard.TryJoin(ctx, roomID, userID, secret)
	if err != nil {
		return nil, "", err
	}

	room, err := c.directory.Room(ctx, roomID)
	if err != nil {
		return participant, "", err
	}
	externalID, err := c.directory.EnsureExternalRoom(ctx, room)
	if err != nil {
		return participant, "", err
	}

	if c.notifier != nil {
		c.notifier.RoomEvent(roomID, "participant_joined", participant)
	}
	return participant, externalID, nil
}

// Rejoin validates that the user still holds an open span and returns
// the external room name for a fresh credential. It never re-runs
// admission and never touches the ledger.
func (c *Coordinator) Rejoin(ctx context.Context, roomID, userID uint) (string, error) {
	if _, err := c.ledger.ActiveSpan(ctx, roomID, userID); err != nil {
		return "", err
	}
	room, err := c.directory.Room(ctx, roomID)
	if err != nil {
		return "", err
	}
	return c.directory.EnsureExternalRoom(ctx, room)
}

// Leave closes the caller's open span. Leaving a room the caller is not
// active in is a no-op.
func (c *Coordinator) Leave(ctx context.Context, roomID, userID uint) error {
	closed, err := c.ledger.Close(ctx, roomID, userID)
	if err != nil {
		return err
	}
	if closed && c.notifier != nil {
		c.notifier.RoomEvent(roomID, "participant_left", map[string]uint{"user_id": userID})
	}
	return nil
}

// HandleLifecycleEvent applies a lifecycle notification from the video
// backend. Events that cannot be resolved to a known room or user are
// logged and dropped: the backend delivers at least once, out of order,
// and may reference rooms this service never admitted. An owner
// departure cascades to full room teardown.
func (c *Coordinator) HandleLifecycleEvent(ctx context.Context, kind EventKind, externalRoomID, identity string) error {
	switch kind {
	case EventJoined:
		// Admission is the only path that opens spans.
		log.Debug().Str("external_room", externalRoomID).Str("identity", identity).
			Msg("ignoring joined event from video backend")
		return nil
	case EventLeft, EventRoomFinished:
	default:
		log.Warn().Str("kind", string(kind)).Msg("unknown lifecycle event kind")
		return nil
	}

	room, err := c.directory.RoomByExternalID(ctx, externalRoomID)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			log.Info().Str("external_room", externalRoomID).
				Msg("lifecycle event for unknown room, dropping")
			return nil
		}
		return err
	}

	if kind == EventRoomFinished {
		// Backend already closed the room; only local state needs to
		// catch up.
		return c.teardown(ctx, room, false)
	}

	userID, ok := c.identity.UserForIdentity(identity)
	if !ok {
		log.Info().Str("identity", identity).
			Msg("lifecycle event for unknown identity, dropping")
		return nil
	}

	if userID == room.OwnerID {
		return c.teardown(ctx, room, true)
	}

	closed, err := c.ledger.Close(ctx, room.ID, userID)
	if err != nil {
		return err
	}
	if closed && c.notifier != nil {
		c.notifier.RoomEvent(room.ID, "participant_left", map[string]uint{"user_id": userID})
	}
	return nil
}

// BanUser marks the user banned in the room and ends their session.
// The ban runs under the room lock: a join racing the ban either
// commits first (and the ban closes its span) or runs after and sees
// the ban flag. It cannot commit a fresh span from pre-ban state.
func (c *Coordinator) BanUser(ctx context.Context, roomID, userID uint) error {
	unlock := c.locks.Lock(roomID)
	defer unlock()
	return c.ledger.Ban(ctx, roomID, userID)
}

// TeardownRoom closes every open span in the room and asks the video
// backend to force-close its external room.
func (c *Coordinator) TeardownRoom(ctx context.Context, room *models.Room) error {
	return c.teardown(ctx, room, true)
}

// DeleteRoom soft-deletes the room and tears it down. The delete runs
// under the room lock so admission serializes against it: a join either
// commits before the delete (and the teardown closes its span) or runs
// after and finds no room. No span can slip in between the delete and
// the teardown.
func (c *Coordinator) DeleteRoom(ctx context.Context, room *models.Room) error {
	unlock := c.locks.Lock(room.ID)
	err := c.db.WithContext(ctx).Delete(room).Error
	unlock()
	if err != nil {
		return err
	}
	return c.teardown(ctx, room, true)
}

// teardown is idempotent: once all spans are closed, repeated calls do
// nothing and issue no further close requests. The external close is
// best-effort; a failure is logged and reported to the breaker but the
// local state change is never rolled back.
func (c *Coordinator) teardown(ctx context.Context, room *models.Room, closeExternal bool) error {
	// Only the ledger write needs the room lock; the external close must
	// not hold up concurrent admission decisions.
	unlock := c.locks.Lock(room.ID)
	closed, err := c.ledger.CloseAll(ctx, room.ID)
	unlock()
	if err != nil {
		return err
	}
	if closed == 0 {
		return nil
	}

	if c.notifier != nil {
		c.notifier.RoomEvent(room.ID, "room_closed", map[string]uint{"room_id": room.ID})
	}

	if closeExternal && c.closer != nil && room.ExternalRoomID != nil {
		closeCtx, cancel := context.WithTimeout(ctx, c.closeTimeout)
		defer cancel()
		if err := c.closer.CloseRoom(closeCtx, *room.ExternalRoomID); err != nil {
			log.Warn().Err(err).Str("external_room", *room.ExternalRoomID).
				Msg("failed to close external room, cleanup will retry out of band")
		}
	}
	return nil
}

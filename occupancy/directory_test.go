package occupancy

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studycrew/studyroom_backend/models"
)

func TestExternalRoomNameDeterministic(t *testing.T) {
	assert.Equal(t, ExternalRoomName(7), ExternalRoomName(7))
	assert.NotEqual(t, ExternalRoomName(7), ExternalRoomName(8))
	assert.Contains(t, ExternalRoomName(7), "study-")
}

func TestEnsureExternalRoomIdempotent(t *testing.T) {
	db := newTestDB(t)
	dir := NewDirectory(db)
	room := createRoom(t, db, 1, 4, "")
	ctx := context.Background()

	first, err := dir.EnsureExternalRoom(ctx, room)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := dir.EnsureExternalRoom(ctx, room)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// The mapping is durable, not just cached on the struct.
	var stored models.Room
	require.NoError(t, db.First(&stored, room.ID).Error)
	require.NotNil(t, stored.ExternalRoomID)
	assert.Equal(t, first, *stored.ExternalRoomID)
}

func TestEnsureExternalRoomAdoptsStoredValue(t *testing.T) {
	db := newTestDB(t)
	dir := NewDirectory(db)
	room := createRoom(t, db, 1, 4, "")
	ctx := context.Background()

	// Another instance committed a mapping first.
	require.NoError(t, db.Model(&models.Room{}).Where("id = ?", room.ID).
		Update("external_room_id", "study-already-there").Error)

	// A stale copy without the mapping must adopt, not overwrite.
	stale := &models.Room{ID: room.ID}
	got, err := dir.EnsureExternalRoom(ctx, stale)
	require.NoError(t, err)
	assert.Equal(t, "study-already-there", got)

	var stored models.Room
	require.NoError(t, db.First(&stored, room.ID).Error)
	assert.Equal(t, "study-already-there", *stored.ExternalRoomID)
}

func TestEnsureExternalRoomConcurrent(t *testing.T) {
	db := newTestDB(t)
	dir := NewDirectory(db)
	room := createRoom(t, db, 1, 4, "")

	const callers = 4
	results := make([]string, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			stale := &models.Room{ID: room.ID}
			results[i], errs[i] = dir.EnsureExternalRoom(context.Background(), stale)
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0], results[i])
	}
}

func TestRoomByExternalID(t *testing.T) {
	db := newTestDB(t)
	dir := NewDirectory(db)
	room := createRoom(t, db, 1, 4, "")
	ctx := context.Background()

	name, err := dir.EnsureExternalRoom(ctx, room)
	require.NoError(t, err)

	resolved, err := dir.RoomByExternalID(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, room.ID, resolved.ID)

	_, err = dir.RoomByExternalID(ctx, "study-nobody-home")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRoomByExternalIDResolvesSoftDeleted(t *testing.T) {
	db := newTestDB(t)
	dir := NewDirectory(db)
	room := createRoom(t, db, 1, 4, "")
	ctx := context.Background()

	name, err := dir.EnsureExternalRoom(ctx, room)
	require.NoError(t, err)
	require.NoError(t, db.Delete(room).Error)

	// Late lifecycle events for deleted rooms must still resolve.
	resolved, err := dir.RoomByExternalID(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, room.ID, resolved.ID)
}

func TestDirectoryRoomExcludesSoftDeleted(t *testing.T) {
	db := newTestDB(t)
	dir := NewDirectory(db)
	room := createRoom(t, db, 1, 4, "")
	require.NoError(t, db.Delete(room).Error)

	_, err := dir.Room(context.Background(), room.ID)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

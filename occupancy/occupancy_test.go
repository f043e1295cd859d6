package occupancy

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/studycrew/studyroom_backend/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps the in-memory database alive and makes
	// sqlite behave under the concurrency tests.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Room{}, &models.Participant{}))
	return db
}

func createRoom(t *testing.T, db *gorm.DB, ownerID uint, capacity int, secret string) *models.Room {
	t.Helper()

	room := &models.Room{
		Name:     "test room",
		OwnerID:  ownerID,
		Capacity: capacity,
		Secret:   secret,
	}
	require.NoError(t, db.Create(room).Error)
	return room
}

package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/studycrew/studyroom_backend/database"
	"github.com/studycrew/studyroom_backend/models"
	"github.com/studycrew/studyroom_backend/occupancy"
)

type MuteInput struct {
	UserID uint `json:"user_id" binding:"required"`
	Muted  bool `json:"muted"`
}

type BanInput struct {
	UserID uint `json:"user_id" binding:"required"`
}

// ownedRoom loads the room and checks the caller owns it.
func ownedRoom(c *gin.Context) (*models.Room, bool) {
	userID := c.MustGet("userID").(uint)
	roomID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room ID"})
		return nil, false
	}

	var room models.Room
	if err := database.DB.First(&room, roomID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		return nil, false
	}

	if room.OwnerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the room owner can moderate"})
		return nil, false
	}
	return &room, true
}

// MuteParticipant godoc
// @Summary Mute or unmute a participant
// @Description Sets the muted flag on a participant's active session (owner only)
// @Tags moderation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Param body body MuteInput true "Target user and state"
// @Success 200 {object} map[string]string "Updated"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Room or participant not found"
// @Router /api/rooms/{id}/mute [post]
func MuteParticipant(c *gin.Context) {
	room, ok := ownedRoom(c)
	if !ok {
		return
	}

	var input MuteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := coord.Ledger().SetMuted(c.Request.Context(), room.ID, input.UserID, input.Muted)
	if err != nil {
		if errors.Is(err, occupancy.ErrNotActive) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User is not in this room"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update participant"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Participant updated"})
}

// BanParticipant godoc
// @Summary Ban a user from a room
// @Description Ends the user's session and blocks any future join (owner only)
// @Tags moderation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Param body body BanInput true "Target user"
// @Success 200 {object} map[string]string "Banned"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Room not found"
// @Router /api/rooms/{id}/ban [post]
func BanParticipant(c *gin.Context) {
	room, ok := ownedRoom(c)
	if !ok {
		return
	}

	var input BanInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.UserID == room.OwnerID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "The owner cannot ban themselves"})
		return
	}

	if err := coord.BanUser(c.Request.Context(), room.ID, input.UserID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to ban user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User banned"})
}

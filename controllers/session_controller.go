package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/studycrew/studyroom_backend/occupancy"
	"github.com/studycrew/studyroom_backend/video"
)

type JoinRoomInput struct {
	Secret string `json:"secret"`
}

// JoinRoom godoc
// @Summary Join a study room
// @Description Admits the user into the room and returns a video session credential
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Param body body JoinRoomInput false "Join options"
// @Success 200 {object} map[string]interface{} "Participant and credential"
// @Failure 400 {object} map[string]string "Invalid room ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]interface{} "Secret required/invalid or banned"
// @Failure 404 {object} map[string]string "Room not found"
// @Failure 409 {object} map[string]interface{} "Room full or already joined"
// @Failure 503 {object} map[string]string "Video backend unavailable"
// @Router /api/rooms/{id}/join [post]
func JoinRoom(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	roomID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room ID"})
		return
	}

	var input JoinRoomInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	participant, externalRoom, err := coord.Join(c.Request.Context(), uint(roomID), userID, input.Secret)
	if err != nil {
		respondJoinError(c, err)
		return
	}

	cred, err := issuer.Issue(externalRoom, identity.IdentityFor(userID), video.GrantOptions{})
	if err != nil {
		// The user is joined; they can fetch a credential via rejoin.
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to issue video credential"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"participant": participant,
		"credential":  cred,
		"url":         videoClientURL,
	})
}

// RejoinRoom godoc
// @Summary Reconnect to a study room
// @Description Issues a fresh video credential for a user with an active session; does not re-run admission
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Success 200 {object} map[string]interface{} "Credential"
// @Failure 400 {object} map[string]string "Invalid room ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "No active session in this room"
// @Failure 404 {object} map[string]string "Room not found"
// @Router /api/rooms/{id}/rejoin [post]
func RejoinRoom(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	roomID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room ID"})
		return
	}

	externalRoom, err := coord.Rejoin(c.Request.Context(), uint(roomID), userID)
	if err != nil {
		respondJoinError(c, err)
		return
	}

	cred, err := issuer.Reissue(externalRoom, identity.IdentityFor(userID))
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to issue video credential"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"credential": cred,
		"url":        videoClientURL,
	})
}

// LeaveRoom godoc
// @Summary Leave a study room
// @Description Ends the caller's session in the room; a no-op if they are not in it
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Success 200 {object} map[string]string "Left room"
// @Failure 400 {object} map[string]string "Invalid room ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Server error"
// @Router /api/rooms/{id}/leave [post]
func LeaveRoom(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	roomID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room ID"})
		return
	}

	if err := coord.Leave(c.Request.Context(), uint(roomID), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to leave room"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Left room"})
}

// respondJoinError maps coordinator errors onto HTTP responses. Policy
// rejections carry their reason so the client knows whether to prompt
// for a secret, retry later, or give up.
func respondJoinError(c *gin.Context, err error) {
	if ae, ok := occupancy.AsAdmissionError(err); ok {
		switch ae.Reason {
		case occupancy.ReasonRoomFull:
			c.JSON(http.StatusConflict, gin.H{
				"error":    ae.Error(),
				"reason":   ae.Reason,
				"occupied": ae.Current,
				"capacity": ae.Capacity,
			})
		case occupancy.ReasonAlreadyActive:
			c.JSON(http.StatusConflict, gin.H{"error": ae.Error(), "reason": ae.Reason})
		default:
			c.JSON(http.StatusForbidden, gin.H{"error": ae.Error(), "reason": ae.Reason})
		}
		return
	}

	switch {
	case errors.Is(err, occupancy.ErrRoomNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
	case errors.Is(err, occupancy.ErrNotActive):
		c.JSON(http.StatusForbidden, gin.H{"error": "No active session in this room"})
	case errors.Is(err, occupancy.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Concurrent update, please retry"})
	case errors.Is(err, video.ErrBackendUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Video backend unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to join room"})
	}
}

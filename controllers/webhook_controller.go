package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/studycrew/studyroom_backend/occupancy"
)

// VideoWebhookInput is the lifecycle event payload posted by the video
// backend.
type VideoWebhookInput struct {
	Event string `json:"event" binding:"required"`
	Room  struct {
		Name string `json:"name"`
	} `json:"room"`
	Participant struct {
		Identity string `json:"identity"`
	} `json:"participant"`
}

// VideoWebhook godoc
// @Summary Video backend lifecycle webhook
// @Description Applies participant join/leave notifications from the video backend
// @Tags webhooks
// @Accept json
// @Produce json
// @Param event body VideoWebhookInput true "Lifecycle event"
// @Success 200 {object} map[string]string "Event accepted"
// @Failure 400 {object} map[string]string "Unreadable event"
// @Router /webhooks/video [post]
func VideoWebhook(c *gin.Context) {
	var input VideoWebhookInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var kind occupancy.EventKind
	switch input.Event {
	case "participant_joined":
		kind = occupancy.EventJoined
	case "participant_left":
		kind = occupancy.EventLeft
	case "room_finished":
		kind = occupancy.EventRoomFinished
	default:
		// The backend sends event types this service does not care
		// about; acknowledge them all.
		log.Debug().Str("event", input.Event).Msg("ignoring video webhook event")
		c.JSON(http.StatusOK, gin.H{"message": "ignored"})
		return
	}

	err := coord.HandleLifecycleEvent(c.Request.Context(), kind, input.Room.Name, input.Participant.Identity)
	if err != nil {
		// Storage failure: report it so the backend redelivers.
		log.Error().Err(err).Str("event", input.Event).Msg("failed to apply lifecycle event")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to apply event"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

package controllers

import (
	"github.com/studycrew/studyroom_backend/occupancy"
	"github.com/studycrew/studyroom_backend/video"
)

var (
	coord    *occupancy.Coordinator
	issuer   *video.Issuer
	identity video.IdentityScheme

	// WebSocket URL of the video backend, handed to clients together
	// with their credential.
	videoClientURL string
)

// Setup wires the controllers to the coordinator and credential issuer.
// Called once from main before the router starts.
func Setup(c *occupancy.Coordinator, i *video.Issuer, clientURL string) {
	coord = c
	issuer = i
	videoClientURL = clientURL
}

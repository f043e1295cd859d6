package video

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// ErrBackendUnavailable means the video backend did not respond or
// errored. Transient: callers may retry, and a timeout is not proof the
// backend did not act.
var ErrBackendUnavailable = errors.New("video backend unavailable")

const adminTokenTTL = 30 * time.Second

// Client talks to the video backend's admin API. Calls carry a bounded
// timeout and go through a circuit breaker so a dead backend fails fast
// instead of piling up blocked handlers.
type Client struct {
	baseURL string
	issuer  *Issuer
	httpc   *http.Client
	breaker *gobreaker.CircuitBreaker
}

func NewClient(baseURL string, issuer *Issuer) *Client {
	return &Client{
		baseURL: baseURL,
		issuer:  issuer,
		httpc:   &http.Client{Timeout: 10 * time.Second},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "video-backend",
			Timeout: 30 * time.Second,
		}),
	}
}

// CloseRoom asks the backend to delete the room, evicting everyone
// still connected to it.
func (c *Client) CloseRoom(ctx context.Context, externalRoomID string) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.deleteRoom(ctx, externalRoomID)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
		return err
	}
	return nil
}

func (c *Client) deleteRoom(ctx context.Context, externalRoomID string) error {
	body, err := json.Marshal(map[string]string{"room": externalRoomID})
	if err != nil {
		return err
	}

	url := c.baseURL + "/twirp/livekit.RoomService/DeleteRoom"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}

	// Admin calls authenticate with a short-lived credential scoped to
	// the room being closed.
	cred, err := c.issuer.Issue(externalRoomID, "room-admin", GrantOptions{TTL: adminTokenTTL})
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+cred.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: status %d", ErrBackendUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("video backend rejected room close: status %d", resp.StatusCode)
	}
	return nil
}

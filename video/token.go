package video

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// DefaultTTL is used when a credential is issued without an explicit ttl.
const DefaultTTL = time.Hour

// Grant is the room-scoped capability set embedded in a credential.
type Grant struct {
	Room         string `json:"room"`
	RoomJoin     bool   `json:"roomJoin"`
	CanPublish   bool   `json:"canPublish"`
	CanSubscribe bool   `json:"canSubscribe"`
}

// GrantClaims is the full claim set of a video credential.
type GrantClaims struct {
	jwt.RegisteredClaims
	Video Grant `json:"video"`
}

// Credential is a short-lived, scoped access token for the video
// backend. It is never persisted; once expired the backend rejects it
// and a new one has to be issued.
type Credential struct {
	Token        string    `json:"token"`
	Room         string    `json:"room"`
	Identity     string    `json:"identity"`
	CanPublish   bool      `json:"can_publish"`
	CanSubscribe bool      `json:"can_subscribe"`
	IssuedAt     time.Time `json:"issued_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// GrantOptions overrides the issue defaults. Nil capability flags mean
// "allowed"; a zero TTL means DefaultTTL.
type GrantOptions struct {
	CanPublish   *bool
	CanSubscribe *bool
	TTL          time.Duration
}

// Issuer mints credentials for the video backend, signed with the API
// key pair the backend trusts. Issuing a credential never touches the
// participancy ledger: admission decides who may be in a room, the
// credential only lets an admitted caller authenticate to the backend.
type Issuer struct {
	apiKey    string
	apiSecret string
}

func NewIssuer(apiKey, apiSecret string) (*Issuer, error) {
	if apiKey == "" || apiSecret == "" {
		return nil, errors.New("video api key and secret are required")
	}
	return &Issuer{apiKey: apiKey, apiSecret: apiSecret}, nil
}

// Issue mints a credential for identity in the given external room.
func (i *Issuer) Issue(externalRoomID, identity string, opts GrantOptions) (*Credential, error) {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	canPublish := opts.CanPublish == nil || *opts.CanPublish
	canSubscribe := opts.CanSubscribe == nil || *opts.CanSubscribe

	issuedAt := time.Now()
	expiresAt := issuedAt.Add(ttl)

	claims := GrantClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.apiKey,
			Subject:   identity,
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Video: Grant{
			Room:         externalRoomID,
			RoomJoin:     true,
			CanPublish:   canPublish,
			CanSubscribe: canSubscribe,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(i.apiSecret))
	if err != nil {
		return nil, err
	}

	return &Credential{
		Token:        signed,
		Room:         externalRoomID,
		Identity:     identity,
		CanPublish:   canPublish,
		CanSubscribe: canSubscribe,
		IssuedAt:     issuedAt,
		ExpiresAt:    expiresAt,
	}, nil
}

// Reissue mints a fresh credential with default capabilities for a
// caller reconnecting after a transient disconnect.
func (i *Issuer) Reissue(externalRoomID, identity string) (*Credential, error) {
	return i.Issue(externalRoomID, identity, GrantOptions{})
}

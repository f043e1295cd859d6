package occupancy

import (
	"errors"
	"fmt"
)

// Sentinel errors mapped to HTTP codes in the controllers.
var (
	ErrRoomNotFound = errors.New("room not found")
	ErrNotActive    = errors.New("no active participancy in this room")

	// ErrConflict means a concurrent writer changed the state under the
	// caller. Transient: retrying the whole operation is safe.
	ErrConflict = errors.New("concurrent update conflict")
)

// AdmissionReason says why a join attempt was rejected.
type AdmissionReason string

const (
	ReasonSecretRequired AdmissionReason = "secret_required"
	ReasonSecretInvalid  AdmissionReason = "secret_invalid"
	ReasonAlreadyActive  AdmissionReason = "already_active"
	ReasonBanned         AdmissionReason = "banned"
	ReasonRoomFull       AdmissionReason = "room_full"
)

// AdmissionError is a deterministic policy rejection of a join attempt.
// For ReasonRoomFull, Current and Capacity carry the occupancy observed
// at decision time.
type AdmissionError struct {
	Reason   AdmissionReason
	Current  int
	Capacity int
}

func (e *AdmissionError) Error() string {
	if e.Reason == ReasonRoomFull {
		return fmt.Sprintf("room is full (%d/%d)", e.Current, e.Capacity)
	}
	return string(e.Reason)
}

// AsAdmissionError unwraps err into an AdmissionError if it is one.
func AsAdmissionError(err error) (*AdmissionError, bool) {
	var ae *AdmissionError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

package video

import (
	"fmt"
	"strconv"
	"strings"
)

const identityPrefix = "user-"

// IdentityScheme maps internal user ids to the identity strings used on
// the video backend ("user-<id>") and back.
type IdentityScheme struct{}

func (IdentityScheme) IdentityFor(userID uint) string {
	return fmt.Sprintf("%s%d", identityPrefix, userID)
}

func (IdentityScheme) UserForIdentity(identity string) (uint, bool) {
	raw, ok := strings.CutPrefix(identity, identityPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

package gate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// CheckCallbackPrefix starts the callback data of the status check button.
const CheckCallbackPrefix = "check_invites_group"

// ErrInvalidCallback is returned for callback data that is not a status check.
var ErrInvalidCallback = errors.New("invalid callback data")

// EncodeCheckCallback builds the callback data of the status check button
// for a member of a group.
func EncodeCheckCallback(userID, groupID int64) string {
	return fmt.Sprintf("%s:%d:%d", CheckCallbackPrefix, userID, groupID)
}

// ParseCheckCallback extracts the member and group from status check callback data.
func ParseCheckCallback(data string) (userID, groupID int64, err error) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 || parts[0] != CheckCallbackPrefix {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidCallback, data)
	}

	userID, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: bad user id: %w", ErrInvalidCallback, err)
	}

	groupID, err = strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: bad group id: %w", ErrInvalidCallback, err)
	}

	return userID, groupID, nil
}

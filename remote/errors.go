package remote

import (
	"errors"
	"fmt"
)

// Error is a non-2xx response from the workspace API. The dispatcher records
// it into the owning domain's error field; nothing in this layer retries.
type Error struct {
	Status int
	Path   string
	Body   string
}

func (e *Error) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("remote: %s returned %d", e.Path, e.Status)
	}
	return fmt.Sprintf("remote: %s returned %d: %s", e.Path, e.Status, e.Body)
}

// IsStatus reports whether err is a remote Error with the given status.
func IsStatus(err error, status int) bool {
	var re *Error
	return errors.As(err, &re) && re.Status == status
}

package dispatch

import (
	"errors"
	"fmt"
)

var (
	errEmptyID             = errors.New("empty id")
	errUnknownConversation = errors.New("unknown conversation")
	errUnknownCard         = errors.New("unknown card")
	errUnknownColumn       = errors.New("unknown column")
	errNoBoard             = errors.New("no board loaded")
)

func errUnknownField(field string) error {
	return fmt.Errorf("not an editable card field: %q", field)
}

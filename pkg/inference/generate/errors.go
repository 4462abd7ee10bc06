package generate

import (
	"fmt"

	"github.com/pkg/errors"
)

// Fatal configuration errors detected during RESOLVE. They abort the call
// before any model invocation.
var (
	ErrNilRequest     = errors.New("generate request is nil")
	ErrEmptyModelName = errors.New("generate request is missing a model name")
)

// LimitExceededError is returned when the turn budget is exhausted while the
// model still requests uncompleted tool calls. Tool failures never surface
// through this channel; they are folded into the conversation instead.
type LimitExceededError struct {
	MaxTurns int
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("exceeded maximum tool call turns (%d)", e.MaxTurns)
}

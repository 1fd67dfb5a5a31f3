package lifecycle

import (
	"errors"
	"strings"
)

var ErrUnknownConfirmation = errors.New("no pending confirmation with that token")

// ValidationError reports every missing or out-of-range field of a
// submission at once.
type ValidationError struct {
	Missing []string `json:"missing,omitempty"`
	Invalid []string `json:"invalid,omitempty"`
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required fields: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid fields: "+strings.Join(e.Invalid, ", "))
	}
	if len(parts) == 0 {
		return "invalid submission"
	}
	return strings.Join(parts, "; ")
}

// Fields returns every offending field name, missing ones first.
func (e *ValidationError) Fields() []string {
	out := make([]string, 0, len(e.Missing)+len(e.Invalid))
	out = append(out, e.Missing...)
	return append(out, e.Invalid...)
}

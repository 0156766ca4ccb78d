package domain

import (
	"fmt"
	"strings"
)

// Action is a policy decision for a category. Exactly two values exist on
// disk; parsing is case-insensitive, writing is canonical.
type Action string

const (
	ActionAllow Action = "allowed"
	ActionBlock Action = "blocked"
)

// ParseAction interprets a persisted policy string. Anything other than the
// two known values (in any case) is an error, so a malformed policy file
// fails loudly at load time instead of silently allowing traffic.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(ActionAllow):
		return ActionAllow, nil
	case string(ActionBlock):
		return ActionBlock, nil
	default:
		return "", fmt.Errorf("unrecognized policy action %q", s)
	}
}

func (a Action) String() string { return string(a) }

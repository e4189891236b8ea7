package action

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownAction is returned by Parse for text that names no action.
var ErrUnknownAction = errors.New("unknown action")

var tagsByName = func() map[string]Tag {
	m := make(map[string]Tag, TagCount)
	for t := TagEmpty; t < TagCount; t++ {
		m[strings.ToLower(tagNames[t])] = t
	}
	return m
}()

// Parse reads an action in the form produced by Action.String, e.g.
// "BlasterPlace 5 5" or "GamePause". Names are case-insensitive.
func Parse(s string) (Action, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return Empty, fmt.Errorf("%w: empty input", ErrUnknownAction)
	}

	t, ok := tagsByName[strings.ToLower(fields[0])]
	if !ok {
		return Empty, fmt.Errorf("%w: %q", ErrUnknownAction, fields[0])
	}

	args := fields[1:]
	if !t.HasCoords() {
		if len(args) != 0 {
			return Empty, fmt.Errorf("%s takes no arguments, got %d", t, len(args))
		}
		return Action{Tag: t}, nil
	}

	if len(args) != 2 {
		return Empty, fmt.Errorf("%s takes x and y, got %d arguments", t, len(args))
	}
	x, err := strconv.ParseUint(args[0], 10, 8)
	if err != nil {
		return Empty, fmt.Errorf("%s x: %w", t, err)
	}
	y, err := strconv.ParseUint(args[1], 10, 8)
	if err != nil {
		return Empty, fmt.Errorf("%s y: %w", t, err)
	}
	return Action{Tag: t, X: uint8(x), Y: uint8(y)}, nil
}

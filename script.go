package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/automoto/ld51/action"
)

// Script holds scripted input keyed by the tick it is pushed on.
type Script map[uint64][]action.Action

// ReadScript parses lines of the form "<tick> <Action> [x y]". Blank lines
// and lines starting with # are skipped.
func ReadScript(r io.Reader) (Script, error) {
	s := make(Script)
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		tickText, rest, ok := strings.Cut(text, " ")
		if !ok {
			return nil, fmt.Errorf("script line %d: missing action", line)
		}
		tick, err := strconv.ParseUint(tickText, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("script line %d: bad tick %q: %w", line, tickText, err)
		}
		a, err := action.Parse(rest)
		if err != nil {
			return nil, fmt.Errorf("script line %d: %w", line, err)
		}
		s[tick] = append(s[tick], a)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return s, nil
}

// At returns the actions scripted for tick.
func (s Script) At(tick uint64) []action.Action {
	return s[tick]
}

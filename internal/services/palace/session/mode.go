package session

import (
	"fmt"
	"strings"
)

// Mode is the host application's operating mode.
type Mode string

const (
	// ModeOnline allows network activity.
	ModeOnline Mode = "online"
	// ModeLocal keeps every marker on the machine; nothing is dialed.
	ModeLocal Mode = "local"
)

// ParseMode accepts "online" or "local", case-insensitively. An empty value
// means online.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case "", ModeOnline:
		return ModeOnline, nil
	case ModeLocal:
		return ModeLocal, nil
	default:
		return "", fmt.Errorf("unknown mode %q", value)
	}
}

// ModeSource reports the current mode. It is consulted on every attempt,
// so hosts may switch modes at runtime.
type ModeSource interface {
	Mode() Mode
}

// StaticMode is a ModeSource that never changes.
type StaticMode Mode

// Mode implements ModeSource.
func (m StaticMode) Mode() Mode {
	return Mode(m)
}

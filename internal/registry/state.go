package registry

import (
	"lovealbum/entity"
	"time"
)

type Stage int

const (
	// StageUnredeemed codes have never been validated and are editable.
	StageUnredeemed Stage = iota
	// StageEditable codes were redeemed and the edit window is still open.
	StageEditable
	// StageViewOnly codes outlived their edit window; the album stays viewable.
	StageViewOnly
)

func (s Stage) String() string {
	switch s {
	case StageUnredeemed:
		return "unredeemed"
	case StageEditable:
		return "editable"
	case StageViewOnly:
		return "view_only"
	}
	return "unknown"
}

// State is the lifecycle position of a code at a given instant.
// EditableUntil is set only for StageEditable.
type State struct {
	Stage         Stage
	EditableUntil time.Time
}

func (s State) Editable() bool {
	return s.Stage != StageViewOnly
}

// Classify derives the state from the stored timestamps. The window is
// inclusive: a code exactly EditWindow past its first use is still editable.
func Classify(code *entity.AccessCode, now time.Time) State {
	if !code.Redeemed() {
		return State{Stage: StageUnredeemed}
	}
	if now.Sub(code.FirstUsedAt) > entity.EditWindow {
		return State{Stage: StageViewOnly}
	}
	return State{
		Stage:         StageEditable,
		EditableUntil: code.FirstUsedAt.Add(entity.EditWindow),
	}
}

// Remaining is the edit time left, zero for unredeemed or expired codes.
func Remaining(code *entity.AccessCode, now time.Time) time.Duration {
	state := Classify(code, now)
	if state.Stage != StageEditable {
		return 0
	}
	return state.EditableUntil.Sub(now)
}

package drift

import (
	"github.com/dshills/snipnotes-mcp/pkg/types"
)

// Status is the outcome of a drift check
type Status string

const (
	// StatusUnchanged means the anchor line still matches
	StatusUnchanged Status = "unchanged"
	// StatusMoved means the anchor line no longer matches
	StatusMoved Status = "moved"
)

// MovedMessage is shown when a note's anchor no longer matches
const MovedMessage = "this note's anchor no longer matches the file"

// Position is a 0-based line and byte column in the live file
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Result is the outcome of Check
type Result struct {
	Status Status `json:"status"`
	// Position is the end of the note's range and is only set when unchanged
	Position *Position `json:"position,omitempty"`
	Message  string    `json:"message,omitempty"`
}

// Check compares the note's first code line against liveText.
func Check(note *types.Note, liveText string) Result {
	lines := types.SplitLines(liveText)
	if note.StartLine < 0 || note.StartLine >= len(lines) {
		return Result{Status: StatusMoved, Message: MovedMessage}
	}

	want := note.FirstCodeLine()
	got := lines[note.StartLine]
	if len(got) > len(want) {
		got = got[:len(want)]
	}
	if got != want {
		return Result{Status: StatusMoved, Message: MovedMessage}
	}

	end := note.EndLine
	if end >= len(lines) {
		end = len(lines) - 1
	}
	return Result{
		Status:   StatusUnchanged,
		Position: &Position{Line: end, Column: len(lines[end])},
	}
}

package drift

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/snipnotes-mcp/pkg/types"
)

const live = "package main\n\nfunc main() {\n\tfmt.Println(\"hi\")\n}\n"

func note(start, end int, code string) *types.Note {
	return &types.Note{ID: 1, NoteText: "n", CodeText: code, StartLine: start, EndLine: end, FileID: 1}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		note    *types.Note
		live    string
		want    Status
		wantPos *Position
	}{
		{
			name:    "unchanged range",
			note:    note(2, 4, "func main() {\n\tfmt.Println(\"hi\")\n}"),
			live:    live,
			want:    StatusUnchanged,
			wantPos: &Position{Line: 4, Column: 1},
		},
		{
			name:    "text appended to anchor line",
			note:    note(2, 2, "func main()"),
			live:    live,
			want:    StatusUnchanged,
			wantPos: &Position{Line: 2, Column: len("func main() {")},
		},
		{
			name: "line inserted above",
			note: note(2, 2, "func main() {"),
			live: "package main\n\nimport \"fmt\"\n\nfunc main() {\n",
			want: StatusMoved,
		},
		{
			name: "anchor line shortened",
			note: note(2, 2, "func main() {"),
			live: "package main\n\nfunc m\n",
			want: StatusMoved,
		},
		{
			name: "start beyond end of file",
			note: note(10, 12, "func main() {"),
			live: live,
			want: StatusMoved,
		},
		{
			name:    "crlf file",
			note:    note(0, 0, "package main"),
			live:    "package main\r\n\r\nfunc main() {}\r\n",
			want:    StatusUnchanged,
			wantPos: &Position{Line: 0, Column: len("package main")},
		},
		{
			name:    "end clamped to last line",
			note:    note(4, 9, "}"),
			live:    "a\nb\nc\nd\n}",
			want:    StatusUnchanged,
			wantPos: &Position{Line: 4, Column: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Check(tt.note, tt.live)
			assert.Equal(t, tt.want, got.Status)
			if tt.want == StatusMoved {
				assert.Equal(t, MovedMessage, got.Message)
				assert.Nil(t, got.Position)
				return
			}
			require.NotNil(t, got.Position)
			assert.Equal(t, *tt.wantPos, *got.Position)
			assert.Empty(t, got.Message)
		})
	}
}

func TestCheck_DoesNotMutateNote(t *testing.T) {
	n := note(2, 2, "func main() {")
	before := *n

	Check(n, "something else entirely")
	assert.Equal(t, before, *n)
}

func TestAuditLock(t *testing.T) {
	var lock auditLock
	require.True(t, lock.TryAcquire())
	assert.False(t, lock.TryAcquire(), "second acquire fails while held")
	lock.Release()
	assert.True(t, lock.TryAcquire(), "released lock can be re-acquired")
	lock.Release()
}

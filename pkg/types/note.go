package types

import (
	"strings"
	"time"
)

// Category classifies a note
type Category string

const (
	CategoryNone Category = ""
	CategoryNote Category = "note"
	CategoryTodo Category = "todo"
	CategoryFix  Category = "fix"
)

// TitleMaxRunes is the number of note-text characters kept in a title
const TitleMaxRunes = 40

// Ellipsis is appended to truncated titles and labels
const Ellipsis = "..."

// ParseCategory converts s to a Category, rejecting unknown values
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return CategoryNone, ErrInvalidCategory
	}
	return c, nil
}

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	switch c {
	case CategoryNone, CategoryNote, CategoryTodo, CategoryFix:
		return true
	default:
		return false
	}
}

// Note is free text anchored to a line range of a file
type Note struct {
	ID          int64
	Title       string
	NoteText    string   `validate:"required"`
	CodeText    string   // verbatim lines [StartLine, EndLine] at creation time
	StartLine   int      `validate:"gte=0"`
	EndLine     int      `validate:"gtefield=StartLine"`
	LanguageID  string
	Category    Category `validate:"omitempty,oneof=note todo fix"`
	FileID      int64    `validate:"gt=0"`
	CreatedDate time.Time
}

// Validate checks the note fields and range invariant
func (n *Note) Validate() error {
	return validateStruct(n)
}

// Contains reports whether line falls inside the note's range
func (n *Note) Contains(line int) bool {
	return n.StartLine <= line && line <= n.EndLine
}

// FirstCodeLine returns the first line of the stored code snapshot
func (n *Note) FirstCodeLine() string {
	lines := SplitLines(n.CodeText)
	return lines[0]
}

// Clone returns a copy that shares nothing with n
func (n *Note) Clone() *Note {
	c := *n
	return &c
}

// DeriveTitle builds a note title from its text: the first TitleMaxRunes
// characters, followed by an ellipsis when the text is longer.
func DeriveTitle(noteText string) string {
	return Truncate(noteText, TitleMaxRunes)
}

// Truncate keeps the first max runes of s and appends Ellipsis if anything
// was cut.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + Ellipsis
}

// SplitLines splits text on "\n" and drops a trailing "\r" from each line.
// The result always has at least one element.
func SplitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

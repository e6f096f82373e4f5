// Package hierarchy groups a workspace's notes by directory and file for
// tree presentation.
package hierarchy

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_note_lister.go -package=mocks github.com/dshills/snipnotes-mcp/internal/hierarchy NoteLister

import (
	"context"
	"fmt"
	"strings"

	"github.com/dshills/snipnotes-mcp/pkg/types"
)

// LabelMaxRunes caps the title part of a note node label
const LabelMaxRunes = 50

// Kind is the type of a tree node
type Kind string

const (
	KindDirectory Kind = "directory"
	KindFile      Kind = "file"
	KindNote      Kind = "note"
)

// Node is one entry of the notes tree
type Node struct {
	Kind     Kind           `json:"kind"`
	Label    string         `json:"label"`
	ID       string         `json:"id,omitempty"`
	RelPath  string         `json:"rel_path,omitempty"`
	FileID   int64          `json:"file_id,omitempty"`
	NoteID   int64          `json:"note_id,omitempty"`
	Category types.Category `json:"category,omitempty"`
	Children []*Node        `json:"children,omitempty"`
}

// NoteLister loads the notes of one file
type NoteLister interface {
	ListNotesByFile(ctx context.Context, fileID int64) ([]*types.Note, error)
}

// CategoryEmoji returns the icon shown in front of a note label
func CategoryEmoji(c types.Category) string {
	switch c {
	case types.CategoryTodo:
		return "✅"
	case types.CategoryFix:
		return "🔧"
	default:
		return "💡"
	}
}

// NoteLabel is the display label of a note node
func NoteLabel(note *types.Note) string {
	return CategoryEmoji(note.Category) + " " + types.Truncate(note.Title, LabelMaxRunes)
}

// Build turns files into directory, file and note nodes. Path segments are
// split on "/", directories are shared by exact label, and files without
// notes are left out. Siblings keep input order.
func Build(ctx context.Context, files []*types.File, lister NoteLister) ([]*Node, error) {
	var roots []*Node

	for _, file := range files {
		notes, err := lister.ListNotesByFile(ctx, file.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list notes of %s: %w", file.RelativePath, err)
		}
		if len(notes) == 0 {
			continue
		}

		segments := strings.Split(file.RelativePath, "/")
		level := &roots
		for i, segment := range segments[:len(segments)-1] {
			dir := findDirectory(*level, segment)
			if dir == nil {
				dir = &Node{
					Kind:    KindDirectory,
					Label:   segment,
					RelPath: strings.Join(segments[:i+1], "/"),
				}
				*level = append(*level, dir)
			}
			level = &dir.Children
		}

		fileNode := &Node{
			Kind:    KindFile,
			Label:   segments[len(segments)-1],
			ID:      fmt.Sprintf("file-%d", file.ID),
			RelPath: file.RelativePath,
			FileID:  file.ID,
		}
		for _, note := range notes {
			fileNode.Children = append(fileNode.Children, &Node{
				Kind:     KindNote,
				Label:    NoteLabel(note),
				ID:       fmt.Sprintf("note-%d", note.ID),
				FileID:   file.ID,
				NoteID:   note.ID,
				Category: note.Category,
			})
		}
		*level = append(*level, fileNode)
	}

	return roots, nil
}

func findDirectory(nodes []*Node, label string) *Node {
	for _, n := range nodes {
		if n.Kind == KindDirectory && n.Label == label {
			return n
		}
	}
	return nil
}

// Compress merges every directory whose only child is a directory into that
// child ("a" > "b" becomes "a/b"), repeatedly and at every depth. Nodes are
// modified in place; the same slice is returned.
func Compress(nodes []*Node) []*Node {
	for _, n := range nodes {
		compressNode(n)
	}
	return nodes
}

func compressNode(n *Node) {
	if n.Kind == KindDirectory {
		for len(n.Children) == 1 && n.Children[0].Kind == KindDirectory {
			child := n.Children[0]
			n.Label += "/" + child.Label
			n.RelPath = child.RelPath
			n.Children = child.Children
		}
	}
	for _, c := range n.Children {
		compressNode(c)
	}
}

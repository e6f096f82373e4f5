package hierarchy

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dshills/snipnotes-mcp/internal/hierarchy/mocks"
	"github.com/dshills/snipnotes-mcp/pkg/types"
)

func file(id int64, path string) *types.File {
	return &types.File{ID: id, RelativePath: path, WorkspaceID: 1}
}

func noteFor(id int64, title string, c types.Category) *types.Note {
	return &types.Note{ID: id, Title: title, NoteText: title, Category: c, FileID: 1}
}

// labels flattens a tree into "depth:label" lines
func labels(nodes []*Node) []string {
	var out []string
	var walk func(nodes []*Node, depth int)
	walk = func(nodes []*Node, depth int) {
		for _, n := range nodes {
			out = append(out, strings.Repeat("  ", depth)+n.Label)
			walk(n.Children, depth+1)
		}
	}
	walk(nodes, 0)
	return out
}

func TestNoteLabel(t *testing.T) {
	assert.Equal(t, "💡 plain", NoteLabel(noteFor(1, "plain", types.CategoryNone)))
	assert.Equal(t, "💡 idea", NoteLabel(noteFor(1, "idea", types.CategoryNote)))
	assert.Equal(t, "✅ later", NoteLabel(noteFor(1, "later", types.CategoryTodo)))
	assert.Equal(t, "🔧 broken", NoteLabel(noteFor(1, "broken", types.CategoryFix)))
	assert.Equal(t, "💡 odd", NoteLabel(noteFor(1, "odd", types.Category("other"))))

	long := strings.Repeat("x", 60)
	assert.Equal(t, "💡 "+strings.Repeat("x", 50)+"...", NoteLabel(noteFor(1, long, types.CategoryNone)))
}

func TestBuild(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	lister := mocks.NewMockNoteLister(ctrl)
	lister.EXPECT().ListNotesByFile(gomock.Any(), int64(1)).
		Return([]*types.Note{noteFor(10, "first", types.CategoryTodo), noteFor(11, "second", types.CategoryNone)}, nil)
	lister.EXPECT().ListNotesByFile(gomock.Any(), int64(2)).Return(nil, nil)
	lister.EXPECT().ListNotesByFile(gomock.Any(), int64(3)).
		Return([]*types.Note{noteFor(12, "util", types.CategoryFix)}, nil)
	lister.EXPECT().ListNotesByFile(gomock.Any(), int64(4)).
		Return([]*types.Note{noteFor(13, "readme", types.CategoryNone)}, nil)

	files := []*types.File{
		file(1, "src/app/main.go"),
		file(2, "src/app/empty.go"),
		file(3, "src/lib/util.go"),
		file(4, "README.md"),
	}

	tree, err := Build(context.Background(), files, lister)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"src",
		"  app",
		"    main.go",
		"      ✅ first",
		"      💡 second",
		"  lib",
		"    util.go",
		"      🔧 util",
		"README.md",
	}, labels(tree))

	mainFile := tree[0].Children[0].Children[0]
	assert.Equal(t, KindFile, mainFile.Kind)
	assert.Equal(t, "file-1", mainFile.ID)
	assert.Equal(t, "src/app/main.go", mainFile.RelPath)
	assert.Equal(t, int64(1), mainFile.FileID)

	firstNote := mainFile.Children[0]
	assert.Equal(t, KindNote, firstNote.Kind)
	assert.Equal(t, "note-10", firstNote.ID)
	assert.Equal(t, types.CategoryTodo, firstNote.Category)

	assert.Equal(t, KindDirectory, tree[0].Kind)
	assert.Equal(t, "src/app", tree[0].Children[0].RelPath)
}

func TestBuild_ListerError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	lister := mocks.NewMockNoteLister(ctrl)
	boom := errors.New("boom")
	lister.EXPECT().ListNotesByFile(gomock.Any(), int64(1)).Return(nil, boom)

	_, err := Build(context.Background(), []*types.File{file(1, "a.go")}, lister)
	assert.ErrorIs(t, err, boom)
}

func TestBuild_NoFiles(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tree, err := Build(context.Background(), nil, mocks.NewMockNoteLister(ctrl))
	require.NoError(t, err)
	assert.Empty(t, tree)
}

func TestCompress(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	lister := mocks.NewMockNoteLister(ctrl)
	lister.EXPECT().ListNotesByFile(gomock.Any(), gomock.Any()).
		Return([]*types.Note{noteFor(1, "n", types.CategoryNone)}, nil).AnyTimes()

	files := []*types.File{
		file(1, "a/b/c/x.go"),
		file(2, "a/b/c/y.go"),
		file(3, "d/e/z.go"),
		file(4, "d/f/w.go"),
		file(5, "g/only.go"),
	}
	tree, err := Build(context.Background(), files, lister)
	require.NoError(t, err)

	tree = Compress(tree)
	assert.Equal(t, []string{
		"a/b/c",
		"  x.go",
		"    💡 n",
		"  y.go",
		"    💡 n",
		"d",
		"  e",
		"    z.go",
		"      💡 n",
		"  f",
		"    w.go",
		"      💡 n",
		"g",
		"  only.go",
		"    💡 n",
	}, labels(tree))

	assert.Equal(t, KindDirectory, tree[0].Kind)
	assert.Equal(t, "a/b/c", tree[0].RelPath)
	assert.Equal(t, KindFile, tree[2].Children[0].Kind, "a directory holding one file is not merged")
}

func TestCompress_SharedPrefix(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	lister := mocks.NewMockNoteLister(ctrl)
	lister.EXPECT().ListNotesByFile(gomock.Any(), gomock.Any()).
		Return([]*types.Note{noteFor(1, "n", types.CategoryNone)}, nil).Times(3)

	files := []*types.File{
		file(1, "a/b/c/x.ts"),
		file(2, "a/b/c/y.ts"),
		file(3, "a/d/z.ts"),
	}
	tree, err := Build(context.Background(), files, lister)
	require.NoError(t, err)

	tree = Compress(tree)
	require.Len(t, tree, 1)
	assert.Equal(t, "a", tree[0].Label)
	require.Len(t, tree[0].Children, 2)
	assert.Equal(t, "b/c", tree[0].Children[0].Label)
	assert.Equal(t, "a/b/c", tree[0].Children[0].RelPath)
	assert.Equal(t, "d", tree[0].Children[1].Label)

	assert.Equal(t, []string{
		"a",
		"  b/c",
		"    x.ts",
		"      💡 n",
		"    y.ts",
		"      💡 n",
		"  d",
		"    z.ts",
		"      💡 n",
	}, labels(tree))
}

func TestCompress_Nested(t *testing.T) {
	// a > [b > c > file, d > file]: a keeps two children, b absorbs c
	tree := []*Node{{
		Kind:  KindDirectory,
		Label: "a",
		Children: []*Node{
			{Kind: KindDirectory, Label: "b", Children: []*Node{
				{Kind: KindDirectory, Label: "c", Children: []*Node{{Kind: KindFile, Label: "x.go"}}},
			}},
			{Kind: KindDirectory, Label: "d", Children: []*Node{{Kind: KindFile, Label: "y.go"}}},
		},
	}}

	assert.Equal(t, []string{
		"a",
		"  b/c",
		"    x.go",
		"  d",
		"    y.go",
	}, labels(Compress(tree)))
}

func TestCompress_Idempotent(t *testing.T) {
	tree := []*Node{{
		Kind:  KindDirectory,
		Label: "a",
		Children: []*Node{
			{Kind: KindDirectory, Label: "b", Children: []*Node{{Kind: KindFile, Label: "x.go"}}},
		},
	}}

	once := labels(Compress(tree))
	twice := labels(Compress(tree))
	assert.Equal(t, once, twice)
	assert.Equal(t, []string{"a/b", "  x.go"}, once)
}

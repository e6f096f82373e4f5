package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveTools(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  map[string]bool
	}{
		{"empty means all", "", nil},
		{"all", "all", nil},
		{"all wins", "tree,all", nil},
		{"blank tokens only", " , ", nil},
		{"profile", "drift", Profiles["drift"]},
		{"tool name", "get_status", map[string]bool{ToolGetStatus: true}},
		{
			"profile plus tool",
			"tree, get_status",
			map[string]bool{
				ToolOpenWorkspace: true,
				ToolOpenFile:      true,
				ToolNotesTree:     true,
				ToolGetStatus:     true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveTools(tt.input))
		})
	}
}

func TestProfiles_IncludeContextTools(t *testing.T) {
	for name, tools := range Profiles {
		assert.True(t, tools[ToolOpenWorkspace], name)
		assert.True(t, tools[ToolOpenFile], name)
	}
}

func TestShouldRegister(t *testing.T) {
	assert.True(t, shouldRegister(ToolCreateNote, nil))
	assert.True(t, shouldRegister(ToolCreateNote, Profiles["notes"]))
	assert.False(t, shouldRegister(ToolAuditDrift, Profiles["notes"]))
}

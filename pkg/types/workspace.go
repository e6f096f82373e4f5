package types

// Workspace is a project root tracked once by name
type Workspace struct {
	ID   int64
	Name string `validate:"required"`
	Path string `validate:"required"`
}

// Validate checks the workspace fields
func (w *Workspace) Validate() error {
	return validateStruct(w)
}

// File is a workspace-relative file that has (or had) notes attached
type File struct {
	ID           int64
	RelativePath string `validate:"required"` // forward slashes, relative to the workspace root
	WorkspaceID  int64  `validate:"gt=0"`
}

// Validate checks the file fields
func (f *File) Validate() error {
	return validateStruct(f)
}

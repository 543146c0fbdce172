package sourcecode

// EditorID uniquely identifies a connected editor process.
type EditorID uint32

// Buffer uniquely identifies a file open in one particular connected editor.
// We don't use the file path: the same path can be open in more than one
// editor at once, each with its own unsaved changes, and a path is stringy
// where this pair of ints is cheap to copy and compare.
type Buffer struct {
	EditorID EditorID
	BufferID uint32
}

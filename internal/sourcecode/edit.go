package sourcecode

// Edit is a change an editor reported for one buffer: replace the bytes in
// [StartByte,OldEndByte) with NewBytes.
type Edit struct {
	Buffer     Buffer
	StartByte  int
	OldEndByte int
	NewBytes   []byte
}

package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/viant/elm-pair/internal/daemonlog"
	"github.com/viant/elm-pair/internal/sourcecode"
)

// NeovimListener speaks Neovim's msgpack-rpc channel protocol, one
// connection per editor instance. It both reads `nvim_buf_attach`
// notification events off the wire (Run) and, as a Driver, writes edits
// back via `nvim_call_atomic` (ApplyEdits); the read and write sides hold
// separate locks so a slow decode never blocks an outgoing refactor.
type NeovimListener struct {
	conn     net.Conn
	dec      *msgpack.Decoder
	editorID sourcecode.EditorID

	writeMu sync.Mutex
	enc     *msgpack.Encoder

	stateMu         sync.Mutex
	pendingPaths    map[uint32]string
	bufferBytes     map[sourcecode.Buffer][]byte
	refactorAllowed bool
}

var _ Driver = (*NeovimListener)(nil)

// NewNeovimListener wraps conn for one connected Neovim instance.
func NewNeovimListener(conn net.Conn, editorID sourcecode.EditorID) *NeovimListener {
	return &NeovimListener{
		conn:            conn,
		dec:             msgpack.NewDecoder(conn),
		enc:             msgpack.NewEncoder(conn),
		editorID:        editorID,
		pendingPaths:    map[uint32]string{},
		bufferBytes:     map[sourcecode.Buffer][]byte{},
		refactorAllowed: true,
	}
}

// Run decodes msgpack-rpc notifications until the connection closes or ctx
// is canceled, emitting Event values on events. It returns nil on a clean
// EOF (the editor disconnected) and an error on any other failure.
func (n *NeovimListener) Run(ctx context.Context, events chan<- Event) error {
	defer n.conn.Close()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg, err := n.dec.DecodeInterface()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("transport: neovim: decoding message: %w", err)
		}
		env, ok := msg.([]interface{})
		if !ok || len(env) != 3 {
			continue
		}
		kind, _ := toInt(env[0])
		if kind != 2 {
			// Only notifications ("type 2" in msgpack-rpc) are expected on
			// this channel; requests/responses would mean we're talking to
			// something other than a buffer-attach stream.
			continue
		}
		method, _ := env[1].(string)
		params, _ := env[2].([]interface{})
		n.handleNotification(method, params, events)
	}
}

func (n *NeovimListener) handleNotification(method string, params []interface{}, events chan<- Event) {
	switch method {
	case "buffer_opened":
		n.handleBufferOpened(params)
	case "nvim_buf_lines_event":
		n.handleBufLinesEvent(params, events)
	case "nvim_buf_changedtick_event":
		// Not interesting on their own; the lines event carries everything
		// the analysis loop needs.
	case "nvim_buf_detach_event":
		n.handleBufDetach(params)
	case "nvim_error_event":
		daemonlog.L().WithField("editor", n.editorID).Error("transport: neovim reported an error event")
	case "started_refactor":
		n.stateMu.Lock()
		n.refactorAllowed = false
		n.stateMu.Unlock()
	case "finished_refactor":
		n.stateMu.Lock()
		n.refactorAllowed = true
		n.stateMu.Unlock()
	default:
		daemonlog.L().WithField("method", method).Warn("transport: neovim: unrecognized notification")
	}
}

func (n *NeovimListener) handleBufferOpened(params []interface{}) {
	if len(params) < 2 {
		return
	}
	bufferID, ok := toInt(params[0])
	path, okPath := params[1].(string)
	if !ok || !okPath {
		return
	}
	n.stateMu.Lock()
	n.pendingPaths[uint32(bufferID)] = path
	n.stateMu.Unlock()
	n.attach(uint32(bufferID))
}

// attach sends nvim_buf_attach so Neovim starts streaming
// nvim_buf_lines_event notifications for this buffer.
func (n *NeovimListener) attach(bufferID uint32) {
	err := n.writeNotification("nvim_buf_attach", []interface{}{bufferID, true, map[string]interface{}{}})
	if err != nil {
		daemonlog.L().WithField("buffer_id", bufferID).WithError(err).Error("transport: neovim: nvim_buf_attach failed")
	}
}

func (n *NeovimListener) handleBufDetach(params []interface{}) {
	if len(params) < 1 {
		return
	}
	bufferID, ok := toInt(params[0])
	if !ok {
		return
	}
	n.attach(uint32(bufferID))
}

// handleBufLinesEvent implements the line-range-replacement protocol
// nvim_buf_attach streams: [buffer_id, changedtick, firstline, lastline,
// linedata, more]. lastline == -1 means linedata is the buffer's entire
// current contents (the initial event right after attach); otherwise it
// replaces lines [firstline, lastline) with linedata.
func (n *NeovimListener) handleBufLinesEvent(params []interface{}, events chan<- Event) {
	if len(params) < 5 {
		return
	}
	bufferID, ok := toInt(params[0])
	if !ok {
		return
	}
	firstline, _ := toInt(params[2])
	lastline, _ := toInt(params[3])
	lineData, _ := params[4].([]interface{})
	lines := make([]string, 0, len(lineData))
	for _, l := range lineData {
		s, _ := l.(string)
		lines = append(lines, s)
	}

	buf := sourcecode.Buffer{EditorID: n.editorID, BufferID: uint32(bufferID)}

	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	if lastline == -1 {
		content := strings.Join(lines, "\n")
		if len(lines) > 0 {
			content += "\n"
		}
		bytes := []byte(content)
		n.bufferBytes[buf] = bytes
		path := n.pendingPaths[uint32(bufferID)]
		delete(n.pendingPaths, uint32(bufferID))
		events <- OpenedBuffer{Buffer: buf, Path: path, InitialBytes: bytes}
		return
	}

	old, ok := n.bufferBytes[buf]
	if !ok {
		daemonlog.L().WithField("buffer", buf).Warn("transport: neovim: incremental update before initial lines event")
		return
	}

	startByte := byteOffsetOfLine(old, int(firstline))
	endByte := byteOffsetOfLine(old, int(lastline))
	replacement := strings.Join(lines, "\n")
	if len(lines) > 0 {
		replacement += "\n"
	}

	next := make([]byte, 0, len(old)-(endByte-startByte)+len(replacement))
	next = append(next, old[:startByte]...)
	next = append(next, []byte(replacement)...)
	next = append(next, old[endByte:]...)
	n.bufferBytes[buf] = next

	events <- ModifiedBuffer{
		Buffer: buf,
		Edit: sourcecode.Edit{
			Buffer:     buf,
			StartByte:  startByte,
			OldEndByte: endByte,
			NewBytes:   []byte(replacement),
		},
		RefactorAllowed: n.refactorAllowed,
	}
}

// byteOffsetOfLine returns the byte offset of the start of the lineNum'th
// line (0-indexed) in bytes, or len(bytes) if lineNum is beyond the end.
func byteOffsetOfLine(bytes []byte, lineNum int) int {
	if lineNum <= 0 {
		return 0
	}
	line := 0
	for i, b := range bytes {
		if b == '\n' {
			line++
			if line == lineNum {
				return i + 1
			}
		}
	}
	return len(bytes)
}

// ApplyEdits implements Driver: it bundles every edit into one
// nvim_call_atomic notification, bracketed by calls into two Lua globals
// Neovim's config is expected to define (_G.elm_pair_start_changes /
// _G.elm_pair_finished_changes) so the editor can tell elm-pair-originated
// buffer events apart from the programmer's own edits and avoid a
// refactor-triggered-by-refactor loop.
func (n *NeovimListener) ApplyEdits(edits []sourcecode.Edit) bool {
	if len(edits) == 0 {
		return true
	}

	calls := make([]interface{}, 0, len(edits)+2)
	calls = append(calls, []interface{}{"nvim_exec_lua", []interface{}{"return _G.elm_pair_start_changes()", []interface{}{}}})

	n.stateMu.Lock()
	for _, edit := range edits {
		old := n.bufferBytes[edit.Buffer]
		startRow, startCol := sourcecode.RowColumn(old, edit.StartByte)
		endRow, endCol := sourcecode.RowColumn(old, edit.OldEndByte)

		lines := strings.Split(string(edit.NewBytes), "\n")
		lineArgs := make([]interface{}, len(lines))
		for i, l := range lines {
			lineArgs[i] = l
		}

		calls = append(calls, []interface{}{"nvim_buf_set_text", []interface{}{
			edit.Buffer.BufferID, startRow, startCol, endRow, endCol, lineArgs,
		}})

		if old != nil {
			next := make([]byte, 0, len(old)-(edit.OldEndByte-edit.StartByte)+len(edit.NewBytes))
			next = append(next, old[:edit.StartByte]...)
			next = append(next, edit.NewBytes...)
			next = append(next, old[edit.OldEndByte:]...)
			n.bufferBytes[edit.Buffer] = next
		}
	}
	n.stateMu.Unlock()

	calls = append(calls, []interface{}{"nvim_exec_lua", []interface{}{"return _G.elm_pair_finished_changes()", []interface{}{}}})

	err := n.writeNotification("nvim_call_atomic", []interface{}{calls})
	if err != nil {
		daemonlog.L().WithError(err).Error("transport: neovim: failed sending refactor")
		return false
	}
	return true
}

func (n *NeovimListener) writeNotification(method string, params []interface{}) error {
	n.writeMu.Lock()
	defer n.writeMu.Unlock()
	return n.enc.Encode([]interface{}{2, method, params})
}

func toInt(v interface{}) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int32:
		return int64(t), true
	case int:
		return int64(t), true
	case int8:
		return int64(t), true
	case uint64:
		return int64(t), true
	case uint32:
		return int64(t), true
	case uint8:
		return int64(t), true
	default:
		return 0, false
	}
}

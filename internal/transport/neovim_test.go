package transport_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/viant/elm-pair/internal/sourcecode"
	"github.com/viant/elm-pair/internal/transport"
)

// pipePeer wires up an in-memory net.Conn pair and a NeovimListener reading
// one end, so tests can write msgpack-rpc notifications on the other end
// exactly as a real Neovim instance would. Like a real Neovim it also reads
// everything the listener writes (nvim_buf_attach, nvim_call_atomic) and
// hands those messages back on the returned writes channel.
func pipePeer(t *testing.T) (*transport.NeovimListener, net.Conn, chan transport.Event, chan []byte) {
	t.Helper()
	serverConn, clientConn := net.Pipe()
	t.Cleanup(func() { clientConn.Close() })

	listener := transport.NewNeovimListener(serverConn, 1)
	events := make(chan transport.Event, 16)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go listener.Run(ctx, events)

	writes := make(chan []byte, 16)
	go drainWrites(clientConn, writes)

	return listener, clientConn, events, writes
}

func writeNotification(t *testing.T, conn net.Conn, method string, params []interface{}) {
	t.Helper()
	enc := msgpack.NewEncoder(conn)
	require.NoError(t, enc.Encode([]interface{}{2, method, params}))
}

func waitForEvent(t *testing.T, events chan transport.Event) transport.Event {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestNeovimListener_BufferOpenedProducesOpenedBuffer(t *testing.T) {
	_, conn, events, _ := pipePeer(t)

	writeNotification(t, conn, "buffer_opened", []interface{}{uint32(7), "/tmp/Main.elm"})
	writeNotification(t, conn, "nvim_buf_lines_event", []interface{}{
		uint32(7), int64(0), int64(0), int64(-1),
		[]interface{}{"module Main exposing (main)", "", "main = 1"},
		false,
	})

	ev := waitForEvent(t, events)
	opened, ok := ev.(transport.OpenedBuffer)
	require.True(t, ok, "expected OpenedBuffer, got %T", ev)
	assert.Equal(t, "/tmp/Main.elm", opened.Path)
	assert.Equal(t, uint32(7), opened.Buffer.BufferID)
	assert.Contains(t, string(opened.InitialBytes), "main = 1")
}

func TestNeovimListener_IncrementalLineChangeProducesModifiedBuffer(t *testing.T) {
	_, conn, events, _ := pipePeer(t)

	writeNotification(t, conn, "buffer_opened", []interface{}{uint32(3), "/tmp/A.elm"})
	writeNotification(t, conn, "nvim_buf_lines_event", []interface{}{
		uint32(3), int64(0), int64(0), int64(-1),
		[]interface{}{"f = 1", "g = 2"},
		false,
	})
	require.IsType(t, transport.OpenedBuffer{}, waitForEvent(t, events))

	writeNotification(t, conn, "nvim_buf_lines_event", []interface{}{
		uint32(3), int64(1), int64(1), int64(2),
		[]interface{}{"g = 3"},
		false,
	})

	ev := waitForEvent(t, events)
	mod, ok := ev.(transport.ModifiedBuffer)
	require.True(t, ok, "expected ModifiedBuffer, got %T", ev)
	assert.Equal(t, uint32(3), mod.Buffer.BufferID)
	assert.True(t, mod.RefactorAllowed)
	assert.Equal(t, "g = 3\n", string(mod.Edit.NewBytes))
}

func TestNeovimListener_StartedRefactorSuppressesRefactorAllowed(t *testing.T) {
	_, conn, events, _ := pipePeer(t)

	writeNotification(t, conn, "buffer_opened", []interface{}{uint32(1), "/tmp/A.elm"})
	writeNotification(t, conn, "nvim_buf_lines_event", []interface{}{
		uint32(1), int64(0), int64(0), int64(-1),
		[]interface{}{"f = 1"},
		false,
	})
	require.IsType(t, transport.OpenedBuffer{}, waitForEvent(t, events))

	writeNotification(t, conn, "started_refactor", nil)
	writeNotification(t, conn, "nvim_buf_lines_event", []interface{}{
		uint32(1), int64(0), int64(0), int64(1),
		[]interface{}{"f = 2"},
		false,
	})

	ev := waitForEvent(t, events)
	mod := ev.(transport.ModifiedBuffer)
	assert.False(t, mod.RefactorAllowed)
}

// drainWrites reads every message the listener writes to the pipe, so the
// listener never blocks on an unread write, and passes each one on to out.
func drainWrites(conn net.Conn, out chan<- []byte) {
	dec := msgpack.NewDecoder(conn)
	for {
		var raw interface{}
		if err := dec.Decode(&raw); err != nil {
			return
		}
		buf, _ := msgpack.Marshal(raw)
		out <- buf
	}
}

func TestNeovimListener_ApplyEdits_EmptyIsNoopTrue(t *testing.T) {
	listener, _, _, _ := pipePeer(t)
	assert.True(t, listener.ApplyEdits(nil))
}

func TestNeovimListener_ApplyEdits_SendsAtomicCall(t *testing.T) {
	listener, conn, events, writes := pipePeer(t)

	writeNotification(t, conn, "buffer_opened", []interface{}{uint32(1), "/tmp/A.elm"})
	writeNotification(t, conn, "nvim_buf_lines_event", []interface{}{
		uint32(1), int64(0), int64(0), int64(-1),
		[]interface{}{"import List", "f = List.map g xs"},
		false,
	})
	opened := waitForEvent(t, events).(transport.OpenedBuffer)

	ok := listener.ApplyEdits([]sourcecode.Edit{{
		Buffer:     opened.Buffer,
		StartByte:  7,
		OldEndByte: 12,
		NewBytes:   []byte("Array"),
	}})
	assert.True(t, ok)

	// The nvim_buf_attach sent when the buffer opened comes first on the
	// wire; the atomic call follows it.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case raw := <-writes:
			var env []interface{}
			require.NoError(t, msgpack.Unmarshal(raw, &env))
			require.Len(t, env, 3)
			if env[1] == "nvim_buf_attach" {
				continue
			}
			assert.Equal(t, "nvim_call_atomic", env[1])
			return
		case <-deadline:
			t.Fatal("timed out waiting for nvim_call_atomic write")
		}
	}
}

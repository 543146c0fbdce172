package transport

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"

	"github.com/viant/elm-pair/internal/daemonlog"
	"github.com/viant/elm-pair/internal/sourcecode"
)

// Server accepts editor connections on a listener and turns each one into a
// NeovimListener goroutine, forwarding every Event (plus synthesized
// EditorConnected/EditorDisconnected events) onto a single shared channel
// the analysis loop reads from.
type Server struct {
	listener net.Listener
	nextID   uint32
	events   chan<- Event
}

// NewServer wraps listener; events is the shared channel the analysis loop
// reads from.
func NewServer(listener net.Listener, events chan<- Event) *Server {
	return &Server{listener: listener, events: events}
}

// Serve accepts connections until ctx is canceled or the listener errors.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.listener.Close()
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("transport: accept: %w", err)
		}
		id := sourcecode.EditorID(atomic.AddUint32(&s.nextID, 1))
		listener := NewNeovimListener(conn, id)
		s.events <- EditorConnected{EditorID: id, Driver: listener}
		go s.runEditor(ctx, id, listener)
	}
}

func (s *Server) runEditor(ctx context.Context, id sourcecode.EditorID, listener *NeovimListener) {
	if err := listener.Run(ctx, s.events); err != nil {
		daemonlog.L().WithField("editor", id).WithError(err).Warn("transport: editor connection ended")
	}
	s.events <- EditorDisconnected{EditorID: id}
}

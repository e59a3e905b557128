package tracert

import (
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// State is the lifecycle state of a Session.
type State int

const (
	StateUninitialized State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session owns the trace destination and the recorder.
// All methods are safe for concurrent use.
type Session struct {
	mu     sync.Mutex
	state  State
	out    io.Writer
	closer io.Closer
	rec    Recorder
	// broken is set after the first write error. Later events are dropped.
	broken  bool
	dropped uint64
	logger  *zap.Logger
}

// Open resolves the destination of conf and returns an open Session.
// An empty path selects stdout, which is never closed by the Session.
func Open(conf Config, stdout io.Writer, logger *zap.Logger) (*Session, error) {
	s := &Session{logger: logger}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	out, closer := stdout, io.Closer(nil)
	if conf.Path != "" {
		f, err := os.OpenFile(conf.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open trace output %s", conf.Path)
		}
		out, closer = f, f
	}
	s.open(out, closer, NewRecorder(conf.Format))
	return s, nil
}

// NewSession returns an open Session writing to w. w is not closed.
func NewSession(w io.Writer, rec Recorder, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{logger: logger}
	s.open(w, nil, rec)
	return s
}

// Discard returns a closed Session. Every event is dropped.
func Discard() *Session {
	return &Session{state: StateClosed, logger: zap.NewNop()}
}

func (s *Session) open(w io.Writer, closer io.Closer, rec Recorder) {
	s.out = w
	s.closer = closer
	s.rec = rec
	s.state = StateOpen
}

// Trace records the event of a block without a message.
func (s *Session) Trace(id uint32) {
	s.record(Event{BlockID: id})
}

// TraceMessage records the event of a block labeled with msg.
func (s *Session) TraceMessage(msg string, id uint32) {
	s.record(Event{Message: msg, HasMessage: true, BlockID: id})
}

func (s *Session) record(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateOpen || s.broken {
		s.dropped++
		return
	}
	if err := s.rec.Record(s.out, ev); err != nil {
		s.fail(err)
	}
}

// fail stops recording after an output error. The host program must not notice.
func (s *Session) fail(err error) {
	s.broken = true
	s.dropped++
	s.logger.Debug("trace output failed, dropping further events", zap.Error(err))
}

// Close flushes the recorder and releases the destination.
// Calling Close more than once is allowed.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateOpen {
		return nil
	}
	s.state = StateClosed

	var err error
	if !s.broken {
		err = s.rec.Flush(s.out)
	}
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
		s.closer = nil
	}
	s.out = nil
	if s.dropped > 0 {
		s.logger.Debug("trace events were dropped", zap.Uint64("dropped", s.dropped))
	}
	return errors.Wrap(err, "failed to close trace session")
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dropped returns the number of events that were not recorded.
func (s *Session) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

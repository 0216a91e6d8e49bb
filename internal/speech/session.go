// Package speech models dictation as a small state machine driven by a
// platform Recognizer, plus a Speaker abstraction for text-to-speech.
package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	// ErrInvalidTransition is returned when an event does not apply to the
	// session's current state.
	ErrInvalidTransition = errors.New("speech: invalid state transition")
	// ErrUnavailable is returned when the session has no recognizer.
	ErrUnavailable = errors.New("speech: recognition unavailable")
)

// DefaultLang is used when Start is called without a language.
const DefaultLang = "en-US"

// State is a dictation session state.
type State int

const (
	Idle State = iota
	Recording
	Result
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Result:
		return "result"
	case Error:
		return "error"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Recognizer is a platform speech-to-text engine. Recognized text and
// failures are delivered back through Session.OnResult and Session.OnError.
type Recognizer interface {
	Start(ctx context.Context, lang string) error
	Stop(ctx context.Context) error
}

// Status is a snapshot of a session.
type Status struct {
	State State  `json:"state"`
	Lang  string `json:"lang,omitempty"`
	Text  string `json:"text,omitempty"`
	Err   string `json:"error,omitempty"`
}

// Session drives one recognizer through Idle → Recording → (Result | Error)
// → Idle. It is safe for concurrent use; recognizer callbacks usually arrive
// on another goroutine.
type Session struct {
	mu    sync.Mutex
	rec   Recognizer
	log   *slog.Logger
	state State
	lang  string
	text  string
	err   error

	// gen counts recordings; stopping is set while rec.Stop runs.
	gen      uint64
	stopping bool
}

// NewSession constructs a session. A nil recognizer yields a session that
// reports itself unavailable.
func NewSession(rec Recognizer, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	return &Session{rec: rec, log: log}
}

// Available reports whether dictation can start at all.
func (s *Session) Available() bool { return s.rec != nil }

// Status returns the current snapshot.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{State: s.state, Lang: s.lang, Text: s.text}
	if s.err != nil {
		st.Err = s.err.Error()
	}
	return st
}

// Start begins recording. A finished session (Result or Error) is reset
// first. A recognizer failure moves the session to Error. The recognizer is
// called without the session lock held, so it may deliver events
// synchronously.
func (s *Session) Start(ctx context.Context, lang string) error {
	s.mu.Lock()
	if s.state == Recording {
		s.mu.Unlock()
		return fmt.Errorf("start while %s: %w", s.state, ErrInvalidTransition)
	}
	s.resetLocked()

	if lang == "" {
		lang = DefaultLang
	}
	s.lang = lang

	if s.rec == nil {
		s.fail(ErrUnavailable)
		s.mu.Unlock()
		return ErrUnavailable
	}
	s.state = Recording
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	err := s.rec.Start(ctx, lang)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		if s.gen == gen {
			s.fail(fmt.Errorf("starting recognizer: %w", err))
		}
		return fmt.Errorf("starting recognizer: %w", err)
	}
	s.log.Debug("dictation started", "lang", lang)
	return nil
}

// Stop ends recording and returns the session to Idle. A final result the
// recognizer delivers while stopping is kept. Recognizer stop errors are
// logged; the session still stops.
func (s *Session) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Recording || s.stopping {
		s.mu.Unlock()
		return fmt.Errorf("stop while %s: %w", s.state, ErrInvalidTransition)
	}
	s.stopping = true
	gen := s.gen
	s.mu.Unlock()

	err := s.rec.Stop(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopping = false
	if err != nil {
		s.log.Warn("stopping recognizer", "err", err)
	}
	if s.gen == gen && s.state == Recording {
		s.state = Idle
	}
	return nil
}

// OnResult delivers recognized text and moves Recording to Result.
func (s *Session) OnResult(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Recording {
		return fmt.Errorf("result while %s: %w", s.state, ErrInvalidTransition)
	}
	s.text = text
	s.state = Result
	return nil
}

// OnError delivers a recognizer failure and moves Recording to Error.
func (s *Session) OnError(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Recording {
		return fmt.Errorf("error while %s: %w", s.state, ErrInvalidTransition)
	}
	if err == nil {
		err = errors.New("unknown recognition error")
	}
	s.fail(err)
	return nil
}

// Reset clears a finished session back to Idle.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Recording {
		return fmt.Errorf("reset while %s: %w", s.state, ErrInvalidTransition)
	}
	s.resetLocked()
	return nil
}

func (s *Session) resetLocked() {
	s.state = Idle
	s.text = ""
	s.err = nil
}

func (s *Session) fail(err error) {
	s.err = err
	s.state = Error
	s.log.Warn("dictation failed", "lang", s.lang, "err", err)
}

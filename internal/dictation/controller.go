// Package dictation models the speech-to-text session as an explicit state
// machine over a typed event stream, instead of scattered recognizer
// callbacks. The actual recognizer runs on the client platform; its
// partial/final/error/ended signals are fed into the controller, which owns
// the live input value.
package dictation

import (
	"errors"
	"log"
	"strings"
	"sync"
)

// Locale is the fixed dictation language tag.
const Locale = "es-ES"

// ErrUnavailable signals that the platform has no dictation capability.
var ErrUnavailable = errors.New("dictation: speech recognition unavailable")

// Recognizer controls one platform speech session.
type Recognizer interface {
	// Start begins capture; the platform then emits events until Ended.
	Start() error
	// Stop requests a graceful stop; the platform confirms with an ended
	// event.
	Stop()
	// Abort discards the session immediately. No further events for it are
	// honored.
	Abort()
}

// Factory creates a recognizer for a new session, or ErrUnavailable.
type Factory func() (Recognizer, error)

// EventKind classifies recognizer events.
type EventKind string

const (
	EventPartial EventKind = "partial"
	EventFinal   EventKind = "final"
	EventError   EventKind = "error"
	EventEnded   EventKind = "ended"
)

// Recognizer error codes, mirroring the platform's taxonomy.
const (
	ErrCodeNoSpeech   = "no-speech"
	ErrCodeNotAllowed = "not-allowed"
)

// Event is one recognizer signal.
type Event struct {
	Kind       EventKind `json:"kind"`
	Transcript string    `json:"transcript,omitempty"`
	Code       string    `json:"code,omitempty"`
}

// State of the dictation controller.
type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
)

// User-visible notices.
const (
	noticeUnavailable      = "Tu navegador no soporta reconocimiento de voz. Usa Chrome/Android o Safari/iOS."
	noticePermissionDenied = "Permiso de micrófono denegado."
)

// session is one dictation run. baseText is the input value captured when
// the session started; finals accumulate, interim is replaced wholesale.
type session struct {
	baseText string
	finals   []string
	interim  string
}

// value recomputes the live input: base plus accumulated finals plus the
// newest interim, single-space separated, trimmed.
func (s *session) value() string {
	parts := make([]string, 0, len(s.finals)+2)
	if t := strings.TrimSpace(s.baseText); t != "" {
		parts = append(parts, t)
	}
	for _, f := range s.finals {
		if t := strings.TrimSpace(f); t != "" {
			parts = append(parts, t)
		}
	}
	if t := strings.TrimSpace(s.interim); t != "" {
		parts = append(parts, t)
	}
	return strings.Join(parts, " ")
}

// Controller cycles between Idle and Recording; at most one session exists
// at a time.
type Controller struct {
	mu       sync.Mutex
	state    State
	factory  Factory
	rec      Recognizer
	sess     *session
	onInput  func(value string)
	onNotice func(text string)
}

// NewController returns an idle controller with no platform attached.
func NewController() *Controller {
	return &Controller{state: StateIdle}
}

// Attach binds the platform recognizer factory and the observers for live
// input updates and user-visible notices. Called when a client connects.
func (c *Controller) Attach(f Factory, onInput, onNotice func(string)) {
	c.mu.Lock()
	c.factory = f
	c.onInput = onInput
	c.onNotice = onNotice
	c.mu.Unlock()
}

// Detach aborts any active session and unbinds the platform.
func (c *Controller) Detach() {
	c.Abort()
	c.mu.Lock()
	c.factory = nil
	c.onInput = nil
	c.onNotice = nil
	c.mu.Unlock()
}

// State reports the current controller state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Toggle starts a session capturing baseText as the pre-dictation input
// value, or requests a stop of the active one. Stopping is asynchronous:
// the state flips to Idle once the platform confirms with an ended event.
func (c *Controller) Toggle(baseText string) {
	c.mu.Lock()
	if c.state == StateRecording {
		rec := c.rec
		c.mu.Unlock()
		if rec != nil {
			rec.Stop()
		}
		return
	}
	factory := c.factory
	notice := c.onNotice
	c.mu.Unlock()

	if factory == nil {
		c.notify(notice, noticeUnavailable)
		return
	}
	rec, err := factory()
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			c.notify(notice, noticeUnavailable)
		} else {
			log.Printf("dictation: recognizer create failed: %v", err)
		}
		return
	}

	c.mu.Lock()
	if c.state == StateRecording {
		// Lost the race to another toggle; never run two sessions.
		c.mu.Unlock()
		rec.Abort()
		return
	}
	c.rec = rec
	c.sess = &session{baseText: baseText}
	c.state = StateRecording
	c.mu.Unlock()

	if err := rec.Start(); err != nil {
		log.Printf("dictation: start failed: %v", err)
		c.mu.Lock()
		c.rec = nil
		c.sess = nil
		c.state = StateIdle
		c.mu.Unlock()
	}
}

// HandleEvent consumes one recognizer event. Events arriving after the
// session was aborted or ended are discarded.
func (c *Controller) HandleEvent(ev Event) {
	c.mu.Lock()
	if c.sess == nil {
		c.mu.Unlock()
		return
	}
	switch ev.Kind {
	case EventPartial:
		c.sess.interim = ev.Transcript
		value := c.sess.value()
		onInput := c.onInput
		c.mu.Unlock()
		c.push(onInput, value)
	case EventFinal:
		c.sess.finals = append(c.sess.finals, ev.Transcript)
		c.sess.interim = ""
		value := c.sess.value()
		onInput := c.onInput
		c.mu.Unlock()
		c.push(onInput, value)
	case EventError:
		if ev.Code == ErrCodeNoSpeech {
			// Transient; the session continues unchanged.
			c.mu.Unlock()
			log.Printf("dictation: no speech detected, session continues")
			return
		}
		notice := c.onNotice
		c.rec = nil
		c.sess = nil
		c.state = StateIdle
		c.mu.Unlock()
		if ev.Code == ErrCodeNotAllowed {
			c.notify(notice, noticePermissionDenied)
		} else {
			log.Printf("dictation: session ended by error %q", ev.Code)
		}
	case EventEnded:
		c.rec = nil
		c.sess = nil
		c.state = StateIdle
		c.mu.Unlock()
	default:
		c.mu.Unlock()
	}
}

// Abort force-ends any active session without waiting for platform
// confirmation and discards its handle, so trailing events cannot
// overwrite the input box with stale text.
func (c *Controller) Abort() {
	c.mu.Lock()
	rec := c.rec
	c.rec = nil
	c.sess = nil
	c.state = StateIdle
	c.mu.Unlock()
	if rec != nil {
		rec.Abort()
	}
}

func (c *Controller) push(onInput func(string), value string) {
	if onInput != nil {
		onInput(value)
	}
}

func (c *Controller) notify(onNotice func(string), text string) {
	if onNotice != nil {
		onNotice(text)
	} else {
		log.Printf("dictation: %s", text)
	}
}

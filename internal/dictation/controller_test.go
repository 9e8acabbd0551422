package dictation

import (
	"sync"
	"testing"
)

type fakeRecognizer struct {
	mu      sync.Mutex
	started int
	stopped int
	aborted int
}

func (f *fakeRecognizer) Start() error { f.mu.Lock(); f.started++; f.mu.Unlock(); return nil }
func (f *fakeRecognizer) Stop()        { f.mu.Lock(); f.stopped++; f.mu.Unlock() }
func (f *fakeRecognizer) Abort()       { f.mu.Lock(); f.aborted++; f.mu.Unlock() }

type harness struct {
	ctrl    *Controller
	rec     *fakeRecognizer
	creates int
	inputs  []string
	notices []string
}

func newHarness() *harness {
	h := &harness{ctrl: NewController(), rec: &fakeRecognizer{}}
	h.ctrl.Attach(
		func() (Recognizer, error) { h.creates++; return h.rec, nil },
		func(v string) { h.inputs = append(h.inputs, v) },
		func(n string) { h.notices = append(h.notices, n) },
	)
	return h
}

func (h *harness) lastInput() string {
	if len(h.inputs) == 0 {
		return ""
	}
	return h.inputs[len(h.inputs)-1]
}

func TestToggle_StartsThenRequestsStop(t *testing.T) {
	h := newHarness()
	h.ctrl.Toggle("")
	if h.ctrl.State() != StateRecording {
		t.Fatalf("expected recording after first toggle")
	}
	// Second toggle requests stop but stays recording until the platform
	// confirms; it must never spawn a second session.
	h.ctrl.Toggle("")
	if h.creates != 1 {
		t.Fatalf("expected a single recognizer, created %d", h.creates)
	}
	if h.rec.stopped != 1 {
		t.Fatalf("expected stop request, got %d", h.rec.stopped)
	}
	if h.ctrl.State() != StateRecording {
		t.Fatalf("stop is asynchronous; state flips on ended event")
	}
	h.ctrl.HandleEvent(Event{Kind: EventEnded})
	if h.ctrl.State() != StateIdle {
		t.Fatalf("expected idle after ended event")
	}
}

func TestCompose_FinalThenInterim(t *testing.T) {
	h := newHarness()
	h.ctrl.Toggle("")
	h.ctrl.HandleEvent(Event{Kind: EventFinal, Transcript: "hola"})
	h.ctrl.HandleEvent(Event{Kind: EventPartial, Transcript: "mundo"})
	if got := h.lastInput(); got != "hola mundo" {
		t.Fatalf("expected %q, got %q", "hola mundo", got)
	}
}

func TestCompose_BaseTextSeparator(t *testing.T) {
	h := newHarness()
	h.ctrl.Toggle("foo")
	h.ctrl.HandleEvent(Event{Kind: EventFinal, Transcript: "bar"})
	if got := h.lastInput(); got != "foo bar" {
		t.Fatalf("expected %q, got %q", "foo bar", got)
	}
}

func TestCompose_InterimReplacedWholesale(t *testing.T) {
	h := newHarness()
	h.ctrl.Toggle("")
	h.ctrl.HandleEvent(Event{Kind: EventPartial, Transcript: "ho"})
	h.ctrl.HandleEvent(Event{Kind: EventPartial, Transcript: "hola que"})
	h.ctrl.HandleEvent(Event{Kind: EventFinal, Transcript: "hola qué tal"})
	if got := h.lastInput(); got != "hola qué tal" {
		t.Fatalf("interim must not accumulate, got %q", got)
	}
	h.ctrl.HandleEvent(Event{Kind: EventFinal, Transcript: "amigo"})
	if got := h.lastInput(); got != "hola qué tal amigo" {
		t.Fatalf("finals must accumulate, got %q", got)
	}
}

func TestError_NoSpeechIsTransient(t *testing.T) {
	h := newHarness()
	h.ctrl.Toggle("")
	h.ctrl.HandleEvent(Event{Kind: EventError, Code: ErrCodeNoSpeech})
	if h.ctrl.State() != StateRecording {
		t.Fatalf("no-speech must not end the session")
	}
	// The session still works afterwards.
	h.ctrl.HandleEvent(Event{Kind: EventFinal, Transcript: "sigo aquí"})
	if got := h.lastInput(); got != "sigo aquí" {
		t.Fatalf("unexpected input %q", got)
	}
}

func TestError_PermissionDeniedNotifies(t *testing.T) {
	h := newHarness()
	h.ctrl.Toggle("")
	h.ctrl.HandleEvent(Event{Kind: EventError, Code: ErrCodeNotAllowed})
	if h.ctrl.State() != StateIdle {
		t.Fatalf("permission denial must end the session")
	}
	if len(h.notices) != 1 {
		t.Fatalf("expected one user-visible notice, got %v", h.notices)
	}
}

func TestError_OtherEndsSilently(t *testing.T) {
	h := newHarness()
	h.ctrl.Toggle("")
	h.ctrl.HandleEvent(Event{Kind: EventError, Code: "network"})
	if h.ctrl.State() != StateIdle {
		t.Fatalf("fatal error must end the session")
	}
	if len(h.notices) != 0 {
		t.Fatalf("fatal non-permission errors are silent, got %v", h.notices)
	}
}

func TestAbort_DiscardsTrailingEvents(t *testing.T) {
	h := newHarness()
	h.ctrl.Toggle("base")
	h.ctrl.HandleEvent(Event{Kind: EventFinal, Transcript: "texto"})
	h.ctrl.Abort()
	if h.ctrl.State() != StateIdle {
		t.Fatalf("abort must idle immediately")
	}
	if h.rec.aborted != 1 {
		t.Fatalf("abort must reach the recognizer")
	}
	before := len(h.inputs)
	h.ctrl.HandleEvent(Event{Kind: EventPartial, Transcript: "fantasma"})
	h.ctrl.HandleEvent(Event{Kind: EventEnded})
	if len(h.inputs) != before {
		t.Fatalf("stale events must not rewrite the input")
	}
}

func TestToggle_CapabilityUnavailable(t *testing.T) {
	c := NewController()
	var notices []string
	c.Attach(func() (Recognizer, error) { return nil, ErrUnavailable },
		nil,
		func(n string) { notices = append(notices, n) })
	c.Toggle("")
	if c.State() != StateIdle {
		t.Fatalf("must stay idle without capability")
	}
	if len(notices) != 1 {
		t.Fatalf("expected capability notice, got %v", notices)
	}
}

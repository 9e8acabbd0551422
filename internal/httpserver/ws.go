package httpserver

import (
	"log"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/marcoxskii/ProyectoFinalAprendizajeAut/internal/dictation"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The widget is served same-origin behind the storefront proxy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsMessage is the single frame format on the dictation socket, both
// directions. Client -> server: hello, toggle, partial, final, error,
// ended, abort. Server -> client: start, stop, abort (recognizer control),
// input, notice, state.
type wsMessage struct {
	Type       string `json:"type"`
	Base       string `json:"base,omitempty"`
	Transcript string `json:"transcript,omitempty"`
	Code       string `json:"code,omitempty"`
	Value      string `json:"value,omitempty"`
	Text       string `json:"text,omitempty"`
	State      string `json:"state,omitempty"`
	Lang       string `json:"lang,omitempty"`
	Interim    bool   `json:"interim,omitempty"`
	Speech     *bool  `json:"speech,omitempty"`
}

// wsRecognizer drives the browser's speech recognizer over the socket. The
// platform session itself lives client-side; Start/Stop/Abort are control
// frames.
type wsRecognizer struct {
	send func(wsMessage) error
}

func (r *wsRecognizer) Start() error {
	return r.send(wsMessage{Type: "start", Lang: dictation.Locale, Interim: true})
}

func (r *wsRecognizer) Stop() {
	_ = r.send(wsMessage{Type: "stop"})
}

func (r *wsRecognizer) Abort() {
	_ = r.send(wsMessage{Type: "abort"})
}

// dictationSocket owns one client's dictation channel: recognizer events
// flow in, live input values and notices flow out.
func (s *Server) dictationSocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	var writeMu sync.Mutex
	send := func(m wsMessage) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(m)
	}

	// Capability defaults to available until the client says otherwise.
	var speechUnavailable atomic.Bool

	ctrl := s.deps.Dictation
	ctrl.Attach(
		func() (dictation.Recognizer, error) {
			if speechUnavailable.Load() {
				return nil, dictation.ErrUnavailable
			}
			return &wsRecognizer{send: send}, nil
		},
		func(value string) { _ = send(wsMessage{Type: "input", Value: value}) },
		func(text string) { _ = send(wsMessage{Type: "notice", Text: text}) },
	)
	defer ctrl.Detach()

	pushState := func() {
		_ = send(wsMessage{Type: "state", State: string(ctrl.State())})
	}

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("dictation socket: read error: %v", err)
			}
			return nil
		}
		switch msg.Type {
		case "hello":
			if msg.Speech != nil && !*msg.Speech {
				speechUnavailable.Store(true)
			}
		case "toggle":
			ctrl.Toggle(msg.Base)
			pushState()
		case "partial":
			ctrl.HandleEvent(dictation.Event{Kind: dictation.EventPartial, Transcript: msg.Transcript})
		case "final":
			ctrl.HandleEvent(dictation.Event{Kind: dictation.EventFinal, Transcript: msg.Transcript})
		case "error":
			ctrl.HandleEvent(dictation.Event{Kind: dictation.EventError, Code: msg.Code})
			pushState()
		case "ended":
			ctrl.HandleEvent(dictation.Event{Kind: dictation.EventEnded})
			pushState()
		case "abort":
			ctrl.Abort()
			pushState()
		default:
			log.Printf("dictation socket: unknown frame type %q", msg.Type)
		}
	}
}

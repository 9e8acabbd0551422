// Package httpserver exposes the assistant widget over HTTP: the message
// log, text sends, media captures, narration control and the dictation
// websocket.
package httpserver

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/marcoxskii/ProyectoFinalAprendizajeAut/internal/assistant"
	"github.com/marcoxskii/ProyectoFinalAprendizajeAut/internal/chat"
	"github.com/marcoxskii/ProyectoFinalAprendizajeAut/internal/dictation"
	"github.com/marcoxskii/ProyectoFinalAprendizajeAut/internal/markdown"
	"github.com/marcoxskii/ProyectoFinalAprendizajeAut/internal/playback"
	"github.com/marcoxskii/ProyectoFinalAprendizajeAut/internal/vision"
)

// Deps bundles the widget components the server exposes.
type Deps struct {
	Store        *chat.Store
	Orchestrator *assistant.Orchestrator
	Playback     *playback.Controller
	Sink         *playback.BufferSink
	Vision       *vision.Adapter
	Dictation    *dictation.Controller
}

// Server is the configured echo application.
type Server struct {
	Echo *echo.Echo
	deps Deps
}

// New constructs the HTTP server with routes. Recover middleware keeps one
// failing handler from breaking subsequent user actions.
func New(d Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{Echo: e, deps: d}

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/api/widget/messages", s.listMessages)
	e.POST("/api/widget/messages", s.sendMessage)
	e.POST("/api/widget/media", s.submitMedia)
	e.POST("/api/widget/narration", s.setNarration)
	e.POST("/api/widget/speak", s.speak)
	e.GET("/api/widget/audio", s.currentAudio)
	e.POST("/api/widget/audio/done", s.audioDone)
	e.GET("/api/widget/playback", s.playbackState)
	e.POST("/api/widget/playback/stop", s.stopPlayback)
	e.GET("/widget/dictation", s.dictationSocket)

	return s
}

// messageView is a message plus its rendered blocks. Only bot replies are
// formatted; user text is shown verbatim.
type messageView struct {
	chat.Message
	Blocks []markdown.Block `json:"blocks,omitempty"`
}

func (s *Server) messageViews() []messageView {
	msgs := s.deps.Store.List()
	views := make([]messageView, 0, len(msgs))
	for _, m := range msgs {
		v := messageView{Message: m}
		if m.Role == chat.RoleBot {
			v.Blocks = markdown.Render(m.Text)
		}
		views = append(views, v)
	}
	return views
}

func (s *Server) listMessages(c echo.Context) error {
	return c.JSON(http.StatusOK, s.messageViews())
}

type sendRequest struct {
	Text string `json:"text"`
}

func (s *Server) sendMessage(c echo.Context) error {
	var req sendRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if strings.TrimSpace(req.Text) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "empty text")
	}
	if err := s.deps.Orchestrator.SendText(c.Request().Context(), req.Text); err != nil {
		log.Printf("httpserver: send failed: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "send failed")
	}
	return c.JSON(http.StatusOK, s.messageViews())
}

func (s *Server) submitMedia(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing file")
	}
	kind := chat.MediaKind(c.FormValue("kind"))
	if kind == "" {
		kind = chat.MediaImage
	}
	if kind != chat.MediaImage && kind != chat.MediaVideo {
		return echo.NewHTTPError(http.StatusBadRequest, "kind must be image or video")
	}
	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable file")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable file")
	}

	if err := s.deps.Vision.Submit(c.Request().Context(), kind, fh.Filename, data); err != nil {
		if errors.Is(err, vision.ErrAnalysisInProgress) {
			return echo.NewHTTPError(http.StatusConflict, "analysis already in progress")
		}
		log.Printf("httpserver: media submit failed: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "media submit failed")
	}
	return c.JSON(http.StatusOK, s.messageViews())
}

type narrationRequest struct {
	Enabled bool `json:"enabled"`
}

func (s *Server) setNarration(c echo.Context) error {
	var req narrationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	s.deps.Playback.SetAutoNarrate(req.Enabled)
	return c.NoContent(http.StatusNoContent)
}

type speakRequest struct {
	ID int64 `json:"id"`
}

// speak narrates a single message on demand, regardless of the automatic
// narration toggle.
func (s *Server) speak(c echo.Context) error {
	var req speakRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	for _, m := range s.deps.Store.List() {
		if m.ID == req.ID {
			// Playback outlives the request.
			s.deps.Playback.Play(context.Background(), m.Text)
			return c.NoContent(http.StatusAccepted)
		}
	}
	return echo.NewHTTPError(http.StatusNotFound, "no such message")
}

func (s *Server) currentAudio(c echo.Context) error {
	clip := s.deps.Sink.Current()
	if len(clip) == 0 {
		return c.NoContent(http.StatusNoContent)
	}
	return c.Blob(http.StatusOK, "audio/mpeg", clip)
}

func (s *Server) audioDone(c echo.Context) error {
	s.deps.Sink.Done()
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) playbackState(c echo.Context) error {
	state, source := s.deps.Playback.State()
	return c.JSON(http.StatusOK, map[string]string{"state": string(state), "source": source})
}

func (s *Server) stopPlayback(c echo.Context) error {
	s.deps.Playback.Stop()
	return c.NoContent(http.StatusNoContent)
}

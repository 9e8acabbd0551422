package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/marcoxskii/ProyectoFinalAprendizajeAut/internal/assistant"
	"github.com/marcoxskii/ProyectoFinalAprendizajeAut/internal/chat"
	"github.com/marcoxskii/ProyectoFinalAprendizajeAut/internal/dictation"
	"github.com/marcoxskii/ProyectoFinalAprendizajeAut/internal/inventory"
	"github.com/marcoxskii/ProyectoFinalAprendizajeAut/internal/llm"
	"github.com/marcoxskii/ProyectoFinalAprendizajeAut/internal/playback"
	"github.com/marcoxskii/ProyectoFinalAprendizajeAut/internal/vision"
)

type stubLLM struct{ reply string }

func (s stubLLM) Complete(ctx context.Context, turns []llm.Turn) (string, error) {
	return s.reply, nil
}

type stubSynth struct{}

func (stubSynth) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return []byte("clip"), nil
}

type stubDetector struct{ det vision.Detection }

func (s stubDetector) Detect(ctx context.Context, kind chat.MediaKind, filename string, data []byte) (vision.Detection, error) {
	return s.det, nil
}

func newTestServer(reply string) (*Server, *chat.Store) {
	store := chat.NewStore()
	store.Append(chat.RoleBot, assistant.Greeting, nil)
	sink := playback.NewBufferSink()
	pb := playback.New(stubSynth{}, sink)
	orch := assistant.New(store, stubLLM{reply: reply}, pb, inventory.Fallback())
	dict := dictation.NewController()
	vis := vision.NewAdapter(store, stubDetector{det: vision.Detection{Prediction: "Desconocido"}}, orch, dict, pb)
	return New(Deps{
		Store:        store,
		Orchestrator: orch,
		Playback:     pb,
		Sink:         sink,
		Vision:       vis,
		Dictation:    dict,
	}), store
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer("ok")
	r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	s.Echo.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestListMessages_RendersBotBlocks(t *testing.T) {
	s, _ := newTestServer("ok")
	r := httptest.NewRequest(http.MethodGet, "/api/widget/messages", nil)
	w := httptest.NewRecorder()
	s.Echo.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var views []struct {
		chat.Message
		Blocks []json.RawMessage `json:"blocks"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &views); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(views) != 1 || len(views[0].Blocks) == 0 {
		t.Fatalf("greeting must come with rendered blocks, got %#v", views)
	}
}

func TestSendMessage_AppendsUserAndReply(t *testing.T) {
	s, store := newTestServer("### Hola\n- **ThinkPad** disponible")
	body := strings.NewReader(`{"text":"busco laptop"}`)
	r := httptest.NewRequest(http.MethodPost, "/api/widget/messages", body)
	r.Header.Set(echoContentType, "application/json")
	w := httptest.NewRecorder()
	s.Echo.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	msgs := store.List()
	if len(msgs) != 3 {
		t.Fatalf("expected greeting+user+reply, got %d", len(msgs))
	}
	if msgs[1].Role != chat.RoleUser || msgs[2].Role != chat.RoleBot {
		t.Fatalf("unexpected roles %#v", msgs)
	}
}

func TestSendMessage_EmptyTextRejected(t *testing.T) {
	s, _ := newTestServer("ok")
	r := httptest.NewRequest(http.MethodPost, "/api/widget/messages", strings.NewReader(`{"text":"   "}`))
	r.Header.Set(echoContentType, "application/json")
	w := httptest.NewRecorder()
	s.Echo.ServeHTTP(w, r)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestNarrationToggle(t *testing.T) {
	s, _ := newTestServer("ok")
	r := httptest.NewRequest(http.MethodPost, "/api/widget/narration", strings.NewReader(`{"enabled":false}`))
	r.Header.Set(echoContentType, "application/json")
	w := httptest.NewRecorder()
	s.Echo.ServeHTTP(w, r)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if s.deps.Playback.AutoNarrate() {
		t.Fatalf("auto narration should be off")
	}
}

func TestSpeak_UnknownMessage(t *testing.T) {
	s, _ := newTestServer("ok")
	r := httptest.NewRequest(http.MethodPost, "/api/widget/speak", strings.NewReader(`{"id":999}`))
	r.Header.Set(echoContentType, "application/json")
	w := httptest.NewRecorder()
	s.Echo.ServeHTTP(w, r)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestSpeak_KnownMessageAccepted(t *testing.T) {
	s, store := newTestServer("ok")
	id := store.List()[0].ID
	body := strings.NewReader(`{"id":` + jsonInt(id) + `}`)
	r := httptest.NewRequest(http.MethodPost, "/api/widget/speak", body)
	r.Header.Set(echoContentType, "application/json")
	w := httptest.NewRecorder()
	s.Echo.ServeHTTP(w, r)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}
}

func TestStopPlayback(t *testing.T) {
	s, _ := newTestServer("ok")
	r := httptest.NewRequest(http.MethodPost, "/api/widget/playback/stop", nil)
	w := httptest.NewRecorder()
	s.Echo.ServeHTTP(w, r)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	r = httptest.NewRequest(http.MethodGet, "/api/widget/playback", nil)
	w = httptest.NewRecorder()
	s.Echo.ServeHTTP(w, r)
	if !strings.Contains(w.Body.String(), `"state":"idle"`) {
		t.Fatalf("expected idle playback state, got %s", w.Body.String())
	}
}

func TestCurrentAudio_EmptySlot(t *testing.T) {
	s, _ := newTestServer("ok")
	r := httptest.NewRequest(http.MethodGet, "/api/widget/audio", nil)
	w := httptest.NewRecorder()
	s.Echo.ServeHTTP(w, r)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
}

func TestSubmitMedia_BadKind(t *testing.T) {
	s, _ := newTestServer("ok")
	body, contentType := multipartFile(t, "file", "a.jpg", []byte("x"), map[string]string{"kind": "audio"})
	r := httptest.NewRequest(http.MethodPost, "/api/widget/media", body)
	r.Header.Set(echoContentType, contentType)
	w := httptest.NewRecorder()
	s.Echo.ServeHTTP(w, r)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestSubmitMedia_ImageFlow(t *testing.T) {
	s, store := newTestServer("No reconozco ese producto.")
	body, contentType := multipartFile(t, "file", "a.jpg", []byte("x"), map[string]string{"kind": "image"})
	r := httptest.NewRequest(http.MethodPost, "/api/widget/media", body)
	r.Header.Set(echoContentType, contentType)
	w := httptest.NewRecorder()
	s.Echo.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	msgs := store.List()
	// greeting + caption + reply
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[1].Media == nil || msgs[1].Media.Kind != chat.MediaImage {
		t.Fatalf("caption must carry media, got %#v", msgs[1])
	}
}

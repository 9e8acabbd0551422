// Package vision turns an image or video capture into a detection request
// and a derived assistant prompt. The detection label never becomes a
// message by itself; it is folded into the prompt as a vision-context
// string.
package vision

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/marcoxskii/ProyectoFinalAprendizajeAut/internal/chat"
)

// UnknownLabel is the detection backend's sentinel for "no product
// recognized"; it suppresses the identify clause of the derived prompt.
const UnknownLabel = "Desconocido"

// ErrAnalysisInProgress rejects a submission while another is in flight.
// Submissions are serialized, not queued.
var ErrAnalysisInProgress = errors.New("vision: analysis already in progress")

// Fixed captions and error messages, per capture kind.
const (
	captionImage = "Analiza esta imagen"
	captionVideo = "Analiza este video"
	errorImage   = "No pude procesar la imagen. Verifica el servidor."
	errorVideo   = "No pude procesar el video. Verifica el servidor."
)

// Sender forwards a derived prompt plus vision context to the orchestrator.
type Sender interface {
	Send(ctx context.Context, promptText, visionContext string) error
}

// MicAborter force-stops an active dictation session so its trailing events
// cannot resurface stale text after the capture flow takes focus.
type MicAborter interface {
	Abort()
}

// Narrator narrates the detection error message when narration is enabled.
type Narrator interface {
	NarrateIfEnabled(ctx context.Context, text string)
}

// Adapter runs the capture-to-prompt flow.
type Adapter struct {
	store    *chat.Store
	detector Detector
	sender   Sender
	mic      MicAborter
	narrator Narrator

	mu   sync.Mutex
	busy bool
}

// NewAdapter wires the capture flow over the shared message log.
func NewAdapter(store *chat.Store, detector Detector, sender Sender, mic MicAborter, narrator Narrator) *Adapter {
	return &Adapter{store: store, detector: detector, sender: sender, mic: mic, narrator: narrator}
}

// Busy reports whether an analysis is in flight.
func (a *Adapter) Busy() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.busy
}

// Submit runs the whole flow for one capture: preview message, mic abort,
// detection upload, prompt derivation and forwarding. The in-progress flag
// is cleared on every path.
func (a *Adapter) Submit(ctx context.Context, kind chat.MediaKind, filename string, data []byte) error {
	a.mu.Lock()
	if a.busy {
		a.mu.Unlock()
		return ErrAnalysisInProgress
	}
	a.busy = true
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.busy = false
		a.mu.Unlock()
	}()

	id := uuid.NewString()
	preview := fmt.Sprintf("capture://%s/%s", id, filename)
	caption, errorMsg := captionImage, errorImage
	if kind == chat.MediaVideo {
		caption, errorMsg = captionVideo, errorVideo
	}
	a.store.Append(chat.RoleUser, caption, &chat.Media{Kind: kind, Reference: preview})

	if a.mic != nil {
		a.mic.Abort()
	}

	det, err := a.detector.Detect(ctx, kind, filename, data)
	if err != nil {
		log.Printf("vision[%s]: detection failed: %v", id, err)
		a.store.Append(chat.RoleBot, errorMsg, nil)
		if a.narrator != nil {
			// Narration outlives the originating request.
			a.narrator.NarrateIfEnabled(context.Background(), errorMsg)
		}
		return nil
	}

	label := det.Prediction
	if label == "" {
		label = UnknownLabel
	}
	log.Printf("vision[%s]: model prediction %q", id, label)

	prompt, visionContext := derivePrompt(kind, label, det.Confidence)
	if err := a.sender.Send(ctx, prompt, visionContext); err != nil {
		log.Printf("vision[%s]: send failed: %v", id, err)
	}
	return nil
}

// derivePrompt formats the vision-context string and the prompt asking the
// assistant to describe the detected product. The identify clause is
// omitted for the unknown sentinel.
func derivePrompt(kind chat.MediaKind, label string, confidence *float64) (prompt, visionContext string) {
	pct := "N/A"
	if confidence != nil {
		pct = fmt.Sprintf("%.1f", *confidence*100)
	}
	if kind == chat.MediaVideo {
		visionContext = fmt.Sprintf("El sistema de visión por computadora ha detectado con confianza del %s%% el producto con código: %s en el video.", pct, label)
		prompt = "He subido un video. "
		if label != UnknownLabel {
			prompt += "Identifica el producto. "
		}
		prompt += "Quiero saber qué producto es y sus detalles."
		return prompt, visionContext
	}
	visionContext = fmt.Sprintf("El sistema de visión por computadora ha detectado con confianza del %s%% el producto con código: %s.", pct, label)
	prompt = "He subido una imagen. "
	if label != UnknownLabel {
		prompt += "Identifica el producto de la imagen. "
	}
	prompt += "Quiero saber qué producto es y sus detalles."
	return prompt, visionContext
}

// Package assistant orchestrates one conversation: it assembles the system
// instruction from the inventory snapshot, maps the message log into model
// turns, performs the completion call and appends the reply.
package assistant

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/marcoxskii/ProyectoFinalAprendizajeAut/internal/chat"
	"github.com/marcoxskii/ProyectoFinalAprendizajeAut/internal/inventory"
	"github.com/marcoxskii/ProyectoFinalAprendizajeAut/internal/llm"
)

// LLM produces one reply for an ordered list of chat turns.
type LLM interface {
	Complete(ctx context.Context, turns []llm.Turn) (string, error)
}

// Narrator speaks a bot reply when automatic narration is enabled.
type Narrator interface {
	NarrateIfEnabled(ctx context.Context, text string)
}

// Greeting seeds the conversation when the widget opens.
const Greeting = "¡Hola! Soy TecnoBot. Estoy aquí para ayudarte a elegir tu laptop ideal de nuestro catálogo exclusivo. ¿Qué necesitas?"

// FallbackReply is appended when the completion call fails for any reason.
const FallbackReply = "Error de conexión. Intenta de nuevo."

const visionDataPrefix = "\n\n[DATOS DEL SISTEMA DE VISIÓN]: "

const systemTemplate = `Eres 'TecnoBot', el asistente virtual experto de la tienda 'TecnoCuenca'.

INVENTARIO DISPONIBLE (ÚNICAMENTE ESTOS PRODUCTOS):
%s

TUS OBJETIVOS:
1. Asesorar al cliente basándote EXCLUSIVAMENTE en el inventario de arriba.
2. Responder de forma natural, amable y en español.
3. Si preguntan por algo que no está, di que no lo tienes.
4. Si hay detección visual, confirma el producto y da detalles.`

// Orchestrator coordinates completion round trips for a single widget.
type Orchestrator struct {
	store     *chat.Store
	llm       LLM
	narrator  Narrator
	inventory []inventory.Item

	// sendMu serializes completion round trips so replies append in the
	// order sends were issued, even if callers overlap.
	sendMu sync.Mutex
}

// New wires an orchestrator over the shared message log and the read-only
// inventory snapshot.
func New(store *chat.Store, model LLM, narrator Narrator, inv []inventory.Item) *Orchestrator {
	return &Orchestrator{store: store, llm: model, narrator: narrator, inventory: inv}
}

// SendText appends the user's typed (or dictated) text as a message and
// requests a reply for it. Blank input is ignored.
func (o *Orchestrator) SendText(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	// History is snapshotted before the new turn so the prompt enters the
	// request exactly once, as the final user turn.
	turns := o.historyTurns()
	o.store.Append(chat.RoleUser, text, nil)
	return o.complete(ctx, turns, text, "")
}

// Send requests a reply for promptText without appending it as a visible
// message; the vision context, when present, rides along as a suffix of the
// final user turn. Used by the media capture flow, whose visible message is
// the caption it already appended.
func (o *Orchestrator) Send(ctx context.Context, promptText, visionContext string) error {
	return o.complete(ctx, o.historyTurns(), promptText, visionContext)
}

func (o *Orchestrator) complete(ctx context.Context, history []llm.Turn, prompt, visionContext string) error {
	o.sendMu.Lock()
	defer o.sendMu.Unlock()

	content := prompt
	if visionContext != "" {
		content += visionDataPrefix + visionContext
	}
	turns := make([]llm.Turn, 0, len(history)+2)
	turns = append(turns, llm.Turn{Role: "system", Content: o.systemInstruction()})
	turns = append(turns, history...)
	turns = append(turns, llm.Turn{Role: "user", Content: content})

	reply, err := o.llm.Complete(ctx, turns)
	if err != nil {
		// Non-fatal: the conversation continues as text.
		log.Printf("assistant: completion failed: %v", err)
		o.store.Append(chat.RoleBot, FallbackReply, nil)
		return nil
	}
	m := o.store.Append(chat.RoleBot, reply, nil)
	if o.narrator != nil {
		// Narration outlives the originating request.
		o.narrator.NarrateIfEnabled(context.Background(), m.Text)
	}
	return nil
}

// systemInstruction embeds the full inventory snapshot, one line per item.
func (o *Orchestrator) systemInstruction() string {
	var b strings.Builder
	for i, it := range o.inventory {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "- %s %s (Código Oficial: %s) | Precio: $%.2f", it.Brand, it.Description, it.Code, it.Price)
	}
	return fmt.Sprintf(systemTemplate, b.String())
}

// historyTurns maps the message log to model turns, excluding pure media
// artifacts. The orchestrator never inspects media fields beyond that.
func (o *Orchestrator) historyTurns() []llm.Turn {
	msgs := o.store.List()
	turns := make([]llm.Turn, 0, len(msgs))
	for _, m := range msgs {
		if m.Kind == chat.KindMediaArtifact {
			continue
		}
		role := "assistant"
		if m.Role == chat.RoleUser {
			role = "user"
		}
		turns = append(turns, llm.Turn{Role: role, Content: m.Text})
	}
	return turns
}

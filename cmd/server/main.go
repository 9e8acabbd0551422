package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marcoxskii/ProyectoFinalAprendizajeAut/internal/assistant"
	"github.com/marcoxskii/ProyectoFinalAprendizajeAut/internal/chat"
	"github.com/marcoxskii/ProyectoFinalAprendizajeAut/internal/config"
	"github.com/marcoxskii/ProyectoFinalAprendizajeAut/internal/dictation"
	"github.com/marcoxskii/ProyectoFinalAprendizajeAut/internal/httpserver"
	"github.com/marcoxskii/ProyectoFinalAprendizajeAut/internal/inventory"
	"github.com/marcoxskii/ProyectoFinalAprendizajeAut/internal/llm"
	"github.com/marcoxskii/ProyectoFinalAprendizajeAut/internal/playback"
	"github.com/marcoxskii/ProyectoFinalAprendizajeAut/internal/tts"
	"github.com/marcoxskii/ProyectoFinalAprendizajeAut/internal/vision"
)

func main() {
	// Include sub-second precision in all log timestamps
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	cfg := config.Load()

	// Inventory is loaded exactly once; the snapshot is read-only from
	// here on and never empty thanks to the embedded fallback.
	loadCtx, loadCancel := context.WithTimeout(context.Background(), 15*time.Second)
	snapshot := inventory.NewLoader(cfg.BackendBaseURL).Load(loadCtx)
	loadCancel()

	store := chat.NewStore()
	store.Append(chat.RoleBot, assistant.Greeting, nil)

	var synth playback.Synthesizer
	if cfg.TTSProvider == "deepgram" {
		synth = tts.NewDeepgramClient(cfg.DeepgramKey, cfg.DeepgramModelID)
	} else {
		synth = tts.NewElevenLabsClient(cfg.ElevenLabsKey, cfg.ElevenLabsVoiceID)
	}
	sink := playback.NewBufferSink()
	pb := playback.New(synth, sink)

	model := llm.NewClient(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModelID)
	orch := assistant.New(store, model, pb, snapshot)

	dict := dictation.NewController()
	vis := vision.NewAdapter(store, vision.NewClient(cfg.BackendBaseURL), orch, dict, pb)

	srv := httpserver.New(httpserver.Deps{
		Store:        store,
		Orchestrator: orch,
		Playback:     pb,
		Sink:         sink,
		Vision:       vis,
		Dictation:    dict,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           srv.Echo,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in background
	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("server listening on %s", cfg.HTTPAddress)
		serverErrors <- server.ListenAndServe()
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	case sig := <-sigChan:
		log.Printf("shutdown signal received: %v", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = server.Close()
	}
}

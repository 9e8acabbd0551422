package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds application configuration, injected once at construction.
// No component reads environment state after this.
type Config struct {
	HTTPAddress       string
	BackendBaseURL    string
	OpenAIKey         string
	OpenAIBaseURL     string
	OpenAIModelID     string
	TTSProvider       string
	ElevenLabsKey     string
	ElevenLabsVoiceID string
	DeepgramKey       string
	DeepgramModelID   string
}

// Load reads environment variables and returns Config with sane defaults.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded")
	}

	addr := os.Getenv("HTTP_ADDRESS")
	if addr == "" {
		addr = ":8080"
	}

	backend := os.Getenv("BACKEND_BASE_URL")
	if backend == "" {
		backend = "http://localhost:8000"
	}

	openAIKey := os.Getenv("OPENAI_API_KEY")
	if openAIKey == "" {
		log.Println("Warning: OPENAI_API_KEY not set - the assistant will answer with its fallback message")
	}
	openAIBase := os.Getenv("OPENAI_BASE_URL")
	openAIModel := os.Getenv("OPENAI_MODEL_ID")
	if openAIModel == "" {
		openAIModel = "gpt-4o-mini"
	}

	provider := os.Getenv("TTS_PROVIDER")
	if provider == "" {
		provider = "elevenlabs"
	}

	elevenKey := os.Getenv("ELEVENLABS_API_KEY")
	if elevenKey == "" && provider == "elevenlabs" {
		log.Println("Warning: ELEVENLABS_API_KEY not set - narration will not work")
	}
	voiceID := os.Getenv("ELEVENLABS_VOICE_ID")
	if voiceID == "" {
		// Rachel, the widget's fixed voice.
		voiceID = "21m00Tcm4TlvDq8ikWAM"
	}

	deepgramKey := os.Getenv("DEEPGRAM_API_KEY")
	if deepgramKey == "" && provider == "deepgram" {
		log.Println("Warning: DEEPGRAM_API_KEY not set - narration will not work")
	}
	deepgramModel := os.Getenv("DEEPGRAM_MODEL_ID")

	log.Printf("config: HTTP_ADDRESS=%s TTS_PROVIDER=%s", addr, provider)
	return Config{
		HTTPAddress:       addr,
		BackendBaseURL:    backend,
		OpenAIKey:         openAIKey,
		OpenAIBaseURL:     openAIBase,
		OpenAIModelID:     openAIModel,
		TTSProvider:       provider,
		ElevenLabsKey:     elevenKey,
		ElevenLabsVoiceID: voiceID,
		DeepgramKey:       deepgramKey,
		DeepgramModelID:   deepgramModel,
	}
}

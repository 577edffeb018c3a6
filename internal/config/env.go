package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Secrets holds environment-supplied API keys. None of them are persisted
// in the JSON config.
type Secrets struct {
	// GeminiAPIKey authenticates inference requests. Required.
	GeminiAPIKey string
	// AssemblyAIKey authenticates the streaming recognizer. Optional;
	// missing means speech input is unavailable.
	AssemblyAIKey string
	// DeepgramKey authenticates the streaming synthesizer. Optional;
	// missing means speech output is unavailable.
	DeepgramKey string
}

// LoadSecrets reads API keys from the environment, loading a .env file
// first when present.
func LoadSecrets() Secrets {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: could not load .env file: %v", err)
	}

	s := Secrets{
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		AssemblyAIKey: os.Getenv("ASSEMBLYAI_API_KEY"),
		DeepgramKey:   os.Getenv("DEEPGRAM_API_KEY"),
	}

	if s.GeminiAPIKey == "" {
		log.Println("Warning: GEMINI_API_KEY not set - inference will not work")
	}

	return s
}

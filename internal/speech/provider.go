package speech

import (
	"fmt"
	"io"

	"github.com/diogo/voxchat/internal/errors"
	"github.com/diogo/voxchat/internal/speech/assemblyai"
	"github.com/diogo/voxchat/internal/speech/deepgram"
)

// Config describes what the host makes available for speech support.
type Config struct {
	// AssemblyAIKey authenticates the streaming recognizer. Empty means
	// recognition is unavailable.
	AssemblyAIKey string
	// DeepgramKey authenticates the streaming synthesizer. Empty means
	// synthesis is unavailable.
	DeepgramKey string
	// Language is the recognition language code.
	Language string
	// VoiceModel is the synthesis voice model name.
	VoiceModel string
	// OpenSource opens the host microphone PCM stream. Each listening
	// session gets its own stream and the recognizer closes it on Stop.
	// Nil means recognition is unavailable.
	OpenSource func() (io.ReadCloser, error)
	// Sink receives synthesized PCM for playback. Nil means synthesis is
	// unavailable.
	Sink AudioSink
}

// HostProvider resolves capabilities from the host configuration: remote
// speech services for the engines, local PCM streams for capture and
// playback.
type HostProvider struct {
	cfg Config
}

// NewHostProvider creates a Provider for the given host configuration.
func NewHostProvider(cfg Config) *HostProvider {
	return &HostProvider{cfg: cfg}
}

// Recognizer returns a streaming recognizer, or a CapabilityError when the
// host lacks a capture stream or recognition credentials.
func (p *HostProvider) Recognizer() (Recognizer, error) {
	if p.cfg.AssemblyAIKey == "" {
		return nil, errors.NewCapabilityError(errors.CapabilityRecognition, "ASSEMBLYAI_API_KEY is not set")
	}
	if p.cfg.OpenSource == nil {
		return nil, errors.NewCapabilityError(errors.CapabilityRecognition, "no audio input configured (set voice.input_pipe)")
	}
	source, err := p.cfg.OpenSource()
	if err != nil {
		return nil, errors.NewCapabilityError(errors.CapabilityRecognition, fmt.Sprintf("cannot open audio input: %v", err))
	}
	return assemblyai.NewRecognizer(p.cfg.AssemblyAIKey, source,
		assemblyai.WithLanguage(p.cfg.Language)), nil
}

// Synthesizer returns a streaming synthesizer, or a CapabilityError when
// the host lacks a playback stream or synthesis credentials.
func (p *HostProvider) Synthesizer() (Synthesizer, error) {
	if p.cfg.DeepgramKey == "" {
		return nil, errors.NewCapabilityError(errors.CapabilitySynthesis, "DEEPGRAM_API_KEY is not set")
	}
	if p.cfg.Sink == nil {
		return nil, errors.NewCapabilityError(errors.CapabilitySynthesis, "no audio output configured (set voice.output_pipe)")
	}
	return deepgram.NewSynthesizer(p.cfg.DeepgramKey, p.cfg.Sink,
		deepgram.WithVoiceModel(p.cfg.VoiceModel)), nil
}

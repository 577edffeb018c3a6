// Package deepgram synthesizes speech through the Deepgram Aura streaming
// API and writes the resulting PCM to an audio sink.
package deepgram

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	msginterfaces "github.com/deepgram/deepgram-go-sdk/pkg/api/speak/v1/websocket/interfaces"
	clientinterfaces "github.com/deepgram/deepgram-go-sdk/pkg/client/interfaces/v1"
	"github.com/deepgram/deepgram-go-sdk/pkg/client/speak"

	voxerrors "github.com/diogo/voxchat/internal/errors"
)

const (
	defaultVoiceModel = "aura-2-thalia-en"
	sampleRate        = 48000
	pcmEncoding       = "linear16"
	idleWindow        = 400 * time.Millisecond
	utteranceDeadline = 60 * time.Second
)

// AudioSink receives synthesized 48kHz s16le PCM. Reset discards any audio
// buffered for a cancelled utterance.
type AudioSink interface {
	WritePCM(pcm []byte)
	Reset()
}

// Synthesizer speaks text through Deepgram. At most one utterance plays at a
// time; a new Speak cancels whatever is in flight.
type Synthesizer struct {
	apiKey     string
	sink       AudioSink
	voiceModel string

	mu     sync.Mutex
	cancel context.CancelFunc

	done chan error
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithVoiceModel selects the Aura voice used for synthesis.
func WithVoiceModel(model string) Option {
	return func(s *Synthesizer) {
		if model != "" {
			s.voiceModel = model
		}
	}
}

// NewSynthesizer creates a synthesis session writing PCM to sink.
func NewSynthesizer(apiKey string, sink AudioSink, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		apiKey:     apiKey,
		sink:       sink,
		voiceModel: defaultVoiceModel,
		done:       make(chan error, 4),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Done returns the channel that receives one value per utterance: nil when
// playback completed or was cancelled, an error otherwise.
func (s *Synthesizer) Done() <-chan error { return s.done }

// Speak starts synthesizing text, cancelling any utterance still in flight.
// Empty text is ignored.
func (s *Synthesizer) Speak(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	if s.apiKey == "" {
		return voxerrors.NewSynthesisError("Deepgram API key is empty", nil)
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	uttCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	s.sink.Reset()
	go s.stream(uttCtx, text)
	return nil
}

// Stop cancels the current utterance. Safe to call multiple times and when
// nothing is playing.
func (s *Synthesizer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.sink.Reset()
}

// stream runs one utterance to completion and reports the outcome on done.
func (s *Synthesizer) stream(ctx context.Context, text string) {
	s.finish(s.streamOnce(ctx, text))
}

func (s *Synthesizer) streamOnce(ctx context.Context, text string) error {
	options := &clientinterfaces.WSSpeakOptions{
		Model:      s.voiceModel,
		Encoding:   pcmEncoding,
		SampleRate: sampleRate,
	}

	var lastRecvUnix int64
	var seenAudio int32

	cb := &speakCallback{onBinary: func(data []byte) error {
		if len(data) == 0 {
			return nil
		}
		atomic.StoreInt64(&lastRecvUnix, time.Now().UnixNano())
		atomic.StoreInt32(&seenAudio, 1)
		if ctx.Err() == nil {
			s.sink.WritePCM(data)
		}
		return nil
	}}

	dg, err := speak.NewWSUsingCallback(ctx, s.apiKey, &clientinterfaces.ClientOptions{}, options, cb)
	if err != nil {
		return voxerrors.NewSynthesisError("failed to create synthesis client", err)
	}

	var stopOnce sync.Once
	stopClient := func() { stopOnce.Do(func() { dg.Stop() }) }
	defer stopClient()

	if ok := dg.Connect(); !ok {
		return voxerrors.NewSynthesisError("failed to connect to synthesis service", nil)
	}

	if err := dg.SpeakWithText(text); err != nil {
		return voxerrors.NewSynthesisError("failed to submit text for synthesis", err)
	}
	if err := dg.Flush(); err != nil {
		return voxerrors.NewSynthesisError("failed to flush synthesis stream", err)
	}

	// The stream has no explicit end-of-audio marker, so treat an idle
	// window after the last chunk as completion.
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.Now().Add(utteranceDeadline)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if atomic.LoadInt32(&seenAudio) == 1 {
				last := time.Unix(0, atomic.LoadInt64(&lastRecvUnix))
				if time.Since(last) > idleWindow {
					return nil
				}
			}
			if time.Now().After(deadline) {
				return voxerrors.NewSynthesisError("synthesis timed out", nil)
			}
		}
	}
}

func (s *Synthesizer) finish(err error) {
	select {
	case s.done <- err:
	default:
	}
}

type speakCallback struct{ onBinary func([]byte) error }

func (c *speakCallback) Open(*msginterfaces.OpenResponse) error         { return nil }
func (c *speakCallback) Metadata(*msginterfaces.MetadataResponse) error { return nil }
func (c *speakCallback) Flush(*msginterfaces.FlushedResponse) error     { return nil }
func (c *speakCallback) Clear(*msginterfaces.ClearedResponse) error     { return nil }
func (c *speakCallback) Close(*msginterfaces.CloseResponse) error       { return nil }
func (c *speakCallback) Warning(*msginterfaces.WarningResponse) error   { return nil }
func (c *speakCallback) Error(*msginterfaces.ErrorResponse) error       { return nil }
func (c *speakCallback) UnhandledEvent([]byte) error                    { return nil }
func (c *speakCallback) Binary(byMsg []byte) error {
	if c.onBinary != nil {
		return c.onBinary(byMsg)
	}
	return nil
}

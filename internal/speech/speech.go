// Package speech defines the host speech capabilities used by the chat
// session: continuous recognition of voice input and cancellable synthesis
// of voice output. The engines themselves are external services; this
// package only models their start/stop/cancel/event semantics.
package speech

import (
	"context"
	"io"
)

// Recognizer is a continuous, interim-results speech recognition session.
//
// While active, every value on Transcripts is the full cumulative transcript
// of the current utterance: consumers overwrite their input buffer with it
// rather than appending. Runtime failures are reported on Errors; after an
// error the session is no longer listening.
type Recognizer interface {
	// Start begins streaming recognition. Starting an already-running
	// session is a no-op.
	Start(ctx context.Context) error
	// Stop ends the session. Idempotent and safe to call on teardown.
	Stop()
	Transcripts() <-chan string
	Errors() <-chan error
}

// Synthesizer plays synthesized speech, at most one utterance at a time.
type Synthesizer interface {
	// Speak cancels any in-progress utterance and plays text. Completion or
	// failure of the utterance is reported on Done.
	Speak(ctx context.Context, text string) error
	// Stop cancels the active utterance, if any. Idempotent.
	Stop()
	// Done emits one value per utterance: nil on natural completion, an
	// error otherwise. A cancelled utterance emits nil.
	Done() <-chan error
}

// AudioSink consumes synthesized PCM audio and performs delivery to the
// host's playback capability. Implementations should buffer internally.
type AudioSink interface {
	WritePCM(pcm []byte)
	// Reset drops any queued audio immediately (used when an utterance is
	// cancelled).
	Reset()
}

// Provider resolves the host's speech capabilities. An unavailable
// capability yields a CapabilityError from the errors package; callers
// surface it to the user and leave session state untouched.
type Provider interface {
	Recognizer() (Recognizer, error)
	Synthesizer() (Synthesizer, error)
}

// WriterSink is an AudioSink writing PCM to an io.Writer, typically a pipe
// drained by the host's playback process.
type WriterSink struct {
	w io.Writer
}

// NewWriterSink creates an AudioSink backed by w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) WritePCM(pcm []byte) {
	_, _ = s.w.Write(pcm)
}

// Reset is a no-op: written audio is already handed to the host process.
func (s *WriterSink) Reset() {}

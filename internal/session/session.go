package session

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/diogo/voxchat/internal/speech"
)

// Inferencer produces the assistant reply for one user turn.
type Inferencer interface {
	Generate(ctx context.Context, userText string) (string, error)
}

// Session drives a conversation: it owns the State, submits turns to the
// Inferencer, and bridges the host speech capabilities into state events.
// All methods are safe for concurrent use.
type Session struct {
	infer    Inferencer
	provider speech.Provider

	notify       func(State)
	alert        func(error)
	speechText   func(string) string
	speakReplies bool

	mu         sync.Mutex
	state      State
	recognizer speech.Recognizer
	listenStop chan struct{}
	synth      speech.Synthesizer
	pending    int
	closed     chan struct{}
}

// Option configures a Session.
type Option func(*Session)

// WithNotifier registers a callback invoked with a state snapshot after
// every transition. The callback runs on the transitioning goroutine and
// must not call back into the Session.
func WithNotifier(fn func(State)) Option {
	return func(s *Session) { s.notify = fn }
}

// WithAlerts registers a callback for speech problems that surface outside
// a direct call, such as an unavailable synthesizer when a reply should be
// voiced. The callback runs on the reporting goroutine.
func WithAlerts(fn func(error)) Option {
	return func(s *Session) { s.alert = fn }
}

// WithSpeechText sets a transform applied to reply text before it is
// spoken, typically a markdown stripper.
func WithSpeechText(fn func(string) string) Option {
	return func(s *Session) { s.speechText = fn }
}

// WithSpeakReplies controls whether assistant replies are voiced. Defaults
// to true.
func WithSpeakReplies(speak bool) Option {
	return func(s *Session) { s.speakReplies = speak }
}

// NewSession creates a Session for the given inference client and speech
// capability provider.
func NewSession(infer Inferencer, provider speech.Provider, opts ...Option) *Session {
	s := &Session{
		infer:        infer,
		provider:     provider,
		speakReplies: true,
		closed:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a snapshot of the current conversation state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// apply runs one transition and notifies with the resulting snapshot.
func (s *Session) apply(e Event) State {
	s.mu.Lock()
	s.state = Apply(s.state, e)
	snapshot := s.state
	s.mu.Unlock()
	if s.notify != nil {
		s.notify(snapshot)
	}
	return snapshot
}

// SetInput replaces the draft text.
func (s *Session) SetInput(text string) {
	s.apply(InputChanged{Text: text})
}

// Submit sends one turn to the inference client and blocks until the reply
// is recorded. Empty input is ignored, as is a submit while a previous turn
// is still loading. On any failure the fixed fallback reply is recorded
// instead. If recognition is active it is stopped first, and the reply is
// spoken when voice output is enabled and available.
func (s *Session) Submit(ctx context.Context, text string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}

	s.mu.Lock()
	if s.state.Loading {
		s.mu.Unlock()
		return
	}
	s.state = Apply(s.state, SubmitStarted{Text: trimmed})
	snapshot := s.state
	s.mu.Unlock()
	if s.notify != nil {
		s.notify(snapshot)
	}

	s.StopListening()

	reply, err := s.infer.Generate(ctx, trimmed)
	if err != nil {
		s.apply(ResponseFailed{})
		s.speak(ctx, FallbackText)
		return
	}
	s.apply(ResponseReceived{Text: reply})
	s.speak(ctx, reply)
}

// ToggleListening starts recognition if idle and stops it if active. A
// CapabilityError is returned without changing state when the host cannot
// provide recognition.
func (s *Session) ToggleListening(ctx context.Context) error {
	s.mu.Lock()
	listening := s.state.Listening
	s.mu.Unlock()
	if listening {
		s.StopListening()
		return nil
	}
	return s.StartListening(ctx)
}

// StartListening begins continuous voice recognition. Transcript events
// overwrite the draft with the full cumulative text. A runtime recognition
// failure stops listening and leaves the transcript so far in the draft.
func (s *Session) StartListening(ctx context.Context) error {
	s.mu.Lock()
	if s.state.Listening {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	rec, err := s.provider.Recognizer()
	if err != nil {
		return err
	}
	if err := rec.Start(ctx); err != nil {
		rec.Stop()
		return err
	}

	stop := make(chan struct{})
	s.mu.Lock()
	s.recognizer = rec
	s.listenStop = stop
	s.mu.Unlock()

	s.apply(ListeningStarted{})
	go s.pumpRecognition(rec, stop)
	return nil
}

// pumpRecognition forwards recognizer events into state transitions until
// listening stops or the recognizer fails.
func (s *Session) pumpRecognition(rec speech.Recognizer, stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-s.closed:
			return
		case t := <-rec.Transcripts():
			if t != "" {
				s.apply(TranscriptReceived{Text: t})
			}
		case err := <-rec.Errors():
			log.Printf("recognition error: %v", err)
			rec.Stop()
			s.mu.Lock()
			if s.listenStop == stop {
				s.recognizer = nil
				s.listenStop = nil
			}
			s.mu.Unlock()
			s.apply(RecognitionFailed{})
			return
		}
	}
}

// StopListening ends voice recognition. Safe to call when not listening.
func (s *Session) StopListening() {
	s.mu.Lock()
	rec := s.recognizer
	stop := s.listenStop
	s.recognizer = nil
	s.listenStop = nil
	listening := s.state.Listening
	s.mu.Unlock()

	if rec != nil {
		rec.Stop()
	}
	if stop != nil {
		close(stop)
	}
	if listening {
		s.apply(ListeningStopped{})
	}
}

// speak voices text when output is enabled and the host provides synthesis.
// Speech failures are reported through the alert callback; the reply is
// already recorded in the transcript either way.
func (s *Session) speak(ctx context.Context, text string) {
	if !s.speakReplies {
		return
	}

	s.mu.Lock()
	synth := s.synth
	s.mu.Unlock()

	if synth == nil {
		resolved, err := s.provider.Synthesizer()
		if err != nil {
			s.alertErr(err)
			return
		}
		s.mu.Lock()
		if s.synth == nil {
			s.synth = resolved
			go s.watchSpeech(resolved)
		}
		synth = s.synth
		s.mu.Unlock()
	}

	spoken := text
	if s.speechText != nil {
		spoken = s.speechText(text)
	}
	if spoken == "" {
		return
	}

	// The utterance counts as in flight before the synthesizer sees it: a
	// completion on Done must find pending already incremented.
	s.mu.Lock()
	s.pending++
	s.mu.Unlock()
	s.apply(SpeakingStarted{})

	if err := synth.Speak(ctx, spoken); err != nil {
		s.alertErr(err)
		s.mu.Lock()
		if s.pending > 0 {
			s.pending--
		}
		idle := s.pending == 0
		s.mu.Unlock()
		if idle {
			s.apply(SpeakingStopped{})
		}
	}
}

func (s *Session) alertErr(err error) {
	if s.alert != nil {
		s.alert(err)
	}
}

// watchSpeech drains utterance completions and clears the speaking flag
// when nothing is left in flight.
func (s *Session) watchSpeech(synth speech.Synthesizer) {
	for {
		select {
		case <-s.closed:
			return
		case <-synth.Done():
			s.mu.Lock()
			if s.pending > 0 {
				s.pending--
			}
			idle := s.pending == 0
			s.mu.Unlock()
			if idle {
				s.apply(SpeakingStopped{})
			}
		}
	}
}

// StopSpeaking cancels the current utterance. Safe to call when nothing is
// playing.
func (s *Session) StopSpeaking() {
	s.mu.Lock()
	synth := s.synth
	s.pending = 0
	speaking := s.state.Speaking
	s.mu.Unlock()

	if synth != nil {
		synth.Stop()
	}
	if speaking {
		s.apply(SpeakingStopped{})
	}
}

// Close releases speech resources. The Session must not be used afterwards.
func (s *Session) Close() {
	s.StopListening()
	s.StopSpeaking()

	s.mu.Lock()
	select {
	case <-s.closed:
	default:
		close(s.closed)
	}
	s.mu.Unlock()
}

package speech

import (
	"context"
	"sync"
)

// FakeRecognizer is a scripted Recognizer implementation for testing.
type FakeRecognizer struct {
	StartErr error

	mu          sync.Mutex
	started     bool
	StartCalls  int
	StopCalls   int
	transcripts chan string
	errs        chan error
}

// Ensure FakeRecognizer implements Recognizer
var _ Recognizer = (*FakeRecognizer)(nil)

// NewFakeRecognizer creates a FakeRecognizer with buffered event channels.
func NewFakeRecognizer() *FakeRecognizer {
	return &FakeRecognizer{
		transcripts: make(chan string, 16),
		errs:        make(chan error, 4),
	}
}

func (f *FakeRecognizer) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.StartCalls++
	if f.StartErr != nil {
		return f.StartErr
	}
	f.started = true
	return nil
}

func (f *FakeRecognizer) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.StopCalls++
	f.started = false
}

func (f *FakeRecognizer) Transcripts() <-chan string { return f.transcripts }
func (f *FakeRecognizer) Errors() <-chan error       { return f.errs }

// EmitTranscript scripts a cumulative transcript event.
func (f *FakeRecognizer) EmitTranscript(text string) {
	f.transcripts <- text
}

// EmitError scripts a runtime recognition error.
func (f *FakeRecognizer) EmitError(err error) {
	f.errs <- err
}

// Started reports whether the session is currently active.
func (f *FakeRecognizer) Started() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started
}

// FakeSynthesizer is a scripted Synthesizer implementation for testing.
type FakeSynthesizer struct {
	SpeakErr error

	mu        sync.Mutex
	Spoken    []string
	StopCalls int
	done      chan error
}

// Ensure FakeSynthesizer implements Synthesizer
var _ Synthesizer = (*FakeSynthesizer)(nil)

// NewFakeSynthesizer creates a FakeSynthesizer with a buffered done channel.
func NewFakeSynthesizer() *FakeSynthesizer {
	return &FakeSynthesizer{done: make(chan error, 4)}
}

func (f *FakeSynthesizer) Speak(ctx context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SpeakErr != nil {
		return f.SpeakErr
	}
	f.Spoken = append(f.Spoken, text)
	return nil
}

func (f *FakeSynthesizer) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.StopCalls++
}

func (f *FakeSynthesizer) Done() <-chan error { return f.done }

// Finish scripts completion of the current utterance.
func (f *FakeSynthesizer) Finish(err error) {
	f.done <- err
}

// SpokenTexts returns a copy of everything spoken so far.
func (f *FakeSynthesizer) SpokenTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.Spoken))
	copy(out, f.Spoken)
	return out
}

// FakeProvider resolves fake capabilities, or scripted capability errors.
type FakeProvider struct {
	Rec      Recognizer
	RecErr   error
	Synth    Synthesizer
	SynthErr error
}

// Ensure FakeProvider implements Provider
var _ Provider = (*FakeProvider)(nil)

func (f *FakeProvider) Recognizer() (Recognizer, error) {
	if f.RecErr != nil {
		return nil, f.RecErr
	}
	return f.Rec, nil
}

func (f *FakeProvider) Synthesizer() (Synthesizer, error) {
	if f.SynthErr != nil {
		return nil, f.SynthErr
	}
	return f.Synth, nil
}
